package bayesnet

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
)

// Common sentinel errors
var (
	ErrInvalidStates   = errors.New("invalid state definition")
	ErrUnknownState    = errors.New("unknown state")
	ErrStateInUse      = errors.New("state is passed by a cross-network link")
	ErrNotInterval     = errors.New("only interval nodes can be simulated")
	ErrSimulated       = errors.New("node is simulated and has no states")
	ErrNodeRemoved     = errors.New("node has been removed")
	ErrDataSetRemoved  = errors.New("data set has been removed")
	ErrTableParents    = errors.New("partition parents must be distinct parents of the node")
	ErrInvalidID       = errors.New("invalid identifier")
	ErrForeignNode     = errors.New("node belongs to another model")
	ErrEngineRefused   = errors.New("engine refused the edge")
	ErrRegistryDrift   = errors.New("registry and entity disagree")
	ErrUnknownLinkKind = errors.New("unknown link kind")
)

// LinkReason says why a link request was rejected.
type LinkReason int

const (
	ReasonSelfLoop LinkReason = iota + 1
	ReasonDuplicate
	ReasonCycle
	ReasonInputOccupied
	ReasonOutputConflict
	ReasonKindRequired
	ReasonKindNotAllowed
	ReasonStatePassedMismatch
	ReasonUnknownPassedState
	ReasonIncompatible
	ReasonForeignNode
	ReasonRemovedNode
	ReasonEngine
)

func (r LinkReason) String() string {
	switch r {
	case ReasonSelfLoop:
		return "self-loop"
	case ReasonDuplicate:
		return "duplicate link"
	case ReasonCycle:
		return "would create a loop"
	case ReasonInputOccupied:
		return "target already has a cross-network input"
	case ReasonOutputConflict:
		return "target is already a cross-network output"
	case ReasonKindRequired:
		return "cross-network link needs a message type"
	case ReasonKindNotAllowed:
		return "message type given for a same-network link"
	case ReasonStatePassedMismatch:
		return "passed state must be given for State links and only for them"
	case ReasonUnknownPassedState:
		return "passed state is not a state of the source"
	case ReasonIncompatible:
		return "incompatible node types"
	case ReasonForeignNode:
		return "nodes belong to another model"
	case ReasonRemovedNode:
		return "node has been removed"
	case ReasonEngine:
		return "inference engine failure"
	default:
		return "unknown"
	}
}

// Label is the metric label for the reason.
func (r LinkReason) Label() string {
	switch r {
	case ReasonSelfLoop:
		return "self_loop"
	case ReasonDuplicate:
		return "duplicate"
	case ReasonCycle:
		return "cycle"
	case ReasonInputOccupied:
		return "input_occupied"
	case ReasonOutputConflict:
		return "output_conflict"
	case ReasonKindRequired:
		return "kind_required"
	case ReasonKindNotAllowed:
		return "kind_not_allowed"
	case ReasonStatePassedMismatch:
		return "state_passed_mismatch"
	case ReasonUnknownPassedState:
		return "unknown_passed_state"
	case ReasonIncompatible:
		return "incompatible"
	case ReasonForeignNode:
		return "foreign_node"
	case ReasonRemovedNode:
		return "removed_node"
	case ReasonEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// DuplicateIDError reports an identifier collision. It is an expected outcome:
// the caller picks another identifier or skips the entity.
type DuplicateIDError struct {
	Op        string
	Entity    string // "network", "node", "dataset"
	Container string
	ID        string
	Cause     error
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s: %s %q already exists in %s", e.Op, e.Entity, e.Entity, e.ID, e.Container)
}

func (e *DuplicateIDError) Unwrap() error {
	return e.Cause
}

// LinkError reports a structural rule violation or a failed link materialization.
type LinkError struct {
	Op     string
	From   string // network-qualified
	To     string
	Reason LinkReason
	Detail string
	Cause  error
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("%s %s -> %s: %s", e.Op, e.From, e.To, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LinkError) Unwrap() error {
	return e.Cause
}

// NodeError reports an invalid table or state definition, or an operation on a
// node that cannot accept it.
type NodeError struct {
	Op      string
	Network string
	Node    string
	Context string
	Cause   error
}

func (e *NodeError) Error() string {
	subject := e.Network
	if e.Node != "" {
		subject += "." + e.Node
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, subject, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

func (e *NodeError) Unwrap() error {
	return e.Cause
}

// EngineError wraps a failure returned by the inference engine.
type EngineError struct {
	Call  string
	Cause error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Call, e.Cause)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// InternalError marks a broken internal invariant. Callers are not expected to
// recover from it.
type InternalError struct {
	Op      string
	Context string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("internal error in %s (%s): %v", e.Op, e.Context, e.Cause)
	}
	return fmt.Sprintf("internal error in %s: %v", e.Op, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building the errors of this package.
type ErrorBuilder struct {
	op      string
	network string
	node    string
	from    string
	to      string
	reason  LinkReason
	context string
	cause   error
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{op: op}
}

// Node sets the subject node.
func (b *ErrorBuilder) Node(network, node string) *ErrorBuilder {
	b.network = network
	b.node = node
	return b
}

// Network sets the subject network.
func (b *ErrorBuilder) Network(network string) *ErrorBuilder {
	b.network = network
	return b
}

// Link sets the endpoints of a link, network-qualified.
func (b *ErrorBuilder) Link(from, to string) *ErrorBuilder {
	b.from = from
	b.to = to
	return b
}

// Reason sets why a link was rejected.
func (b *ErrorBuilder) Reason(r LinkReason) *ErrorBuilder {
	b.reason = r
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// LinkErr returns a *LinkError.
func (b *ErrorBuilder) LinkErr() error {
	return &LinkError{Op: b.op, From: b.from, To: b.to, Reason: b.reason, Detail: b.context, Cause: b.cause}
}

// NodeErr returns a *NodeError.
func (b *ErrorBuilder) NodeErr() error {
	return &NodeError{Op: b.op, Network: b.network, Node: b.node, Context: b.context, Cause: b.cause}
}

// Internal returns an *InternalError.
func (b *ErrorBuilder) Internal() error {
	return &InternalError{Op: b.op, Context: b.context, Cause: b.cause}
}

// registryErr converts an identity error. Collisions become *DuplicateIDError,
// anything else a *NodeError on the container.
func registryErr(op, entity, container string, err error) error {
	var ie *identity.Error
	if errors.As(err, &ie) && errors.Is(err, identity.ErrDuplicateID) {
		return &DuplicateIDError{Op: op, Entity: entity, Container: container, ID: ie.ID, Cause: err}
	}
	return &NodeError{Op: op, Network: container, Cause: err}
}

// IsDuplicateID reports whether err is an identifier collision.
func IsDuplicateID(err error) bool {
	var d *DuplicateIDError
	return errors.As(err, &d)
}

// IsLinkReason reports whether err is a *LinkError with the given reason.
func IsLinkReason(err error, r LinkReason) bool {
	var le *LinkError
	return errors.As(err, &le) && le.Reason == r
}

// IsNodeError reports whether err is a *NodeError.
func IsNodeError(err error) bool {
	var ne *NodeError
	return errors.As(err, &ne)
}
