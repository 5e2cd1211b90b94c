// Package engine is the boundary to the probability propagation engine.
//
// The modeling layer never keeps engine objects on its entities; it only holds the
// opaque handles returned here. Every call is synchronous and is made while the
// model's graph mutation lock is held, so implementations must return quickly: a
// slow engine stalls every other graph mutation of the model.
package engine

import "fmt"

// NetworkHandle identifies a network inside the engine.
type NetworkHandle struct{ id uint64 }

// NodeHandle identifies a node inside the engine.
type NodeHandle struct{ id uint64 }

// VariableHandle identifies an expression variable attached to a node.
type VariableHandle struct{ id uint64 }

func (h NetworkHandle) IsZero() bool  { return h.id == 0 }
func (h NodeHandle) IsZero() bool     { return h.id == 0 }
func (h VariableHandle) IsZero() bool { return h.id == 0 }

func (h NetworkHandle) String() string  { return fmt.Sprintf("net#%d", h.id) }
func (h NodeHandle) String() string     { return fmt.Sprintf("node#%d", h.id) }
func (h VariableHandle) String() string { return fmt.Sprintf("var#%d", h.id) }

// Kind is the engine-side node type.
type Kind string

const (
	KindBoolean            Kind = "Boolean"
	KindLabelled           Kind = "Labelled"
	KindRanked             Kind = "Ranked"
	KindDiscreteReal       Kind = "DiscreteReal"
	KindContinuousInterval Kind = "ContinuousInterval"
	KindIntegerInterval    Kind = "IntegerInterval"
)

// StateSpec is the engine-side description of one state.
type StateSpec struct {
	Label    string
	Value    float64 // valid when HasValue
	HasValue bool
	Lower    float64 // valid when HasRange; [Lower, Upper)
	Upper    float64
	HasRange bool
}

// FunctionSpec describes a node function. Either Expression is set, or
// PartitionParents and one entry of Partitions per parent state combination.
type FunctionSpec struct {
	Expression       string
	PartitionParents []NodeHandle
	Partitions       []string
}

// Partitioned reports whether the function is split by parent states.
func (f FunctionSpec) Partitioned() bool {
	return len(f.PartitionParents) > 0
}

// Engine is everything the modeling layer asks of the propagation engine.
type Engine interface {
	CreateNetwork(name string) (NetworkHandle, error)
	RenameNetwork(h NetworkHandle, name string) error

	CreateNode(network NetworkHandle, kind Kind, name string) (NodeHandle, error)
	RenameNode(h NodeHandle, name string) error
	RemoveNode(h NodeHandle) error
	SetStates(h NodeHandle, states []StateSpec) error
	SetSimulated(h NodeHandle, simulated bool) error

	// AddChildEdge returns false when the engine refuses the edge.
	AddChildEdge(parent, child NodeHandle) (bool, error)
	RemoveEdge(parent, child NodeHandle) error

	AddExpressionVariable(h NodeHandle, name string, defaultValue float64) (VariableHandle, error)
	RemoveExpressionVariable(h NodeHandle, v VariableHandle) error
	SetExpression(h NodeHandle, fn FunctionSpec) error

	// SetManualTable takes the in-memory orientation: one row per own state, one
	// column per parent state combination, parents ordered as parentOrder.
	SetManualTable(h NodeHandle, matrix [][]float64, parentOrder []NodeHandle) error
	GetTable(h NodeHandle) ([][]float64, error)

	MarkConnectableInput(h NodeHandle, on bool) error
	MarkConnectableOutput(h NodeHandle, on bool) error
}
