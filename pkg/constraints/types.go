// Package constraints audits a built model against the structural rules the
// modeling layer enforces while it mutates: unique identifiers, acyclic graphs,
// one cross-network input per node, link kinds that match their endpoints, and
// tables shaped for their node's states and parents.
//
// Constraints run over a Snapshot rather than a live model, so they can be
// checked against models read from elsewhere and exercised in tests with
// hand-built, deliberately broken snapshots.
package constraints

import (
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	DuplicateIdentifier ViolationType = iota
	CycleViolation
	CardinalityViolation
	KindViolation
	TableShapeViolation
	ObservationViolation
	IsolatedNode
)

func (vt ViolationType) String() string {
	switch vt {
	case DuplicateIdentifier:
		return "DuplicateIdentifier"
	case CycleViolation:
		return "Cycle"
	case CardinalityViolation:
		return "Cardinality"
	case KindViolation:
		return "Kind"
	case TableShapeViolation:
		return "TableShape"
	case ObservationViolation:
		return "Observation"
	case IsolatedNode:
		return "IsolatedNode"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType
	Severity   Severity
	Network    string
	Node       string
	Link       string
	Constraint string
	Message    string
}

// Constraint is one audit rule.
type Constraint interface {
	// Validate returns the violations found in s; none means s is valid.
	Validate(s *Snapshot) ([]Violation, error)

	Name() string
}

// NodeRef names a node by network and node identifier.
type NodeRef struct {
	Network string
	Node    string
}

func (r NodeRef) String() string {
	return r.Network + "." + r.Node
}

// Snapshot is a plain-data copy of a model's structure.
type Snapshot struct {
	Model    string
	Networks []NetworkInfo
	Links    []LinkInfo
	DataSets []DataSetInfo
}

type NetworkInfo struct {
	ID    string
	Nodes []NodeInfo
}

type NodeInfo struct {
	ID        string
	Type      string
	States    []string
	Simulated bool
	Input     bool
	Output    bool
	Table     npt.Table
}

// LinkInfo describes one link. PassType is empty for same-network links.
type LinkInfo struct {
	From        NodeRef
	To          NodeRef
	Cross       bool
	PassType    string
	StatePassed string
	Variable    string
}

func (l LinkInfo) String() string {
	return l.From.String() + " -> " + l.To.String()
}

type DataSetInfo struct {
	ID           string
	Observations []ObservationInfo
}

type ObservationInfo struct {
	Node  NodeRef
	State string
}

// node looks a node up by reference.
func (s *Snapshot) node(r NodeRef) (NodeInfo, bool) {
	for _, net := range s.Networks {
		if net.ID != r.Network {
			continue
		}
		for _, n := range net.Nodes {
			if n.ID == r.Node {
				return n, true
			}
		}
	}
	return NodeInfo{}, false
}

func (s *Snapshot) forEachNode(fn func(net NetworkInfo, n NodeInfo)) {
	for _, net := range s.Networks {
		for _, n := range net.Nodes {
			fn(net, n)
		}
	}
}
