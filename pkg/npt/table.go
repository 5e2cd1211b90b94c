// Package npt holds node probability table descriptors and the matrix layout rules
// shared by the modeling layer and its serialization adapters.
//
// A manual table travels on the wire with one row per joint parent state combination
// and one column per own state. In memory, and at the engine boundary, it is the
// transpose: one row per own state and one column per parent combination. ToMemory and
// ToWire convert between the two and invert each other exactly.
package npt

import (
	"errors"
	"fmt"
)

// Kind tags how a table is defined.
type Kind int

const (
	Manual Kind = iota
	Expression
	Partitioned
)

func (k Kind) String() string {
	switch k {
	case Manual:
		return "Manual"
	case Expression:
		return "Expression"
	case Partitioned:
		return "Partitioned"
	default:
		return "Unknown"
	}
}

// ParseKind converts a name to a Kind. An empty name means Manual.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Manual", "manual", "":
		return Manual, nil
	case "Expression", "expression":
		return Expression, nil
	case "Partitioned", "partitioned":
		return Partitioned, nil
	}
	return Manual, fmt.Errorf("unknown table kind %q", s)
}

var (
	ErrNotSquare           = errors.New("not a square matrix")
	ErrWrongCellCount      = errors.New("wrong number of cells")
	ErrNegativeProbability = errors.New("negative probability")
	ErrPartitionCount      = errors.New("number of expressions does not match partition parent state combinations")
)

// Table describes a node's table. Exactly one group of fields is meaningful,
// selected by Kind.
type Table struct {
	Kind Kind

	// Manual: memory orientation, rows = own states, columns = parent combinations,
	// parents in the order of Parents.
	Matrix  [][]float64
	Parents []string

	// Expression
	Expression string

	// Partitioned: one expression per combination of PartitionParents' states.
	PartitionParents []string
	Partitions       []string

	// Default marks a table produced by a reset rather than assigned by a caller.
	Default bool
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	c := t
	c.Matrix = cloneMatrix(t.Matrix)
	c.Parents = append([]string(nil), t.Parents...)
	c.PartitionParents = append([]string(nil), t.PartitionParents...)
	c.Partitions = append([]string(nil), t.Partitions...)
	return c
}

// Wire returns the manual matrix in wire orientation.
func (t Table) Wire() ([][]float64, error) {
	if t.Kind != Manual {
		return nil, fmt.Errorf("%s table has no matrix", t.Kind)
	}
	return ToWire(t.Matrix)
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
