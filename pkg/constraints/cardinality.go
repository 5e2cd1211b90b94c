package constraints

import (
	"fmt"
)

// SingleCrossInput checks that a node is fed by at most one cross-network link
// and that the connectable flags agree with the links a node takes part in.
type SingleCrossInput struct{}

func (c *SingleCrossInput) Name() string { return "SingleCrossInput" }

func (c *SingleCrossInput) Validate(s *Snapshot) ([]Violation, error) {
	var violations []Violation
	inputs := make(map[NodeRef]int)
	outputs := make(map[NodeRef]int)
	for _, l := range s.Links {
		if !l.Cross {
			continue
		}
		inputs[l.To]++
		outputs[l.From]++
	}

	s.forEachNode(func(net NetworkInfo, n NodeInfo) {
		r := NodeRef{Network: net.ID, Node: n.ID}
		v := Violation{Type: CardinalityViolation, Severity: Error, Network: net.ID, Node: n.ID}
		switch {
		case inputs[r] > 1:
			v.Message = fmt.Sprintf("%s has %d cross-network inputs", r, inputs[r])
			violations = append(violations, v)
		case n.Input != (inputs[r] == 1):
			v.Message = fmt.Sprintf("%s input flag is %t with %d cross-network inputs", r, n.Input, inputs[r])
			violations = append(violations, v)
		}
		if n.Output != (outputs[r] > 0) {
			v.Message = fmt.Sprintf("%s output flag is %t with %d cross-network outputs", r, n.Output, outputs[r])
			violations = append(violations, v)
		}
	})
	return violations, nil
}

// Isolated reports nodes with no links at all. They are legal but usually a
// modeling slip.
type Isolated struct{}

func (c *Isolated) Name() string { return "Isolated" }

func (c *Isolated) Validate(s *Snapshot) ([]Violation, error) {
	linked := make(map[NodeRef]bool)
	for _, l := range s.Links {
		linked[l.From] = true
		linked[l.To] = true
	}

	var violations []Violation
	s.forEachNode(func(net NetworkInfo, n NodeInfo) {
		if len(net.Nodes) < 2 {
			return
		}
		r := NodeRef{Network: net.ID, Node: n.ID}
		if !linked[r] {
			violations = append(violations, Violation{
				Type:     IsolatedNode,
				Severity: Info,
				Network:  net.ID,
				Node:     n.ID,
				Message:  r.String() + " has no links",
			})
		}
	})
	return violations, nil
}
