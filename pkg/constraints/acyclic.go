package constraints

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/algorithms"
)

// Acyclic checks that same-network links form a DAG inside every network and
// that cross-network links form a DAG over networks.
type Acyclic struct{}

func (c *Acyclic) Name() string { return "Acyclic" }

func (c *Acyclic) Validate(s *Snapshot) ([]Violation, error) {
	var violations []Violation

	nodeNext := make(map[NodeRef][]NodeRef)
	netNext := make(map[string][]string)
	for _, l := range s.Links {
		if l.Cross {
			netNext[l.From.Network] = append(netNext[l.From.Network], l.To.Network)
			continue
		}
		nodeNext[l.From] = append(nodeNext[l.From], l.To)
	}

	for _, net := range s.Networks {
		vertices := make([]NodeRef, len(net.Nodes))
		for i, n := range net.Nodes {
			vertices[i] = NodeRef{Network: net.ID, Node: n.ID}
		}
		next := func(r NodeRef) []NodeRef { return nodeNext[r] }
		for _, cycle := range algorithms.DetectCycles(vertices, next) {
			names := make([]string, len(cycle))
			for i, r := range cycle {
				names[i] = r.Node
			}
			violations = append(violations, Violation{
				Type:     CycleViolation,
				Severity: Error,
				Network:  net.ID,
				Node:     cycle[0].Node,
				Message:  fmt.Sprintf("loop through %s in network %s", strings.Join(names, ", "), net.ID),
			})
		}
	}

	nets := make([]string, len(s.Networks))
	for i, net := range s.Networks {
		nets[i] = net.ID
	}
	next := func(id string) []string { return netNext[id] }
	for _, cycle := range algorithms.DetectCycles(nets, next) {
		violations = append(violations, Violation{
			Type:     CycleViolation,
			Severity: Error,
			Network:  cycle[0],
			Message:  "loop through networks " + strings.Join(cycle, ", "),
		})
	}
	return violations, nil
}
