package constraints

import (
	"fmt"

	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
)

// UniqueIdentifiers checks that identifiers are unique, ignoring case, within
// their container: networks and data sets in the model, nodes in a network.
type UniqueIdentifiers struct{}

func (c *UniqueIdentifiers) Name() string { return "UniqueIdentifiers" }

func (c *UniqueIdentifiers) Validate(s *Snapshot) ([]Violation, error) {
	var violations []Violation

	netIDs := make([]string, len(s.Networks))
	for i, net := range s.Networks {
		netIDs[i] = net.ID
	}
	for _, dup := range duplicates(netIDs) {
		violations = append(violations, Violation{
			Type:     DuplicateIdentifier,
			Severity: Error,
			Network:  dup,
			Message:  fmt.Sprintf("network %q is not unique in model %s", dup, s.Model),
		})
	}

	for _, net := range s.Networks {
		ids := make([]string, len(net.Nodes))
		for i, n := range net.Nodes {
			ids[i] = n.ID
		}
		for _, dup := range duplicates(ids) {
			violations = append(violations, Violation{
				Type:     DuplicateIdentifier,
				Severity: Error,
				Network:  net.ID,
				Node:     dup,
				Message:  fmt.Sprintf("node %q is not unique in network %s", dup, net.ID),
			})
		}
	}

	dsIDs := make([]string, len(s.DataSets))
	for i, ds := range s.DataSets {
		dsIDs[i] = ds.ID
	}
	for _, dup := range duplicates(dsIDs) {
		violations = append(violations, Violation{
			Type:     DuplicateIdentifier,
			Severity: Error,
			Message:  fmt.Sprintf("data set %q is not unique in model %s", dup, s.Model),
		})
	}
	return violations, nil
}

// duplicates returns the second and later identifiers colliding with an earlier one.
func duplicates(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		key := identity.Normalize(id)
		if seen[key] {
			out = append(out, id)
			continue
		}
		seen[key] = true
	}
	return out
}
