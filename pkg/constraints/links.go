package constraints

import (
	"fmt"
	"slices"
)

// LinkKinds checks each link against its endpoints: same-network links are
// simple, cross-network links carry a pass type, State links name an existing
// source state, and every link but Marginals has placed a variable on its target.
type LinkKinds struct{}

func (c *LinkKinds) Name() string { return "LinkKinds" }

func (c *LinkKinds) Validate(s *Snapshot) ([]Violation, error) {
	var violations []Violation
	add := func(l LinkInfo, sev Severity, format string, args ...any) {
		violations = append(violations, Violation{
			Type:     KindViolation,
			Severity: sev,
			Network:  l.To.Network,
			Node:     l.To.Node,
			Link:     l.String(),
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for _, l := range s.Links {
		from, okFrom := s.node(l.From)
		_, okTo := s.node(l.To)
		if !okFrom || !okTo {
			add(l, Error, "link %s names a node that does not exist", l)
			continue
		}

		cross := l.From.Network != l.To.Network
		switch {
		case cross != l.Cross:
			add(l, Error, "link %s cross-network flag is %t", l, l.Cross)
		case !cross && l.PassType != "":
			add(l, Error, "same-network link %s carries %s", l, l.PassType)
		case cross && l.PassType == "":
			add(l, Error, "cross-network link %s has no type", l)
		case l.PassType == "State" && !slices.Contains(from.States, l.StatePassed):
			add(l, Error, "link %s passes state %q that %s does not have", l, l.StatePassed, l.From)
		case l.PassType != "State" && l.StatePassed != "":
			add(l, Error, "link %s of type %s passes state %q", l, l.PassType, l.StatePassed)
		case cross && l.PassType != "Marginals" && l.Variable == "":
			add(l, Warning, "link %s of type %s has no variable on its target", l, l.PassType)
		}
	}
	return violations, nil
}
