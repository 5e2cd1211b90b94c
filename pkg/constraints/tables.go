package constraints

import (
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-bayesnet/pkg/expression"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
	"github.com/shopspring/decimal"
)

// sumTolerance is how far a manual table column may drift from 1.
var sumTolerance = decimal.New(1, -6)

// TableShape checks every node's table against its states and parents, and
// that functions only refer to same-network parents and the node's constants.
type TableShape struct{}

func (c *TableShape) Name() string { return "TableShape" }

func (c *TableShape) Validate(s *Snapshot) ([]Violation, error) {
	parents := make(map[NodeRef][]string)
	allowed := make(map[NodeRef][]string)
	for _, l := range s.Links {
		switch {
		case !l.Cross:
			parents[l.To] = append(parents[l.To], l.From.Node)
			allowed[l.To] = append(allowed[l.To], l.From.Node)
		case l.Variable != "":
			allowed[l.To] = append(allowed[l.To], l.Variable)
		}
	}

	var violations []Violation
	s.forEachNode(func(net NetworkInfo, n NodeInfo) {
		r := NodeRef{Network: net.ID, Node: n.ID}
		add := func(sev Severity, format string, args ...any) {
			violations = append(violations, Violation{
				Type:     TableShapeViolation,
				Severity: sev,
				Network:  net.ID,
				Node:     n.ID,
				Message:  r.String() + ": " + fmt.Sprintf(format, args...),
			})
		}

		t := n.Table
		switch t.Kind {
		case npt.Expression:
			if t.Expression == "" {
				add(Error, "empty expression")
				return
			}
			if _, err := expression.Check(t.Expression, allowed[r]); err != nil {
				add(Error, "expression %q: %v", t.Expression, err)
			}

		case npt.Partitioned:
			counts, missing := stateCounts(s, net.ID, t.PartitionParents)
			if missing != "" {
				add(Error, "partition parent %s does not exist", missing)
				return
			}
			if err := npt.CheckPartitions(counts, t.Partitions); err != nil {
				add(Error, "%v", err)
			}
			for i, fn := range t.Partitions {
				if _, err := expression.Check(fn, allowed[r]); err != nil {
					add(Error, "partition %d %q: %v", i, fn, err)
				}
			}

		case npt.Manual:
			if n.Simulated {
				add(Error, "simulated node has a manual table")
				return
			}
			var want []string
			for _, p := range parents[r] {
				if pn, ok := s.node(NodeRef{Network: net.ID, Node: p}); ok && !pn.Simulated {
					want = append(want, p)
				}
			}
			if !sameSet(want, t.Parents) {
				add(Error, "table is indexed by %v but parents are %v", t.Parents, want)
				return
			}
			counts, _ := stateCounts(s, net.ID, t.Parents)
			violations = append(violations, checkMatrix(r, n, t.Matrix, npt.Combinations(counts))...)
		}
	})
	return violations, nil
}

func checkMatrix(r NodeRef, n NodeInfo, m [][]float64, columns int) []Violation {
	v := Violation{Type: TableShapeViolation, Severity: Error, Network: r.Network, Node: r.Node}
	if len(m) != len(n.States) {
		v.Message = fmt.Sprintf("%s: table has %d rows for %d states", r, len(m), len(n.States))
		return []Violation{v}
	}
	for i, row := range m {
		if len(row) != columns {
			v.Message = fmt.Sprintf("%s: row %d has %d cells, want %d", r, i, len(row), columns)
			return []Violation{v}
		}
	}

	var out []Violation
	for col := 0; col < columns; col++ {
		sum := decimal.Zero
		for _, row := range m {
			sum = sum.Add(decimal.NewFromFloat(row[col]))
		}
		if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(sumTolerance) {
			w := v
			w.Severity = Warning
			w.Message = fmt.Sprintf("%s: column %d sums to %s", r, col, sum.String())
			out = append(out, w)
		}
	}
	return out
}

// stateCounts resolves ids in network net. missing names the first unknown one.
func stateCounts(s *Snapshot, net string, ids []string) (counts []int, missing string) {
	counts = make([]int, len(ids))
	for i, id := range ids {
		n, ok := s.node(NodeRef{Network: net, Node: id})
		if !ok {
			return nil, id
		}
		counts[i] = len(n.States)
	}
	return counts, ""
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// ObservedStates checks that every observation names an existing node and one
// of its states.
type ObservedStates struct{}

func (c *ObservedStates) Name() string { return "ObservedStates" }

func (c *ObservedStates) Validate(s *Snapshot) ([]Violation, error) {
	var violations []Violation
	for _, ds := range s.DataSets {
		for _, o := range ds.Observations {
			v := Violation{Type: ObservationViolation, Severity: Error, Network: o.Node.Network, Node: o.Node.Node}
			n, ok := s.node(o.Node)
			switch {
			case !ok:
				v.Message = fmt.Sprintf("data set %s observes missing node %s", ds.ID, o.Node)
			case !slices.Contains(n.States, o.State):
				v.Message = fmt.Sprintf("data set %s observes %s = %q, not one of %v", ds.ID, o.Node, o.State, n.States)
			default:
				continue
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}
