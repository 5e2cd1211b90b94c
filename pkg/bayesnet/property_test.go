package bayesnet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

type linkOp struct {
	Unlink bool
	From   int
	To     int
	Kind   int
}

var propertyKinds = []LinkKind{
	nil,
	CrossNetwork{Type: PassMarginals},
	CrossNetwork{Type: PassState, StatePassed: "x"},
	CrossNetwork{Type: PassMean},
	CrossNetwork{Type: PassState},
}

// newPropertyModel builds three networks whose nodes cover labelled, ranked,
// interval and simulated targets.
func newPropertyModel(t *testing.T) (*Model, []*Node, func() graphSnapshot) {
	m, mem := newTestModel(t)
	a := mustNetwork(t, m, "A")
	b := mustNetwork(t, m, "B")
	c := mustNetwork(t, m, "C")
	sim := mustNode(t, b, "B1", ContinuousInterval)
	require.NoError(t, sim.SetSimulated(true))
	nodes := []*Node{
		mustNode(t, a, "A0", Labelled, "x", "y"),
		mustNode(t, a, "A1", Ranked),
		mustNode(t, a, "A2", ContinuousInterval),
		mustNode(t, b, "B0", Labelled, "x", "y"),
		sim,
		mustNode(t, b, "B2", IntegerInterval),
		mustNode(t, c, "C0", Labelled, "x", "y"),
	}
	return m, nodes, func() graphSnapshot { return snapshot(t, m, mem) }
}

func genLinkOp(nodes int) gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 4),
		gen.IntRange(0, nodes-1),
		gen.IntRange(0, nodes-1),
		gen.IntRange(0, len(propertyKinds)-1),
	).Map(func(v []any) linkOp {
		return linkOp{Unlink: v[0].(int) == 0, From: v[1].(int), To: v[2].(int), Kind: v[3].(int)}
	})
}

// TestLinkingProperties drives random link and unlink sequences and checks that
// the graphs stay acyclic, that every failed call leaves the model and engine
// exactly as they were, and that retrying a failed call fails the same way.
func TestLinkingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("failed calls change nothing and graphs stay acyclic", prop.ForAll(
		func(ops []linkOp) bool {
			m, nodes, snap := newPropertyModel(t)
			for _, op := range ops {
				from, to := nodes[op.From], nodes[op.To]
				before := snap()

				var err error
				if op.Unlink {
					_, err = m.UnlinkNodes(from, to)
				} else {
					_, err = m.LinkNodes(from, to, propertyKinds[op.Kind])
				}
				if err == nil {
					continue
				}
				var le *LinkError
				if !errors.As(err, &le) {
					return false
				}
				if !reflect.DeepEqual(before, snap()) {
					return false
				}

				// rejecting again is stable
				_, again := m.LinkNodes(from, to, propertyKinds[op.Kind])
				if !op.Unlink && !IsLinkReason(again, le.Reason) {
					return false
				}
				if !reflect.DeepEqual(before, snap()) {
					return false
				}
			}

			if _, err := m.TopologicalOrder(); err != nil {
				return false
			}
			for _, net := range m.Networks() {
				if _, err := net.TopologicalOrder(); err != nil {
					return false
				}
			}
			s := snap()
			return s.Edges == len(s.Links)
		},
		gen.SliceOf(genLinkOp(7)),
	))

	properties.TestingRun(t)
}

// An accepted link followed by its removal leaves an untouched same-network
// pair as it was, engine included.
func TestLinkUnlinkProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("simple link then unlink is a no-op", prop.ForAll(
		func(from, to int) bool {
			m, mem := newTestModel(t)
			net := mustNetwork(t, m, "N")
			var nodes []*Node
			for _, id := range []string{"P", "Q", "R", "S"} {
				nodes = append(nodes, mustNode(t, net, id, Labelled, "x", "y", "z"))
			}
			before := snapshot(t, m, mem)
			if _, err := m.LinkNodes(nodes[from], nodes[to], nil); err != nil {
				return from == to && IsLinkReason(err, ReasonSelfLoop)
			}
			removed, err := m.UnlinkNodes(nodes[from], nodes[to])
			if err != nil || !removed {
				return false
			}
			return reflect.DeepEqual(before, snapshot(t, m, mem))
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
