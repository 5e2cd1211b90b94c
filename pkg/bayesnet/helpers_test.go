package bayesnet

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestModel(t *testing.T) (*Model, *engine.Memory) {
	t.Helper()
	return newTestModelWith(t, Config{ModelID: "test"})
}

func newTestModelWith(t *testing.T, cfg Config) (*Model, *engine.Memory) {
	t.Helper()
	mem := engine.NewMemory()
	m, err := NewModel(mem, cfg)
	require.NoError(t, err)
	return m, mem
}

func mustNetwork(t *testing.T, m *Model, id string) *Network {
	t.Helper()
	net, err := m.CreateNetwork(id)
	require.NoError(t, err)
	return net
}

func mustNode(t *testing.T, net *Network, id string, typ Type, states ...string) *Node {
	t.Helper()
	n, err := net.CreateNode(id, typ, states...)
	require.NoError(t, err)
	return n
}

func mustLink(t *testing.T, m *Model, from, to *Node, kind LinkKind) *Link {
	t.Helper()
	l, err := m.LinkNodes(from, to, kind)
	require.NoError(t, err)
	return l
}

func view(t *testing.T, mem *engine.Memory, n *Node) engine.NodeView {
	t.Helper()
	v, ok := mem.Node(n.handle)
	require.True(t, ok, "engine lost %s", n)
	return v
}

// graphSnapshot is everything observable about a model and its engine.
type graphSnapshot struct {
	Networks []string
	Nodes    []nodeSnapshot
	Links    []string
	Edges    int
	Engine   int
}

type nodeSnapshot struct {
	Name      string
	States    []string
	Simulated bool
	Parents   []string
	Children  []string
	Table     npt.Table
	Variables []string
	Input     bool
	Output    bool
	View      engine.NodeView
}

func snapshot(t *testing.T, m *Model, mem *engine.Memory) graphSnapshot {
	t.Helper()
	var s graphSnapshot
	for _, net := range m.Networks() {
		s.Networks = append(s.Networks, net.ID())
		for _, n := range net.Nodes() {
			in, out := n.Connectable()
			ns := nodeSnapshot{
				Name:      n.String(),
				States:    n.StateLabels(),
				Simulated: n.Simulated(),
				Table:     n.Table(),
				Variables: n.Variables(),
				Input:     in,
				Output:    out,
				View:      view(t, mem, n),
			}
			for _, p := range n.Parents() {
				ns.Parents = append(ns.Parents, p.String())
			}
			for _, c := range n.Children() {
				ns.Children = append(ns.Children, c.String())
			}
			s.Nodes = append(s.Nodes, ns)
		}
	}
	for _, l := range m.Links() {
		s.Links = append(s.Links, l.String())
	}
	s.Edges = mem.EdgeCount()
	s.Engine = mem.NodeCount()
	return s
}
