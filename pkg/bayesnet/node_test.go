package bayesnet

import (
	"testing"

	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNode_Defaults(t *testing.T) {
	tests := []struct {
		typ    Type
		states []string
		kind   engine.Kind
	}{
		{Boolean, []string{"False", "True"}, engine.KindBoolean},
		{Labelled, []string{"False", "True"}, engine.KindLabelled},
		{Ranked, []string{"Low", "Medium", "High"}, engine.KindRanked},
		{DiscreteReal, []string{"0", "1"}, engine.KindDiscreteReal},
		{ContinuousInterval, []string{"-Infinity - 0", "0 - Infinity"}, engine.KindContinuousInterval},
		{IntegerInterval, []string{"-Infinity - 0", "0 - Infinity"}, engine.KindIntegerInterval},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			m, mem := newTestModel(t)
			n := mustNode(t, mustNetwork(t, m, "N"), "X", tt.typ)

			assert.Equal(t, tt.typ, n.Type())
			assert.Equal(t, tt.states, n.StateLabels())
			assert.Equal(t, "N.X", n.String())

			v := view(t, mem, n)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, "X", v.Name)
			assert.Equal(t, "N", v.Network)
			assert.Len(t, v.States, len(tt.states))

			tbl := n.Table()
			assert.Equal(t, npt.Manual, tbl.Kind)
			assert.True(t, tbl.Default)
			assert.Len(t, v.Table, len(tt.states))
		})
	}
}

func TestCreateNode_Rejections(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	mustNode(t, net, "Speed", ContinuousInterval)

	_, err := net.CreateNode("speed", Boolean)
	assert.True(t, IsDuplicateID(err), err)
	assert.ErrorIs(t, err, identity.ErrDuplicateID)

	_, err = net.CreateNode("1st", Boolean)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = net.CreateNode("Flag", Boolean, "yes", "no", "maybe")
	assert.ErrorIs(t, err, ErrInvalidStates)
	assert.True(t, IsNodeError(err))

	_, err = net.CreateNode("Dup", Labelled, "a", "A")
	assert.ErrorIs(t, err, ErrInvalidStates)

	_, err = net.CreateNode("Range", ContinuousInterval, "5 - 1")
	assert.ErrorIs(t, err, ErrInvalidStates)

	_, err = net.CreateNode("Count", IntegerInterval, "1.5")
	assert.ErrorIs(t, err, ErrInvalidStates)

	assert.Equal(t, 1, mem.NodeCount())
	assert.Len(t, net.Nodes(), 1)
}

func TestCreateNode_EngineFailureFreesIdentifier(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")

	for _, call := range []engine.Call{engine.CallCreateNode, engine.CallSetStates, engine.CallSetManualTable} {
		mem.FailOn(call, errBoom)
		_, err := net.CreateNode("A", Boolean)
		require.Error(t, err, call)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 0, mem.NodeCount(), call)
		assert.Empty(t, net.Nodes())
	}

	n := mustNode(t, net, "A", Boolean)
	assert.Equal(t, "A", n.ID())
}

func TestRenameNode(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	a := mustNode(t, net, "A", Boolean)
	mustNode(t, net, "B", Boolean)

	require.NoError(t, net.RenameNode("A", "Alpha"))
	assert.Equal(t, "Alpha", a.ID())
	assert.Equal(t, "Alpha", view(t, mem, a).Name)
	got, err := net.Node("alpha")
	require.NoError(t, err)
	assert.Same(t, a, got)
	_, err = net.Node("A")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	// a different spelling of the same identifier
	require.NoError(t, net.RenameNode("Alpha", "ALPHA"))
	assert.Equal(t, "ALPHA", a.ID())

	err = net.RenameNode("ALPHA", "b")
	assert.True(t, IsDuplicateID(err), err)
	assert.Equal(t, "ALPHA", a.ID())

	mem.FailOn(engine.CallRenameNode, errBoom)
	err = net.RenameNode("ALPHA", "Gamma")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "ALPHA", a.ID())
	assert.Equal(t, "ALPHA", view(t, mem, a).Name)
	_, err = net.Node("Gamma")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	err = net.RenameNode("ALPHA", "not valid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRenameNetwork(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "Supply")
	mustNetwork(t, m, "Plant")
	n := mustNode(t, net, "A", Boolean)

	require.NoError(t, m.RenameNetwork("supply", "Logistics"))
	assert.Equal(t, "Logistics", net.ID())
	assert.Equal(t, "Logistics.A", n.String())
	assert.Equal(t, "Logistics", view(t, mem, n).Network)

	err := m.RenameNetwork("Logistics", "plant")
	assert.True(t, IsDuplicateID(err), err)

	mem.FailOn(engine.CallRenameNetwork, errBoom)
	assert.ErrorIs(t, m.RenameNetwork("Logistics", "Other"), errBoom)
	assert.Equal(t, "Logistics", net.ID())

	// node registry errors name the renamed container
	_, err = net.CreateNode("a", Boolean)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network Logistics")
}

// Renaming a parent rewrites the functions that name it, so the model still
// rebuilds from its own description.
func TestRenameNode_RewritesChildFunctions(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	a := mustNode(t, net, "A", ContinuousInterval)
	b := mustNode(t, net, "B", ContinuousInterval)
	p := mustNode(t, net, "P", Labelled, "Low", "High")
	c := mustNode(t, net, "C", ContinuousInterval)
	for _, n := range []*Node{a, b, c} {
		require.NoError(t, n.SetSimulated(true))
	}
	mustLink(t, m, a, b, nil)
	mustLink(t, m, a, c, nil)
	mustLink(t, m, p, c, nil)
	require.NoError(t, b.SetExpression("Normal(A, 1)"))
	require.NoError(t, c.SetPartitioned([]string{"P"}, []string{"Normal(A, 1)", "Normal(a * 2, 1)"}))

	require.NoError(t, net.RenameNode("A", "Alpha"))
	assert.Equal(t, "Normal(Alpha, 1)", b.Table().Expression)
	assert.Equal(t, "Normal(Alpha, 1)", view(t, mem, b).Function.Expression)
	assert.Equal(t, []string{"Normal(Alpha, 1)", "Normal(Alpha * 2, 1)"}, c.Table().Partitions)
	assert.Equal(t, []string{"Normal(Alpha, 1)", "Normal(Alpha * 2, 1)"}, view(t, mem, c).Function.Partitions)

	// the partition parent keeps its own name in the function header
	require.NoError(t, net.RenameNode("P", "Phase"))
	assert.Equal(t, []string{"Phase"}, c.Table().PartitionParents)

	rebuilt, _ := newTestModel(t)
	require.NoError(t, rebuilt.Build(m.Spec()))
	assert.Equal(t, m.Spec(), rebuilt.Spec())

	before := snapshot(t, m, mem)
	mem.FailOn(engine.CallSetExpression, errBoom)
	err := net.RenameNode("Alpha", "Beta")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, before, snapshot(t, m, mem))
	_, err = net.Node("Beta")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

// The constant a cross-network link creates is named after its source, so it
// follows renames of the source node and of the source network.
func TestRename_CrossNetworkVariables(t *testing.T) {
	m, mem := newTestModel(t)
	supply := mustNetwork(t, m, "Supply")
	src := mustNode(t, supply, "Demand", ContinuousInterval)
	dst := mustNode(t, mustNetwork(t, m, "Plant"), "Load", ContinuousInterval)
	require.NoError(t, src.SetSimulated(true))
	require.NoError(t, dst.SetSimulated(true))
	mustLink(t, m, src, dst, CrossNetwork{Type: PassMean})
	require.Equal(t, "Arithmetic(Supply_Demand_Mean)", dst.Table().Expression)

	require.NoError(t, supply.RenameNode("Demand", "Orders"))
	assert.Equal(t, []string{"Supply_Orders_Mean"}, dst.Variables())
	assert.Equal(t, "Arithmetic(Supply_Orders_Mean)", dst.Table().Expression)
	assert.Equal(t, []engine.Variable{{Name: "Supply_Orders_Mean"}}, view(t, mem, dst).Variables)

	require.NoError(t, m.RenameNetwork("Supply", "Logistics"))
	assert.Equal(t, []string{"Logistics_Orders_Mean"}, dst.Variables())
	assert.Equal(t, "Arithmetic(Logistics_Orders_Mean)", dst.Table().Expression)
	assert.Equal(t, "Arithmetic(Logistics_Orders_Mean)", view(t, mem, dst).Function.Expression)
	assert.Equal(t, []engine.Variable{{Name: "Logistics_Orders_Mean"}}, view(t, mem, dst).Variables)

	rebuilt, _ := newTestModel(t)
	require.NoError(t, rebuilt.Build(m.Spec()))
	assert.Equal(t, m.Spec(), rebuilt.Spec())

	before := snapshot(t, m, mem)
	mem.FailOn(engine.CallAddExpressionVariable, errBoom)
	assert.ErrorIs(t, m.RenameNetwork("Logistics", "Other"), errBoom)
	assert.Equal(t, before, snapshot(t, m, mem))
	assert.Equal(t, "Logistics", supply.ID())

	// the restored constant is still the one the link removes
	removed, err := m.UnlinkNodes(src, dst)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, dst.Variables())
	assert.Empty(t, view(t, mem, dst).Variables)
}

func TestRemoveNode(t *testing.T) {
	m, mem := newTestModel(t)
	n1 := mustNetwork(t, m, "N1")
	n2 := mustNetwork(t, m, "N2")
	a := mustNode(t, n1, "A", Labelled, "Low", "High")
	b := mustNode(t, n1, "B", Labelled)
	c := mustNode(t, n2, "C", Labelled)
	mustLink(t, m, a, b, nil)
	mustLink(t, m, b, c, CrossNetwork{Type: PassState, StatePassed: "True"})

	require.NoError(t, n1.RemoveNode("b"))
	assert.True(t, b.Removed())
	assert.Empty(t, m.Links())
	assert.Empty(t, a.Children())
	assert.Empty(t, c.Parents())
	assert.Empty(t, c.Variables())
	assert.Equal(t, 0, mem.EdgeCount())
	assert.Equal(t, 2, mem.NodeCount())
	assert.Equal(t, []*Node{a}, n1.Nodes())
	in, out := c.Connectable()
	assert.False(t, in || out)

	assert.ErrorIs(t, b.SetStates("x", "y"), ErrNodeRemoved)
	_, err := m.LinkNodes(a, b, nil)
	assert.True(t, IsLinkReason(err, ReasonRemovedNode), err)

	err = n1.RemoveNode("B")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	// the identifier is free again
	mustNode(t, n1, "B", Boolean)
}

func TestSetStates(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	a := mustNode(t, net, "A", Labelled, "Low", "High")
	b := mustNode(t, net, "B", Boolean)
	e := mustNode(t, net, "E", ContinuousInterval)
	mustLink(t, m, a, b, nil)
	mustLink(t, m, a, e, nil)
	require.NoError(t, b.SetManualTable([][]float64{{0.1, 0.9}, {0.8, 0.2}}))
	require.NoError(t, e.SetExpression("Normal(A, 1)"))

	require.NoError(t, a.SetStates("Low", "Medium", "High"))
	assert.Equal(t, []string{"Low", "Medium", "High"}, a.StateLabels())
	assert.Len(t, view(t, mem, a).States, 3)

	assert.True(t, b.Table().Default, "manual table indexed by A is reset")
	wire, err := b.ManualTable()
	require.NoError(t, err)
	assert.Len(t, wire, 3)
	assert.False(t, e.Table().Default, "expression tables are kept")
	assert.Equal(t, "Normal(A, 1)", e.Table().Expression)

	assert.ErrorIs(t, a.SetStates("x", "X"), ErrInvalidStates)
	assert.Equal(t, []string{"Low", "Medium", "High"}, a.StateLabels())

	st, err := a.State("medium")
	require.NoError(t, err)
	assert.Equal(t, "Medium", st.Label)
	_, err = a.State("Huge")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestSetStates_PassedStateInUse(t *testing.T) {
	m, _ := newTestModel(t)
	a := mustNode(t, mustNetwork(t, m, "N1"), "A", Labelled, "Low", "High")
	b := mustNode(t, mustNetwork(t, m, "N2"), "B", Labelled)
	mustLink(t, m, a, b, CrossNetwork{Type: PassState, StatePassed: "High"})

	err := a.SetStates("Low", "Mid")
	assert.ErrorIs(t, err, ErrStateInUse)
	require.NoError(t, a.SetStates("high", "low"))
}

func TestSetStates_EngineFailureRollsBack(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	a := mustNode(t, net, "A", Labelled, "Low", "High")
	b := mustNode(t, net, "B", Boolean)
	mustLink(t, m, a, b, nil)
	require.NoError(t, b.SetManualTable([][]float64{{0.1, 0.9}, {0.8, 0.2}}))
	before := snapshot(t, m, mem)

	// fails the reset of A's own table, after the engine took the new states
	mem.FailOn(engine.CallSetManualTable, errBoom)
	assert.ErrorIs(t, a.SetStates("x", "y", "z"), errBoom)
	assert.Equal(t, before, snapshot(t, m, mem))
}

func TestSetSimulated(t *testing.T) {
	m, mem := newTestModel(t)
	net := mustNetwork(t, m, "N")
	lab := mustNode(t, net, "L", Labelled)
	c := mustNode(t, net, "C", ContinuousInterval)
	child := mustNode(t, net, "Child", Boolean)
	mustLink(t, m, c, child, nil)
	assert.Equal(t, []string{"C"}, child.Table().Parents)

	assert.ErrorIs(t, lab.SetSimulated(true), ErrNotInterval)

	require.NoError(t, c.SetSimulated(true))
	assert.True(t, c.Simulated())
	assert.Empty(t, c.States())
	assert.True(t, view(t, mem, c).Simulated)
	tbl := c.Table()
	assert.Equal(t, npt.Expression, tbl.Kind)
	assert.Equal(t, UnboundedFunction, tbl.Expression)
	assert.Empty(t, child.Table().Parents, "simulated parents do not index manual tables")
	assert.ErrorIs(t, c.SetStates("0 - 1"), ErrSimulated)

	// no-op
	require.NoError(t, c.SetSimulated(true))

	require.NoError(t, c.SetSimulated(false))
	assert.False(t, c.Simulated())
	assert.Equal(t, DefaultStates(ContinuousInterval), c.StateLabels())
	assert.Equal(t, []string{"C"}, child.Table().Parents)
}
