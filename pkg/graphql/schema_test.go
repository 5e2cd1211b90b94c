package graphql

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSchema builds
//
//	Supply: Weather -> Yield -> Stock
//	Demand: Price (simulated), fed by Supply.Yield's mean
func newTestSchema(t *testing.T) (graphql.Schema, *bayesnet.Model) {
	t.Helper()
	m, err := bayesnet.NewModel(engine.NewMemory(), bayesnet.Config{ModelID: "inspect"})
	require.NoError(t, err)

	supply, err := m.CreateNetwork("Supply")
	require.NoError(t, err)
	demand, err := m.CreateNetwork("Demand")
	require.NoError(t, err)

	node := func(net *bayesnet.Network, id string, typ bayesnet.Type, states ...string) *bayesnet.Node {
		n, err := net.CreateNode(id, typ, states...)
		require.NoError(t, err)
		return n
	}
	weather := node(supply, "Weather", bayesnet.Labelled, "Dry", "Wet")
	yield := node(supply, "Yield", bayesnet.Labelled, "Low", "High")
	stock := node(supply, "Stock", bayesnet.Labelled, "Short", "Ample")
	price := node(demand, "Price", bayesnet.ContinuousInterval)
	require.NoError(t, price.SetSimulated(true))

	for _, l := range []struct {
		from, to *bayesnet.Node
		kind     bayesnet.LinkKind
	}{
		{weather, yield, nil},
		{yield, stock, nil},
		{yield, price, bayesnet.CrossNetwork{Type: bayesnet.PassMean}},
	} {
		_, err := m.LinkNodes(l.from, l.to, l.kind)
		require.NoError(t, err)
	}
	require.NoError(t, yield.SetManualTable([][]float64{{0.8, 0.2}, {0.3, 0.7}}))

	ds, err := m.CreateDataSet("Drought")
	require.NoError(t, err)
	require.NoError(t, ds.Observe(weather, "Dry"))

	schema, err := GenerateSchema(m)
	require.NoError(t, err)
	return schema, m
}

func queryJSON(t *testing.T, schema graphql.Schema, query string, vars map[string]any) string {
	t.Helper()
	result := ExecuteQuery(context.Background(), schema, query, vars)
	require.False(t, result.HasErrors(), "%v", result.Errors)
	out, err := json.Marshal(result.Data)
	require.NoError(t, err)
	return string(out)
}

func TestSchema_Node(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := queryJSON(t, schema, `{
		node(network: "Supply", id: "Yield") {
			name type states
			network { id }
			parents { id }
			children { name }
			ancestors { id }
			descendants { name }
			connectableOutput
			table { kind default parents probabilities }
		}
	}`, nil)

	assert.JSONEq(t, `{"node": {
		"name": "Supply.Yield",
		"type": "Labelled",
		"states": ["Low", "High"],
		"network": {"id": "Supply"},
		"parents": [{"id": "Weather"}],
		"children": [{"name": "Supply.Stock"}, {"name": "Demand.Price"}],
		"ancestors": [{"id": "Weather"}],
		"descendants": [{"name": "Supply.Stock"}],
		"connectableOutput": true,
		"table": {"kind": "Manual", "default": false, "parents": ["Weather"], "probabilities": [[0.8, 0.2], [0.3, 0.7]]}
	}}`, got)
}

func TestSchema_CrossNetworkInput(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := queryJSON(t, schema, `{
		node(network: "Demand", id: "Price") {
			simulated connectableInput variables
			table { kind expression probabilities }
			incoming { kind passType statePassed crossNetwork variable from { name } to { id } }
		}
	}`, nil)

	assert.JSONEq(t, `{"node": {
		"simulated": true,
		"connectableInput": true,
		"variables": ["Supply_Yield_Mean"],
		"table": {"kind": "Expression", "expression": "Arithmetic(Supply_Yield_Mean)", "probabilities": null},
		"incoming": [{
			"kind": "Mean", "passType": "Mean", "statePassed": "", "crossNetwork": true,
			"variable": "Supply_Yield_Mean", "from": {"name": "Supply.Yield"}, "to": {"id": "Price"}
		}]
	}}`, got)
}

func TestSchema_Model(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := queryJSON(t, schema, `{
		model
		networks { id children { id } descendants { id } }
		networkOrder { id }
		dataSets { id observations { network node state } }
	}`, nil)

	assert.JSONEq(t, `{
		"model": "inspect",
		"networks": [
			{"id": "Supply", "children": [{"id": "Demand"}], "descendants": [{"id": "Demand"}]},
			{"id": "Demand", "children": [], "descendants": []}
		],
		"networkOrder": [{"id": "Supply"}, {"id": "Demand"}],
		"dataSets": [{"id": "Drought", "observations": [{"network": "Supply", "node": "Weather", "state": "Dry"}]}]
	}`, got)
}

func TestSchema_NetworkOrderAndLookup(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := queryJSON(t, schema, `query($net: String!) {
		network(id: $net) { order { id } node(id: "weather") { id } }
	}`, map[string]any{"net": "supply"})

	assert.JSONEq(t, `{"network": {
		"order": [{"id": "Weather"}, {"id": "Yield"}, {"id": "Stock"}],
		"node": {"id": "Weather"}
	}}`, got)
}

func TestSchema_MissingIsNull(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := queryJSON(t, schema, `{
		network(id: "Nope") { id }
		node(network: "Supply", id: "Nope") { id }
		other: node(network: "Nope", id: "Yield") { id }
	}`, nil)
	assert.JSONEq(t, `{"network": null, "node": null, "other": null}`, got)
}

// The schema reads the model live.
func TestSchema_SeesLaterChanges(t *testing.T) {
	schema, m := newTestSchema(t)

	supply, err := m.Network("Supply")
	require.NoError(t, err)
	require.NoError(t, supply.RenameNode("Stock", "Inventory"))

	got := queryJSON(t, schema, `{ node(network: "Supply", id: "Yield") { children { id } links { kind } } }`, nil)
	assert.JSONEq(t, `{"node": {
		"children": [{"id": "Inventory"}, {"id": "Price"}],
		"links": [{"kind": "Simple"}, {"kind": "Simple"}, {"kind": "Mean"}]
	}}`, got)
}
