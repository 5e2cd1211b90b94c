// Package graphql exposes a read-only GraphQL view of a bayesnet.Model.
package graphql

import (
	"fmt"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
	"github.com/graphql-go/graphql"
)

// GenerateSchema builds the inspection schema for m. Resolvers read the model
// live, so one schema serves every later state of it.
func GenerateSchema(m *bayesnet.Model) (graphql.Schema, error) {
	tableType := createTableType()
	nodeType := createNodeType(tableType)
	linkType := createLinkType(nodeType)
	networkType := createNetworkType(nodeType)

	// Node and Link refer to each other, so the cyclic fields are added last.
	addNodeRelations(nodeType, linkType, networkType)
	addNetworkRelations(networkType)

	observationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Observation",
		Fields: graphql.Fields{
			"network": stringField(func(o bayesnet.Observation) string { return o.Network }),
			"node":    stringField(func(o bayesnet.Observation) string { return o.Node }),
			"state":   stringField(func(o bayesnet.Observation) string { return o.State }),
		},
	})
	dataSetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DataSet",
		Fields: graphql.Fields{
			"id": stringField((*bayesnet.DataSet).ID),
			"observations": &graphql.Field{
				Type: graphql.NewList(observationType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if ds, ok := p.Source.(*bayesnet.DataSet); ok {
						return ds.Observations(), nil
					}
					return nil, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"model": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.ID(), nil
				},
			},
			"networks": &graphql.Field{
				Type: graphql.NewList(networkType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.Networks(), nil
				},
			},
			"network": &graphql.Field{
				Type: networkType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					net, err := m.Network(id)
					return found(net, err)
				},
			},
			"node": &graphql.Field{
				Type: nodeType,
				Args: graphql.FieldConfigArgument{
					"network": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					net, _ := p.Args["network"].(string)
					id, _ := p.Args["id"].(string)
					n, err := m.Node(net, id)
					return found(n, err)
				},
			},
			"networkOrder": &graphql.Field{
				Type:        graphql.NewList(networkType),
				Description: "Networks ordered so that every cross-network link points forward.",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.TopologicalOrder()
				},
			},
			"links": &graphql.Field{
				Type: graphql.NewList(linkType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.Links(), nil
				},
			},
			"dataSets": &graphql.Field{
				Type: graphql.NewList(dataSetType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return m.DataSets(), nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

// found maps a lookup miss to a null result.
func found[T any](v *T, err error) (any, error) {
	if identity.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// stringField resolves a String from a source of type S.
func stringField[S any](get func(S) string) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if s, ok := p.Source.(S); ok {
				return get(s), nil
			}
			return nil, nil
		},
	}
}

func boolField[S any](get func(S) bool) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if s, ok := p.Source.(S); ok {
				return get(s), nil
			}
			return nil, nil
		},
	}
}

func listField[S any](typ graphql.Output, get func(S) any) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(typ),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if s, ok := p.Source.(S); ok {
				return get(s), nil
			}
			return nil, nil
		},
	}
}

func createTableType() *graphql.Object {
	type table = npt.Table
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Table",
		Fields: graphql.Fields{
			"kind":       stringField(func(t table) string { return t.Kind.String() }),
			"default":    boolField(func(t table) bool { return t.Default }),
			"expression": stringField(func(t table) string { return t.Expression }),
			"parents":    listField(graphql.String, func(t table) any { return t.Parents }),
			"partitionParents": listField(graphql.String, func(t table) any {
				return t.PartitionParents
			}),
			"partitions": listField(graphql.String, func(t table) any { return t.Partitions }),
			"probabilities": &graphql.Field{
				Type:        graphql.NewList(graphql.NewList(graphql.Float)),
				Description: "Manual table rows, one per parent state combination.",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					t, ok := p.Source.(table)
					if !ok || t.Kind != npt.Manual {
						return nil, nil
					}
					return t.Wire()
				},
			},
		},
	})
}

func createNodeType(tableType *graphql.Object) *graphql.Object {
	type node = *bayesnet.Node
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id":        stringField((*bayesnet.Node).ID),
			"name":      stringField((*bayesnet.Node).String),
			"type":      stringField(func(n node) string { return n.Type().String() }),
			"simulated": boolField((*bayesnet.Node).Simulated),
			"states":    listField(graphql.String, func(n node) any { return n.StateLabels() }),
			"variables": listField(graphql.String, func(n node) any { return n.Variables() }),
			"connectableInput": boolField(func(n node) bool {
				in, _ := n.Connectable()
				return in
			}),
			"connectableOutput": boolField(func(n node) bool {
				_, out := n.Connectable()
				return out
			}),
			"table": &graphql.Field{
				Type: tableType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if n, ok := p.Source.(node); ok {
						return n.Table(), nil
					}
					return nil, nil
				},
			},
		},
	})
}

func createLinkType(nodeType *graphql.Object) *graphql.Object {
	type link = *bayesnet.Link
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Link",
		Fields: graphql.Fields{
			"id":           stringField(func(l link) string { return l.ID().String() }),
			"kind":         stringField(func(l link) string { return l.Kind().String() }),
			"crossNetwork": boolField((*bayesnet.Link).CrossNetwork),
			"variable":     stringField((*bayesnet.Link).Variable),
			"passType": stringField(func(l link) string {
				if ck, ok := l.Kind().(bayesnet.CrossNetwork); ok {
					return ck.Type.String()
				}
				return ""
			}),
			"statePassed": stringField(func(l link) string {
				if ck, ok := l.Kind().(bayesnet.CrossNetwork); ok {
					return ck.StatePassed
				}
				return ""
			}),
			"from": &graphql.Field{
				Type: nodeType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if l, ok := p.Source.(link); ok {
						return l.From(), nil
					}
					return nil, nil
				},
			},
			"to": &graphql.Field{
				Type: nodeType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if l, ok := p.Source.(link); ok {
						return l.To(), nil
					}
					return nil, nil
				},
			},
		},
	})
}

func createNetworkType(nodeType *graphql.Object) *graphql.Object {
	type network = *bayesnet.Network
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Network",
		Fields: graphql.Fields{
			"id":    stringField((*bayesnet.Network).ID),
			"nodes": listField(nodeType, func(n network) any { return n.Nodes() }),
			"node": &graphql.Field{
				Type: nodeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					net, ok := p.Source.(network)
					if !ok {
						return nil, nil
					}
					id, _ := p.Args["id"].(string)
					n, err := net.Node(id)
					return found(n, err)
				},
			},
			"order": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "Nodes ordered so that every parent comes before its children.",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if net, ok := p.Source.(network); ok {
						return net.TopologicalOrder()
					}
					return nil, nil
				},
			},
		},
	})
}

func addNodeRelations(nodeType, linkType, networkType *graphql.Object) {
	type node = *bayesnet.Node
	nodeType.AddFieldConfig("network", &graphql.Field{
		Type: networkType,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if n, ok := p.Source.(node); ok {
				return n.Network(), nil
			}
			return nil, nil
		},
	})
	nodeType.AddFieldConfig("parents", listField(nodeType, func(n node) any { return n.Parents() }))
	nodeType.AddFieldConfig("children", listField(nodeType, func(n node) any { return n.Children() }))
	nodeType.AddFieldConfig("ancestors", listField(nodeType, func(n node) any { return n.Ancestors() }))
	nodeType.AddFieldConfig("descendants", listField(nodeType, func(n node) any { return n.Descendants() }))
	nodeType.AddFieldConfig("incoming", listField(linkType, func(n node) any { return n.IncomingLinks() }))
	nodeType.AddFieldConfig("outgoing", listField(linkType, func(n node) any { return n.OutgoingLinks() }))
	nodeType.AddFieldConfig("links", listField(linkType, func(n node) any {
		return append(n.IncomingLinks(), n.OutgoingLinks()...)
	}))
}

func addNetworkRelations(networkType *graphql.Object) {
	type network = *bayesnet.Network
	networkType.AddFieldConfig("parents", listField(networkType, func(n network) any { return n.Parents() }))
	networkType.AddFieldConfig("children", listField(networkType, func(n network) any { return n.Children() }))
	networkType.AddFieldConfig("ancestors", listField(networkType, func(n network) any { return n.Ancestors() }))
	networkType.AddFieldConfig("descendants", listField(networkType, func(n network) any { return n.Descendants() }))
}
