package bayesnet

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
)

// ModelSpec is the structural description of a model, as loaded from a model file.
type ModelSpec struct {
	Networks []NetworkSpec `yaml:"networks" json:"networks" validate:"required,min=1,dive"`
	Links    []LinkSpec    `yaml:"links" json:"links" validate:"dive"`
	DataSets []DataSetSpec `yaml:"datasets" json:"datasets" validate:"dive"`
}

// NetworkSpec describes one network and its nodes.
type NetworkSpec struct {
	ID    string     `yaml:"id" json:"id" validate:"required,identifier"`
	Nodes []NodeSpec `yaml:"nodes" json:"nodes" validate:"dive"`
}

// NodeSpec describes a node. Empty States means the type's defaults.
type NodeSpec struct {
	ID        string     `yaml:"id" json:"id" validate:"required,identifier"`
	Type      string     `yaml:"type" json:"type" validate:"required"`
	States    []string   `yaml:"states" json:"states"`
	Simulated bool       `yaml:"simulated" json:"simulated"`
	Table     *TableSpec `yaml:"table" json:"table" validate:"omitempty"`
}

// TableSpec describes a node table. Probabilities use the wire orientation: one
// row per parent state combination.
type TableSpec struct {
	Kind             string      `yaml:"kind" json:"kind" validate:"required,oneof=manual expression partitioned"`
	Probabilities    [][]float64 `yaml:"probabilities" json:"probabilities"`
	Expression       string      `yaml:"expression" json:"expression"`
	PartitionParents []string    `yaml:"partition_parents" json:"partition_parents" validate:"dive,identifier"`
	Partitions       []string    `yaml:"partitions" json:"partitions"`
}

// LinkSpec describes a link. Type is empty for same-network links.
type LinkSpec struct {
	FromNetwork string `yaml:"from_network" json:"from_network" validate:"required,identifier"`
	FromNode    string `yaml:"from_node" json:"from_node" validate:"required,identifier"`
	ToNetwork   string `yaml:"to_network" json:"to_network" validate:"required,identifier"`
	ToNode      string `yaml:"to_node" json:"to_node" validate:"required,identifier"`
	Type        string `yaml:"type" json:"type"`
	StatePassed string `yaml:"state_passed" json:"state_passed"`
}

// DataSetSpec describes a data set and its observations.
type DataSetSpec struct {
	ID           string            `yaml:"id" json:"id" validate:"required,identifier"`
	Observations []ObservationSpec `yaml:"observations" json:"observations" validate:"dive"`
}

// ObservationSpec observes one node.
type ObservationSpec struct {
	Network string `yaml:"network" json:"network" validate:"required,identifier"`
	Node    string `yaml:"node" json:"node" validate:"required,identifier"`
	State   string `yaml:"state" json:"state" validate:"required"`
}

// Validate checks the spec's struct tags.
func (s *ModelSpec) Validate() error {
	return validation.ValidateStruct(s)
}

// Build creates everything spec describes: networks, nodes, links, tables and
// data sets, in that order. Each step is atomic on its own; when one fails Build
// stops and what was created before stays in the model.
func (m *Model) Build(spec *ModelSpec, opts ...TableOption) error {
	if spec == nil {
		return fmt.Errorf("build: nil spec")
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	for _, ns := range spec.Networks {
		net, err := m.CreateNetwork(ns.ID)
		if err != nil {
			return fmt.Errorf("build network %s: %w", ns.ID, err)
		}
		for _, nd := range ns.Nodes {
			t, err := ParseType(nd.Type)
			if err != nil {
				return fmt.Errorf("build node %s.%s: %w", ns.ID, nd.ID, err)
			}
			n, err := net.CreateNode(nd.ID, t, nd.States...)
			if err != nil {
				return fmt.Errorf("build node %s.%s: %w", ns.ID, nd.ID, err)
			}
			if nd.Simulated {
				if err := n.SetSimulated(true); err != nil {
					return fmt.Errorf("build node %s.%s: %w", ns.ID, nd.ID, err)
				}
			}
		}
	}

	for _, ls := range spec.Links {
		where := fmt.Sprintf("%s.%s -> %s.%s", ls.FromNetwork, ls.FromNode, ls.ToNetwork, ls.ToNode)
		kind, err := ParseLinkKind(ls.Type, ls.StatePassed)
		if err != nil {
			return fmt.Errorf("build link %s: %w", where, err)
		}
		if _, err := m.LinkByID(ls.FromNetwork, ls.FromNode, ls.ToNetwork, ls.ToNode, kind); err != nil {
			return fmt.Errorf("build link %s: %w", where, err)
		}
	}

	for _, ns := range spec.Networks {
		for _, nd := range ns.Nodes {
			if nd.Table == nil {
				continue
			}
			n, err := m.Node(ns.ID, nd.ID)
			if err != nil {
				return fmt.Errorf("build table %s.%s: %w", ns.ID, nd.ID, err)
			}
			if err := n.applySpec(nd.Table, opts); err != nil {
				return fmt.Errorf("build table %s.%s: %w", ns.ID, nd.ID, err)
			}
		}
	}

	for _, dss := range spec.DataSets {
		ds, err := m.CreateDataSet(dss.ID)
		if err != nil {
			return fmt.Errorf("build data set %s: %w", dss.ID, err)
		}
		for _, o := range dss.Observations {
			n, err := m.Node(o.Network, o.Node)
			if err != nil {
				return fmt.Errorf("build data set %s: %w", dss.ID, err)
			}
			if err := ds.Observe(n, o.State); err != nil {
				return fmt.Errorf("build data set %s: %w", dss.ID, err)
			}
		}
	}
	return nil
}

func (n *Node) applySpec(t *TableSpec, opts []TableOption) error {
	kind, err := npt.ParseKind(t.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case npt.Expression:
		return n.SetExpression(t.Expression, opts...)
	case npt.Partitioned:
		return n.SetPartitioned(t.PartitionParents, t.Partitions, opts...)
	default:
		return n.SetManualTable(t.Probabilities)
	}
}

// Spec describes the model as a ModelSpec that Build would reproduce, links in
// creation order per source node.
func (m *Model) Spec() *ModelSpec {
	spec := &ModelSpec{}
	for _, net := range m.Networks() {
		ns := NetworkSpec{ID: net.ID()}
		for _, n := range net.Nodes() {
			nd := NodeSpec{ID: n.ID(), Type: n.Type().String(), Simulated: n.Simulated()}
			if !nd.Simulated {
				nd.States = n.StateLabels()
			}
			if t := n.Table(); !t.Default {
				nd.Table = &TableSpec{
					Kind:             strings.ToLower(t.Kind.String()),
					Expression:       t.Expression,
					PartitionParents: t.PartitionParents,
					Partitions:       t.Partitions,
				}
				if wire, err := n.ManualTable(); err == nil {
					nd.Table.Probabilities = wire
				}
			}
			ns.Nodes = append(ns.Nodes, nd)
		}
		spec.Networks = append(spec.Networks, ns)
	}

	for _, l := range m.Links() {
		ls := LinkSpec{
			FromNetwork: l.from.network.ID(),
			FromNode:    l.from.ID(),
			ToNetwork:   l.to.network.ID(),
			ToNode:      l.to.ID(),
		}
		if ck, ok := l.kind.(CrossNetwork); ok {
			ls.Type = ck.Type.String()
			ls.StatePassed = ck.StatePassed
		}
		spec.Links = append(spec.Links, ls)
	}

	for _, ds := range m.DataSets() {
		dss := DataSetSpec{ID: ds.ID()}
		for _, o := range ds.Observations() {
			dss.Observations = append(dss.Observations, ObservationSpec(o))
		}
		spec.DataSets = append(spec.DataSets, dss)
	}
	return spec
}
