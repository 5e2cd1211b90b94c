package constraints

import (
	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
)

// Capture copies the structure of m. Each accessor takes the model's read lock
// on its own, so a model mutated during Capture may yield a torn snapshot.
func Capture(m *bayesnet.Model) *Snapshot {
	s := &Snapshot{Model: m.ID()}
	for _, net := range m.Networks() {
		ni := NetworkInfo{ID: net.ID()}
		for _, n := range net.Nodes() {
			in, out := n.Connectable()
			ni.Nodes = append(ni.Nodes, NodeInfo{
				ID:        n.ID(),
				Type:      n.Type().String(),
				States:    n.StateLabels(),
				Simulated: n.Simulated(),
				Input:     in,
				Output:    out,
				Table:     n.Table(),
			})
		}
		s.Networks = append(s.Networks, ni)
	}

	for _, l := range m.Links() {
		li := LinkInfo{
			From:  ref(l.From()),
			To:    ref(l.To()),
			Cross: l.CrossNetwork(),
		}
		if ck, ok := l.Kind().(bayesnet.CrossNetwork); ok {
			li.PassType = ck.Type.String()
			li.StatePassed = ck.StatePassed
		}
		li.Variable = l.Variable()
		s.Links = append(s.Links, li)
	}

	for _, ds := range m.DataSets() {
		di := DataSetInfo{ID: ds.ID()}
		for _, o := range ds.Observations() {
			di.Observations = append(di.Observations, ObservationInfo{
				Node:  NodeRef{Network: o.Network, Node: o.Node},
				State: o.State,
			})
		}
		s.DataSets = append(s.DataSets, di)
	}
	return s
}

func ref(n *bayesnet.Node) NodeRef {
	return NodeRef{Network: n.Network().ID(), Node: n.ID()}
}
