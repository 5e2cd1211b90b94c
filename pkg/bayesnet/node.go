package bayesnet

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-bayesnet/pkg/algorithms"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
)

// Node is a vertex of one network. Its type is fixed at creation.
type Node struct {
	network *Network
	id      atomic.Value // string
	typ     Type
	handle  engine.NodeHandle

	// guarded by model.mu
	states    []State
	simulated bool
	in        []*Link
	out       []*Link
	table     tableState
	variables []*variable
	input     bool // marked connectable input in the engine
	output    bool
	removed   bool
}

// variable is an expression variable owned by a node. Cross-network links create
// one on their target to carry the passed value.
type variable struct {
	name   string
	handle engine.VariableHandle
	link   *Link
}

// ID returns the node identifier.
func (n *Node) ID() string {
	return n.id.Load().(string)
}

// Network returns the owning network.
func (n *Node) Network() *Network {
	return n.network
}

// Type returns the node type.
func (n *Node) Type() Type {
	return n.typ
}

// String returns the network-qualified identifier.
func (n *Node) String() string {
	return n.network.ID() + "." + n.ID()
}

func (n *Node) lock() func() {
	n.network.model.mu.RLock()
	return n.network.model.mu.RUnlock
}

// States returns a copy of the node's states. Simulated nodes have none.
func (n *Node) States() []State {
	defer n.lock()()
	return append([]State(nil), n.states...)
}

// StateLabels returns the labels of the node's states.
func (n *Node) StateLabels() []string {
	defer n.lock()()
	return labelsOf(n.states)
}

// Simulated reports whether the node is solved by sampling.
func (n *Node) Simulated() bool {
	defer n.lock()()
	return n.simulated
}

// Removed reports whether the node was removed from its network.
func (n *Node) Removed() bool {
	defer n.lock()()
	return n.removed
}

// Connectable reports the engine's connectable input and output flags.
func (n *Node) Connectable() (input, output bool) {
	defer n.lock()()
	return n.input, n.output
}

// Variables returns the names of the node's expression variables.
func (n *Node) Variables() []string {
	defer n.lock()()
	out := make([]string, len(n.variables))
	for i, v := range n.variables {
		out[i] = v.name
	}
	return out
}

// Table returns a copy of the node's table with parents named by identifier.
func (n *Node) Table() npt.Table {
	defer n.lock()()
	return n.table.export()
}

// IncomingLinks returns the links ending at the node, in creation order.
func (n *Node) IncomingLinks() []*Link {
	defer n.lock()()
	return append([]*Link(nil), n.in...)
}

// OutgoingLinks returns the links starting at the node, in creation order.
func (n *Node) OutgoingLinks() []*Link {
	defer n.lock()()
	return append([]*Link(nil), n.out...)
}

// Parents returns the source of every incoming link, including cross-network ones.
func (n *Node) Parents() []*Node {
	defer n.lock()()
	return n.parentsLocked()
}

// Children returns the target of every outgoing link, including cross-network ones.
func (n *Node) Children() []*Node {
	defer n.lock()()
	return n.childrenLocked()
}

// Ancestors returns every node that reaches this one through same-network links.
// Each step takes the graph lock separately, so the result is not a consistent
// snapshot if the graph is edited concurrently.
func (n *Node) Ancestors() []*Node {
	return n.closure(func(x *Node) []*Node {
		defer x.lock()()
		return x.sameNetworkParentsLocked()
	})
}

// Descendants returns every node reachable from this one through same-network links.
func (n *Node) Descendants() []*Node {
	return n.closure(func(x *Node) []*Node {
		defer x.lock()()
		return x.sameNetworkChildrenLocked()
	})
}

func (n *Node) closure(next algorithms.Successors[*Node]) []*Node {
	reached := algorithms.Reachable(n, next)
	out := make([]*Node, 0, len(reached))
	for x := range reached {
		if x != n {
			out = append(out, x)
		}
	}
	return sortNodes(out)
}

func (n *Node) parentsLocked() []*Node {
	out := make([]*Node, len(n.in))
	for i, l := range n.in {
		out[i] = l.from
	}
	return out
}

func (n *Node) childrenLocked() []*Node {
	out := make([]*Node, len(n.out))
	for i, l := range n.out {
		out[i] = l.to
	}
	return out
}

func (n *Node) sameNetworkParentsLocked() []*Node {
	var out []*Node
	for _, l := range n.in {
		if l.from.network == n.network {
			out = append(out, l.from)
		}
	}
	return out
}

func (n *Node) sameNetworkChildrenLocked() []*Node {
	var out []*Node
	for _, l := range n.out {
		if l.to.network == n.network {
			out = append(out, l.to)
		}
	}
	return out
}

func (n *Node) hasChild(c *Node) bool {
	for _, l := range n.out {
		if l.to == c {
			return true
		}
	}
	return false
}

// crossInput returns the node's incoming cross-network link, if any.
func (n *Node) crossInput() *Link {
	for _, l := range n.in {
		if l.CrossNetwork() {
			return l
		}
	}
	return nil
}

func (n *Node) hasCrossOutput() bool {
	for _, l := range n.out {
		if l.CrossNetwork() {
			return true
		}
	}
	return false
}

// tableParents are the parents that index a manual table: same-network parents
// that have states. Simulated parents are discretised by the engine.
func (n *Node) tableParents() []*Node {
	var out []*Node
	for _, p := range n.sameNetworkParentsLocked() {
		if !p.simulated {
			out = append(out, p)
		}
	}
	return out
}

// tableDependents are the children whose table is indexed by parent states and
// so must be reset when this node's states change.
func (n *Node) tableDependents() []*Node {
	var out []*Node
	for _, c := range n.sameNetworkChildrenLocked() {
		if c.table.kind != npt.Expression {
			out = append(out, c)
		}
	}
	return out
}

// allowedTokens are the identifiers a function of this node may use.
func (n *Node) allowedTokens() []string {
	var out []string
	for _, p := range n.sameNetworkParentsLocked() {
		out = append(out, p.ID())
	}
	for _, v := range n.variables {
		out = append(out, v.name)
	}
	return out
}

func (n *Node) hasStates() bool {
	return !n.simulated && len(n.states) > 0
}
