package bayesnet

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/algorithms"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/metrics"
	"github.com/google/uuid"
)

// Link is a directed edge. Same-network links are Simple; links between networks
// carry a CrossNetwork kind.
type Link struct {
	id       uuid.UUID
	from     *Node
	to       *Node
	kind     LinkKind
	variable *variable // synthetic constant on the target, guarded by model.mu
}

func (l *Link) ID() uuid.UUID  { return l.id }
func (l *Link) From() *Node    { return l.from }
func (l *Link) To() *Node      { return l.to }
func (l *Link) Kind() LinkKind { return l.kind }

// CrossNetwork reports whether the link joins two networks.
func (l *Link) CrossNetwork() bool {
	_, ok := l.kind.(CrossNetwork)
	return ok
}

// Variable returns the name of the synthetic constant the link created on its
// target, or "".
func (l *Link) Variable() string {
	defer l.to.lock()()
	if l.variable == nil {
		return ""
	}
	return l.variable.name
}

func (l *Link) String() string {
	return fmt.Sprintf("%s -> %s [%s]", l.from, l.to, l.kind)
}

func (l *Link) metricKind() string {
	if l.CrossNetwork() {
		return metrics.LinkCross
	}
	return metrics.LinkSimple
}

func nodeName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

func normalizeKind(k LinkKind) LinkKind {
	switch v := k.(type) {
	case *Simple:
		if v != nil {
			return Simple{}
		}
		return nil
	case *CrossNetwork:
		if v != nil {
			return *v
		}
		return nil
	}
	return k
}

// LinkNodes creates a link from -> to. A nil kind means Simple. Links between
// networks need a CrossNetwork kind, and the passed value is wired into the
// target as part of the same all-or-nothing operation.
func (m *Model) LinkNodes(from, to *Node, kind LinkKind) (*Link, error) {
	start := time.Now()

	m.mu.Lock()
	tx := m.begin("link_nodes")
	link, err := m.linkLocked(tx, from, to, normalizeKind(kind))
	if err != nil {
		err = tx.rollback(err)
		tx.events, tx.warnings = nil, nil
	} else {
		tx.commit()
	}
	m.mu.Unlock()

	m.finish("link_nodes", start, err)
	m.flush(tx, nil)
	if err != nil {
		return nil, err
	}

	m.log.Debug("link created", logging.Link(from.String(), to.String()), logging.LinkKind(link.kind.String()))
	if m.metrics != nil {
		m.metrics.AdjustLinks(link.metricKind(), 1)
	}
	return link, nil
}

// LinkByID is LinkNodes with the endpoints named by network and node identifier.
func (m *Model) LinkByID(fromNetwork, fromNode, toNetwork, toNode string, kind LinkKind) (*Link, error) {
	from, err := m.Node(fromNetwork, fromNode)
	if err != nil {
		return nil, NewError("link").Node(fromNetwork, fromNode).Cause(err).NodeErr()
	}
	to, err := m.Node(toNetwork, toNode)
	if err != nil {
		return nil, NewError("link").Node(toNetwork, toNode).Cause(err).NodeErr()
	}
	return m.LinkNodes(from, to, kind)
}

func (m *Model) linkLocked(tx *txn, from, to *Node, kind LinkKind) (*Link, error) {
	if from == nil || to == nil {
		return nil, NewError("link").Link(nodeName(from), nodeName(to)).Reason(ReasonForeignNode).Cause(ErrForeignNode).LinkErr()
	}
	b := NewError("link").Link(from.String(), to.String())
	reject := func(r LinkReason) error { return b.Reason(r).LinkErr() }

	if from.network.model != m || to.network.model != m {
		return nil, b.Reason(ReasonForeignNode).Cause(ErrForeignNode).LinkErr()
	}
	if from.removed || to.removed {
		return nil, b.Reason(ReasonRemovedNode).Cause(ErrNodeRemoved).LinkErr()
	}
	if from == to {
		return nil, reject(ReasonSelfLoop)
	}
	if from.hasChild(to) {
		return nil, reject(ReasonDuplicate)
	}
	if in := to.crossInput(); in != nil {
		return nil, b.Reason(ReasonInputOccupied).Context("fed by %s", in.from).LinkErr()
	}

	cross := from.network != to.network
	var ck CrossNetwork
	if cross {
		c, ok := kind.(CrossNetwork)
		if !ok {
			return nil, reject(ReasonKindRequired)
		}
		if (c.Type == PassState) != (c.StatePassed != "") {
			return nil, b.Reason(ReasonStatePassedMismatch).Context("type %s, passed state %q", c.Type, c.StatePassed).LinkErr()
		}
		if c.Type < PassMarginals || c.Type > PassState {
			return nil, b.Reason(ReasonKindRequired).Cause(ErrUnknownLinkKind).LinkErr()
		}
		if c.Type == PassState && stateIndex(from.states, c.StatePassed) < 0 {
			return nil, b.Reason(ReasonUnknownPassedState).Context("%q", c.StatePassed).LinkErr()
		}
		if to.hasCrossOutput() {
			return nil, reject(ReasonOutputConflict)
		}
		if !compatible(from, to) {
			return nil, b.Reason(ReasonIncompatible).Context("%s with %d states into %s with %d states%s",
				from.typ, len(from.states), to.typ, len(to.states), simulatedSuffix(to)).LinkErr()
		}
		ck = c
		kind = c
	} else {
		if kind == nil {
			kind = Simple{}
		}
		if _, ok := kind.(Simple); !ok {
			return nil, reject(ReasonKindNotAllowed)
		}
	}

	// Provisional adjacency, needed for the loop test.
	link := &Link{id: uuid.New(), from: from, to: to, kind: kind}
	attach(link)
	var loop bool
	if cross {
		loop = algorithms.ReachesItself(from.network, (*Network).childrenLocked)
	} else {
		loop = algorithms.ReachesItself(from, (*Node).sameNetworkChildrenLocked)
	}
	if loop {
		detach(link)
		return nil, reject(ReasonCycle)
	}
	tx.push("detach "+link.String(), func() error {
		detach(link)
		return nil
	})

	fail := func(err error) (*Link, error) {
		return nil, b.Reason(ReasonEngine).Cause(err).LinkErr()
	}

	var added bool
	err := m.call(engine.CallAddChildEdge, func() (err error) {
		added, err = m.engine.AddChildEdge(from.handle, to.handle)
		return err
	})
	if err != nil {
		return fail(err)
	}
	if !added {
		return fail(ErrEngineRefused)
	}
	tx.push("remove engine edge "+link.String(), func() error {
		return m.call(engine.CallRemoveEdge, func() error { return m.engine.RemoveEdge(from.handle, to.handle) })
	})

	if cross {
		err = m.wire(tx, link, ck)
	} else {
		err = m.resetTable(tx, to)
	}
	if err != nil {
		return fail(err)
	}

	tx.emit(events.Event{
		Topic:   events.LinkCreated,
		Network: to.network.ID(),
		Node:    to.ID(),
		From:    from.String(),
		To:      to.String(),
		Kind:    kind.String(),
	})
	return link, nil
}

// compatible is the type rule for cross-network links: equal types with equal
// state counts, or a non-numeric source feeding a simulated target.
func compatible(from, to *Node) bool {
	if from.typ == to.typ && len(from.states) == len(to.states) {
		return true
	}
	if !from.typ.Interval() && from.typ != DiscreteReal && to.simulated {
		return true
	}
	return false
}

func simulatedSuffix(n *Node) string {
	if n.simulated {
		return " (simulated)"
	}
	return ""
}

// UnlinkNodes removes the link between a and b, in either direction. It reports
// false, and changes nothing, when there is no such link.
func (m *Model) UnlinkNodes(a, b *Node) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	start := time.Now()

	m.mu.Lock()
	link := findLink(a, b)
	if link == nil {
		link = findLink(b, a)
	}
	if link == nil {
		m.mu.Unlock()
		return false, nil
	}

	tx := m.begin("unlink_nodes")
	err := m.unlinkLocked(tx, link)
	if err != nil {
		err = tx.rollback(err)
		tx.events, tx.warnings = nil, nil
	} else {
		tx.commit()
	}
	m.mu.Unlock()

	m.finish("unlink_nodes", start, err)
	m.flush(tx, nil)
	if err != nil {
		return false, err
	}

	m.log.Debug("link destroyed", logging.Link(link.from.String(), link.to.String()), logging.LinkKind(link.kind.String()))
	if m.metrics != nil {
		m.metrics.AdjustLinks(link.metricKind(), -1)
	}
	return true, nil
}

// UnlinkByID is UnlinkNodes with the endpoints named by network and node identifier.
func (m *Model) UnlinkByID(aNetwork, aNode, bNetwork, bNode string) (bool, error) {
	a, err := m.Node(aNetwork, aNode)
	if err != nil {
		return false, NewError("unlink").Node(aNetwork, aNode).Cause(err).NodeErr()
	}
	b, err := m.Node(bNetwork, bNode)
	if err != nil {
		return false, NewError("unlink").Node(bNetwork, bNode).Cause(err).NodeErr()
	}
	return m.UnlinkNodes(a, b)
}

func findLink(from, to *Node) *Link {
	for _, l := range from.out {
		if l.to == to {
			return l
		}
	}
	return nil
}

// unlinkLocked destroys the engine edge and the synthetic constant together, then
// resets the target's table.
func (m *Model) unlinkLocked(tx *txn, l *Link) error {
	from, to := l.from, l.to
	b := NewError("unlink").Link(from.String(), to.String()).Reason(ReasonEngine)

	if err := m.call(engine.CallRemoveEdge, func() error { return m.engine.RemoveEdge(from.handle, to.handle) }); err != nil {
		return b.Cause(err).LinkErr()
	}
	tx.push("restore engine edge "+l.String(), func() error {
		return m.call(engine.CallAddChildEdge, func() error {
			_, err := m.engine.AddChildEdge(from.handle, to.handle)
			return err
		})
	})

	if err := m.removeVariable(tx, l); err != nil {
		return b.Cause(err).LinkErr()
	}

	savedOut, savedIn := from.out, to.in
	detach(l)
	tx.push("reattach "+l.String(), func() error {
		from.out, to.in = savedOut, savedIn
		return nil
	})

	if l.CrossNetwork() {
		if from.output && !from.hasCrossOutput() {
			if err := m.markOutput(tx, from, false); err != nil {
				return b.Cause(err).LinkErr()
			}
		}
		if to.input && to.crossInput() == nil {
			if err := m.markInput(tx, to, false); err != nil {
				return b.Cause(err).LinkErr()
			}
		}
	}

	if err := m.resetTable(tx, to); err != nil {
		return b.Cause(err).LinkErr()
	}

	tx.emit(events.Event{
		Topic:   events.LinkDestroyed,
		Network: to.network.ID(),
		Node:    to.ID(),
		From:    from.String(),
		To:      to.String(),
		Kind:    l.kind.String(),
	})
	return nil
}

func attach(l *Link) {
	l.from.out = append(l.from.out, l)
	l.to.in = append(l.to.in, l)
}

func detach(l *Link) {
	l.from.out = removeLink(l.from.out, l)
	l.to.in = removeLink(l.to.in, l)
}

// removeLink returns a new slice so snapshots taken by readers stay valid.
func removeLink(list []*Link, l *Link) []*Link {
	for i, x := range list {
		if x == l {
			out := make([]*Link, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}
