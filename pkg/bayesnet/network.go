package bayesnet

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/algorithms"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
)

// Network is one Bayesian network of a model. Its parents and children are the
// networks connected to it by cross-network links.
type Network struct {
	model  *Model
	id     atomic.Value // string
	handle engine.NetworkHandle
	nodes  *identity.Registry[*Node]

	members []*Node // creation order, guarded by model.mu
}

func newNetwork(m *Model, id string, h engine.NetworkHandle) *Network {
	net := &Network{
		model:  m,
		handle: h,
		nodes:  identity.NewRegistry[*Node](nodeFamily, "network "+id),
	}
	net.id.Store(id)
	return net
}

// ID returns the network identifier.
func (net *Network) ID() string {
	return net.id.Load().(string)
}

// Model returns the owning model.
func (net *Network) Model() *Model {
	return net.model
}

// Node returns the node registered as id.
func (net *Network) Node(id string) (*Node, error) {
	return net.nodes.Lookup(id)
}

// Nodes returns the network's nodes in creation order.
func (net *Network) Nodes() []*Node {
	net.model.mu.RLock()
	defer net.model.mu.RUnlock()
	return append([]*Node(nil), net.members...)
}

// CreateNode creates a node of type t. Without states the type's defaults are used.
func (net *Network) CreateNode(id string, t Type, states ...string) (*Node, error) {
	m := net.model
	start := time.Now()
	n, tx, err := net.createNode(id, t, states)
	m.finish("create_node", start, err)
	if err != nil {
		return nil, err
	}

	m.log.Info("node created", logging.Network(net.ID()), logging.Node(id), logging.String("type", t.String()))
	m.flush(tx, nil)
	if m.metrics != nil {
		m.metrics.AdjustGraphSize(0, 1)
	}
	return n, nil
}

func (net *Network) createNode(id string, t Type, labels []string) (*Node, *txn, error) {
	m := net.model
	b := NewError("create node").Node(net.ID(), id)

	if err := validation.ValidateIdentifier(id); err != nil {
		return nil, nil, b.Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}
	if t < Boolean || t > IntegerInterval {
		return nil, nil, b.Context("type %d", int(t)).Cause(ErrInvalidStates).NodeErr()
	}
	if len(labels) == 0 {
		labels = DefaultStates(t)
	}
	states, err := ParseStates(t, labels)
	if err != nil {
		return nil, nil, b.Cause(err).NodeErr()
	}

	// Reserve outside the graph lock; the engine work below happens under it.
	res, err := net.nodes.Reserve(id)
	if err != nil {
		return nil, nil, registryErr("create", "node", "network "+net.ID(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := m.begin("create_node")
	n, err := net.buildNode(tx, id, t, states)
	if err != nil {
		err = tx.rollback(err)
		_ = res.Rollback()
		return nil, nil, b.Cause(err).NodeErr()
	}
	if err := res.Commit(n); err != nil {
		_ = tx.rollback(err)
		return nil, nil, NewError("create node").Context("commit %s", id).Cause(err).Internal()
	}
	tx.commit()

	net.members = append(net.members, n)
	tx.emit(events.Event{Topic: events.NodeCreated, Network: net.ID(), Node: id, Kind: t.String()})
	return n, tx, nil
}

// buildNode creates the engine node with its states and default table.
func (net *Network) buildNode(tx *txn, id string, t Type, states []State) (*Node, error) {
	m := net.model

	var h engine.NodeHandle
	err := m.call(engine.CallCreateNode, func() (err error) {
		h, err = m.engine.CreateNode(net.handle, t.engineKind(), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	tx.push("remove engine node "+id, func() error {
		return m.call(engine.CallRemoveNode, func() error { return m.engine.RemoveNode(h) })
	})

	if err := m.call(engine.CallSetStates, func() error { return m.engine.SetStates(h, engineStates(states)) }); err != nil {
		return nil, err
	}

	n := &Node{network: net, typ: t, handle: h, states: states}
	n.id.Store(id)
	n.table = n.defaultTable()
	if err := m.applyTable(n, n.table); err != nil {
		return nil, err
	}
	return n, nil
}

// RenameNode changes a node's identifier. The engine is told first; if it fails the
// registry keeps the old identifier. Functions of same-network children and the
// constants of outgoing cross-network links are rewritten to the new identifier in
// the same mutation.
func (net *Network) RenameNode(oldID, newID string) error {
	m := net.model
	start := time.Now()
	err := net.renameNode(oldID, newID)
	m.finish("rename_node", start, err)
	if err != nil {
		return err
	}

	m.log.Info("node renamed", logging.Network(net.ID()), logging.Node(newID), logging.String("old_id", oldID))
	m.publish(events.Event{Topic: events.NodeRenamed, Network: net.ID(), Node: newID, OldID: oldID})
	return nil
}

func (net *Network) renameNode(oldID, newID string) error {
	m := net.model
	b := NewError("rename node").Node(net.ID(), oldID)
	if err := validation.ValidateIdentifier(newID); err != nil {
		return b.Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := net.nodes.Lookup(oldID)
	if err != nil {
		return b.Cause(err).NodeErr()
	}
	tx := m.begin("rename_node")
	err = net.nodes.Rename(oldID, newID, func(id string) error {
		prev := n.ID()
		if err := m.call(engine.CallRenameNode, func() error { return m.engine.RenameNode(n.handle, id) }); err != nil {
			return err
		}
		n.id.Store(id)
		tx.push("restore identifier of "+n.String(), func() error {
			n.id.Store(prev)
			return m.call(engine.CallRenameNode, func() error { return m.engine.RenameNode(n.handle, prev) })
		})
		if err := m.renameNodeReferences(tx, n, prev); err != nil {
			return tx.rollback(err)
		}
		return nil
	})
	if err != nil {
		if identity.IsDuplicate(err) {
			return registryErr("rename", "node", "network "+net.ID(), err)
		}
		return b.Cause(err).NodeErr()
	}
	tx.commit()
	return nil
}

// RemoveNode unlinks every link of the node, destroys it in the engine and frees its
// identifier. Each unlink is atomic; if one fails the node keeps its remaining links.
func (net *Network) RemoveNode(id string) error {
	m := net.model
	start := time.Now()

	m.mu.Lock()
	tx, err := net.removeNode(id)
	m.mu.Unlock()

	m.finish("remove_node", start, err)
	if tx != nil {
		m.flush(tx, nil)
	}
	if err != nil {
		return err
	}
	m.log.Info("node removed", logging.Network(net.ID()), logging.Node(id))
	if m.metrics != nil {
		m.metrics.AdjustGraphSize(0, -1)
	}
	return nil
}

func (net *Network) removeNode(id string) (*txn, error) {
	m := net.model
	b := NewError("remove node").Node(net.ID(), id)

	n, err := net.nodes.Lookup(id)
	if err != nil {
		return nil, b.Cause(err).NodeErr()
	}

	tx := m.begin("remove_node")
	links := append(append([]*Link(nil), n.in...), n.out...)
	for _, l := range links {
		utx := m.begin("unlink_nodes")
		if err := m.unlinkLocked(utx, l); err != nil {
			tx.events = append(tx.events, utx.events...)
			return tx, b.Cause(utx.rollback(err)).NodeErr()
		}
		utx.commit()
		tx.events = append(tx.events, utx.events...)
		tx.warnings = append(tx.warnings, utx.warnings...)
		if m.metrics != nil {
			m.metrics.AdjustLinks(l.metricKind(), -1)
		}
	}

	if err := m.call(engine.CallRemoveNode, func() error { return m.engine.RemoveNode(n.handle) }); err != nil {
		return tx, b.Cause(err).NodeErr()
	}
	if _, err := net.nodes.Remove(id); err != nil {
		return tx, NewError("remove node").Context("registry lost %s", id).Cause(errors.Join(ErrRegistryDrift, err)).Internal()
	}

	n.removed = true
	net.members = removeNode(net.members, n)
	m.forgetObservations(n)
	tx.emit(events.Event{Topic: events.NodeRemoved, Network: net.ID(), Node: n.ID()})
	return tx, nil
}

// Parents returns the networks that feed this one through cross-network links.
func (net *Network) Parents() []*Network {
	net.model.mu.RLock()
	defer net.model.mu.RUnlock()
	return sortNetworks(net.parentsLocked())
}

// Children returns the networks this one feeds through cross-network links.
func (net *Network) Children() []*Network {
	net.model.mu.RLock()
	defer net.model.mu.RUnlock()
	return sortNetworks(net.childrenLocked())
}

// Ancestors returns every network that reaches this one through cross-network links.
func (net *Network) Ancestors() []*Network {
	return net.closure(func(x *Network) []*Network { return x.Parents() })
}

// Descendants returns every network reachable from this one through cross-network links.
func (net *Network) Descendants() []*Network {
	return net.closure(func(x *Network) []*Network { return x.Children() })
}

func (net *Network) closure(next algorithms.Successors[*Network]) []*Network {
	reached := algorithms.Reachable(net, next)
	out := make([]*Network, 0, len(reached))
	for x := range reached {
		if x != net {
			out = append(out, x)
		}
	}
	return sortNetworks(out)
}

// TopologicalOrder returns the network's nodes ordered parents first, following
// same-network links only.
func (net *Network) TopologicalOrder() ([]*Node, error) {
	net.model.mu.RLock()
	defer net.model.mu.RUnlock()
	return algorithms.TopologicalSort(net.members, (*Node).sameNetworkChildrenLocked)
}

func (net *Network) parentsLocked() []*Network {
	var out []*Network
	seen := make(map[*Network]bool)
	for _, n := range net.members {
		for _, l := range n.in {
			if p := l.from.network; p != net && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func (net *Network) childrenLocked() []*Network {
	var out []*Network
	seen := make(map[*Network]bool)
	for _, n := range net.members {
		for _, l := range n.out {
			if c := l.to.network; c != net && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func removeNode(list []*Node, n *Node) []*Node {
	for i, x := range list {
		if x == n {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
