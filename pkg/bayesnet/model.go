package bayesnet

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/algorithms"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/metrics"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
)

// Lock families shared by every registry of one entity kind, across all models.
var (
	networkFamily = identity.NewFamily("network")
	nodeFamily    = identity.NewFamily("node")
	datasetFamily = identity.NewFamily("dataset")
)

// Model owns a set of networks and the graph lock that serializes every
// structural change to them.
type Model struct {
	id      string
	cfg     Config
	engine  engine.Engine
	log     logging.Logger
	metrics *metrics.Registry
	events  *events.Bus

	// mu is the graph lock. It guards adjacency, states, tables, variables and
	// network membership of every node in the model. Registry family locks are
	// only ever taken while holding it or with nothing held.
	mu sync.RWMutex

	networks *identity.Registry[*Network]
	datasets *identity.Registry[*DataSet]
	order    []*Network // creation order, guarded by mu
}

// NewModel creates an empty model on top of eng.
func NewModel(eng engine.Engine, cfg Config) (*Model, error) {
	if eng == nil {
		return nil, errors.New("bayesnet: nil engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	m := &Model{
		id:      cfg.ModelID,
		cfg:     cfg,
		engine:  eng,
		log:     cfg.Logger.With(logging.Model(cfg.ModelID)),
		metrics: cfg.Metrics,
		events:  cfg.Events,
	}
	m.networks = identity.NewRegistry[*Network](networkFamily, "model "+m.id)
	m.datasets = identity.NewRegistry[*DataSet](datasetFamily, "model "+m.id)
	return m, nil
}

// ID returns the model identifier.
func (m *Model) ID() string {
	return m.id
}

// Engine returns the engine the model drives.
func (m *Model) Engine() engine.Engine {
	return m.engine
}

// CreateNetwork creates an empty network.
func (m *Model) CreateNetwork(id string) (*Network, error) {
	start := time.Now()
	net, err := m.createNetwork(id)
	m.finish("create_network", start, err)
	if err != nil {
		return nil, err
	}

	m.log.Info("network created", logging.Network(id))
	m.publish(events.Event{Topic: events.NetworkCreated, Network: id})
	if m.metrics != nil {
		m.metrics.AdjustGraphSize(1, 0)
	}
	return net, nil
}

func (m *Model) createNetwork(id string) (*Network, error) {
	if err := validation.ValidateIdentifier(id); err != nil {
		return nil, NewError("create network").Network(id).Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}

	res, err := m.networks.Reserve(id)
	if err != nil {
		return nil, registryErr("create", "network", "model "+m.id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var h engine.NetworkHandle
	err = m.call(engine.CallCreateNetwork, func() (err error) {
		h, err = m.engine.CreateNetwork(id)
		return err
	})
	if err != nil {
		_ = res.Rollback()
		return nil, NewError("create network").Network(id).Cause(err).NodeErr()
	}

	net := newNetwork(m, id, h)
	if err := res.Commit(net); err != nil {
		return nil, NewError("create network").Context("commit %s", id).Cause(err).Internal()
	}
	m.order = append(m.order, net)
	return net, nil
}

// Network returns the network registered as id.
func (m *Model) Network(id string) (*Network, error) {
	return m.networks.Lookup(id)
}

// Networks returns every network in creation order.
func (m *Model) Networks() []*Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Network(nil), m.order...)
}

// Node looks up a node by network and node identifier.
func (m *Model) Node(network, node string) (*Node, error) {
	net, err := m.Network(network)
	if err != nil {
		return nil, err
	}
	return net.Node(node)
}

// RenameNetwork changes a network's identifier, renaming the constants that its
// outgoing cross-network links created in other networks.
func (m *Model) RenameNetwork(oldID, newID string) error {
	start := time.Now()
	err := m.renameNetwork(oldID, newID)
	m.finish("rename_network", start, err)
	if err != nil {
		return err
	}

	m.log.Info("network renamed", logging.Network(newID), logging.String("old_id", oldID))
	m.publish(events.Event{Topic: events.NetworkRenamed, Network: newID, OldID: oldID})
	return nil
}

func (m *Model) renameNetwork(oldID, newID string) error {
	if err := validation.ValidateIdentifier(newID); err != nil {
		return NewError("rename network").Network(oldID).Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	net, err := m.networks.Lookup(oldID)
	if err != nil {
		return NewError("rename network").Network(oldID).Cause(err).NodeErr()
	}
	tx := m.begin("rename_network")
	err = m.networks.Rename(oldID, newID, func(id string) error {
		prev := net.ID()
		if err := m.call(engine.CallRenameNetwork, func() error { return m.engine.RenameNetwork(net.handle, id) }); err != nil {
			return err
		}
		net.id.Store(id)
		net.nodes.SetContainer("network " + id)
		tx.push("restore identifier of network "+prev, func() error {
			net.id.Store(prev)
			net.nodes.SetContainer("network " + prev)
			return m.call(engine.CallRenameNetwork, func() error { return m.engine.RenameNetwork(net.handle, prev) })
		})
		if err := m.renameNetworkReferences(tx, net); err != nil {
			return tx.rollback(err)
		}
		return nil
	})
	if err != nil {
		if identity.IsDuplicate(err) {
			return registryErr("rename", "network", "model "+m.id, err)
		}
		return NewError("rename network").Network(oldID).Cause(err).NodeErr()
	}
	tx.commit()
	return nil
}

// TopologicalOrder returns the networks ordered so that every cross-network
// link points from an earlier network to a later one.
func (m *Model) TopologicalOrder() ([]*Network, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return algorithms.TopologicalSort(m.order, (*Network).childrenLocked)
}

// Links returns every link of the model, ordered by source and then creation.
func (m *Model) Links() []*Link {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []*Link
	for _, net := range m.order {
		for _, n := range net.members {
			links = append(links, n.out...)
		}
	}
	return links
}

// call times one engine call. Engine calls are made with the graph lock held, so
// slow ones are logged.
func (m *Model) call(call engine.Call, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if m.metrics != nil {
		m.metrics.RecordEngineCall(string(call), err, elapsed, m.cfg.SlowEngineCall)
	}
	if elapsed > m.cfg.SlowEngineCall {
		m.log.Warn("slow engine call while holding the graph lock",
			logging.Call(string(call)), logging.Latency(elapsed))
	}
	if err != nil {
		return &EngineError{Call: string(call), Cause: err}
	}
	return nil
}

// finish records the outcome of a mutation.
func (m *Model) finish(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := metrics.StatusSuccess
	switch {
	case err == nil:
		m.log.Debug("mutation applied", logging.Operation(op), logging.Latency(elapsed))
	case isRejection(err):
		status = metrics.StatusRejected
		m.log.Debug("mutation rejected", logging.Operation(op), logging.Error(err))
	default:
		status = metrics.StatusError
		m.log.Error("mutation failed", logging.Operation(op), logging.Error(err))
	}

	if m.metrics != nil {
		m.metrics.RecordMutation(op, status, elapsed)
		var le *LinkError
		if errors.As(err, &le) {
			m.metrics.RecordLinkRejection(le.Reason.Label())
		}
	}
}

// isRejection separates rule violations from engine and internal failures.
func isRejection(err error) bool {
	var ie *InternalError
	var ee *EngineError
	if errors.As(err, &ie) || errors.As(err, &ee) {
		return false
	}
	var le *LinkError
	if errors.As(err, &le) {
		return le.Reason != ReasonEngine
	}
	return true
}

func (m *Model) publish(e events.Event) {
	if m.events == nil {
		return
	}
	e.Model = m.id
	m.events.Publish(e)
}

// flush delivers what a mutation collected while holding the graph lock.
func (m *Model) flush(tx *txn, advisor Advisor) {
	for _, e := range tx.events {
		m.publish(e)
	}
	if len(tx.warnings) == 0 {
		return
	}
	if advisor == nil {
		advisor = m.defaultAdvisor()
	}
	for _, w := range tx.warnings {
		if advisor != nil {
			advisor.Advise(w)
		}
		m.publish(events.Event{Topic: events.Advisory, Network: w.Network, Node: w.Node, Detail: w.Message})
	}
}

func (m *Model) defaultAdvisor() Advisor {
	if m.cfg.Advisor != nil {
		return m.cfg.Advisor
	}
	if m.cfg.Advisory {
		return logAdvisor{log: m.log}
	}
	return nil
}

func sortNodes(nodes []*Node) []*Node {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.network != b.network {
			return identity.Normalize(a.network.ID()) < identity.Normalize(b.network.ID())
		}
		return identity.Normalize(a.ID()) < identity.Normalize(b.ID())
	})
	return nodes
}

func sortNetworks(nets []*Network) []*Network {
	sort.Slice(nets, func(i, j int) bool {
		return identity.Normalize(nets[i].ID()) < identity.Normalize(nets[j].ID())
	})
	return nets
}
