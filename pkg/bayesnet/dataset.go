package bayesnet

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
)

// DataSet is a named scenario: one observed state per observed node.
type DataSet struct {
	model *Model
	id    atomic.Value // string

	observed map[*Node]string // state label, guarded by model.mu
	removed  bool             // guarded by model.mu
}

// Observation is one entry of a data set.
type Observation struct {
	Network string
	Node    string
	State   string
}

// ID returns the data set identifier.
func (ds *DataSet) ID() string {
	return ds.id.Load().(string)
}

// CreateDataSet creates an empty data set.
func (m *Model) CreateDataSet(id string) (*DataSet, error) {
	start := time.Now()
	ds, err := m.createDataSet(id)
	m.finish("create_dataset", start, err)
	if err != nil {
		return nil, err
	}
	m.log.Info("data set created", logging.String("dataset", id))
	return ds, nil
}

func (m *Model) createDataSet(id string) (*DataSet, error) {
	if err := validation.ValidateIdentifier(id); err != nil {
		return nil, NewError("create data set").Context("data set %q", id).Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}
	res, err := m.datasets.Reserve(id)
	if err != nil {
		return nil, registryErr("create", "data set", "model "+m.id, err)
	}
	ds := &DataSet{model: m, observed: make(map[*Node]string)}
	ds.id.Store(id)
	if err := res.Commit(ds); err != nil {
		return nil, NewError("create data set").Context("commit %s", id).Cause(err).Internal()
	}
	return ds, nil
}

// DataSet returns the data set registered as id.
func (m *Model) DataSet(id string) (*DataSet, error) {
	return m.datasets.Lookup(id)
}

// DataSets returns every data set ordered by identifier.
func (m *Model) DataSets() []*DataSet {
	return m.datasets.Values()
}

// RenameDataSet changes a data set's identifier.
func (m *Model) RenameDataSet(oldID, newID string) error {
	start := time.Now()
	err := m.renameDataSet(oldID, newID)
	m.finish("rename_dataset", start, err)
	return err
}

func (m *Model) renameDataSet(oldID, newID string) error {
	b := NewError("rename data set").Context("data set %q", oldID)
	if err := validation.ValidateIdentifier(newID); err != nil {
		return b.Cause(errors.Join(ErrInvalidID, err)).NodeErr()
	}
	ds, err := m.datasets.Lookup(oldID)
	if err != nil {
		return b.Cause(err).NodeErr()
	}
	err = m.datasets.Rename(oldID, newID, func(id string) error {
		ds.id.Store(id)
		return nil
	})
	if err != nil {
		if identity.IsDuplicate(err) {
			return registryErr("rename", "data set", "model "+m.id, err)
		}
		return b.Cause(err).NodeErr()
	}
	return nil
}

// RemoveDataSet deletes a data set and frees its identifier. The removed data
// set keeps no observations and accepts no new ones.
func (m *Model) RemoveDataSet(id string) error {
	ds, err := m.datasets.Remove(id)
	if err != nil {
		return NewError("remove data set").Context("data set %q", id).Cause(err).NodeErr()
	}
	m.mu.Lock()
	ds.removed = true
	clear(ds.observed)
	m.mu.Unlock()
	return nil
}

// Observe records that n is in the state labelled label.
func (ds *DataSet) Observe(n *Node, label string) error {
	m := ds.model
	b := NewError("observe").Context("data set %s", ds.ID())
	if n == nil || n.network.model != m {
		return b.Cause(ErrForeignNode).NodeErr()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ds.removed {
		return b.Cause(ErrDataSetRemoved).NodeErr()
	}
	b = b.Node(n.network.ID(), n.ID())
	if n.removed {
		return b.Cause(ErrNodeRemoved).NodeErr()
	}
	if !n.hasStates() {
		return b.Cause(ErrSimulated).NodeErr()
	}
	i := stateIndex(n.states, label)
	if i < 0 {
		cause := fmt.Errorf("%q: %w", label, ErrUnknownState)
		if s := identity.Closest(label, labelsOf(n.states)); s != "" {
			cause = fmt.Errorf("%q (did you mean %q?): %w", label, s, ErrUnknownState)
		}
		return b.Cause(cause).NodeErr()
	}
	ds.observed[n] = n.states[i].Label
	return nil
}

// Clear removes the observation of n. It reports whether there was one.
func (ds *DataSet) Clear(n *Node) bool {
	m := ds.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := ds.observed[n]; !ok {
		return false
	}
	delete(ds.observed, n)
	return true
}

// Observation returns the observed state of n.
func (ds *DataSet) Observation(n *Node) (string, bool) {
	ds.model.mu.RLock()
	defer ds.model.mu.RUnlock()
	label, ok := ds.observed[n]
	return label, ok
}

// Observations returns every observation ordered by network and node.
func (ds *DataSet) Observations() []Observation {
	ds.model.mu.RLock()
	defer ds.model.mu.RUnlock()

	nodes := make([]*Node, 0, len(ds.observed))
	for n := range ds.observed {
		nodes = append(nodes, n)
	}
	sortNodes(nodes)
	out := make([]Observation, len(nodes))
	for i, n := range nodes {
		out[i] = Observation{Network: n.network.ID(), Node: n.ID(), State: ds.observed[n]}
	}
	return out
}

// pruneObservations clears observations of n that name a state n no longer has.
// Each one is reported as a warning.
func (m *Model) pruneObservations(tx *txn, n *Node) {
	for _, ds := range m.datasets.Values() {
		label, ok := ds.observed[n]
		if !ok || stateIndex(n.states, label) >= 0 {
			continue
		}
		delete(ds.observed, n)
		tx.push("restore observation of "+n.String(), func() error {
			ds.observed[n] = label
			return nil
		})
		tx.warn(Warning{
			Network: n.network.ID(),
			Node:    n.ID(),
			Token:   label,
			Message: fmt.Sprintf("data set %s: observed state %q no longer exists, observation cleared", ds.ID(), label),
		})
	}
}

// forgetObservations drops every observation of a removed node.
func (m *Model) forgetObservations(n *Node) {
	cleared := 0
	for _, ds := range m.datasets.Values() {
		if _, ok := ds.observed[n]; ok {
			delete(ds.observed, n)
			cleared++
		}
	}
	if cleared > 0 {
		m.log.Debug("observations of removed node cleared",
			logging.Network(n.network.ID()), logging.Node(n.ID()), logging.Count(cleared))
	}
}
