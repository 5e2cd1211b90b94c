package bayesnet

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/expression"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
)

// UnboundedFunction is the function given to continuous nodes that receive a
// full distribution rather than a single value.
const UnboundedFunction = "Normal(0,1000000)"

// tableState is a node's table with parents held as nodes, so renames show up.
type tableState struct {
	kind             npt.Kind
	matrix           [][]float64 // memory orientation
	parents          []*Node
	expression       string
	partitionParents []*Node
	partitions       []string
	def              bool
}

func (t tableState) export() npt.Table {
	out := npt.Table{
		Kind:       t.kind,
		Expression: t.expression,
		Default:    t.def,
	}
	out.Matrix = npt.Table{Matrix: t.matrix}.Clone().Matrix
	for _, p := range t.parents {
		out.Parents = append(out.Parents, p.ID())
	}
	for _, p := range t.partitionParents {
		out.PartitionParents = append(out.PartitionParents, p.ID())
	}
	out.Partitions = append([]string(nil), t.partitions...)
	return out
}

// defaultTable is uniform over the node's states, or the unbounded function for a
// node without states.
func (n *Node) defaultTable() tableState {
	if !n.hasStates() {
		return tableState{kind: npt.Expression, expression: UnboundedFunction, def: true}
	}
	parents := n.tableParents()
	return tableState{
		kind:    npt.Manual,
		matrix:  npt.Uniform(len(n.states), stateCounts(parents)),
		parents: parents,
		def:     true,
	}
}

func expressionTable(fn string) tableState {
	return tableState{kind: npt.Expression, expression: fn}
}

func stateCounts(nodes []*Node) []int {
	out := make([]int, len(nodes))
	for i, p := range nodes {
		out[i] = len(p.states)
	}
	return out
}

func handles(nodes []*Node) []engine.NodeHandle {
	out := make([]engine.NodeHandle, len(nodes))
	for i, p := range nodes {
		out[i] = p.handle
	}
	return out
}

// applyTable sends a table to the engine.
func (m *Model) applyTable(n *Node, t tableState) error {
	switch t.kind {
	case npt.Manual:
		return m.call(engine.CallSetManualTable, func() error {
			return m.engine.SetManualTable(n.handle, t.matrix, handles(t.parents))
		})
	case npt.Partitioned:
		return m.call(engine.CallSetExpression, func() error {
			return m.engine.SetExpression(n.handle, engine.FunctionSpec{
				PartitionParents: handles(t.partitionParents),
				Partitions:       t.partitions,
			})
		})
	default:
		return m.call(engine.CallSetExpression, func() error {
			return m.engine.SetExpression(n.handle, engine.FunctionSpec{Expression: t.expression})
		})
	}
}

// setTable replaces a node's table in the engine and in memory.
func (m *Model) setTable(tx *txn, n *Node, t tableState) error {
	old := n.table
	if err := m.applyTable(n, t); err != nil {
		return err
	}
	n.table = t
	if !tx.covered[n] {
		tx.push("restore table of "+n.String(), func() error {
			n.table = old
			return m.applyTable(n, old)
		})
	}
	return nil
}

// resetTable replaces a node's table by its default.
func (m *Model) resetTable(tx *txn, n *Node) error {
	if err := m.setTable(tx, n, n.defaultTable()); err != nil {
		return err
	}
	tx.emit(events.Event{Topic: events.TableReset, Network: n.network.ID(), Node: n.ID()})
	if m.metrics != nil {
		m.metrics.RecordTableReset()
	}
	return nil
}

// replaceStates changes a node's states and resets the tables that depend on them.
// The undo step restores the states first and then every affected table, so the
// tables are marked covered.
func (m *Model) replaceStates(tx *txn, n *Node, states []State, simulated bool) error {
	deps := n.tableDependents()
	oldStates, oldSimulated := n.states, n.simulated
	saved := make(map[*Node]tableState, len(deps)+1)
	saved[n] = n.table
	for _, c := range deps {
		saved[c] = c.table
	}

	if simulated != oldSimulated {
		if err := m.call(engine.CallSetSimulated, func() error { return m.engine.SetSimulated(n.handle, simulated) }); err != nil {
			return err
		}
	}
	if !simulated {
		if err := m.call(engine.CallSetStates, func() error { return m.engine.SetStates(n.handle, engineStates(states)) }); err != nil {
			if simulated != oldSimulated {
				_ = m.call(engine.CallSetSimulated, func() error { return m.engine.SetSimulated(n.handle, oldSimulated) })
			}
			return err
		}
	}
	n.states, n.simulated = states, simulated

	tx.push("restore states of "+n.String(), func() error {
		var errs []error
		if simulated != oldSimulated {
			errs = append(errs, m.call(engine.CallSetSimulated, func() error { return m.engine.SetSimulated(n.handle, oldSimulated) }))
		}
		if !oldSimulated {
			errs = append(errs, m.call(engine.CallSetStates, func() error { return m.engine.SetStates(n.handle, engineStates(oldStates)) }))
		}
		n.states, n.simulated = oldStates, oldSimulated
		for node, t := range saved {
			node.table = t
			errs = append(errs, m.applyTable(node, t))
		}
		return errors.Join(errs...)
	})
	tx.cover(n)
	tx.cover(deps...)

	if err := m.resetTable(tx, n); err != nil {
		return err
	}
	for _, c := range deps {
		if err := m.resetTable(tx, c); err != nil {
			return err
		}
	}
	tx.emit(events.Event{Topic: events.StatesChanged, Network: n.network.ID(), Node: n.ID()})
	m.pruneObservations(tx, n)
	return nil
}

// SetManualTable assigns a manual table given in wire orientation: one row per
// combination of the table parents' states, one column per own state.
func (n *Node) SetManualTable(wire [][]float64) error {
	return n.mutate("set_manual_table", nil, func(tx *txn) error {
		b := NewError("set manual table").Node(n.network.ID(), n.ID())
		if !n.hasStates() {
			return b.Cause(ErrSimulated).NodeErr()
		}
		parents := n.tableParents()
		memory, err := npt.ToMemory(wire, len(n.states), stateCounts(parents))
		if err != nil {
			return b.Cause(err).NodeErr()
		}
		t := tableState{kind: npt.Manual, matrix: memory, parents: parents}
		if err := n.network.model.setTable(tx, n, t); err != nil {
			return b.Cause(err).NodeErr()
		}
		n.emitAssigned(tx)
		return nil
	})
}

// ManualTable returns the manual table in wire orientation.
func (n *Node) ManualTable() ([][]float64, error) {
	defer n.lock()()
	if n.table.kind != npt.Manual {
		return nil, NewError("manual table").Node(n.network.ID(), n.ID()).
			Cause(fmt.Errorf("table is %s", n.table.kind)).NodeErr()
	}
	return npt.ToWire(n.table.matrix)
}

// SetExpression assigns a single function over the node's parents and variables.
// In best-effort mode unknown tokens are replaced by 0 and reported instead of
// failing the call.
func (n *Node) SetExpression(fn string, opts ...TableOption) error {
	o := n.network.model.tableOptions(opts)
	return n.mutate("set_expression", o.advisor, func(tx *txn) error {
		b := NewError("set expression").Node(n.network.ID(), n.ID())
		checked, err := n.checkFunction(tx, fn, o.advisor)
		if err != nil {
			return b.Cause(err).NodeErr()
		}
		if err := n.network.model.setTable(tx, n, expressionTable(checked)); err != nil {
			return b.Cause(err).NodeErr()
		}
		n.emitAssigned(tx)
		return nil
	})
}

// SetPartitioned assigns one function per combination of the partition parents'
// states, first parent most significant.
func (n *Node) SetPartitioned(partitionParents []string, fns []string, opts ...TableOption) error {
	o := n.network.model.tableOptions(opts)
	return n.mutate("set_partitioned", o.advisor, func(tx *txn) error {
		b := NewError("set partitioned").Node(n.network.ID(), n.ID())

		parents, err := n.resolvePartitionParents(partitionParents)
		if err != nil {
			return b.Cause(err).NodeErr()
		}
		if err := npt.CheckPartitions(stateCounts(parents), fns); err != nil {
			return b.Cause(err).NodeErr()
		}
		checked := make([]string, len(fns))
		for i, fn := range fns {
			c, err := n.checkFunction(tx, fn, o.advisor)
			if err != nil {
				return b.Context("partition %d", i).Cause(err).NodeErr()
			}
			checked[i] = c
		}

		t := tableState{kind: npt.Partitioned, partitionParents: parents, partitions: checked}
		if err := n.network.model.setTable(tx, n, t); err != nil {
			return b.Cause(err).NodeErr()
		}
		n.emitAssigned(tx)
		return nil
	})
}

func (n *Node) emitAssigned(tx *txn) {
	tx.emit(events.Event{Topic: events.TableAssigned, Network: n.network.ID(), Node: n.ID(), Detail: n.table.kind.String()})
}

// ResetTable replaces the node's table by its default.
func (n *Node) ResetTable() error {
	return n.mutate("reset_table", nil, func(tx *txn) error {
		if err := n.network.model.resetTable(tx, n); err != nil {
			return NewError("reset table").Node(n.network.ID(), n.ID()).Cause(err).NodeErr()
		}
		return nil
	})
}

func (n *Node) resolvePartitionParents(ids []string) ([]*Node, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no partition parents: %w", ErrTableParents)
	}
	candidates := n.tableParents()
	out := make([]*Node, 0, len(ids))
	seen := make(map[*Node]bool)
	for _, id := range ids {
		var found *Node
		for _, p := range candidates {
			if identity.Equal(p.ID(), id) {
				found = p
				break
			}
		}
		if found == nil || seen[found] {
			return nil, fmt.Errorf("%q: %w", id, ErrTableParents)
		}
		seen[found] = true
		out = append(out, found)
	}
	return out, nil
}

// checkFunction validates fn against the node's allowed tokens, repairing it when
// an advisor is present.
func (n *Node) checkFunction(tx *txn, fn string, advisor Advisor) (string, error) {
	allowed := n.allowedTokens()
	_, err := expression.Check(fn, allowed)
	if err == nil {
		return fn, nil
	}
	if advisor == nil || errors.Is(err, expression.ErrEmpty) {
		return "", err
	}

	repaired, warnings := expression.Repair(fn, allowed)
	if _, err := expression.Check(repaired, allowed); err != nil {
		return "", err
	}
	for _, w := range warnings {
		tx.warn(Warning{Network: n.network.ID(), Node: n.ID(), Token: w.Token, Message: w.Message})
	}
	if m := n.network.model; m.metrics != nil {
		m.metrics.RecordAdvisoryRepairs(len(warnings))
	}
	return repaired, nil
}

func (m *Model) tableOptions(opts []TableOption) tableOptions {
	o := tableOptions{advisor: m.defaultAdvisor()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// mutate runs fn under the graph lock as one all-or-nothing mutation of n.
func (n *Node) mutate(op string, advisor Advisor, fn func(tx *txn) error) error {
	m := n.network.model
	start := time.Now()

	m.mu.Lock()
	tx := m.begin(op)
	var err error
	if n.removed {
		err = NewError(op).Node(n.network.ID(), n.ID()).Cause(ErrNodeRemoved).NodeErr()
	} else if err = fn(tx); err != nil {
		err = tx.rollback(err)
		tx.events, tx.warnings = nil, nil
	} else {
		tx.commit()
	}
	m.mu.Unlock()

	m.finish(op, start, err)
	m.flush(tx, advisor)
	return err
}
