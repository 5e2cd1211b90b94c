package bayesnet

import (
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/expression"
	"github.com/dd0wney/cluso-bayesnet/pkg/npt"
)

// renameNodeReferences brings everything that names n up to date after n was
// renamed from oldID: the functions of its same-network children, and the
// synthetic constants its cross-network links created downstream.
func (m *Model) renameNodeReferences(tx *txn, n *Node, oldID string) error {
	for _, c := range n.sameNetworkChildrenLocked() {
		if err := m.renameInFunction(tx, c, oldID, n.ID()); err != nil {
			return err
		}
	}
	return m.renameVariables(tx, n)
}

// renameNetworkReferences renames the constants created by every outgoing
// cross-network link of the network, since their names carry its identifier.
func (m *Model) renameNetworkReferences(tx *txn, net *Network) error {
	for _, n := range net.members {
		if err := m.renameVariables(tx, n); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) renameVariables(tx *txn, n *Node) error {
	for _, l := range n.out {
		ck, ok := l.kind.(CrossNetwork)
		if !ok || l.variable == nil {
			continue
		}
		oldName, newName := l.variable.name, variableName(n, ck.Type)
		if oldName == newName {
			continue
		}
		if err := m.renameVariable(tx, l, newName); err != nil {
			return err
		}
		if err := m.renameInFunction(tx, l.to, oldName, newName); err != nil {
			return err
		}
	}
	return nil
}

// renameVariable replaces the link's constant in the engine by one named name.
// The engine has no rename call, so the constant is removed and added again.
func (m *Model) renameVariable(tx *txn, l *Link, name string) error {
	v, to := l.variable, l.to
	oldName := v.name

	if err := m.call(engine.CallRemoveExpressionVariable, func() error { return m.engine.RemoveExpressionVariable(to.handle, v.handle) }); err != nil {
		return err
	}
	tx.push("restore variable "+oldName, func() error {
		return m.call(engine.CallAddExpressionVariable, func() error {
			h, err := m.engine.AddExpressionVariable(to.handle, oldName, 0)
			if err != nil {
				return err
			}
			v.name, v.handle = oldName, h
			return nil
		})
	})

	var h engine.VariableHandle
	err := m.call(engine.CallAddExpressionVariable, func() (err error) {
		h, err = m.engine.AddExpressionVariable(to.handle, name, 0)
		return err
	})
	if err != nil {
		return err
	}
	v.name, v.handle = name, h
	tx.push("remove variable "+name, func() error {
		return m.call(engine.CallRemoveExpressionVariable, func() error { return m.engine.RemoveExpressionVariable(to.handle, h) })
	})
	return nil
}

// renameInFunction rewrites references to from in n's expression or
// partition functions and sends the result to the engine. Manual tables name
// their parents by node, so they need nothing.
func (m *Model) renameInFunction(tx *txn, n *Node, from, to string) error {
	t := n.table
	switch t.kind {
	case npt.Expression:
		fn, changed, err := expression.Rename(t.expression, from, to)
		if err != nil || !changed {
			return err
		}
		t.expression = fn
	case npt.Partitioned:
		parts := make([]string, len(t.partitions))
		rewrote := false
		for i, p := range t.partitions {
			fn, changed, err := expression.Rename(p, from, to)
			if err != nil {
				return err
			}
			parts[i] = fn
			rewrote = rewrote || changed
		}
		if !rewrote {
			return nil
		}
		t.partitions = parts
	default:
		return nil
	}
	return m.setTable(tx, n, t)
}
