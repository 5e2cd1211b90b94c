package bayesnet

import (
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
)

// wire threads the value passed by a cross-network link into its target. It runs
// once, when the link is created.
func (m *Model) wire(tx *txn, l *Link, ck CrossNetwork) error {
	from, to := l.from, l.to

	if !from.output {
		if err := m.markOutput(tx, from, true); err != nil {
			return err
		}
	}
	if !to.input {
		if err := m.markInput(tx, to, true); err != nil {
			return err
		}
	}

	if ck.Type == PassMarginals {
		if to.typ.Interval() {
			return m.setTable(tx, to, expressionTable(UnboundedFunction))
		}
		return m.replaceStates(tx, to, copyStates(from.states), false)
	}

	v, err := m.addVariable(tx, l, variableName(from, ck.Type))
	if err != nil {
		return err
	}
	if ck.Type == PassState && !to.typ.Interval() {
		return m.replaceStates(tx, to, copyStates(from.states), false)
	}
	if ck.Type == PassState && !to.simulated {
		unit, err := ParseStates(to.typ, []string{"0 - 1"})
		if err != nil {
			return err
		}
		if err := m.replaceStates(tx, to, unit, false); err != nil {
			return err
		}
	}
	return m.setTable(tx, to, expressionTable("Arithmetic("+v.name+")"))
}

// variableName is the synthetic constant created on the target of a statistic or
// State link, e.g. "Supply_demand_Mean".
func variableName(from *Node, p PassType) string {
	return from.network.ID() + "_" + from.ID() + "_" + p.String()
}

func copyStates(states []State) []State {
	return append([]State(nil), states...)
}

func (m *Model) markOutput(tx *txn, n *Node, on bool) error {
	if err := m.call(engine.CallMarkConnectableOutput, func() error { return m.engine.MarkConnectableOutput(n.handle, on) }); err != nil {
		return err
	}
	n.output = on
	tx.push("restore output flag of "+n.String(), func() error {
		n.output = !on
		return m.call(engine.CallMarkConnectableOutput, func() error { return m.engine.MarkConnectableOutput(n.handle, !on) })
	})
	return nil
}

func (m *Model) markInput(tx *txn, n *Node, on bool) error {
	if err := m.call(engine.CallMarkConnectableInput, func() error { return m.engine.MarkConnectableInput(n.handle, on) }); err != nil {
		return err
	}
	n.input = on
	tx.push("restore input flag of "+n.String(), func() error {
		n.input = !on
		return m.call(engine.CallMarkConnectableInput, func() error { return m.engine.MarkConnectableInput(n.handle, !on) })
	})
	return nil
}

// addVariable creates the link's synthetic constant on its target, seeded to zero.
func (m *Model) addVariable(tx *txn, l *Link, name string) (*variable, error) {
	to := l.to
	var h engine.VariableHandle
	err := m.call(engine.CallAddExpressionVariable, func() (err error) {
		h, err = m.engine.AddExpressionVariable(to.handle, name, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	v := &variable{name: name, handle: h, link: l}
	to.variables = append(to.variables, v)
	l.variable = v
	tx.push("remove variable "+name, func() error {
		to.variables = removeVariable(to.variables, v)
		l.variable = nil
		return m.call(engine.CallRemoveExpressionVariable, func() error { return m.engine.RemoveExpressionVariable(to.handle, v.handle) })
	})
	return v, nil
}

// removeVariable destroys the link's synthetic constant, if it has one. The undo
// step recreates it under a new engine handle.
func (m *Model) removeVariable(tx *txn, l *Link) error {
	v := l.variable
	if v == nil {
		return nil
	}
	to := l.to
	if err := m.call(engine.CallRemoveExpressionVariable, func() error { return m.engine.RemoveExpressionVariable(to.handle, v.handle) }); err != nil {
		return err
	}
	saved := to.variables
	to.variables = removeVariable(to.variables, v)
	l.variable = nil

	tx.push("restore variable "+v.name, func() error {
		return m.call(engine.CallAddExpressionVariable, func() error {
			h, err := m.engine.AddExpressionVariable(to.handle, v.name, 0)
			if err != nil {
				return err
			}
			v.handle = h
			to.variables = saved
			l.variable = v
			return nil
		})
	})
	return nil
}

func removeVariable(list []*variable, v *variable) []*variable {
	out := make([]*variable, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
