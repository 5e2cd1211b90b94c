package bayesnet

import "fmt"

// SetStates replaces the node's states. Tables of the node and of children
// indexed by its states are reset to their defaults.
func (n *Node) SetStates(labels ...string) error {
	return n.mutate("set_states", nil, func(tx *txn) error {
		b := NewError("set states").Node(n.network.ID(), n.ID())
		if n.simulated {
			return b.Cause(ErrSimulated).NodeErr()
		}
		states, err := ParseStates(n.typ, labels)
		if err != nil {
			return b.Cause(err).NodeErr()
		}
		if label, ok := n.passedStateMissing(states); ok {
			return b.Context("state %q", label).Cause(ErrStateInUse).NodeErr()
		}
		if err := n.network.model.replaceStates(tx, n, states, false); err != nil {
			return b.Cause(err).NodeErr()
		}
		return nil
	})
}

// SetSimulated switches an interval node between fixed states and simulation.
// A simulated node has no states; switching back restores the default intervals.
func (n *Node) SetSimulated(on bool) error {
	return n.mutate("set_simulated", nil, func(tx *txn) error {
		b := NewError("set simulated").Node(n.network.ID(), n.ID())
		if !n.typ.Interval() {
			return b.Context("type %s", n.typ).Cause(ErrNotInterval).NodeErr()
		}
		if on == n.simulated {
			return nil
		}

		var states []State
		if !on {
			var err error
			if states, err = ParseStates(n.typ, DefaultStates(n.typ)); err != nil {
				return b.Cause(err).Internal()
			}
		}
		if label, ok := n.passedStateMissing(states); ok {
			return b.Context("state %q", label).Cause(ErrStateInUse).NodeErr()
		}
		if err := n.network.model.replaceStates(tx, n, states, on); err != nil {
			return b.Cause(err).NodeErr()
		}
		return nil
	})
}

// passedStateMissing reports a state passed by an outgoing State link that is
// absent from states.
func (n *Node) passedStateMissing(states []State) (string, bool) {
	for _, l := range n.out {
		if ck, ok := l.kind.(CrossNetwork); ok && ck.Type == PassState {
			if stateIndex(states, ck.StatePassed) < 0 {
				return ck.StatePassed, true
			}
		}
	}
	return "", false
}

// State returns the state with the given label.
func (n *Node) State(label string) (State, error) {
	defer n.lock()()
	if i := stateIndex(n.states, label); i >= 0 {
		return n.states[i], nil
	}
	return State{}, NewError("state").Node(n.network.ID(), n.ID()).
		Cause(fmt.Errorf("%q: %w", label, ErrUnknownState)).NodeErr()
}
