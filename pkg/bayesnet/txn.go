package bayesnet

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
)

// txn records how to undo the engine calls and graph changes of one mutation.
// Each step reverts both the engine and the in-memory state, newest first.
type txn struct {
	m       *Model
	op      string
	steps   []undoStep
	covered map[*Node]bool

	// delivered after the graph lock is released
	events   []events.Event
	warnings []Warning
}

type undoStep struct {
	what string
	fn   func() error
}

func (m *Model) begin(op string) *txn {
	return &txn{m: m, op: op, covered: make(map[*Node]bool)}
}

func (tx *txn) push(what string, fn func() error) {
	tx.steps = append(tx.steps, undoStep{what: what, fn: fn})
}

// cover marks nodes whose tables are already restored by an earlier step.
func (tx *txn) cover(nodes ...*Node) {
	for _, n := range nodes {
		tx.covered[n] = true
	}
}

func (tx *txn) emit(e events.Event) {
	tx.events = append(tx.events, e)
}

func (tx *txn) warn(w Warning) {
	tx.warnings = append(tx.warnings, w)
}

// rollback undoes every step and returns cause, joined with an *InternalError
// if an undo step failed and the engine may now disagree with the graph.
func (tx *txn) rollback(cause error) error {
	if len(tx.steps) == 0 {
		return cause
	}
	if tx.m.metrics != nil {
		tx.m.metrics.RecordRollback(tx.op)
	}

	var failed []error
	for i := len(tx.steps) - 1; i >= 0; i-- {
		step := tx.steps[i]
		if err := step.fn(); err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", step.what, err))
		}
	}
	tx.steps = nil

	if len(failed) == 0 {
		tx.m.log.Error("mutation rolled back", logging.Operation(tx.op), logging.Error(cause))
		return cause
	}
	internal := NewError(tx.op).
		Context("rollback incomplete").
		Cause(errors.Join(failed...)).
		Internal()
	tx.m.log.Error("rollback failed, engine may disagree with the model",
		logging.Operation(tx.op), logging.Error(cause), logging.String("rollback_error", internal.Error()))
	return errors.Join(cause, internal)
}

// commit drops the undo steps.
func (tx *txn) commit() {
	tx.steps = nil
}
