package identity

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Reservation is a claim on an identifier, redeemable exactly once by Commit or Rollback.
type Reservation[T any] struct {
	reg   *Registry[T]
	key   string
	id    string
	token uuid.UUID
	spent atomic.Bool
}

// ID returns the identifier as it was requested.
func (res *Reservation[T]) ID() string {
	return res.id
}

// Token uniquely identifies this reservation.
func (res *Reservation[T]) Token() uuid.UUID {
	return res.token
}

// Commit stores the built entity in the reserved slot.
func (res *Reservation[T]) Commit(value T) error {
	if !res.spent.CompareAndSwap(false, true) {
		return &Error{Op: "commit", Container: res.reg.container, ID: res.id, Cause: ErrReservationSpent}
	}

	r := res.reg
	r.family.mu.Lock()
	defer r.family.mu.Unlock()

	e, ok := r.entries[res.key]
	if !ok || !e.pending || e.token != res.token {
		// The slot can only disappear through a bug in this package.
		panic("identity: reservation slot for " + res.id + " lost before commit")
	}
	e.value = value
	e.pending = false
	return nil
}

// Rollback releases the reserved identifier.
func (res *Reservation[T]) Rollback() error {
	if !res.spent.CompareAndSwap(false, true) {
		return &Error{Op: "rollback", Container: res.reg.container, ID: res.id, Cause: ErrReservationSpent}
	}

	r := res.reg
	r.family.mu.Lock()
	defer r.family.mu.Unlock()

	if e, ok := r.entries[res.key]; ok && e.pending && e.token == res.token {
		delete(r.entries, res.key)
	}
	return nil
}
