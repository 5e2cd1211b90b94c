package identity

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID      = errors.New("identifier already in use")
	ErrNotFound         = errors.New("identifier not found")
	ErrEmptyID          = errors.New("identifier is empty")
	ErrReservationSpent = errors.New("reservation already redeemed")
)

// Error describes a failed registry operation.
type Error struct {
	Op         string // reserve, commit, rollback, rename, remove
	Container  string // e.g. "network Weather"
	ID         string
	Suggestion string // closest live identifier, only set for ErrNotFound
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q in %s: %v", e.Op, e.ID, e.Container, e.Cause)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsDuplicate reports whether err is an identifier collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}

// IsNotFound reports whether err refers to an identifier that is not tracked.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
