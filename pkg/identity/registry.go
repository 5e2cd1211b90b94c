package identity

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Family is the lock shared by every registry holding the same kind of entity.
type Family struct {
	mu   sync.RWMutex
	kind string
}

// NewFamily creates a lock family for one entity kind ("node", "network", ...).
func NewFamily(kind string) *Family {
	return &Family{kind: kind}
}

// Kind returns the entity kind this family guards.
func (f *Family) Kind() string {
	return f.kind
}

type entry[T any] struct {
	id      string
	value   T
	pending bool
	token   uuid.UUID
}

// Registry maps identifiers to the entities owning them.
type Registry[T any] struct {
	family    *Family
	container string
	entries   map[string]*entry[T]
}

// NewRegistry creates an empty registry for one container.
func NewRegistry[T any](family *Family, container string) *Registry[T] {
	return &Registry[T]{
		family:    family,
		container: container,
		entries:   make(map[string]*entry[T]),
	}
}

// SetContainer updates the name used in error messages (after the owner is renamed).
func (r *Registry[T]) SetContainer(name string) {
	r.family.mu.Lock()
	defer r.family.mu.Unlock()
	r.container = name
}

func (r *Registry[T]) fail(op, id string, cause error) error {
	e := &Error{Op: op, Container: r.container, ID: id, Cause: cause}
	if cause == ErrNotFound {
		e.Suggestion = closest(id, r.liveIDsLocked())
	}
	return e
}

// Reserve claims id for an entity that is about to be built.
func (r *Registry[T]) Reserve(id string) (*Reservation[T], error) {
	key := Normalize(id)
	if key == "" {
		return nil, &Error{Op: "reserve", Container: r.container, ID: id, Cause: ErrEmptyID}
	}

	r.family.mu.Lock()
	defer r.family.mu.Unlock()

	if _, taken := r.entries[key]; taken {
		return nil, r.fail("reserve", id, ErrDuplicateID)
	}
	token := uuid.New()
	r.entries[key] = &entry[T]{id: id, pending: true, token: token}
	return &Reservation[T]{reg: r, key: key, id: id, token: token}, nil
}

// Get returns the committed entity registered under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()

	e, ok := r.entries[Normalize(id)]
	if !ok || e.pending {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Lookup is Get with a not-found error carrying a suggestion.
func (r *Registry[T]) Lookup(id string) (T, error) {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()

	e, ok := r.entries[Normalize(id)]
	if !ok || e.pending {
		var zero T
		return zero, r.fail("lookup", id, ErrNotFound)
	}
	return e.value, nil
}

// Contains reports whether id is taken, including by a pending reservation.
func (r *Registry[T]) Contains(id string) bool {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()
	_, ok := r.entries[Normalize(id)]
	return ok
}

// Len returns the number of committed entities.
func (r *Registry[T]) Len() int {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if !e.pending {
			n++
		}
	}
	return n
}

func (r *Registry[T]) liveIDsLocked() []string {
	ids := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if !e.pending {
			ids = append(ids, e.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return Normalize(ids[i]) < Normalize(ids[j]) })
	return ids
}

// IDs returns the committed identifiers in normalized order.
func (r *Registry[T]) IDs() []string {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()
	return r.liveIDsLocked()
}

// Values returns the committed entities in the same order as IDs.
func (r *Registry[T]) Values() []T {
	r.family.mu.RLock()
	defer r.family.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for k, e := range r.entries {
		if !e.pending {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]T, 0, len(keys))
	for _, k := range keys {
		values = append(values, r.entries[k].value)
	}
	return values
}

// Remove drops a committed entity and frees its identifier.
func (r *Registry[T]) Remove(id string) (T, error) {
	r.family.mu.Lock()
	defer r.family.mu.Unlock()

	key := Normalize(id)
	e, ok := r.entries[key]
	if !ok || e.pending {
		var zero T
		return zero, r.fail("remove", id, ErrNotFound)
	}
	delete(r.entries, key)
	return e.value, nil
}

// Rename moves the entity registered as oldID to newID.
//
// The registry key is moved first and apply is then called, under the family lock,
// to update the entity's own identifier. If apply fails the key move is undone, so the
// registry and the entity never disagree about the identifier.
// Renaming to a different spelling of the same identifier is allowed.
func (r *Registry[T]) Rename(oldID, newID string, apply func(newID string) error) error {
	newKey := Normalize(newID)
	if newKey == "" {
		return &Error{Op: "rename", Container: r.container, ID: newID, Cause: ErrEmptyID}
	}

	r.family.mu.Lock()
	defer r.family.mu.Unlock()

	oldKey := Normalize(oldID)
	e, ok := r.entries[oldKey]
	if !ok || e.pending {
		return r.fail("rename", oldID, ErrNotFound)
	}
	if newKey != oldKey {
		if _, taken := r.entries[newKey]; taken {
			return r.fail("rename", newID, ErrDuplicateID)
		}
	}

	previous := e.id
	delete(r.entries, oldKey)
	e.id = newID
	r.entries[newKey] = e

	if apply != nil {
		if err := apply(newID); err != nil {
			delete(r.entries, newKey)
			e.id = previous
			r.entries[oldKey] = e
			return &Error{Op: "rename", Container: r.container, ID: oldID, Cause: err}
		}
	}
	return nil
}
