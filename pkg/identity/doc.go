// Package identity keeps identifiers unique inside a container (the nodes of one
// network, the networks or datasets of one model).
//
// Creation is split in two phases so the slow, externally visible part of building an
// entity runs outside the lock:
//
//	res, err := nodes.Reserve("Rain")   // placeholder inserted under the family lock
//	if err != nil { ... }               // ErrDuplicateID is an expected outcome
//	n, err := build()                   // no lock held
//	if err != nil {
//	    res.Rollback()                  // placeholder removed
//	    return err
//	}
//	res.Commit(n)                       // placeholder replaced by the entity
//
// Every Registry belongs to a Family. All registries of the same family share one
// lock, so two reservations of the same identifier can never both succeed and a
// rename is never observed half applied. Identifiers compare case-insensitively
// (Unicode case folding) but keep the spelling they were registered with.
package identity
