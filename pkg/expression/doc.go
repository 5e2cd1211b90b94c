// Package expression checks node function strings before they reach the
// inference engine.
//
// A function may only call built-in functions and refer to identifiers it
// has been given: the node's parents and the expression variables the node
// owns. Check rejects anything else. Repair is the advisory counterpart: it
// replaces every unknown reference with the literal 0 and reports what it
// changed.
package expression
