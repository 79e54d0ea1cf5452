// Package reconcile decides whether two independently built neighbor lists
// describe the same edge set.
//
// The two builders share no contract on enumeration order, so every check is
// order-insensitive: edges are keyed by their integer (source, target, shift)
// triple and grouped by (source, target) before any floating value is
// compared. On failure a *ir.ReconciliationError names the broken invariant
// and the offending elements.
package reconcile
