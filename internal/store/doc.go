// Package store provides a SQLite-backed ledger of reproducibility runs.
//
// The ledger records verdicts only:
//   - Runs: one row per scenario execution, with pass/fail totals
//   - Cases: one row per (mode, device, structure) case of a run
//
// Neighbor lists, engine output, and workspaces are never persisted; a case
// keeps only its edge count and edge-set digest.
//
// # Ordering
//
// Runs are ordered by seq INTEGER (a per-database logical counter), never by
// timestamps. Queries use ORDER BY seq ASC, id ASC COLLATE BINARY so listings
// are stable across machines and clock skew.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Cases must reference an existing run
package store
