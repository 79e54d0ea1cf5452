// Package ir provides the shared data model for the reproducibility harness:
// the graph representation of an atomic structure (edges and neighbor lists),
// the physical quantities compared between evaluation paths, tolerances, and
// the error taxonomy every stage reports through.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key conventions:
//   - Edge pair vectors are pos[Target] - pos[Source] + Shift·Cell
//   - Cell rows are lattice vectors
//   - Edge identity is the integer Triple (Source, Target, Shift); floating
//     values are never used as map keys
//   - All JSON tags use snake_case
package ir
