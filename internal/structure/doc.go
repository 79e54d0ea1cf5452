// Package structure adapts atomic structures into the graph representation
// consumed by the potential.
//
// A Structure is an ordered list of atoms (chemical symbol and Cartesian
// position) with an optional periodic cell and per-axis periodicity flags.
// BuildNeighborList computes its edge set under a cutoff without consulting
// any external engine: every ordered pair and every periodic image within the
// cutoff becomes one directed edge. No minimum-image convention is applied,
// so a small cell yields several images of the same pair, including
// self-images of a single atom.
//
// Cell arithmetic (inverse, volume, reciprocal vectors) goes through
// gonum's mat package.
package structure
