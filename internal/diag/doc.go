// Package diag parses the diagnostic text an MD engine writes to standard
// output while evaluating a deployed potential.
//
// Two blocks are extracted, in stream order:
//
//	NEQUIP edges: i j xi[:] xj[:] cell_shift[:] rij
//	0 1 0.0 0.0 0.0 1.0 0.0 0.0 0 0 0 1.0 0.0 0.0
//	...
//	end NEQUIP edges
//	...
//	cell:
//	5.0 0.0 0.0
//	0.0 5.0 0.0
//	0.0 0.0 5.0
//
// Each neighbor row carries 14 whitespace-separated numbers: source index,
// target index, source position (3), target position (3), image shift (3)
// and pair vector (3). The cell block is three rows of three numbers.
//
// The stream is consumed once by a forward-only line scanner; nothing is
// buffered beyond the current line and the record being built. The parser
// performs no semantic validation of the edges it returns.
package diag
