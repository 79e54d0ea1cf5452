package structure

import (
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Structure is an atomic configuration. It is owned by the caller and never
// modified by this package.
type Structure struct {
	// Name identifies the structure in reports.
	Name string

	// Symbols are the chemical symbols, one per atom.
	Symbols []string

	// Positions are Cartesian coordinates, one per atom.
	Positions []ir.Vec3

	// Cell holds the lattice vectors as rows. Nil for isolated systems.
	Cell *ir.Mat3

	// PBC flags periodicity along each cell vector.
	PBC [3]bool
}

// NumAtoms returns the number of atoms.
func (s *Structure) NumAtoms() int {
	return len(s.Positions)
}

// Periodic reports whether any axis is periodic.
func (s *Structure) Periodic() bool {
	return s.PBC[0] || s.PBC[1] || s.PBC[2]
}

// FullyPeriodic reports whether all three axes are periodic.
func (s *Structure) FullyPeriodic() bool {
	return s.PBC[0] && s.PBC[1] && s.PBC[2]
}

// Skewed reports whether the structure has a non-diagonal cell. Structures
// without a cell are not skewed.
func (s *Structure) Skewed() bool {
	return s.Cell != nil && !IsDiagonal(*s.Cell)
}

// Validate checks internal consistency.
//
// Returns a ConfigurationError when symbols and positions disagree in length,
// when a periodic structure has no cell, or when a periodic cell is singular.
func (s *Structure) Validate() error {
	if len(s.Symbols) != len(s.Positions) {
		return ir.NewConfigurationError("structure",
			"%q has %d symbols but %d positions", s.Name, len(s.Symbols), len(s.Positions))
	}
	if len(s.Positions) == 0 {
		return ir.NewConfigurationError("structure", "%q has no atoms", s.Name)
	}
	if s.Periodic() {
		if s.Cell == nil {
			return ir.NewConfigurationError("cell", "periodic structure %q has no cell", s.Name)
		}
		if Volume(*s.Cell) == 0 {
			return ir.NewConfigurationError("cell", "periodic structure %q has a singular cell", s.Name)
		}
	}
	return nil
}
