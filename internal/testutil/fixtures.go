package testutil

import (
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/potential"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// Dimer is two hydrogen atoms 1 Å apart with no cell. Under a cutoff of
// 2 Å it has exactly the edges (0, 1, 0) and (1, 0, 0).
func Dimer() *structure.Structure {
	return &structure.Structure{
		Name:      "dimer",
		Symbols:   []string{"H", "H"},
		Positions: []ir.Vec3{{0, 0, 0}, {1, 0, 0}},
	}
}

// Cubic is one atom in a periodic 5 Å cube. Under a cutoff of 6 Å its
// only neighbors are its six face images.
func Cubic() *structure.Structure {
	return &structure.Structure{
		Name:      "cubic",
		Symbols:   []string{"H"},
		Positions: []ir.Vec3{{0.3, 0.2, 0.1}},
		Cell:      &ir.Mat3{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}},
		PBC:       [3]bool{true, true, true},
	}
}

// Triclinic is a three-atom skewed cell whose lattice is not in the
// engine's lower-triangular form, so task generation rotates it.
func Triclinic() *structure.Structure {
	return &structure.Structure{
		Name:      "triclinic",
		Symbols:   []string{"O", "H", "H"},
		Positions: []ir.Vec3{{0.1, 0.2, 0.3}, {1.2, 0.5, 0.4}, {2.3, 2.4, 2.6}},
		Cell:      &ir.Mat3{{3.6, 0.4, 0.2}, {0.5, 3.4, 0.3}, {0.2, 0.6, 3.8}},
		PBC:       [3]bool{true, true, true},
	}
}

// LennardJones is the reference potential used with the fixtures.
func LennardJones(cutoff float64) *potential.LennardJones {
	return &potential.LennardJones{Epsilon: 0.1, Sigma: 1.1, Cutoff: cutoff}
}
