package lammps

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

var identity = ir.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Prism is the engine's view of a cell: the lower-triangular box
//
//	a = (lx, 0, 0)
//	b = (xy, ly, 0)
//	c = (xz, yz, lz)
//
// and the rigid rotation that maps structure coordinates onto it.
type Prism struct {
	// Rotation maps structure coordinates to engine coordinates:
	// x_engine = Rotation·x.
	Rotation ir.Mat3

	// Cell is the engine cell, rows are lattice vectors.
	Cell ir.Mat3
}

// NewPrism returns the prism for cell. Cells already in lower-triangular
// form with positive diagonal, including every diagonal cell, are used
// unchanged with an identity rotation.
func NewPrism(cell ir.Mat3) (*Prism, error) {
	if structure.Volume(cell) == 0 {
		return nil, ir.NewConfigurationError("cell", "cell is singular")
	}
	if lowerTriangular(cell) {
		return &Prism{Rotation: identity, Cell: cell}, nil
	}

	a, b, c := ir.Vec3(cell[0]), ir.Vec3(cell[1]), ir.Vec3(cell[2])
	lx := a.Norm()
	ahat := a.Scale(1 / lx)
	xy := b.Dot(ahat)
	ly := math.Sqrt(b.Dot(b) - xy*xy)
	xz := c.Dot(ahat)
	yz := (b.Dot(c) - xy*xz) / ly
	lz := math.Sqrt(c.Dot(c) - xz*xz - yz*yz)

	engine := ir.Mat3{{lx, 0, 0}, {xy, ly, 0}, {xz, yz, lz}}

	// Rows transform as a' = R·a, so engine = cell·Rᵀ and Rᵀ = cell⁻¹·engine.
	inv, err := structure.Inverse(cell)
	if err != nil {
		return nil, err
	}
	var rt mat.Dense
	rt.Mul(structure.Dense(inv), structure.Dense(engine))

	return &Prism{Rotation: structure.FromDense(rt.T()), Cell: engine}, nil
}

// Rotated reports whether the engine frame differs from the structure frame.
func (p *Prism) Rotated() bool {
	return p.Rotation != identity
}

// Tilted reports whether the engine box has non-zero tilt factors.
func (p *Prism) Tilted() bool {
	return p.Cell[1][0] != 0 || p.Cell[2][0] != 0 || p.Cell[2][1] != 0
}

// Apply maps a structure-frame vector to the engine frame.
func (p *Prism) Apply(x ir.Vec3) ir.Vec3 {
	if !p.Rotated() {
		return x
	}
	var out ir.Vec3
	for i := 0; i < 3; i++ {
		out[i] = ir.Vec3(p.Rotation[i]).Dot(x)
	}
	return out
}

func lowerTriangular(cell ir.Mat3) bool {
	return cell[0][1] == 0 && cell[0][2] == 0 && cell[1][2] == 0 &&
		cell[0][0] > 0 && cell[1][1] > 0 && cell[2][2] > 0
}
