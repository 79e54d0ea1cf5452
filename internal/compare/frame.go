package compare

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// ToStructureFrame maps engine output from a rigidly rotated engine frame
// back to the structure's frame. rot is the rotation R the task generator
// applied, x_engine = R·x. Forces become Rᵀ·F and the stress tensor
// Rᵀ·σ·R. Energies are invariant. eng is not modified.
func (c Convention) ToStructureFrame(eng *ir.EngineOutput, rot ir.Mat3) *ir.EngineOutput {
	out := *eng
	r := structure.Dense(rot)

	out.Forces = make([]ir.Vec3, len(eng.Forces))
	for i, f := range eng.Forces {
		var v mat.VecDense
		v.MulVec(r.T(), mat.NewVecDense(3, []float64{f[0], f[1], f[2]}))
		out.Forces[i] = ir.Vec3{v.AtVec(0), v.AtVec(1), v.AtVec(2)}
	}

	if eng.Stress != nil {
		sigma := structure.Dense(c.Stress(*eng.Stress))
		var tmp, back mat.Dense
		tmp.Mul(r.T(), sigma)
		back.Mul(&tmp, r)
		voigt := c.Voigt(structure.FromDense(&back))
		out.Stress = &voigt
	}
	return &out
}
