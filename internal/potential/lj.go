package potential

import (
	"context"
	"math"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// LennardJones is the 12-6 pair potential
//
//	φ(r) = 4ε[(σ/r)¹² − (σ/r)⁶],  r <= Cutoff
//
// without energy shift. Each directed edge carries half the pair energy,
// so an atom's energy is ½Σφ over its edges.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

// Validate checks the parameters.
func (lj *LennardJones) Validate() error {
	if !(lj.Epsilon > 0) {
		return ir.NewConfigurationError("reference.epsilon", "must be positive, got %g", lj.Epsilon)
	}
	if !(lj.Sigma > 0) {
		return ir.NewConfigurationError("reference.sigma", "must be positive, got %g", lj.Sigma)
	}
	if !(lj.Cutoff > 0) || math.IsInf(lj.Cutoff, 0) {
		return ir.NewConfigurationError("cutoff", "must be positive and finite, got %g", lj.Cutoff)
	}
	return nil
}

// pair returns φ(r) and dφ/dr.
func (lj *LennardJones) pair(r float64) (float64, float64) {
	sr6 := math.Pow(lj.Sigma/r, 6)
	sr12 := sr6 * sr6
	e := 4 * lj.Epsilon * (sr12 - sr6)
	de := 4 * lj.Epsilon * (-12*sr12 + 6*sr6) / r
	return e, de
}

// Evaluate implements Potential.
func (lj *LennardJones) Evaluate(ctx context.Context, s *structure.Structure) (*ir.Quantities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := lj.Validate(); err != nil {
		return nil, err
	}
	nl, err := structure.BuildNeighborList(s, lj.Cutoff)
	if err != nil {
		return nil, err
	}

	n := s.NumAtoms()
	q := &ir.Quantities{
		Forces:         make([]ir.Vec3, n),
		AtomicEnergies: make([]float64, n),
	}
	var dEdStrain ir.Mat3

	for _, e := range nl.Edges {
		phi, dphi := lj.pair(e.Length)
		q.AtomicEnergies[e.Source] += phi / 2

		// F_i = Σ φ'(r) r̂ over edges leaving i.
		q.Forces[e.Source] = q.Forces[e.Source].Add(e.Vector.Scale(dphi / e.Length))

		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				dEdStrain[a][b] += 0.5 * dphi * e.Vector[a] * e.Vector[b] / e.Length
			}
		}
	}
	for _, ei := range q.AtomicEnergies {
		q.TotalEnergy += ei
	}

	if s.Periodic() {
		stress := dEdStrain.Scale(1 / structure.Volume(*s.Cell))
		q.Stress = &stress
	}
	return q, nil
}
