package compare

import (
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Quantity names used in tolerance errors.
const (
	QuantityForces            = "forces"
	QuantityAtomicEnergies    = "atomic_energies"
	QuantityEngineConsistency = "engine_energy_consistency"
	QuantityDirectConsistency = "direct_energy_consistency"
	QuantityTotalEnergy       = "total_energy"
	QuantityStress            = "stress"
)

// Compare checks eng against direct under conv and tol, in order:
//   - atom counts match
//   - forces
//   - per-atom energies
//   - engine potential energy equals its own summed atomic energy
//   - direct total energy equals the sum of direct per-atom energies
//   - direct total energy equals the engine potential energy
//   - stress, for periodic structures only
//
// The first disagreement is returned. eng must already be in the
// structure's frame (see Convention.ToStructureFrame).
func Compare(direct *ir.Quantities, eng *ir.EngineOutput, conv Convention, tol ir.Tolerance, periodic bool) error {
	if direct == nil || eng == nil {
		return ir.NewConfigurationError("quantities", "both direct and engine quantities are required")
	}
	n := len(direct.Forces)
	if len(eng.Forces) != n {
		return ir.NewConfigurationError("atoms", "direct evaluation has %d atoms, engine dump has %d", n, len(eng.Forces))
	}
	if len(direct.AtomicEnergies) != n || len(eng.AtomicEnergies) != n {
		return ir.NewConfigurationError("atoms", "per-atom energies cover %d (direct) and %d (engine) of %d atoms",
			len(direct.AtomicEnergies), len(eng.AtomicEnergies), n)
	}

	if err := Allclose(QuantityForces, ir.FlattenVecs(direct.Forces), ir.FlattenVecs(eng.Forces), []int{n, 3}, tol); err != nil {
		return err
	}
	if err := Allclose(QuantityAtomicEnergies, direct.AtomicEnergies, eng.AtomicEnergies, nil, tol); err != nil {
		return err
	}
	if err := Allclose(QuantityEngineConsistency,
		[]float64{eng.TotalAtomicEnergy}, []float64{eng.PotentialEnergy}, nil, tol); err != nil {
		return err
	}
	if err := Allclose(QuantityDirectConsistency,
		[]float64{sum(direct.AtomicEnergies)}, []float64{direct.TotalEnergy}, nil, tol); err != nil {
		return err
	}
	if err := Allclose(QuantityTotalEnergy,
		[]float64{direct.TotalEnergy}, []float64{eng.PotentialEnergy}, nil, tol); err != nil {
		return err
	}

	if !periodic {
		return nil
	}
	if direct.Stress == nil {
		return ir.NewConfigurationError("stress", "periodic structure has no direct stress")
	}
	if eng.Stress == nil {
		return ir.NewConfigurationError("stress", "periodic structure has no engine stress")
	}
	ref := direct.Stress.Scale(conv.StressSign)
	got := conv.Stress(*eng.Stress)
	return Allclose(QuantityStress, ref.Flat(), got.Flat(), []int{3, 3}, tol)
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
