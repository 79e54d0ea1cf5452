package compare

import (
	"math"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Allclose reports whether got agrees with ref elementwise:
// |got - ref| <= atol + rtol·|ref|. NaN never agrees.
//
// shape gives the logical dimensions of the flat slices and is used to
// report the failing multi-index; nil treats the data as one-dimensional.
// On failure it returns a *ir.ToleranceExceededError for the element that
// exceeds its bound by the most.
func Allclose(name string, ref, got []float64, shape []int, tol ir.Tolerance) error {
	if len(ref) != len(got) {
		return ir.NewConfigurationError(name, "reference has %d values, engine has %d", len(ref), len(got))
	}
	if shape != nil && product(shape) != len(ref) {
		return ir.NewConfigurationError(name, "shape %v does not hold %d values", shape, len(ref))
	}

	worst := -1
	worstExcess := math.Inf(-1)
	var maxAbsErr, maxRef, sumSq float64
	for i := range ref {
		d := math.Abs(got[i] - ref[i])
		if d > maxAbsErr || math.IsNaN(d) {
			maxAbsErr = d
		}
		maxRef = math.Max(maxRef, math.Abs(ref[i]))
		sumSq += ref[i] * ref[i]

		if tol.Within(ref[i], got[i]) {
			continue
		}
		excess := d - tol.Bound(ref[i])
		if math.IsNaN(excess) {
			excess = math.Inf(1)
		}
		if worst < 0 || excess > worstExcess {
			worst, worstExcess = i, excess
		}
	}
	if worst < 0 {
		return nil
	}

	var rms float64
	if len(ref) > 0 {
		rms = math.Sqrt(sumSq / float64(len(ref)))
	}
	return &ir.ToleranceExceededError{
		Quantity:  name,
		Index:     unravel(worst, shape),
		Reference: ref[worst],
		Actual:    got[worst],
		MaxAbsErr: maxAbsErr,
		MaxRef:    maxRef,
		RMS:       rms,
		Tolerance: tol,
	}
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// unravel converts a flat row-major index into a multi-index over shape.
func unravel(flat int, shape []int) []int {
	if len(shape) == 0 {
		return []int{flat}
	}
	idx := make([]int, len(shape))
	for k := len(shape) - 1; k >= 0; k-- {
		idx[k] = flat % shape[k]
		flat /= shape[k]
	}
	return idx
}
