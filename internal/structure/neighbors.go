package structure

import (
	"math"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// BuildNeighborList returns every directed edge of s within cutoff.
//
// An edge (i, j, S) is emitted when 0 < |pos[j] - pos[i] + S·cell| <= cutoff,
// for all atoms i, j and all integer shifts S along periodic axes. The
// expansion is exhaustive: several images of the same ordered pair (and
// self-images of one atom) may satisfy the cutoff independently and each
// becomes its own edge. Non-periodic axes only contribute S = 0.
//
// Edges are ordered by (source, target, shift), so identical input yields a
// bit-for-bit identical list.
//
// Returns a ConfigurationError if cutoff is not positive, or if s is
// periodic without a usable cell.
func BuildNeighborList(s *Structure, cutoff float64) (*ir.NeighborList, error) {
	if !(cutoff > 0) || math.IsInf(cutoff, 0) {
		return nil, ir.NewConfigurationError("cutoff", "must be positive and finite, got %g", cutoff)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	nl := &ir.NeighborList{Cutoff: cutoff, Edges: []ir.Edge{}}

	var cell ir.Mat3
	var reach [3]int
	if s.Periodic() {
		cell = *s.Cell
		c := cell
		nl.Cell = &c

		inv, err := Inverse(cell)
		if err != nil {
			return nil, err
		}
		reach = shiftReach(s, inv, cutoff)
	}

	for i, xi := range s.Positions {
		for j, xj := range s.Positions {
			base := xj.Sub(xi)
			for sx := -reach[0]; sx <= reach[0]; sx++ {
				for sy := -reach[1]; sy <= reach[1]; sy++ {
					for sz := -reach[2]; sz <= reach[2]; sz++ {
						shift := ir.Shift{sx, sy, sz}
						if i == j && shift.IsZero() {
							continue
						}
						vec := base.Add(shift.Apply(cell))
						length := vec.Norm()
						if length > cutoff {
							continue
						}
						nl.Edges = append(nl.Edges, ir.Edge{
							Source:    i,
							Target:    j,
							Shift:     shift,
							SourcePos: xi,
							TargetPos: xj,
							Vector:    vec,
							Length:    length,
						})
					}
				}
			}
		}
	}

	return nl, nil
}

// shiftReach bounds |S_k| along each periodic axis.
//
// The k-th fractional component of any pair displacement within the cutoff
// is at most cutoff·|b_k| in magnitude, and the atoms' own fractional
// coordinates may spread by span_k (positions need not be wrapped into the
// cell), so |S_k| <= ceil(cutoff·|b_k| + span_k).
func shiftReach(s *Structure, inv ir.Mat3, cutoff float64) [3]int {
	var lo, hi ir.Vec3
	for n, pos := range s.Positions {
		f := Fractional(pos, inv)
		for k := 0; k < 3; k++ {
			if n == 0 || f[k] < lo[k] {
				lo[k] = f[k]
			}
			if n == 0 || f[k] > hi[k] {
				hi[k] = f[k]
			}
		}
	}

	var reach [3]int
	for k := 0; k < 3; k++ {
		if !s.PBC[k] {
			continue
		}
		reach[k] = int(math.Ceil(cutoff*reciprocalNorm(inv, k) + (hi[k] - lo[k])))
	}
	return reach
}
