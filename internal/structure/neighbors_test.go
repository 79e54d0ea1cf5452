package structure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

func dimer() *Structure {
	return &Structure{
		Name:      "dimer",
		Symbols:   []string{"H", "H"},
		Positions: []ir.Vec3{{0, 0, 0}, {1, 0, 0}},
	}
}

func cubicSingle() *Structure {
	return &Structure{
		Name:      "cubic",
		Symbols:   []string{"Si"},
		Positions: []ir.Vec3{{0.3, 0.2, 0.1}},
		Cell:      &ir.Mat3{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}},
		PBC:       [3]bool{true, true, true},
	}
}

func triclinic() *Structure {
	return &Structure{
		Name:      "triclinic",
		Symbols:   []string{"O", "H", "H"},
		Positions: []ir.Vec3{{0.1, 0.2, 0.3}, {1.0, 0.4, 0.2}, {2.9, 2.1, 2.6}},
		Cell:      &ir.Mat3{{3.0, 0, 0}, {1.5, 2.6, 0}, {0.5, 0.7, 3.1}},
		PBC:       [3]bool{true, true, true},
	}
}

func TestBuildNeighborList_NonPeriodicDimer(t *testing.T) {
	nl, err := BuildNeighborList(dimer(), 2.0)
	require.NoError(t, err)

	require.Len(t, nl.Edges, 2, "one bidirectional pair")
	assert.Nil(t, nl.Cell)

	pairs := map[ir.Pair]bool{}
	for _, e := range nl.Edges {
		assert.True(t, e.Shift.IsZero(), "non-periodic edges carry no shift")
		assert.InDelta(t, 1.0, e.Length, 1e-12)
		pairs[e.Pair()] = true
	}
	assert.True(t, pairs[ir.Pair{Source: 0, Target: 1}])
	assert.True(t, pairs[ir.Pair{Source: 1, Target: 0}])

	assert.Equal(t, ir.Vec3{1, 0, 0}, nl.Edges[0].Vector)
	assert.Equal(t, ir.Vec3{-1, 0, 0}, nl.Edges[1].Vector)
}

func TestBuildNeighborList_DimerOutsideCutoff(t *testing.T) {
	nl, err := BuildNeighborList(dimer(), 0.5)
	require.NoError(t, err)
	assert.Empty(t, nl.Edges)
}

func TestBuildNeighborList_CutoffIsInclusive(t *testing.T) {
	nl, err := BuildNeighborList(dimer(), 1.0)
	require.NoError(t, err)
	assert.Len(t, nl.Edges, 2)
}

func TestBuildNeighborList_CubicSelfImages(t *testing.T) {
	nl, err := BuildNeighborList(cubicSingle(), 6.0)
	require.NoError(t, err)

	// Only the six face neighbors at distance 5 fit; edge diagonals are 7.07.
	require.Len(t, nl.Edges, 6)

	shifts := map[ir.Shift]bool{}
	for _, e := range nl.Edges {
		assert.Equal(t, 0, e.Source)
		assert.Equal(t, 0, e.Target)
		assert.False(t, e.Shift.IsZero())
		assert.InDelta(t, 5.0, e.Length, 1e-12)
		shifts[e.Shift] = true
	}
	assert.Len(t, shifts, 6, "every self-image has a distinct shift")
	assert.True(t, shifts[ir.Shift{1, 0, 0}])
	assert.True(t, shifts[ir.Shift{0, 0, -1}])
}

func TestBuildNeighborList_MultipleImagesOfOnePair(t *testing.T) {
	s := &Structure{
		Name:      "chain",
		Symbols:   []string{"H", "H"},
		Positions: []ir.Vec3{{0, 0, 0}, {1, 0, 0}},
		Cell:      &ir.Mat3{{2, 0, 0}, {0, 20, 0}, {0, 0, 20}},
		PBC:       [3]bool{true, false, false},
	}
	nl, err := BuildNeighborList(s, 1.5)
	require.NoError(t, err)

	counts := nl.PairCounts()
	// 0->1 reaches the neighbor at +1 and its image at -1.
	assert.Equal(t, 2, counts[ir.Pair{Source: 0, Target: 1}])
	assert.Equal(t, 2, counts[ir.Pair{Source: 1, Target: 0}])
	assert.Zero(t, counts[ir.Pair{Source: 0, Target: 0}], "self-image at 2.0 is outside the cutoff")

	for _, e := range nl.Edges {
		assert.Zero(t, e.Shift[1], "non-periodic axis never shifts")
		assert.Zero(t, e.Shift[2])
	}
}

func TestBuildNeighborList_TriclinicMatchesBruteForce(t *testing.T) {
	s := triclinic()
	cutoff := 4.0

	nl, err := BuildNeighborList(s, cutoff)
	require.NoError(t, err)

	want := map[ir.Triple]float64{}
	const wide = 8
	for i := range s.Positions {
		for j := range s.Positions {
			for a := -wide; a <= wide; a++ {
				for b := -wide; b <= wide; b++ {
					for c := -wide; c <= wide; c++ {
						shift := ir.Shift{a, b, c}
						if i == j && shift.IsZero() {
							continue
						}
						d := s.Positions[j].Sub(s.Positions[i]).Add(shift.Apply(*s.Cell)).Norm()
						if d <= cutoff {
							want[ir.Triple{Source: i, Target: j, Shift: shift}] = d
						}
					}
				}
			}
		}
	}

	require.Len(t, nl.Edges, len(want))
	for _, e := range nl.Edges {
		d, ok := want[e.Triple()]
		require.True(t, ok, "unexpected edge %s", e.Triple())
		assert.InDelta(t, d, e.Length, 1e-12)
	}
}

func TestBuildNeighborList_UnwrappedPositions(t *testing.T) {
	s := cubicSingle()
	s.Positions = []ir.Vec3{{-7.2, 11.0, 3.3}}
	nl, err := BuildNeighborList(s, 6.0)
	require.NoError(t, err)
	assert.Len(t, nl.Edges, 6, "images do not depend on wrapping")
}

func TestBuildNeighborList_EchoesRawPositions(t *testing.T) {
	for _, s := range []*Structure{dimer(), cubicSingle(), triclinic()} {
		t.Run(s.Name, func(t *testing.T) {
			nl, err := BuildNeighborList(s, 4.5)
			require.NoError(t, err)
			for _, e := range nl.Edges {
				for k := 0; k < 3; k++ {
					assert.InDelta(t, s.Positions[e.Source][k], e.SourcePos[k], 1e-6)
					assert.InDelta(t, s.Positions[e.Target][k], e.TargetPos[k], 1e-6)
				}
			}
		})
	}
}

func TestBuildNeighborList_Idempotent(t *testing.T) {
	s := triclinic()
	a, err := BuildNeighborList(s, 3.5)
	require.NoError(t, err)
	b, err := BuildNeighborList(s, 3.5)
	require.NoError(t, err)

	assert.Equal(t, a.Len(), b.Len())
	assert.Equal(t, a.Triples(), b.Triples())
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestBuildNeighborList_UniqueTriples(t *testing.T) {
	nl, err := BuildNeighborList(triclinic(), 5.0)
	require.NoError(t, err)

	seen := map[ir.Triple]bool{}
	for _, tr := range nl.Triples() {
		require.False(t, seen[tr], "duplicate triple %s", tr)
		seen[tr] = true
	}
}

func TestBuildNeighborList_InvalidCutoff(t *testing.T) {
	for _, cutoff := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := BuildNeighborList(dimer(), cutoff)
		require.Error(t, err)
		assert.True(t, ir.IsConfigurationError(err), "cutoff %v", cutoff)
		assert.Contains(t, err.Error(), "cutoff")
	}
}

func TestBuildNeighborList_PeriodicWithoutCell(t *testing.T) {
	s := cubicSingle()
	s.Cell = nil
	_, err := BuildNeighborList(s, 3.0)
	require.Error(t, err)
	assert.True(t, ir.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "has no cell")
}

func TestBuildNeighborList_SingularCell(t *testing.T) {
	s := cubicSingle()
	s.Cell = &ir.Mat3{{1, 0, 0}, {2, 0, 0}, {0, 0, 1}}
	_, err := BuildNeighborList(s, 3.0)
	require.Error(t, err)
	assert.True(t, ir.IsConfigurationError(err))
}

func TestBuildNeighborList_LengthMismatch(t *testing.T) {
	s := dimer()
	s.Symbols = []string{"H"}
	_, err := BuildNeighborList(s, 3.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 symbols but 2 positions")
}
