package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

func TestVolume(t *testing.T) {
	assert.InDelta(t, 125.0, Volume(*cubicSingle().Cell), 1e-12)
	assert.InDelta(t, 3.0*2.6*3.1, Volume(*triclinic().Cell), 1e-12)
}

func TestInverseRoundTrip(t *testing.T) {
	cell := *triclinic().Cell
	inv, err := Inverse(cell)
	require.NoError(t, err)

	// Cartesian -> fractional -> Cartesian.
	pos := ir.Vec3{1.2, -0.7, 2.5}
	f := Fractional(pos, inv)
	back := ir.Vec3{}
	for k := 0; k < 3; k++ {
		back = back.Add(ir.Vec3(cell[k]).Scale(f[k]))
	}
	for k := 0; k < 3; k++ {
		assert.InDelta(t, pos[k], back[k], 1e-12)
	}
}

func TestIsDiagonal(t *testing.T) {
	assert.True(t, IsDiagonal(*cubicSingle().Cell))
	assert.False(t, IsDiagonal(*triclinic().Cell))
}

func TestStructureSkewed(t *testing.T) {
	assert.False(t, dimer().Skewed())
	assert.False(t, cubicSingle().Skewed())
	assert.True(t, triclinic().Skewed())
}
