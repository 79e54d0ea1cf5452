package lammps

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

func TestDeck_RenderGolden(t *testing.T) {
	d := Deck{
		PBC:            [3]bool{true, true, true},
		ModelPath:      "/models/cpu_deployed.nequip.pt2",
		Symbols:        []string{"H", "O"},
		PrecisionScale: 1e6,
	}
	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "deck_periodic", buf.Bytes())
}

func TestDeck_Boundary(t *testing.T) {
	tests := []struct {
		pbc  [3]bool
		want string
	}{
		{[3]bool{true, true, true}, "boundary p p p\n"},
		{[3]bool{}, "boundary s s s\n"},
		{[3]bool{true, false, true}, "boundary p s p\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		d := Deck{PBC: tt.pbc, ModelPath: "m", Symbols: []string{"Si"}, PrecisionScale: 1e6, PairStyle: "allegro"}
		require.NoError(t, d.Render(&buf))
		assert.Contains(t, buf.String(), tt.want)
		assert.Contains(t, buf.String(), "pair_style\tallegro\n")
		assert.Contains(t, buf.String(), "mass 1 1.0\n")
		assert.NotContains(t, buf.String(), "mass 2")
	}
}

func TestDeck_RenderRejectsIncompleteInput(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, ir.IsConfigurationError(Deck{Symbols: []string{"H"}, PrecisionScale: 1}.Render(&buf)))
	assert.True(t, ir.IsConfigurationError(Deck{ModelPath: "m", PrecisionScale: 1}.Render(&buf)))
	assert.True(t, ir.IsConfigurationError(Deck{ModelPath: "m", Symbols: []string{"H"}}.Render(&buf)))
}
