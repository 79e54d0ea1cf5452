package lammps

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

const sampleDump = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0.0000000000000000e+00 5.0000000000000000e+00
0.0000000000000000e+00 5.0000000000000000e+00
0.0000000000000000e+00 5.0000000000000000e+00
ITEM: ATOMS id type x y z fx fy fz c_atomicenergies
2 1 1.0 0 0 -0.5 0 0 -1.25
1 1 0 0 0 0.5 0 0 -1.75
`

func TestReadDump(t *testing.T) {
	d, err := ReadDump(strings.NewReader(sampleDump))
	require.NoError(t, err)

	assert.Equal(t, 0, d.Timestep)
	assert.Equal(t, []string{"id", "type", "x", "y", "z", "fx", "fy", "fz", "c_atomicenergies"}, d.Columns)
	require.Len(t, d.Atoms, 2)
	assert.Equal(t, 1, d.Atoms[0].ID, "atoms are sorted by id")
	assert.Equal(t, []ir.Vec3{{0.5, 0, 0}, {-0.5, 0, 0}}, d.Forces())
	assert.Equal(t, []float64{-1.75, -1.25}, d.AtomicEnergies())
	assert.Equal(t, ir.Vec3{1, 0, 0}, d.Atoms[1].Position)
}

func TestReadDump_ColumnsByName(t *testing.T) {
	src := "ITEM: NUMBER OF ATOMS\n1\nITEM: ATOMS c_atomicenergies fz fy fx id\n-3 0.3 0.2 0.1 1\n"
	d, err := ReadDump(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, ir.Vec3{0.1, 0.2, 0.3}, d.Atoms[0].Force)
	assert.Equal(t, -3.0, d.Atoms[0].Energy)
	assert.Zero(t, d.Atoms[0].Type)
}

func TestReadDump_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no atoms section", "ITEM: TIMESTEP\n0\n", "no ATOMS section"},
		{"atoms before count", "ITEM: ATOMS id fx fy fz c_atomicenergies\n", "before NUMBER OF ATOMS"},
		{"missing column", "ITEM: NUMBER OF ATOMS\n1\nITEM: ATOMS id fx fy fz\n1 0 0 0\n", `missing column "c_atomicenergies"`},
		{"truncated", "ITEM: NUMBER OF ATOMS\n2\nITEM: ATOMS id fx fy fz c_atomicenergies\n1 0 0 0 0\n", "got 1 of 2 atoms"},
		{"bad number", "ITEM: NUMBER OF ATOMS\n1\nITEM: ATOMS id fx fy fz c_atomicenergies\n1 0 x 0 0\n", `invalid fy value "x"`},
		{"bad ids", "ITEM: NUMBER OF ATOMS\n2\nITEM: ATOMS id fx fy fz c_atomicenergies\n1 0 0 0 0\n3 0 0 0 0\n", "not 1..2"},
		{"bad count", "ITEM: NUMBER OF ATOMS\ntwo\n", "expected an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDump(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, ir.IsParseError(err), "got %T", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWriteDumpRoundTrip(t *testing.T) {
	atoms := []DumpAtom{
		{ID: 1, Type: 2, Position: ir.Vec3{0.1, 0.2, 0.3}, Force: ir.Vec3{1e-9, -2.5, 3}, Energy: -1.0 / 3},
		{ID: 2, Type: 1, Position: ir.Vec3{-4, 5, 6}, Force: ir.Vec3{0, 0, 0}, Energy: 7.125},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, atoms))

	d, err := ReadDump(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(atoms, d.Atoms); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestReadScalarAndVoigt(t *testing.T) {
	dir := t.TempDir()
	conv := compare.LAMMPSMetal

	pe := filepath.Join(dir, PEFile)
	require.NoError(t, os.WriteFile(pe, []byte("-4123456.5\n"), 0o644))
	v, err := ReadScalar(pe, conv)
	require.NoError(t, err)
	assert.InDelta(t, -4.1234565, v, 1e-15)

	stress := filepath.Join(dir, StressFile)
	require.NoError(t, WriteScaled(stress, conv, 1, 2, 3, 4, 5, 6))
	voigt, err := ReadVoigt(stress, conv)
	require.NoError(t, err)
	assert.Equal(t, [6]float64{1, 2, 3, 4, 5, 6}, voigt)

	_, err = ReadScalar(stress, conv)
	require.Error(t, err)
	assert.True(t, ir.IsParseError(err))
	assert.Contains(t, err.Error(), "expected 1 values, got 6")

	require.NoError(t, os.WriteFile(pe, []byte("nope\n"), 0o644))
	_, err = ReadScalar(pe, conv)
	assert.True(t, ir.IsParseError(err))
}

func TestReadOutput(t *testing.T) {
	dir := t.TempDir()
	conv := compare.LAMMPSMetal

	require.NoError(t, os.WriteFile(filepath.Join(dir, DumpFile), []byte(sampleDump), 0o644))
	require.NoError(t, WriteScaled(filepath.Join(dir, PEFile), conv, -3.0))
	require.NoError(t, WriteScaled(filepath.Join(dir, TotalAtomicEnergyFile), conv, -3.0))
	require.NoError(t, WriteScaled(filepath.Join(dir, StressFile), conv, 10, 20, 30, 1, 2, 3))

	out, err := ReadOutput(dir, conv)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.75, -1.25}, out.AtomicEnergies)
	assert.InDelta(t, -3.0, out.PotentialEnergy, 1e-12)
	assert.InDelta(t, -3.0, out.TotalAtomicEnergy, 1e-12)
	require.NotNil(t, out.Stress)
	assert.InDelta(t, 30.0, out.Stress[2], 1e-9)
}

func TestReadOutput_MissingFile(t *testing.T) {
	_, err := ReadOutput(t.TempDir(), compare.LAMMPSMetal)
	require.Error(t, err)
	assert.True(t, ir.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "engine did not write output.dump")

	var ce *ir.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "engine_output", ce.Field)
}
