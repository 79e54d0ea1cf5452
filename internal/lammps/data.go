package lammps

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// boxPadding pads the bounding box of a structure without a cell.
const boxPadding = 1.0

// WriteData writes s as a LAMMPS data file (atom_style atomic) with atom
// types from types. Positions are written in the engine frame with full
// float64 precision.
//
// Returns the Prism used; for structures without a cell the prism has an
// identity rotation and a padded bounding box.
func WriteData(w io.Writer, s *structure.Structure, types *structure.TypeMap) (*Prism, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	atomTypes, err := types.Types(s)
	if err != nil {
		return nil, err
	}

	var (
		prism  *Prism
		lo, hi ir.Vec3
	)
	if s.Cell != nil {
		prism, err = NewPrism(*s.Cell)
		if err != nil {
			return nil, err
		}
		hi = ir.Vec3{prism.Cell[0][0], prism.Cell[1][1], prism.Cell[2][2]}
	} else {
		prism = &Prism{Rotation: identity}
		lo, hi = boundingBox(s.Positions)
		for k := 0; k < 3; k++ {
			lo[k] -= boxPadding
			hi[k] += boxPadding
			prism.Cell[k][k] = hi[k] - lo[k]
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "nequip-repro structure %s\n\n", s.Name)
	fmt.Fprintf(bw, "%d atoms\n", s.NumAtoms())
	fmt.Fprintf(bw, "%d atom types\n\n", types.Len())
	axes := [3]string{"x", "y", "z"}
	for k, ax := range axes {
		fmt.Fprintf(bw, "%s %s %slo %shi\n", num(lo[k]), num(hi[k]), ax, ax)
	}
	if prism.Tilted() {
		fmt.Fprintf(bw, "%s %s %s xy xz yz\n", num(prism.Cell[1][0]), num(prism.Cell[2][0]), num(prism.Cell[2][1]))
	}
	fmt.Fprint(bw, "\nAtoms # atomic\n\n")
	for i, pos := range s.Positions {
		x := prism.Apply(pos)
		fmt.Fprintf(bw, "%d %d %s %s %s\n", i+1, atomTypes[i], num(x[0]), num(x[1]), num(x[2]))
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("write data file: %w", err)
	}
	return prism, nil
}

func boundingBox(positions []ir.Vec3) (lo, hi ir.Vec3) {
	for k := 0; k < 3; k++ {
		lo[k], hi[k] = math.Inf(1), math.Inf(-1)
	}
	for _, p := range positions {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
