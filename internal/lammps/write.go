package lammps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
)

// WriteDump writes atoms as a single-snapshot custom dump with the columns
// the deck requests.
func WriteDump(w io.Writer, atoms []DumpAtom) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ITEM: TIMESTEP\n0\nITEM: NUMBER OF ATOMS\n%d\n", len(atoms))
	fmt.Fprint(bw, "ITEM: BOX BOUNDS pp pp pp\n0 1\n0 1\n0 1\n")
	fmt.Fprint(bw, "ITEM: ATOMS id type x y z fx fy fz c_atomicenergies\n")
	for _, a := range atoms {
		fmt.Fprintf(bw, "%d %d %s %s %s %s %s %s %s\n", a.ID, a.Type,
			num(a.Position[0]), num(a.Position[1]), num(a.Position[2]),
			num(a.Force[0]), num(a.Force[1]), num(a.Force[2]), num(a.Energy))
	}
	return bw.Flush()
}

// WriteScaled writes values multiplied by the convention's precision scale,
// space separated, the way the deck's print commands do.
func WriteScaled(path string, conv compare.Convention, values ...float64) error {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = num(conv.Scale(v))
	}
	return os.WriteFile(path, []byte(strings.Join(parts, " ")+"\n"), 0o644)
}
