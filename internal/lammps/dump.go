package lammps

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Required per-atom dump columns.
const (
	ColumnID     = "id"
	ColumnEnergy = "c_atomicenergies"
)

// Dump is the first snapshot of a LAMMPS text dump.
type Dump struct {
	Timestep int
	Columns  []string

	// Atoms are ordered by id.
	Atoms []DumpAtom
}

// DumpAtom is one per-atom row. Position and Type are zero when the dump
// does not carry them.
type DumpAtom struct {
	ID       int
	Type     int
	Position ir.Vec3
	Force    ir.Vec3
	Energy   float64
}

// Forces returns the per-atom forces in id order.
func (d *Dump) Forces() []ir.Vec3 {
	out := make([]ir.Vec3, len(d.Atoms))
	for i, a := range d.Atoms {
		out[i] = a.Force
	}
	return out
}

// AtomicEnergies returns the per-atom energies in id order.
func (d *Dump) AtomicEnergies() []float64 {
	out := make([]float64, len(d.Atoms))
	for i, a := range d.Atoms {
		out[i] = a.Energy
	}
	return out
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (lr *lineReader) next() (string, bool) {
	if !lr.sc.Scan() {
		return "", false
	}
	lr.line++
	return strings.TrimSpace(lr.sc.Text()), true
}

func (lr *lineReader) fail(text, format string, args ...any) *ir.ParseError {
	return &ir.ParseError{Line: lr.line, Text: text, Message: fmt.Sprintf(format, args...)}
}

// ReadDump reads the first snapshot of a "write_dump ... custom" file.
// Columns are located by header name; ids must be exactly 1..N.
func ReadDump(r io.Reader) (*Dump, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lr := &lineReader{sc: sc}

	d := &Dump{}
	natoms := -1
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if !strings.HasPrefix(line, "ITEM:") {
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(line, "ITEM:"))
		switch {
		case item == "TIMESTEP":
			v, err := lr.nextInt()
			if err != nil {
				return nil, err
			}
			d.Timestep = v
		case item == "NUMBER OF ATOMS":
			v, err := lr.nextInt()
			if err != nil {
				return nil, err
			}
			natoms = v
		case strings.HasPrefix(item, "BOX BOUNDS"):
			for i := 0; i < 3; i++ {
				if _, ok := lr.next(); !ok {
					return nil, lr.fail("", "dump box bounds truncated")
				}
			}
		case strings.HasPrefix(item, "ATOMS"):
			if natoms < 0 {
				return nil, lr.fail(line, "ATOMS section before NUMBER OF ATOMS")
			}
			d.Columns = strings.Fields(strings.TrimPrefix(item, "ATOMS"))
			atoms, err := readAtoms(lr, d.Columns, natoms)
			if err != nil {
				return nil, err
			}
			d.Atoms = atoms
			return d, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	return nil, lr.fail("", "dump has no ATOMS section")
}

func (lr *lineReader) nextInt() (int, error) {
	line, ok := lr.next()
	if !ok {
		return 0, lr.fail("", "unexpected end of dump")
	}
	v, err := strconv.Atoi(line)
	if err != nil {
		return 0, lr.fail(line, "expected an integer")
	}
	return v, nil
}

func readAtoms(lr *lineReader, columns []string, natoms int) ([]DumpAtom, error) {
	col := make(map[string]int, len(columns))
	for i, c := range columns {
		col[c] = i
	}
	for _, req := range []string{ColumnID, "fx", "fy", "fz", ColumnEnergy} {
		if _, ok := col[req]; !ok {
			return nil, lr.fail("", "dump is missing column %q (have %v)", req, columns)
		}
	}

	atoms := make([]DumpAtom, 0, natoms)
	for len(atoms) < natoms {
		line, ok := lr.next()
		if !ok {
			return nil, lr.fail("", "dump truncated: got %d of %d atoms", len(atoms), natoms)
		}
		fields := strings.Fields(line)
		if len(fields) != len(columns) {
			return nil, lr.fail(line, "expected %d fields, got %d", len(columns), len(fields))
		}
		get := func(name string) (float64, error) {
			i, ok := col[name]
			if !ok {
				return 0, nil
			}
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				pe := lr.fail(line, "invalid %s value %q", name, fields[i])
				pe.Column = i + 1
				return 0, pe
			}
			return v, nil
		}

		var a DumpAtom
		var vals [9]float64
		for n, name := range []string{"id", "type", "x", "y", "z", "fx", "fy", "fz", ColumnEnergy} {
			v, err := get(name)
			if err != nil {
				return nil, err
			}
			vals[n] = v
		}
		a.ID, a.Type = int(vals[0]), int(vals[1])
		a.Position = ir.Vec3{vals[2], vals[3], vals[4]}
		a.Force = ir.Vec3{vals[5], vals[6], vals[7]}
		a.Energy = vals[8]
		atoms = append(atoms, a)
	}

	sort.Slice(atoms, func(i, j int) bool { return atoms[i].ID < atoms[j].ID })
	for i, a := range atoms {
		if a.ID != i+1 {
			return nil, lr.fail("", "dump atom ids are not 1..%d (found %d at position %d)", natoms, a.ID, i+1)
		}
	}
	return atoms, nil
}
