package lammps

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// ReadData reads a data file in the layout WriteData produces and returns
// the structure in the engine frame. Cell is built from the box bounds and
// tilt factors; PBC is left unset because periodicity lives in the deck.
// Symbols are recovered from types.
func ReadData(r io.Reader, types *structure.TypeMap) (*structure.Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lr := &lineReader{sc: sc}

	title, ok := lr.next()
	if !ok {
		return nil, lr.fail("", "data file is empty")
	}
	s := &structure.Structure{Name: strings.TrimPrefix(title, "nequip-repro structure ")}
	symbols := types.Symbols()

	natoms := -1
	var cell ir.Mat3
	for {
		line, ok := lr.next()
		if !ok {
			return nil, lr.fail("", "data file has no Atoms section")
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Atoms") {
			break
		}
		fields := strings.Fields(line)
		switch {
		case strings.HasSuffix(line, "atom types"):
			n, err := strconv.Atoi(fields[0])
			if err != nil || n > len(symbols) {
				return nil, lr.fail(line, "data file declares %s atom types, model has %d", fields[0], len(symbols))
			}
		case strings.HasSuffix(line, "atoms"):
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 0 {
				return nil, lr.fail(line, "invalid atom count %q", fields[0])
			}
			natoms = n
		case len(fields) == 4 && strings.HasSuffix(fields[3], "hi"):
			lo, hi, err := parsePair(fields[0], fields[1])
			if err != nil {
				return nil, lr.fail(line, "%v", err)
			}
			k := strings.Index("xyz", fields[2][:1])
			if k < 0 {
				return nil, lr.fail(line, "unknown box axis %q", fields[2])
			}
			cell[k][k] = hi - lo
		case len(fields) == 6 && fields[3] == "xy":
			var tilt [3]float64
			for i := range tilt {
				v, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return nil, lr.fail(line, "invalid tilt factor %q", fields[i])
				}
				tilt[i] = v
			}
			cell[1][0], cell[2][0], cell[2][1] = tilt[0], tilt[1], tilt[2]
		}
	}
	if natoms < 0 {
		return nil, lr.fail("", "Atoms section before atom count")
	}
	s.Cell = &cell

	s.Symbols = make([]string, natoms)
	s.Positions = make([]ir.Vec3, natoms)
	filled := make([]bool, natoms)
	for read := 0; read < natoms; {
		line, ok := lr.next()
		if !ok {
			return nil, lr.fail("", "data file truncated: got %d of %d atoms", read, natoms)
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, lr.fail(line, "expected 5 fields, got %d", len(fields))
		}
		id, err1 := strconv.Atoi(fields[0])
		typ, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || id < 1 || id > natoms || filled[id-1] || typ < 1 || typ > len(symbols) {
			return nil, lr.fail(line, "invalid atom id or type")
		}
		var pos ir.Vec3
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[2+k], 64)
			if err != nil {
				pe := lr.fail(line, "invalid coordinate %q", fields[2+k])
				pe.Column = 3 + k
				return nil, pe
			}
			pos[k] = v
		}
		filled[id-1] = true
		s.Symbols[id-1] = symbols[typ-1]
		s.Positions[id-1] = pos
		read++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	return s, nil
}

func parsePair(a, b string) (float64, float64, error) {
	lo, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bound %q", a)
	}
	hi, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bound %q", b)
	}
	return lo, hi, nil
}
