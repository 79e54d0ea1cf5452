package diag

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// edgeFields is the number of numeric fields on one neighbor row.
const edgeFields = 14

// maxLineBytes bounds a single diagnostic line.
const maxLineBytes = 16 * 1024 * 1024

// Format holds the sentinel lines delimiting the diagnostic blocks.
// Sentinels match as prefixes of the whitespace-trimmed line.
type Format struct {
	EdgeBegin string `yaml:"edge_begin"`
	EdgeEnd   string `yaml:"edge_end"`
	CellBegin string `yaml:"cell_begin"`
}

// DefaultFormat is the format printed by pair_style nequip at debug log level.
var DefaultFormat = Format{
	EdgeBegin: "NEQUIP edges: i j xi[:] xj[:] cell_shift[:] rij",
	EdgeEnd:   "end NEQUIP edges",
	CellBegin: "cell:",
}

// Validate checks that every sentinel is set.
func (f Format) Validate() error {
	if f.EdgeBegin == "" || f.EdgeEnd == "" || f.CellBegin == "" {
		return ir.NewConfigurationError("diagnostic_format", "edge_begin, edge_end and cell_begin are required")
	}
	return nil
}

// Record is the structured content of one diagnostic stream.
type Record struct {
	// Edges is the engine's neighbor list. Cutoff is left zero; the stream
	// does not carry it.
	Edges *ir.NeighborList

	// Cell is the cell the engine actually used (row-major).
	Cell ir.Mat3
}

type state int

const (
	seekEdges state = iota
	inEdges
	seekCell
	inCell
	done
)

// Parse reads r once and extracts the first neighbor block and the cell
// block that follows it. Scanning stops as soon as the cell block is
// complete.
//
// Returns a *ir.ParseError when a block is missing, unterminated, or
// truncated, or when a row is malformed. The error carries the offending
// line number, field position and text.
func Parse(r io.Reader, f Format) (*Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	rec := &Record{Edges: &ir.NeighborList{Edges: []ir.Edge{}}}
	st := seekEdges
	cellRow := 0
	lineNo := 0

	for st != done && sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch st {
		case seekEdges:
			if strings.HasPrefix(trimmed, f.EdgeBegin) {
				st = inEdges
			}
		case inEdges:
			if strings.HasPrefix(trimmed, f.EdgeEnd) {
				st = seekCell
				continue
			}
			if trimmed == "" {
				continue
			}
			e, err := parseEdge(trimmed, lineNo)
			if err != nil {
				return nil, err
			}
			rec.Edges.Edges = append(rec.Edges.Edges, e)
		case seekCell:
			if strings.HasPrefix(trimmed, f.CellBegin) {
				st = inCell
			}
		case inCell:
			row, err := parseFloats(trimmed, lineNo, 3)
			if err != nil {
				return nil, err
			}
			copy(rec.Cell[cellRow][:], row)
			cellRow++
			if cellRow == 3 {
				st = done
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ir.ParseError{Line: lineNo + 1, Message: fmt.Sprintf("read diagnostic stream: %v", err)}
	}

	switch st {
	case seekEdges:
		return nil, &ir.ParseError{Message: "neighbor diagnostic block not found"}
	case inEdges:
		return nil, &ir.ParseError{Line: lineNo, Message: fmt.Sprintf("neighbor diagnostic block not terminated (missing %q)", f.EdgeEnd)}
	case seekCell:
		return nil, &ir.ParseError{Line: lineNo, Message: "cell block not found"}
	case inCell:
		return nil, &ir.ParseError{Line: lineNo, Message: fmt.Sprintf("cell block truncated: got %d of 3 rows", cellRow)}
	}

	cell := rec.Cell
	rec.Edges.Cell = &cell
	return rec, nil
}

// ParseString is Parse over an in-memory stream.
func ParseString(s string, f Format) (*Record, error) {
	return Parse(strings.NewReader(s), f)
}

// parseEdge decodes one neighbor row.
func parseEdge(line string, lineNo int) (ir.Edge, error) {
	fields := strings.Fields(line)
	if len(fields) != edgeFields {
		return ir.Edge{}, &ir.ParseError{
			Line:    lineNo,
			Text:    line,
			Message: fmt.Sprintf("expected %d fields, got %d", edgeFields, len(fields)),
		}
	}

	var vals [edgeFields]float64
	for i, fld := range fields {
		v, err := strconv.ParseFloat(fld, 64)
		if err != nil {
			return ir.Edge{}, &ir.ParseError{
				Line:    lineNo,
				Column:  i + 1,
				Text:    line,
				Message: fmt.Sprintf("invalid number %q", fld),
			}
		}
		vals[i] = v
	}

	ints := [5]int{}
	for n, col := range []int{0, 1, 8, 9, 10} {
		v := vals[col]
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return ir.Edge{}, &ir.ParseError{
				Line:    lineNo,
				Column:  col + 1,
				Text:    line,
				Message: fmt.Sprintf("expected an integer, got %q", fields[col]),
			}
		}
		if col < 2 && v < 0 {
			return ir.Edge{}, &ir.ParseError{
				Line:    lineNo,
				Column:  col + 1,
				Text:    line,
				Message: fmt.Sprintf("negative atom index %q", fields[col]),
			}
		}
		if math.Abs(v) > math.MaxInt32 {
			return ir.Edge{}, &ir.ParseError{
				Line:    lineNo,
				Column:  col + 1,
				Text:    line,
				Message: fmt.Sprintf("integer %q out of range", fields[col]),
			}
		}
		ints[n] = int(v)
	}

	e := ir.Edge{
		Source:    ints[0],
		Target:    ints[1],
		SourcePos: ir.Vec3{vals[2], vals[3], vals[4]},
		TargetPos: ir.Vec3{vals[5], vals[6], vals[7]},
		Shift:     ir.Shift{ints[2], ints[3], ints[4]},
		Vector:    ir.Vec3{vals[11], vals[12], vals[13]},
	}
	e.Length = e.Vector.Norm()
	return e, nil
}

// parseFloats decodes exactly n numbers from line.
func parseFloats(line string, lineNo, n int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, &ir.ParseError{
			Line:    lineNo,
			Text:    line,
			Message: fmt.Sprintf("expected %d fields, got %d", n, len(fields)),
		}
	}
	out := make([]float64, n)
	for i, fld := range fields {
		v, err := strconv.ParseFloat(fld, 64)
		if err != nil {
			return nil, &ir.ParseError{
				Line:    lineNo,
				Column:  i + 1,
				Text:    line,
				Message: fmt.Sprintf("invalid number %q", fld),
			}
		}
		out[i] = v
	}
	return out, nil
}
