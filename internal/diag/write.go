package diag

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Write prints nl and cell as the two diagnostic blocks Parse reads, with
// full float64 precision. Edges are written in list order.
func Write(w io.Writer, nl *ir.NeighborList, cell ir.Mat3, f Format) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, f.EdgeBegin)
	if nl != nil {
		for _, e := range nl.Edges {
			fields := []string{strconv.Itoa(e.Source), strconv.Itoa(e.Target)}
			fields = appendVec(fields, e.SourcePos)
			fields = appendVec(fields, e.TargetPos)
			for k := 0; k < 3; k++ {
				fields = append(fields, strconv.Itoa(e.Shift[k]))
			}
			fields = appendVec(fields, e.Vector)
			fmt.Fprintln(bw, strings.Join(fields, " "))
		}
	}
	fmt.Fprintln(bw, f.EdgeEnd)
	fmt.Fprintln(bw, f.CellBegin)
	for _, row := range cell {
		fmt.Fprintln(bw, strings.Join(appendVec(nil, ir.Vec3(row)), " "))
	}
	return bw.Flush()
}

func appendVec(fields []string, v ir.Vec3) []string {
	for _, x := range v {
		fields = append(fields, strconv.FormatFloat(x, 'g', -1, 64))
	}
	return fields
}
