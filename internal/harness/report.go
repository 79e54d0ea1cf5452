package harness

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// digestPrefix is how many hex digits of a digest a summary shows.
const digestPrefix = 12

// WriteSummary writes a human-readable report of r: one line per case,
// followed by the failure message indented under failing cases, and a
// closing count. The output is deterministic for a given result.
func WriteSummary(w io.Writer, r *Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "scenario %s (%s)\n", r.Scenario, r.Tolerance)
	for _, c := range r.Cases {
		verdict := "PASS"
		if !c.Pass {
			verdict = "FAIL"
		}
		fmt.Fprintf(bw, "%s %s edges=%d", verdict, c.Name(), c.Edges)
		if c.Digest != "" {
			fmt.Fprintf(bw, " digest=%s", ShortDigest(c.Digest))
		}
		if !c.Pass {
			fmt.Fprintf(bw, " stage=%s kind=%s", c.Stage, c.Kind)
		}
		fmt.Fprintln(bw)
		if c.Error != "" {
			for _, line := range strings.Split(c.Error, "\n") {
				fmt.Fprintf(bw, "    %s\n", strings.TrimLeft(line, " "))
			}
		}
	}
	fmt.Fprintf(bw, "%d cases: %d passed, %d failed\n", len(r.Cases), r.Passed, r.Failed)
	return bw.Flush()
}

// ShortDigest abbreviates a digest for display.
func ShortDigest(d string) string {
	if len(d) > digestPrefix {
		return d[:digestPrefix]
	}
	return d
}
