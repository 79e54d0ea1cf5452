package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mstapelberg/pair-nequip-allegro/internal/diag"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Format diag.Format
}

// ParseOutput summarizes one parsed diagnostic stream.
type ParseOutput struct {
	Edges  int     `json:"edges"`
	Pairs  int     `json:"pairs"`
	Digest string  `json:"digest"`
	Cell   ir.Mat3 `json:"cell"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts, Format: diag.DefaultFormat}

	cmd := &cobra.Command{
		Use:   "parse <stdout-file>",
		Short: "Parse the neighbor diagnostics of a captured engine log",
		Long: `Parse the neighbor-list and cell blocks that the pair style prints at
debug log level, and report the edge count, the number of distinct
(source, target) pairs, the edge-set digest and the cell.

Digests of two logs are equal only when their edge sets are bit-for-bit
the same, so they can be compared across runs and machines.

Example:
  nequip-repro parse log.lammps
  nequip-repro parse --format json log.lammps`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Format.EdgeBegin, "edge-begin", diag.DefaultFormat.EdgeBegin, "line opening the neighbor block")
	cmd.Flags().StringVar(&opts.Format.EdgeEnd, "edge-end", diag.DefaultFormat.EdgeEnd, "line closing the neighbor block")
	cmd.Flags().StringVar(&opts.Format.CellBegin, "cell-begin", diag.DefaultFormat.CellBegin, "line opening the cell block")

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	f, err := os.Open(path)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return commandError(formatter, code, "failed to open engine log", err)
	}
	defer f.Close()

	rec, err := diag.Parse(f, opts.Format)
	if err != nil {
		if ir.IsParseError(err) {
			_ = formatter.Error(ErrCodeParse, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to parse engine log", err)
		}
		return commandError(formatter, errorCode(err), "failed to parse engine log", err)
	}

	out := ParseOutput{
		Edges:  rec.Edges.Len(),
		Pairs:  len(rec.Edges.PairCounts()),
		Digest: rec.Edges.Digest(),
		Cell:   rec.Cell,
	}
	formatter.VerboseLog("parsed %s", path)

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "edges:  %d\n", out.Edges)
	fmt.Fprintf(formatter.Writer, "pairs:  %d\n", out.Pairs)
	fmt.Fprintf(formatter.Writer, "digest: %s\n", out.Digest)
	fmt.Fprintln(formatter.Writer, "cell:")
	for _, row := range out.Cell {
		fields := make([]string, 3)
		for k, x := range row {
			fields[k] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		fmt.Fprintf(formatter.Writer, "  %s\n", strings.Join(fields, " "))
	}
	return nil
}
