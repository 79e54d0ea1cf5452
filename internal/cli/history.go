package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mstapelberg/pair-nequip-allegro/internal/harness"
	"github.com/mstapelberg/pair-nequip-allegro/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	Limit    int
}

// HistoryEntry is one recorded run with its case verdicts.
type HistoryEntry struct {
	store.Run
	Cases []store.Case `json:"cases"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs and their case verdicts",
		Long: `List the runs recorded by "run --db", oldest first, each followed by its
case verdicts. With --verbose the failure message of every failing case is
shown as well.

Example:
  nequip-repro history --db ./runs.db
  nequip-repro history --db ./runs.db --scenario water --limit 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "show at most this many recent runs (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// store.Open would create a missing database
	if _, err := os.Stat(opts.Database); err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return commandError(formatter, code, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	runs, err := st.ListRuns(ctx, opts.Scenario, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		cases, err := st.ReadCases(ctx, run.ID)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to read cases", err)
		}
		entries = append(entries, HistoryEntry{Run: run, Cases: cases})
	}
	formatter.VerboseLog("%d run(s) in %s", len(entries), opts.Database)

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	writeHistory(formatter, entries)
	return nil
}

func writeHistory(f *OutputFormatter, entries []HistoryEntry) {
	w := f.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "#%d %s %s %s %s %d passed, %d failed (%s)\n",
			e.Seq, e.ID, e.Scenario, e.RecordedAt.UTC().Format(time.RFC3339),
			verdict(e.Pass), e.Passed, e.Failed, e.Tolerance)
		for _, c := range e.Cases {
			fmt.Fprintf(w, "  %s %s/%s/%s edges=%d", verdict(c.Pass), c.Mode, c.Device, c.Structure, c.Edges)
			if c.Digest != "" {
				fmt.Fprintf(w, " digest=%s", harness.ShortDigest(c.Digest))
			}
			if !c.Pass {
				fmt.Fprintf(w, " stage=%s kind=%s", c.Stage, c.Kind)
			}
			fmt.Fprintln(w)
			if f.Verbose && c.Error != "" {
				for _, line := range strings.Split(c.Error, "\n") {
					fmt.Fprintf(w, "      %s\n", strings.TrimLeft(line, " "))
				}
			}
		}
	}
}

func verdict(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
