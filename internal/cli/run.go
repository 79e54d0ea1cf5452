package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mstapelberg/pair-nequip-allegro/internal/engine"
	"github.com/mstapelberg/pair-nequip-allegro/internal/harness"
	"github.com/mstapelberg/pair-nequip-allegro/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string
	LAMMPS   string

	// Runner allows overriding the engine runner (for testing).
	// If nil, the engine binary is executed.
	Runner engine.Runner

	// IDs and Clock allow overriding run ids and timestamps (for testing).
	IDs   store.IDGenerator
	Clock store.Clock
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	RunID string `json:"run_id,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
	*harness.Result
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	return newRunCommand(opts)
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario's mode x device x structure matrix",
		Long: `Run every case of a scenario through the engine and compare it against
the directly evaluated potential.

Each case generates the engine inputs in a fresh workspace, runs the engine,
reconciles the neighbor lists, and compares forces, energies and stress.
With --db the verdicts are recorded in the run ledger.

Exit status is 1 when any case fails and 2 when the scenario cannot run.

Example:
  nequip-repro run scenarios/water.yaml
  nequip-repro run --db ./runs.db --filter 'tri*' scenarios/water.yaml
  nequip-repro run --lammps /opt/lammps/bin/lmp scenarios/water.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record verdicts in this SQLite database")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run structures whose name matches this glob")
	cmd.Flags().StringVar(&opts.LAMMPS, "lammps", "", "engine binary (overrides $LAMMPS and the scenario)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	sc, err := harness.LoadScenario(path)
	if err != nil {
		return commandError(formatter, errorCode(err), "failed to load scenario", err)
	}
	logger.Debug("scenario loaded", "path", path, "scenario", sc.Name)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &harness.Harness{
		Runner: opts.Runner,
		Logger: logger,
		Binary: opts.LAMMPS,
		Filter: opts.Filter,
	}
	result, err := h.Run(ctx, sc)
	if err != nil {
		return commandError(formatter, errorCode(err), "scenario run failed", err)
	}

	out := RunOutput{Result: result}
	if opts.Database != "" {
		run, err := recordResult(ctx, opts, result)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to record run", err)
		}
		out.RunID, out.Seq = run.ID, run.Seq
		logger.Info("run recorded", "db", opts.Database, "id", run.ID, "seq", run.Seq)
	}

	if err := writeRunOutput(formatter, out); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d cases failed", result.Failed, len(result.Cases)))
	}
	return nil
}

// recordResult writes result to the ledger at opts.Database.
func recordResult(ctx context.Context, opts *RunOptions, result *harness.Result) (*store.Run, error) {
	var storeOpts []store.Option
	if opts.IDs != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
	}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock))
	}

	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	run, cases := toRecords(result)
	if err := st.Record(ctx, run, cases); err != nil {
		return nil, err
	}
	return run, nil
}

// toRecords converts a result into ledger records. Case indices follow the
// result's case order.
func toRecords(result *harness.Result) (*store.Run, []store.Case) {
	run := &store.Run{
		Scenario:  result.Scenario,
		Tolerance: result.Tolerance,
		Pass:      result.Pass,
		Passed:    result.Passed,
		Failed:    result.Failed,
	}
	cases := make([]store.Case, len(result.Cases))
	for i, c := range result.Cases {
		cases[i] = store.Case{
			Index:     i,
			Mode:      c.Mode,
			Device:    c.Device,
			Structure: c.Structure,
			Pass:      c.Pass,
			Stage:     string(c.Stage),
			Kind:      c.Kind,
			Error:     c.Error,
			Edges:     c.Edges,
			Digest:    c.Digest,
		}
	}
	return run, cases
}

func writeRunOutput(f *OutputFormatter, out RunOutput) error {
	if f.Format == "json" {
		return f.Success(out)
	}
	if err := harness.WriteSummary(f.Writer, out.Result); err != nil {
		return err
	}
	if out.RunID != "" {
		fmt.Fprintf(f.Writer, "recorded run %s (seq %d)\n", out.RunID, out.Seq)
	}
	return nil
}
