package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Invocation is one engine run.
type Invocation struct {
	// Binary is the engine executable. Exec falls back to its own Binary.
	Binary string

	// Dir is the working directory holding the deck and data file.
	Dir string

	// Deck is the control script path, passed as "-in <Deck>".
	Deck string

	// Env holds extra KEY=VALUE entries layered over the parent environment.
	Env []string
}

// Output is what a finished run produced on its standard output.
type Output struct {
	Stdout   []byte
	Duration time.Duration
}

// Runner executes the engine.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Output, error)
}

// Exec runs the engine as a child process.
type Exec struct {
	// Binary is used when the invocation names none. Default DefaultBinary.
	Binary string

	// Stderr receives the engine's standard error. Default os.Stderr.
	Stderr io.Writer

	Logger *slog.Logger
}

// Run starts the engine, waits for it to exit, and returns its standard
// output. A process that cannot start or exits non-zero yields an
// ir.ConfigurationError wrapping a *ProcessError that keeps the tail of
// standard output. Cancelling ctx kills the
// process and returns ctx.Err().
func (e *Exec) Run(ctx context.Context, inv Invocation) (*Output, error) {
	bin := inv.Binary
	if bin == "" {
		bin = e.Binary
	}
	if bin == "" {
		bin = DefaultBinary
	}
	if inv.Deck == "" {
		return nil, ir.NewConfigurationError("engine", "no control deck given")
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	stderr := e.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-in", inv.Deck)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	logger.Debug("starting engine", "binary", bin, "dir", inv.Dir, "deck", inv.Deck, "env", inv.Env)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		pe := &ProcessError{Binary: bin, ExitCode: -1, Err: err, Tail: tail(stdout.Bytes(), tailLines)}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			pe.ExitCode = exitErr.ExitCode()
		}
		logger.Debug("engine failed", "binary", bin, "exit_code", pe.ExitCode, "elapsed", elapsed)
		return nil, &ir.ConfigurationError{Field: "engine", Message: "engine run failed", Err: pe}
	}

	logger.Debug("engine finished", "binary", bin, "elapsed", elapsed, "stdout_bytes", stdout.Len())
	return &Output{Stdout: stdout.Bytes(), Duration: elapsed}, nil
}
