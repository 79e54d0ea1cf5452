package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
	"github.com/mstapelberg/pair-nequip-allegro/internal/diag"
	"github.com/mstapelberg/pair-nequip-allegro/internal/engine"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/lammps"
	"github.com/mstapelberg/pair-nequip-allegro/internal/potential"
	"github.com/mstapelberg/pair-nequip-allegro/internal/reconcile"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// workspacePrefix names the per-case temporary directories.
const workspacePrefix = "nequip-repro-"

// Harness runs scenarios.
type Harness struct {
	// Runner executes the engine. Default is engine.Exec.
	Runner engine.Runner

	// Potential is evaluated directly. Default is built from the
	// scenario's reference block.
	Potential potential.Potential

	Logger *slog.Logger

	// Convention overrides the scenario's engine convention.
	Convention *compare.Convention

	// Binary overrides the engine executable (see engine.ResolveBinary).
	Binary string

	// Filter is a path.Match glob on structure names. Empty runs all.
	Filter string
}

// plan is everything resolved once per run.
type plan struct {
	scenario  *Scenario
	pot       potential.Potential
	conv      compare.Convention
	format    diag.Format
	types     *structure.TypeMap
	binary    string
	logger    *slog.Logger
	runner    engine.Runner
	tolerance ir.Tolerance
}

// Run executes every case of the scenario in order and returns the
// per-case verdicts. Case failures are recorded, never returned; the error
// is reserved for problems that prevent running at all and for
// cancellation.
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	p, err := h.plan(sc)
	if err != nil {
		return nil, err
	}

	structures, err := h.selectStructures(sc)
	if err != nil {
		return nil, err
	}

	result := NewResult(sc.Name, p.tolerance)
	p.logger.Info("starting scenario", "scenario", sc.Name,
		"modes", sc.Modes, "devices", sc.Devices, "structures", len(structures))

	for _, mode := range sc.Modes {
		for _, device := range sc.Devices {
			for _, s := range structures {
				if err := ctx.Err(); err != nil {
					return result, err
				}
				cr := p.runCase(ctx, mode, device, s)
				if ctxErr := ctx.Err(); ctxErr != nil {
					return result, ctxErr
				}
				if cr.Pass {
					p.logger.Info("case passed", "case", cr.Name(), "edges", cr.Edges, "elapsed", cr.Duration)
				} else {
					p.logger.Warn("case failed", "case", cr.Name(), "stage", cr.Stage, "kind", cr.Kind, "error", cr.Error)
				}
				result.Add(cr)
			}
		}
	}

	p.logger.Info("scenario finished", "scenario", sc.Name, "passed", result.Passed, "failed", result.Failed)
	return result, nil
}

// selectStructures applies Filter in scenario order.
func (h *Harness) selectStructures(sc *Scenario) ([]*structure.Structure, error) {
	out := make([]*structure.Structure, 0, len(sc.Structures))
	for _, spec := range sc.Structures {
		if h.Filter != "" {
			ok, err := path.Match(h.Filter, spec.Name)
			if err != nil {
				return nil, &ir.ConfigurationError{Field: "filter", Message: fmt.Sprintf("invalid pattern %q", h.Filter), Err: err}
			}
			if !ok {
				continue
			}
		}
		out = append(out, spec.Structure())
	}
	return out, nil
}

func (h *Harness) plan(sc *Scenario) (*plan, error) {
	if sc == nil {
		return nil, ir.NewConfigurationError("scenario", "no scenario given")
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var conv compare.Convention
	if h.Convention != nil {
		conv = *h.Convention
	} else {
		c, err := compare.Lookup(sc.ConventionName())
		if err != nil {
			return nil, err
		}
		conv = c
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	pot := h.Potential
	if pot == nil {
		if sc.Reference == nil {
			return nil, ir.NewConfigurationError("reference", "no reference potential configured")
		}
		var err error
		pot, err = potential.New(sc.Reference.Kind, sc.Reference.Epsilon, sc.Reference.Sigma, sc.Model.Cutoff)
		if err != nil {
			return nil, err
		}
	}

	types, err := structure.NewTypeMap(sc.Model.ChemicalSymbols)
	if err != nil {
		return nil, err
	}

	format := sc.DiagnosticFormat()
	if err := format.Validate(); err != nil {
		return nil, err
	}

	runner := h.Runner
	if runner == nil {
		runner = &engine.Exec{Logger: logger}
	}

	return &plan{
		scenario:  sc,
		pot:       pot,
		conv:      conv,
		format:    format,
		types:     types,
		binary:    engine.ResolveBinary(h.Binary, sc.Engine.Binary),
		logger:    logger,
		runner:    runner,
		tolerance: sc.Tolerance,
	}, nil
}

// runCase executes one case in a fresh workspace that is removed on return.
func (p *plan) runCase(ctx context.Context, mode, device string, s *structure.Structure) (cr CaseResult) {
	cr = CaseResult{Mode: mode, Device: device, Structure: s.Name}
	start := time.Now()
	defer func() { cr.Duration = time.Since(start) }()

	stage := StageGenerate
	fail := func(err error) CaseResult {
		cr.Pass = false
		cr.Stage = stage
		cr.Kind = ir.KindOf(err)
		cr.Err = err
		cr.Error = err.Error()
		return cr
	}
	logger := p.logger.With("case", cr.Name())

	ws, err := engine.NewWorkspace(workspacePrefix)
	if err != nil {
		return fail(err)
	}
	defer removeWorkspace(logger, ws)

	// generate
	ref, err := structure.BuildNeighborList(s, p.scenario.Model.Cutoff)
	if err != nil {
		return fail(err)
	}
	cr.Edges = ref.Len()
	cr.Digest = ref.Digest()
	logger.Debug("reference neighbor list", "edges", cr.Edges, "digest", cr.Digest)

	var prism *lammps.Prism
	if err := ws.Create(lammps.DataFile, func(w io.Writer) error {
		var err error
		prism, err = lammps.WriteData(w, s, p.types)
		return err
	}); err != nil {
		return fail(err)
	}
	deck := lammps.Deck{
		PBC:            s.PBC,
		PairStyle:      p.scenario.Engine.PairStyle,
		ModelPath:      p.scenario.Model.ArtifactPath(mode, device),
		Symbols:        p.types.Symbols(),
		PrecisionScale: p.conv.PrecisionScale,
	}
	if err := ws.Create(lammps.DeckFile, deck.Render); err != nil {
		return fail(err)
	}

	// engine
	stage = StageEngine
	out, err := p.runner.Run(ctx, engine.Invocation{
		Binary: p.binary,
		Dir:    ws.Dir(),
		Deck:   lammps.DeckFile,
		Env:    engine.Environment(device, p.scenario.Engine.Env),
	})
	if err != nil {
		return fail(err)
	}
	logger.Debug("engine finished", "stdout_bytes", len(out.Stdout), "elapsed", out.Duration)

	// parse
	stage = StageParse
	rec, err := diag.Parse(bytes.NewReader(out.Stdout), p.format)
	if err != nil {
		return fail(err)
	}
	rec.Edges.Cutoff = ref.Cutoff

	// reconcile
	stage = StageReconcile
	if err := reconcile.Reconcile(ref, rec.Edges, reconcile.Options{
		Tolerance: p.tolerance,
		Positions: s.Positions,
		CheckEcho: !s.Skewed(),
	}); err != nil {
		return fail(err)
	}
	if s.Periodic() {
		if err := reconcile.CheckCell(prism.Cell, rec.Cell, p.tolerance); err != nil {
			return fail(err)
		}
	}

	// dump
	stage = StageDump
	eng, err := lammps.ReadOutput(ws.Dir(), p.conv)
	if err != nil {
		return fail(err)
	}
	if prism.Rotated() {
		eng = p.conv.ToStructureFrame(eng, prism.Rotation)
	}

	// evaluate
	stage = StageEvaluate
	direct, err := p.pot.Evaluate(ctx, s)
	if err != nil {
		return fail(err)
	}

	// compare
	stage = StageCompare
	if err := compare.Compare(direct, eng, p.conv, p.tolerance, s.Periodic()); err != nil {
		return fail(err)
	}

	cr.Pass = true
	return cr
}

type workspace interface {
	Dir() string
	Close() error
}

// removeWorkspace closes ws and logs a failed removal.
func removeWorkspace(logger *slog.Logger, ws workspace) {
	dir := ws.Dir()
	if err := ws.Close(); err != nil {
		logger.Warn("failed to remove workspace", "dir", dir, "error", err)
	}
}
