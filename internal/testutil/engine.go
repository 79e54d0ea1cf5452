package testutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
	"github.com/mstapelberg/pair-nequip-allegro/internal/diag"
	"github.com/mstapelberg/pair-nequip-allegro/internal/engine"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/lammps"
	"github.com/mstapelberg/pair-nequip-allegro/internal/potential"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// FakeEngine is an engine.Runner that behaves like the MD engine running a
// correct pair style: it reads the deck and data file from the invocation's
// directory, builds its own neighbor list, prints the diagnostic blocks,
// evaluates Potential in the engine frame, and writes the dump and scaled
// energy and stress files.
//
// The hooks inject faults. They are applied after the correct values are
// computed and before anything is written.
type FakeEngine struct {
	Potential  potential.Potential
	Cutoff     float64
	Symbols    []string
	Convention compare.Convention
	Format     diag.Format

	// MutateEdges rewrites the neighbor list before it is printed.
	MutateEdges func([]ir.Edge) []ir.Edge

	// MutateOutput rewrites the engine output before it is written.
	MutateOutput func(*ir.EngineOutput)

	// OmitEdgeEnd ends standard output after the last neighbor row, so the
	// block is never terminated and no output files are written.
	OmitEdgeEnd bool

	// ExitCode, when non-zero, fails the run the way a crashed process does.
	ExitCode int

	mu    sync.Mutex
	calls []engine.Invocation
}

// NewFakeEngine returns a fake for symbols with the LAMMPS metal convention
// and the default diagnostic format.
func NewFakeEngine(pot potential.Potential, cutoff float64, symbols ...string) *FakeEngine {
	return &FakeEngine{
		Potential:  pot,
		Cutoff:     cutoff,
		Symbols:    symbols,
		Convention: compare.LAMMPSMetal,
		Format:     diag.DefaultFormat,
	}
}

// Invocations returns every invocation seen so far.
func (f *FakeEngine) Invocations() []engine.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Invocation, len(f.calls))
	copy(out, f.calls)
	return out
}

// Run implements engine.Runner.
func (f *FakeEngine) Run(ctx context.Context, inv engine.Invocation) (*engine.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	if f.ExitCode != 0 {
		return nil, &ir.ConfigurationError{
			Field:   "engine",
			Message: "engine run failed",
			Err:     &engine.ProcessError{Binary: "fake-lmp", ExitCode: f.ExitCode},
		}
	}

	deck := inv.Deck
	if !filepath.IsAbs(deck) {
		deck = filepath.Join(inv.Dir, deck)
	}
	pbc, err := readBoundary(deck)
	if err != nil {
		return nil, err
	}

	types, err := structure.NewTypeMap(f.Symbols)
	if err != nil {
		return nil, err
	}
	data, err := os.Open(filepath.Join(inv.Dir, lammps.DataFile))
	if err != nil {
		return nil, fmt.Errorf("fake engine: %w", err)
	}
	s, err := lammps.ReadData(data, types)
	data.Close()
	if err != nil {
		return nil, fmt.Errorf("fake engine: %w", err)
	}
	s.PBC = pbc

	nl, err := structure.BuildNeighborList(s, f.Cutoff)
	if err != nil {
		return nil, err
	}
	if f.MutateEdges != nil {
		nl.Edges = f.MutateEdges(nl.Edges)
	}

	var stdout bytes.Buffer
	fmt.Fprintln(&stdout, "LAMMPS (fake engine)")
	fmt.Fprintf(&stdout, "Reading data file %s ...\n", lammps.DataFile)
	var blocks bytes.Buffer
	if err := diag.Write(&blocks, nl, *s.Cell, f.Format); err != nil {
		return nil, err
	}
	if f.OmitEdgeEnd {
		// Output stops after the last edge row, as if the run died there.
		cut := bytes.Index(blocks.Bytes(), []byte("\n"+f.Format.EdgeEnd+"\n"))
		stdout.Write(blocks.Bytes()[:cut+1])
		return &engine.Output{Stdout: stdout.Bytes(), Duration: time.Since(start)}, nil
	}
	stdout.Write(blocks.Bytes())
	fmt.Fprintln(&stdout, "Total wall time: 0:00:00")

	q, err := f.Potential.Evaluate(ctx, s)
	if err != nil {
		return nil, err
	}
	out := &ir.EngineOutput{
		Forces:          q.Forces,
		AtomicEnergies:  q.AtomicEnergies,
		PotentialEnergy: q.TotalEnergy,
	}
	for _, e := range q.AtomicEnergies {
		out.TotalAtomicEnergy += e
	}
	var voigt [6]float64
	if q.Stress != nil {
		voigt = f.Convention.Voigt(q.Stress.Scale(f.Convention.StressSign))
	}
	out.Stress = &voigt
	if f.MutateOutput != nil {
		f.MutateOutput(out)
	}

	if err := f.writeOutput(inv.Dir, s, types, out); err != nil {
		return nil, err
	}
	return &engine.Output{Stdout: stdout.Bytes(), Duration: time.Since(start)}, nil
}

func (f *FakeEngine) writeOutput(dir string, s *structure.Structure, types *structure.TypeMap, out *ir.EngineOutput) error {
	atomTypes, err := types.Types(s)
	if err != nil {
		return err
	}
	atoms := make([]lammps.DumpAtom, s.NumAtoms())
	for i := range atoms {
		atoms[i] = lammps.DumpAtom{
			ID:       i + 1,
			Type:     atomTypes[i],
			Position: s.Positions[i],
			Force:    out.Forces[i],
			Energy:   out.AtomicEnergies[i],
		}
	}
	dump, err := os.Create(filepath.Join(dir, lammps.DumpFile))
	if err != nil {
		return err
	}
	if err := lammps.WriteDump(dump, atoms); err != nil {
		dump.Close()
		return err
	}
	if err := dump.Close(); err != nil {
		return err
	}

	conv := f.Convention
	if err := lammps.WriteScaled(filepath.Join(dir, lammps.PEFile), conv, out.PotentialEnergy); err != nil {
		return err
	}
	if err := lammps.WriteScaled(filepath.Join(dir, lammps.TotalAtomicEnergyFile), conv, out.TotalAtomicEnergy); err != nil {
		return err
	}
	return lammps.WriteScaled(filepath.Join(dir, lammps.StressFile), conv, out.Stress[:]...)
}

// readBoundary extracts the per-axis periodicity from the deck's boundary
// command.
func readBoundary(path string) ([3]bool, error) {
	var pbc [3]bool
	fh, err := os.Open(path)
	if err != nil {
		return pbc, fmt.Errorf("fake engine: %w", err)
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 4 && fields[0] == "boundary" {
			for k := 0; k < 3; k++ {
				pbc[k] = fields[1+k] == "p"
			}
			return pbc, nil
		}
	}
	if err := sc.Err(); err != nil {
		return pbc, err
	}
	return pbc, fmt.Errorf("fake engine: deck %s has no boundary command", path)
}
