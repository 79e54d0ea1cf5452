package lammps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// ReadScalar reads a one-number precision-scaled file.
func ReadScalar(path string, conv compare.Convention) (float64, error) {
	vals, err := readNumbers(path, 1)
	if err != nil {
		return 0, err
	}
	return conv.Unscale(vals[0]), nil
}

// ReadVoigt reads a six-number precision-scaled stress file. Values stay in
// engine units and component order.
func ReadVoigt(path string, conv compare.Convention) ([6]float64, error) {
	var out [6]float64
	vals, err := readNumbers(path, 6)
	if err != nil {
		return out, err
	}
	for n, v := range vals {
		out[n] = conv.Unscale(v)
	}
	return out, nil
}

// ReadOutput collects every engine output in dir.
func ReadOutput(dir string, conv compare.Convention) (*ir.EngineOutput, error) {
	f, err := os.Open(filepath.Join(dir, DumpFile))
	if err != nil {
		return nil, missing(DumpFile, err)
	}
	defer f.Close()

	dump, err := ReadDump(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DumpFile, err)
	}

	pe, err := ReadScalar(filepath.Join(dir, PEFile), conv)
	if err != nil {
		return nil, err
	}
	tae, err := ReadScalar(filepath.Join(dir, TotalAtomicEnergyFile), conv)
	if err != nil {
		return nil, err
	}
	stress, err := ReadVoigt(filepath.Join(dir, StressFile), conv)
	if err != nil {
		return nil, err
	}

	return &ir.EngineOutput{
		Forces:            dump.Forces(),
		AtomicEnergies:    dump.AtomicEnergies(),
		PotentialEnergy:   pe,
		TotalAtomicEnergy: tae,
		Stress:            &stress,
	}, nil
}

func readNumbers(path string, n int) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, missing(filepath.Base(path), err)
	}
	text := strings.TrimSpace(string(data))
	fields := strings.Fields(text)
	if len(fields) != n {
		return nil, &ir.ParseError{
			Line:    1,
			Text:    text,
			Message: fmt.Sprintf("%s: expected %d values, got %d", filepath.Base(path), n, len(fields)),
		}
	}
	out := make([]float64, n)
	for i, fld := range fields {
		v, err := strconv.ParseFloat(fld, 64)
		if err != nil {
			return nil, &ir.ParseError{
				Line:    1,
				Column:  i + 1,
				Text:    text,
				Message: fmt.Sprintf("%s: invalid number %q", filepath.Base(path), fld),
			}
		}
		out[i] = v
	}
	return out, nil
}

func missing(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &ir.ConfigurationError{Field: "engine_output", Message: fmt.Sprintf("engine did not write %s", name), Err: err}
	}
	return fmt.Errorf("read %s: %w", name, err)
}
