package compare

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Bar is one bar expressed in eV/Å³.
const Bar = 6.241509074460763e-07

// Convention describes how an engine reports quantities relative to the
// potential's own units and sign.
type Convention struct {
	Name string `yaml:"name" json:"name"`

	// StressScale converts one engine stress unit to potential units.
	StressScale float64 `yaml:"stress_scale" json:"stress_scale"`

	// StressSign multiplies the directly computed stress before comparison.
	// -1 when the engine relates stress to virial without the sign flip
	// the potential uses.
	StressSign float64 `yaml:"stress_sign" json:"stress_sign"`

	// VoigtOrder gives the (row, column) of each flattened stress component.
	VoigtOrder [6][2]int `yaml:"voigt_order" json:"voigt_order"`

	// PrecisionScale is the factor the engine multiplied values by before
	// writing them as text.
	PrecisionScale float64 `yaml:"precision_scale" json:"precision_scale"`
}

// LAMMPSMetal is LAMMPS with "units metal": pressure in bars, pressure
// tensor ordered pxx, pyy, pzz, pxy, pxz, pyz, virial without sign change.
var LAMMPSMetal = Convention{
	Name:           "lammps-metal",
	StressScale:    Bar,
	StressSign:     -1,
	VoigtOrder:     [6][2]int{{0, 0}, {1, 1}, {2, 2}, {0, 1}, {0, 2}, {1, 2}},
	PrecisionScale: 1e6,
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Convention{LAMMPSMetal.Name: LAMMPSMetal}
)

// Validate checks that the convention is usable.
func (c Convention) Validate() error {
	if c.Name == "" {
		return ir.NewConfigurationError("convention.name", "name is required")
	}
	if !(c.StressScale > 0) {
		return ir.NewConfigurationError("convention.stress_scale", "must be positive, got %g", c.StressScale)
	}
	if c.StressSign != 1 && c.StressSign != -1 {
		return ir.NewConfigurationError("convention.stress_sign", "must be 1 or -1, got %g", c.StressSign)
	}
	if !(c.PrecisionScale > 0) {
		return ir.NewConfigurationError("convention.precision_scale", "must be positive, got %g", c.PrecisionScale)
	}

	var seen [3][3]bool
	for n, ij := range c.VoigtOrder {
		i, j := ij[0], ij[1]
		if i < 0 || i > 2 || j < 0 || j > 2 {
			return ir.NewConfigurationError("convention.voigt_order", "component %d index %v out of range", n, ij)
		}
		if seen[i][j] || seen[j][i] {
			return ir.NewConfigurationError("convention.voigt_order", "component %d repeats %v", n, ij)
		}
		seen[i][j], seen[j][i] = true, true
	}
	return nil
}

// Stress reassembles a flattened engine stress into a symmetric 3x3 tensor
// in potential units. The sign is left as the engine reports it.
func (c Convention) Stress(voigt [6]float64) ir.Mat3 {
	var m ir.Mat3
	for n, ij := range c.VoigtOrder {
		v := voigt[n] * c.StressScale
		m[ij[0]][ij[1]] = v
		m[ij[1]][ij[0]] = v
	}
	return m
}

// Voigt flattens a symmetric tensor in engine units and layout. It is the
// inverse of Stress.
func (c Convention) Voigt(m ir.Mat3) [6]float64 {
	var out [6]float64
	for n, ij := range c.VoigtOrder {
		out[n] = m[ij[0]][ij[1]] / c.StressScale
	}
	return out
}

// Scale applies the engine's precision scaling.
func (c Convention) Scale(v float64) float64 {
	return v * c.PrecisionScale
}

// Unscale inverts the engine's precision scaling.
func (c Convention) Unscale(v float64) float64 {
	return v / c.PrecisionScale
}

// Register adds c to the registry, replacing any convention of the same name.
func Register(c Convention) error {
	if err := c.Validate(); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name] = c
	return nil
}

// Lookup returns the registered convention called name.
func Lookup(name string) (Convention, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return Convention{}, ir.NewConfigurationError("convention", "unknown convention %q (known: %v)", name, namesLocked())
	}
	return c, nil
}

// Names returns the registered convention names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoadConvention decodes a YAML convention descriptor. Unknown fields are
// rejected.
func LoadConvention(r io.Reader) (Convention, error) {
	var c Convention
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Convention{}, &ir.ConfigurationError{Field: "convention", Message: "invalid descriptor", Err: fmt.Errorf("decode: %w", err)}
	}
	if err := c.Validate(); err != nil {
		return Convention{}, err
	}
	return c, nil
}
