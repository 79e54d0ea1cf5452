package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mstapelberg/pair-nequip-allegro/internal/compare"
	"github.com/mstapelberg/pair-nequip-allegro/internal/diag"
	"github.com/mstapelberg/pair-nequip-allegro/internal/engine"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/potential"
	"github.com/mstapelberg/pair-nequip-allegro/internal/schema"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// Scenario defines one reproducibility run.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description,omitempty"`

	Model Model `yaml:"model"`

	// Modes select a model artifact each (e.g. "cpu", "compiled").
	Modes []string `yaml:"modes"`

	// Devices are "cpu" or "cuda".
	Devices []string `yaml:"devices"`

	Engine EngineConfig `yaml:"engine,omitempty"`

	Tolerance ir.Tolerance `yaml:"tolerance"`

	// Reference configures the directly evaluated potential. Optional when
	// the caller supplies one.
	Reference *Reference `yaml:"reference,omitempty"`

	Structures []StructureSpec `yaml:"structures"`
}

// Model describes the deployed potential.
type Model struct {
	// Dir holds the artifacts. Relative paths resolve against the
	// scenario file's directory.
	Dir string `yaml:"dir"`

	ChemicalSymbols []string `yaml:"chemical_symbols"`

	Cutoff float64 `yaml:"cutoff"`

	// Artifacts maps each mode to a file in Dir. The placeholder
	// "{device}" is replaced by the case's device, since compiled
	// artifacts are built per device.
	Artifacts map[string]string `yaml:"artifacts"`
}

// DevicePlaceholder in an artifact name stands for the execution device.
const DevicePlaceholder = "{device}"

// Artifact returns the artifact file name of mode on device, or "" when
// mode has none.
func (m Model) Artifact(mode, device string) string {
	return strings.ReplaceAll(m.Artifacts[mode], DevicePlaceholder, device)
}

// ArtifactPath returns the artifact of mode on device joined to Dir.
func (m Model) ArtifactPath(mode, device string) string {
	return filepath.Join(m.Dir, m.Artifact(mode, device))
}

// EngineConfig tunes how the engine is driven.
type EngineConfig struct {
	Binary     string            `yaml:"binary,omitempty"`
	Convention string            `yaml:"convention,omitempty"`
	PairStyle  string            `yaml:"pair_style,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`

	// Diagnostics overrides sentinel lines; unset fields keep the default.
	Diagnostics *diag.Format `yaml:"diagnostics,omitempty"`
}

// Reference selects the direct-evaluation potential.
type Reference struct {
	Kind    string  `yaml:"kind"`
	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`
}

// StructureSpec is one structure of the scenario.
type StructureSpec struct {
	Name      string    `yaml:"name"`
	Symbols   []string  `yaml:"symbols"`
	Positions []ir.Vec3 `yaml:"positions"`
	Cell      *ir.Mat3  `yaml:"cell,omitempty"`
	PBC       [3]bool   `yaml:"pbc,omitempty"`
}

// Structure converts the scenario entry into a structure. The result
// shares no slices with s.
func (s StructureSpec) Structure() *structure.Structure {
	out := &structure.Structure{
		Name:      s.Name,
		Symbols:   append([]string(nil), s.Symbols...),
		Positions: append([]ir.Vec3(nil), s.Positions...),
		PBC:       s.PBC,
	}
	if s.Cell != nil {
		c := *s.Cell
		out.Cell = &c
	}
	return out
}

// DiagnosticFormat returns the sentinels for this scenario's engine.
func (s *Scenario) DiagnosticFormat() diag.Format {
	f := diag.DefaultFormat
	if d := s.Engine.Diagnostics; d != nil {
		if d.EdgeBegin != "" {
			f.EdgeBegin = d.EdgeBegin
		}
		if d.EdgeEnd != "" {
			f.EdgeEnd = d.EdgeEnd
		}
		if d.CellBegin != "" {
			f.CellBegin = d.CellBegin
		}
	}
	return f
}

// ConventionName returns the configured engine convention, defaulting to
// LAMMPS metal units.
func (s *Scenario) ConventionName() string {
	if s.Engine.Convention == "" {
		return compare.LAMMPSMetal.Name
	}
	return s.Engine.Convention
}

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Returns a ConfigurationError if the file is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ir.ConfigurationError{Field: "scenario", Message: "failed to read scenario file", Err: err}
	}
	sc, err := parseScenario(path, data)
	if err != nil {
		return nil, err
	}
	if sc.Model.Dir != "" && !filepath.IsAbs(sc.Model.Dir) {
		sc.Model.Dir = filepath.Join(filepath.Dir(path), sc.Model.Dir)
	}
	return sc, nil
}

// ParseScenario parses and validates a scenario document held in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	return parseScenario("scenario.yaml", data)
}

func parseScenario(filename string, data []byte) (*Scenario, error) {
	if err := schema.ValidateFile(filename, data); err != nil {
		return nil, err
	}

	// Parse YAML with strict field validation (catches typos like "structure:" vs "structures:")
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, &ir.ConfigurationError{Field: "scenario", Message: "failed to parse YAML", Err: err}
	}

	if err := validateScenario(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// validateScenario checks the constraints that span fields.
func validateScenario(s *Scenario) error {
	fail := func(field, format string, args ...any) error {
		return ir.NewConfigurationError(field, format, args...)
	}

	if s.Name == "" {
		return fail("name", "name is required")
	}
	if !(s.Model.Cutoff > 0) {
		return fail("model.cutoff", "must be positive, got %g", s.Model.Cutoff)
	}
	types, err := structure.NewTypeMap(s.Model.ChemicalSymbols)
	if err != nil {
		return err
	}

	if len(s.Modes) == 0 {
		return fail("modes", "modes list is required and must be non-empty")
	}
	if len(s.Devices) == 0 {
		return fail("devices", "devices list is required and must be non-empty")
	}
	for _, d := range s.Devices {
		if d != engine.DeviceCPU && d != engine.DeviceCUDA {
			return fail("devices", "unknown device %q (want %q or %q)", d, engine.DeviceCPU, engine.DeviceCUDA)
		}
	}
	for _, m := range s.Modes {
		artifact := s.Model.Artifacts[m]
		if artifact == "" {
			return fail("model.artifacts", "mode %q has no artifact", m)
		}
		rest := strings.ReplaceAll(artifact, DevicePlaceholder, "")
		if strings.ContainsAny(rest, "{}") {
			return fail("model.artifacts", "mode %q: unknown placeholder in %q (only %s is supported)", m, artifact, DevicePlaceholder)
		}
	}

	if s.Tolerance.Atol < 0 || s.Tolerance.Rtol < 0 {
		return fail("tolerance", "atol and rtol must be non-negative, got %s", s.Tolerance)
	}
	if _, err := compare.Lookup(s.ConventionName()); err != nil {
		return err
	}
	if err := s.DiagnosticFormat().Validate(); err != nil {
		return err
	}
	if r := s.Reference; r != nil {
		if _, err := potential.New(r.Kind, r.Epsilon, r.Sigma, s.Model.Cutoff); err != nil {
			return err
		}
	}

	if len(s.Structures) == 0 {
		return fail("structures", "structures list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(s.Structures))
	for i, spec := range s.Structures {
		field := fmt.Sprintf("structures[%d]", i)
		if spec.Name == "" {
			return fail(field, "name is required")
		}
		if seen[spec.Name] {
			return fail(field, "duplicate structure name %q", spec.Name)
		}
		seen[spec.Name] = true

		st := spec.Structure()
		if err := st.Validate(); err != nil {
			return &ir.ConfigurationError{Field: field, Message: "invalid structure", Err: err}
		}
		if _, err := types.Types(st); err != nil {
			return &ir.ConfigurationError{Field: field, Message: "invalid structure", Err: err}
		}
	}

	return nil
}
