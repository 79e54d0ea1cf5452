package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

//go:embed scenario.cue
var scenarioSchema string

// schemaRoot is the definition a scenario document must satisfy.
const schemaRoot = "#Scenario"

// Validation error codes (E200-E299)
const (
	ErrSchemaSyntax    = "E200" // document is not valid YAML
	ErrSchemaViolation = "E201" // document does not satisfy #Scenario
	ErrSchemaInternal  = "E202" // embedded schema failed to compile
)

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string    `json:"path"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Pos     token.Pos `json:"-"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "(root)"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Pos.Line(), loc, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, loc, e.Message)
}

// Errors is the full list of violations found in one document.
type Errors []ValidationError

// Error implements the error interface.
func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// Validate checks a YAML scenario document against #Scenario.
func Validate(data []byte) error {
	return ValidateFile("scenario.yaml", data)
}

// ValidateFile is Validate with a filename for positions and messages.
// The error is an *ir.ConfigurationError wrapping Errors.
func ValidateFile(filename string, data []byte) error {
	errs := Check(filename, data)
	if len(errs) == 0 {
		return nil
	}
	return &ir.ConfigurationError{
		Field:   "scenario",
		Message: fmt.Sprintf("%s: %d schema violation(s)", filename, len(errs)),
		Err:     errs,
	}
}

// Check is Validate returning the raw violations.
func Check(filename string, data []byte) Errors {
	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue")).LookupPath(cue.ParsePath(schemaRoot))
	if err := schema.Err(); err != nil {
		return Errors{{Message: err.Error(), Code: ErrSchemaInternal}}
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return Errors{{Message: err.Error(), Code: ErrSchemaSyntax}}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return convert(filename, err, ErrSchemaSyntax)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convert(filename, err, ErrSchemaViolation)
	}
	return nil
}

// convert flattens a CUE error list, preferring positions inside the
// validated document over positions inside the schema.
func convert(filename string, err error, code string) Errors {
	var out Errors
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		// Paths are reported relative to the document.
		path := e.Path()
		if len(path) > 0 && path[0] == schemaRoot {
			path = path[1:]
		}
		ve := ValidationError{
			Path:    strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		}
		for _, p := range cueerrors.Positions(e) {
			if p.Filename() == filename {
				ve.Pos = p
				break
			}
		}
		key := ve.Path + "\x00" + ve.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ve)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
