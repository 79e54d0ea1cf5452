package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mstapelberg/pair-nequip-allegro/internal/harness"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                     `json:"valid"`
	Scenario string                   `json:"scenario,omitempty"`
	Cases    int                      `json:"cases,omitempty"`
	Errors   []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a scenario YAML file against the scenario schema and check the
constraints that span fields (artifacts for every mode, known symbols,
unique structure names, consistent cells).

Nothing is executed. Exit status is 1 when the scenario is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sc, err := harness.LoadScenario(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return commandError(formatter, ErrCodeNotFound, "failed to read scenario", err)
		}
		errs := validationErrors(err)
		if errs == nil {
			return commandError(formatter, errorCode(err), "failed to validate scenario", err)
		}
		return outputValidationErrors(formatter, errs)
	}

	cases := len(sc.Modes) * len(sc.Devices) * len(sc.Structures)
	formatter.VerboseLog("scenario %s: %d mode(s), %d device(s), %d structure(s)",
		sc.Name, len(sc.Modes), len(sc.Devices), len(sc.Structures))

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Scenario: sc.Name, Cases: cases})
	}
	fmt.Fprintf(formatter.Writer, "✓ scenario %s is valid (%d cases)\n", sc.Name, cases)
	return nil
}

// validationErrors extracts the itemized problems from a scenario load
// error. Returns nil when err is not a validation problem.
func validationErrors(err error) []schema.ValidationError {
	var schemaErrs schema.Errors
	if errors.As(err, &schemaErrs) {
		return schemaErrs
	}
	var ce *ir.ConfigurationError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.Err != nil {
			msg += ": " + ce.Err.Error()
		}
		return []schema.ValidationError{{Path: ce.Field, Message: msg, Code: ErrCodeConfiguration}}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Pos.Line())
		}
		path := err.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, path, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
