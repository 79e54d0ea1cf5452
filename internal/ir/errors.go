package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes harness failures.
//
// Every failure of a test case belongs to exactly one kind:
//   - CONFIGURATION: invalid or missing input, or the engine process failed
//   - PARSE: engine diagnostic text missing a sentinel or malformed
//   - RECONCILIATION: neighbor-list equivalence invariant violated
//   - TOLERANCE_EXCEEDED: a physical quantity disagrees beyond tolerance
type Kind string

const (
	KindConfiguration     Kind = "CONFIGURATION"
	KindParse             Kind = "PARSE"
	KindReconciliation    Kind = "RECONCILIATION"
	KindToleranceExceeded Kind = "TOLERANCE_EXCEEDED"

	// KindInternal covers errors outside the taxonomy (I/O, cancellation).
	KindInternal Kind = "INTERNAL"
)

// maxListed caps how many set elements an error message spells out.
const maxListed = 20

// ConfigurationError reports invalid or missing required input.
type ConfigurationError struct {
	// Field names the offending input (e.g. "cutoff", "cell", "engine").
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ParseError reports engine diagnostic text that could not be parsed.
// Line and Column are 1-based; Column is the whitespace-separated field
// position, 0 when the whole line is at fault.
type ParseError struct {
	Line    int
	Column  int
	Text    string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder
	buf.WriteString("parse error")
	if e.Line > 0 {
		fmt.Fprintf(&buf, " at line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&buf, ", field %d", e.Column)
		}
	}
	fmt.Fprintf(&buf, ": %s", e.Message)
	if e.Text != "" {
		fmt.Fprintf(&buf, " (line: %q)", e.Text)
	}
	return buf.String()
}

// Invariant names a neighbor-list equivalence invariant.
type Invariant string

const (
	InvariantCardinality Invariant = "cardinality"
	InvariantUniqueness  Invariant = "triple-uniqueness"
	InvariantTripleSet   Invariant = "triple-set"
	InvariantPairCounts  Invariant = "pair-counts"
	InvariantDistances   Invariant = "distances"
	InvariantEcho        Invariant = "position-echo"
	InvariantCell        Invariant = "cell"
)

// PairCount records how often a (source, target) pair occurs in each list.
type PairCount struct {
	Pair  Pair
	Left  int
	Right int
}

// ReconciliationError reports a violated neighbor-list equivalence
// invariant, itemized so the broken invariant can be diagnosed directly.
type ReconciliationError struct {
	Invariant Invariant
	Message   string

	// LeftName and RightName label the two lists (e.g. "reference", "engine").
	LeftName  string
	RightName string

	// Left and Right carry edge counts for cardinality failures.
	Left  int
	Right int

	// OnlyLeft and OnlyRight are the symmetric difference of the triple sets.
	OnlyLeft  []Triple
	OnlyRight []Triple

	// Duplicates lists triples occurring more than once within one list.
	Duplicates []Triple

	// Pairs lists (source, target) pairs with differing edge counts.
	Pairs []PairCount

	// Detail carries invariant-specific context (offending values).
	Detail string
}

// Error implements the error interface.
func (e *ReconciliationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "reconciliation failed [%s]: %s", e.Invariant, e.Message)

	if e.Invariant == InvariantCardinality {
		fmt.Fprintf(&buf, " (%s=%d, %s=%d)", e.LeftName, e.Left, e.RightName, e.Right)
	}
	if len(e.Duplicates) > 0 {
		fmt.Fprintf(&buf, "\n  duplicates: %s", formatTriples(e.Duplicates))
	}
	if len(e.OnlyLeft) > 0 {
		fmt.Fprintf(&buf, "\n  only in %s: %s", e.LeftName, formatTriples(e.OnlyLeft))
	}
	if len(e.OnlyRight) > 0 {
		fmt.Fprintf(&buf, "\n  only in %s: %s", e.RightName, formatTriples(e.OnlyRight))
	}
	for i, pc := range e.Pairs {
		if i == maxListed {
			fmt.Fprintf(&buf, "\n  ... and %d more pairs", len(e.Pairs)-maxListed)
			break
		}
		fmt.Fprintf(&buf, "\n  pair %s: %s=%d %s=%d", pc.Pair, e.LeftName, pc.Left, e.RightName, pc.Right)
	}
	if e.Detail != "" {
		fmt.Fprintf(&buf, "\n  %s", e.Detail)
	}
	return buf.String()
}

func formatTriples(ts []Triple) string {
	parts := make([]string, 0, len(ts))
	for i, t := range ts {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("... and %d more", len(ts)-maxListed))
			break
		}
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

// ToleranceExceededError reports a physical quantity comparison that
// exceeded tolerance. The diagnostics are always populated.
type ToleranceExceededError struct {
	// Quantity names the compared quantity (e.g. "forces", "stress").
	Quantity string

	// Index is the multi-index of the worst failing element.
	Index []int

	// Reference and Actual are the values at Index.
	Reference float64
	Actual    float64

	// MaxAbsErr is the largest |actual - reference| over all elements.
	MaxAbsErr float64

	// MaxRef is the largest |reference| over all elements.
	MaxRef float64

	// RMS is the root-mean-square of the reference values.
	RMS float64

	Tolerance Tolerance
}

// Error implements the error interface.
func (e *ToleranceExceededError) Error() string {
	return fmt.Sprintf(
		"%s: tolerance exceeded at %v: reference=%.10g actual=%.10g |diff|=%.4g (%s); max abs err=%.8g, max reference magnitude=%.8g, reference rms=%.8g",
		e.Quantity, e.Index, e.Reference, e.Actual, abs(e.Actual-e.Reference), e.Tolerance,
		e.MaxAbsErr, e.MaxRef, e.RMS,
	)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsReconciliationError returns true if err is or wraps a ReconciliationError.
func IsReconciliationError(err error) bool {
	var re *ReconciliationError
	return errors.As(err, &re)
}

// IsToleranceExceeded returns true if err is or wraps a ToleranceExceededError.
func IsToleranceExceeded(err error) bool {
	var te *ToleranceExceededError
	return errors.As(err, &te)
}

// KindOf classifies err. Returns "" for a nil error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case IsConfigurationError(err):
		return KindConfiguration
	case IsParseError(err):
		return KindParse
	case IsReconciliationError(err):
		return KindReconciliation
	case IsToleranceExceeded(err):
		return KindToleranceExceeded
	default:
		return KindInternal
	}
}
