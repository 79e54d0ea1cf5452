package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// tailLines bounds the standard output kept in a ProcessError.
const tailLines = 20

// ProcessError describes an engine process that did not exit cleanly.
// It is wrapped in an ir.ConfigurationError with field "engine".
type ProcessError struct {
	// Binary is the executable that was run.
	Binary string

	// ExitCode is the process exit status, -1 if it never started or was
	// killed by a signal.
	ExitCode int

	// Err is the underlying exec error.
	Err error

	// Tail holds the last lines of standard output. The engine prints its
	// ERROR lines there, not on standard error.
	Tail []string
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	var msg string
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Binary, e.ExitCode)
	} else {
		msg = fmt.Sprintf("%s: %v", e.Binary, e.Err)
	}
	if len(e.Tail) == 0 {
		return msg
	}
	return msg + "\n" + strings.Join(e.Tail, "\n")
}

// tail returns the last n non-blank lines of out.
func tail(out []byte, n int) []string {
	var lines []string
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimRight(line, " \t\r")
		if len(line) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Unwrap returns the underlying exec error.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the engine exit status from err.
// Returns false if err does not carry a ProcessError.
func ExitCode(err error) (int, bool) {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.ExitCode, true
	}
	return 0, false
}
