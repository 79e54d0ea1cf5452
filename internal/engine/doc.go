// Package engine runs the external MD engine for one reproducibility case.
//
// A Runner executes a rendered control deck inside a working directory and
// returns the engine's captured standard output, which carries the
// neighbor diagnostics. The run is synchronous: Run returns only after the
// process has exited and its output has been fully read.
//
// Exec is the os/exec implementation. A non-zero exit status is reported as
// a configuration failure before anything parses the output. Each case runs
// in its own Workspace, a temporary directory removed on Close.
package engine
