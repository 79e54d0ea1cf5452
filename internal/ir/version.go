package ir

// Version constants for the harness.
const (
	// DigestVersion is the edge-set digest format version.
	DigestVersion = "1"

	// HarnessVersion is the nequip-repro harness version.
	HarnessVersion = "0.1.0"
)
