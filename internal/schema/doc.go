// Package schema validates scenario files against an embedded CUE schema.
//
// The schema (scenario.cue) is the declarative contract for scenario
// structure: required fields, value ranges, and closed field sets. Checks
// that span fields, such as every mode having an artifact, live with the
// scenario loader.
package schema
