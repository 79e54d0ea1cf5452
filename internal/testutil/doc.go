// Package testutil provides fixtures and fakes shared by package tests:
// reference structures, a deterministic clock, and an in-process engine
// that stands in for the MD binary.
package testutil
