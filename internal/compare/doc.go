// Package compare checks the physical outputs of an engine run against a
// direct evaluation of the same potential.
//
// Engine values are first normalized through a declarative Convention that
// records the engine's precision scaling, stress unit, stress sign, and
// six-component tensor layout. The direct evaluation is always the
// reference side of every tolerance test.
package compare
