package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the summary of result against the golden file
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	var buf bytes.Buffer
	if err := WriteSummary(&buf, result); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
