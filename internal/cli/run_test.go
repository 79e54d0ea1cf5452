package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/harness"
	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/store"
	"github.com/mstapelberg/pair-nequip-allegro/internal/testutil"
)

const fixtureCutoff = 6.0

func fakeEngine() *testutil.FakeEngine {
	return testutil.NewFakeEngine(testutil.LennardJones(fixtureCutoff), fixtureCutoff, "H", "O")
}

func perturbForces(out *ir.EngineOutput) {
	out.Forces[0][0] += 1
}

func runOptions(format string, fake *testutil.FakeEngine, ids ...string) *RunOptions {
	if len(ids) == 0 {
		ids = []string{"run-0001", "run-0002", "run-0003"}
	}
	return &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Runner:      fake,
		IDs:         store.NewFixedGenerator(ids...),
		Clock:       testutil.NewDeterministicClock(),
	}
}

func TestRun_PassRecordsToLedger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	fake := fakeEngine()

	stdout, stderr, err := execute(newRunCommand(runOptions("text", fake)), "--db", dbPath, scenarioPath("fixtures"))
	require.NoError(t, err, stdout.String())

	assertGolden(t, "run_pass", stdout.Bytes())
	assert.Contains(t, stderr.String(), "run recorded")
	assert.Len(t, fake.Invocations(), 2)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-0001")
	require.NoError(t, err)
	assert.Equal(t, "fixtures", run.Scenario)
	assert.True(t, run.Pass)
	assert.True(t, testutil.Epoch.Equal(run.RecordedAt), "recorded at %s", run.RecordedAt)

	cases, err := st.ReadCases(context.Background(), "run-0001")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "dimer", cases[0].Structure)
	assert.Equal(t, 6, cases[1].Edges)
}

func TestRun_WithoutDatabase(t *testing.T) {
	stdout, _, err := execute(newRunCommand(runOptions("text", fakeEngine())), scenarioPath("fixtures"))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "2 cases: 2 passed, 0 failed")
	assert.NotContains(t, stdout.String(), "recorded run")
}

func TestRun_FailingCaseExitsOne(t *testing.T) {
	fake := fakeEngine()
	fake.MutateOutput = perturbForces

	stdout, _, err := execute(newRunCommand(runOptions("text", fake)), scenarioPath("fixtures"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 of 2 cases failed")
	assert.Contains(t, stdout.String(), "FAIL cpu/cpu/dimer")
	assert.Contains(t, stdout.String(), "kind=TOLERANCE_EXCEEDED")
}

func TestRun_FailuresAreStillRecorded(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	fake := fakeEngine()
	fake.MutateOutput = perturbForces

	_, _, err := execute(newRunCommand(runOptions("text", fake)), "--db", dbPath, scenarioPath("fixtures"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	cases, err := st.ReadCases(context.Background(), "run-0001")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	for _, c := range cases {
		assert.False(t, c.Pass)
		assert.Equal(t, "compare", c.Stage)
		assert.Equal(t, ir.KindToleranceExceeded, c.Kind)
		assert.NotEmpty(t, c.Error)
	}
}

func TestRun_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(newRunCommand(runOptions("json", fakeEngine())), "--db", dbPath, scenarioPath("fixtures"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID    string `json:"run_id"`
			Seq      int64  `json:"seq"`
			Scenario string `json:"scenario"`
			Pass     bool   `json:"pass"`
			Cases    []struct {
				Structure string `json:"structure"`
				Edges     int    `json:"edges"`
			} `json:"cases"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-0001", resp.Data.RunID)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.Equal(t, "fixtures", resp.Data.Scenario)
	assert.True(t, resp.Data.Pass)
	require.Len(t, resp.Data.Cases, 2)
	assert.Equal(t, 2, resp.Data.Cases[0].Edges)
}

func TestRun_Filter(t *testing.T) {
	fake := fakeEngine()
	stdout, _, err := execute(newRunCommand(runOptions("text", fake)), "--filter", "cub*", scenarioPath("fixtures"))
	require.NoError(t, err)
	assert.Len(t, fake.Invocations(), 1)
	assert.Contains(t, stdout.String(), "PASS cpu/cpu/cubic")
	assert.NotContains(t, stdout.String(), "dimer")
}

func TestRun_LAMMPSFlag(t *testing.T) {
	fake := fakeEngine()
	_, _, err := execute(newRunCommand(runOptions("text", fake)), "--lammps", "/opt/lammps/lmp_kokkos", scenarioPath("fixtures"))
	require.NoError(t, err)
	for _, inv := range fake.Invocations() {
		assert.Equal(t, "/opt/lammps/lmp_kokkos", inv.Binary)
	}
}

func TestRun_InvalidFilterIsCommandError(t *testing.T) {
	stdout, _, err := execute(newRunCommand(runOptions("text", fakeEngine())), "--filter", "[", scenarioPath("fixtures"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout.String(), "Error [E100]")
}

func TestRun_MissingScenario(t *testing.T) {
	stdout, _, err := execute(newRunCommand(runOptions("text", fakeEngine())), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout.String(), "Error [E005]")
}

func TestRun_InvalidScenario(t *testing.T) {
	stdout, _, err := execute(newRunCommand(runOptions("text", fakeEngine())), scenarioPath("schema_violation"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout.String(), "Error [E201]")
}

func TestRun_RequiresScenarioArgument(t *testing.T) {
	_, _, err := execute(newRunCommand(runOptions("text", fakeEngine())))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestToRecords(t *testing.T) {
	tol := ir.Tolerance{Atol: 1e-6, Rtol: 1e-5}
	result := harness.NewResult("fixtures", tol)
	result.Add(harness.CaseResult{Mode: "cpu", Device: "cpu", Structure: "dimer", Pass: true, Edges: 2, Digest: "b3dc"})
	result.Add(harness.CaseResult{
		Mode: "cpu", Device: "cuda", Structure: "dimer",
		Stage: harness.StageParse, Kind: ir.KindParse, Error: "parse error: cell block not found",
	})

	run, cases := toRecords(result)

	wantRun := &store.Run{Scenario: "fixtures", Tolerance: tol, Pass: false, Passed: 1, Failed: 1}
	if diff := cmp.Diff(wantRun, run); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	wantCases := []store.Case{
		{Index: 0, Mode: "cpu", Device: "cpu", Structure: "dimer", Pass: true, Edges: 2, Digest: "b3dc"},
		{Index: 1, Mode: "cpu", Device: "cuda", Structure: "dimer", Stage: "parse", Kind: ir.KindParse, Error: "parse error: cell block not found"},
	}
	if diff := cmp.Diff(wantCases, cases); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}
