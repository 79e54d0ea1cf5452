package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

func helperInvocation(t *testing.T, mode, device string) Invocation {
	t.Helper()
	dir := t.TempDir()
	deck := filepath.Join(dir, "test_repro.in")
	require.NoError(t, os.WriteFile(deck, []byte("run 0\n"), 0o644))
	return Invocation{
		Binary: os.Args[0],
		Dir:    dir,
		Deck:   deck,
		Env:    append(Environment(device, nil), helperEnv+"="+mode),
	}
}

func TestExec_CapturesStdout(t *testing.T) {
	inv := helperInvocation(t, "echo", DeviceCPU)
	var stderr bytes.Buffer
	out, err := (&Exec{Stderr: &stderr}).Run(context.Background(), inv)
	require.NoError(t, err)

	text := string(out.Stdout)
	assert.Contains(t, text, "args=[-in "+inv.Deck+"]")
	assert.Contains(t, text, "log=DEBUG")
	assert.Contains(t, text, `cuda="" set=true`)
	assert.Empty(t, stderr.String())
	assert.Greater(t, out.Duration, time.Duration(0))

	wd := strings.TrimPrefix(strings.Split(text, "\n")[1], "wd=")
	resolved, err := filepath.EvalSymlinks(inv.Dir)
	require.NoError(t, err)
	gotWd, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Equal(t, resolved, gotWd)
}

func TestExec_CUDADeviceKeepsGPUsVisible(t *testing.T) {
	t.Setenv("CUDA_VISIBLE_DEVICES", "0")
	out, err := (&Exec{}).Run(context.Background(), helperInvocation(t, "echo", DeviceCUDA))
	require.NoError(t, err)
	assert.Contains(t, string(out.Stdout), `cuda="0" set=true`)
}

func TestExec_NonZeroExit(t *testing.T) {
	var stderr bytes.Buffer
	_, err := (&Exec{Stderr: &stderr}).Run(context.Background(), helperInvocation(t, "3", DeviceCPU))
	require.Error(t, err)

	assert.True(t, ir.IsConfigurationError(err))
	var ce *ir.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "engine", ce.Field)

	code, ok := ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 3, code)
	assert.Contains(t, err.Error(), "exited with status 3")
	assert.Contains(t, stderr.String(), "pair style failed", "stderr is forwarded")

	assert.Contains(t, err.Error(), "ERROR: Unrecognized pair style 'nequip'")
	var pe *ProcessError
	require.True(t, errors.As(err, &pe))
	require.Len(t, pe.Tail, tailLines)
	assert.Equal(t, "step 12", pe.Tail[0])
	assert.Equal(t, "Last command: pair_style nequip", pe.Tail[tailLines-1])
}

func TestProcessError_Tail(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, tail([]byte("a\n\n  \nb\r\nc\n"), 2))
	assert.Empty(t, tail(nil, tailLines))

	pe := &ProcessError{Binary: "lmp", ExitCode: 1, Tail: []string{"ERROR: boom"}}
	assert.Equal(t, "lmp exited with status 1\nERROR: boom", pe.Error())
}

func TestExec_MissingBinary(t *testing.T) {
	inv := helperInvocation(t, "echo", DeviceCPU)
	inv.Binary = filepath.Join(t.TempDir(), "no-such-lmp")
	_, err := (&Exec{}).Run(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, ir.IsConfigurationError(err))
	code, ok := ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, -1, code)
}

func TestExec_NoDeck(t *testing.T) {
	_, err := (&Exec{}).Run(context.Background(), Invocation{Binary: os.Args[0]})
	assert.True(t, ir.IsConfigurationError(err))
}

func TestExec_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := (&Exec{}).Run(ctx, helperInvocation(t, "sleep", DeviceCPU))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ir.IsConfigurationError(err))
}

func TestResolveBinary(t *testing.T) {
	t.Setenv(BinaryEnv, "")
	assert.Equal(t, DefaultBinary, ResolveBinary("", ""))
	assert.Equal(t, "lmp_serial", ResolveBinary("", "lmp_serial"))

	t.Setenv(BinaryEnv, "/opt/lammps/bin/lmp")
	assert.Equal(t, "/opt/lammps/bin/lmp", ResolveBinary("", "lmp_serial"))
	assert.Equal(t, "./lmp", ResolveBinary("./lmp", "lmp_serial"))
}

func TestEnvironment(t *testing.T) {
	assert.Equal(t, []string{"_NEQUIP_LOG_LEVEL=DEBUG", "CUDA_VISIBLE_DEVICES="}, Environment(DeviceCPU, nil))
	assert.Equal(t, []string{"_NEQUIP_LOG_LEVEL=DEBUG"}, Environment(DeviceCUDA, nil))
	assert.Equal(t,
		[]string{"_NEQUIP_LOG_LEVEL=DEBUG", "A=1", "OMP_NUM_THREADS=1"},
		Environment(DeviceCUDA, map[string]string{"OMP_NUM_THREADS": "1", "A": "1"}))
}
