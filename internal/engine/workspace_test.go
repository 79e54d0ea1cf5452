package engine

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace(t *testing.T) {
	ws, err := NewWorkspace("nequip-repro-test-")
	require.NoError(t, err)
	dir := ws.Dir()
	assert.DirExists(t, dir)

	require.NoError(t, ws.Create("pe.dat", func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "1000000")
		return err
	}))
	data, err := os.ReadFile(ws.Path("pe.dat"))
	require.NoError(t, err)
	assert.Equal(t, "1000000\n", string(data))

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, dir)
	require.NoError(t, ws.Close(), "second close is a no-op")
}

func TestWorkspace_RemovedAfterWriteFailure(t *testing.T) {
	ws, err := NewWorkspace("nequip-repro-test-")
	require.NoError(t, err)
	dir := ws.Dir()

	err = ws.Create("deck.in", func(io.Writer) error { return fmt.Errorf("render failed") })
	require.EqualError(t, err, "render failed")

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, dir)
}

func TestWorkspace_Isolated(t *testing.T) {
	a, err := NewWorkspace("nequip-repro-test-")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewWorkspace("nequip-repro-test-")
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())
}
