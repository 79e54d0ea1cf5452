package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), scenarioPath("fixtures"))
	require.NoError(t, err)
	assert.Equal(t, "✓ scenario fixtures is valid (2 cases)\n", stdout.String())
}

func TestValidate_ValidJSON(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), scenarioPath("fixtures"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "fixtures", resp.Data.Scenario)
	assert.Equal(t, 2, resp.Data.Cases)
}

func TestValidate_SchemaViolation(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), scenarioPath("schema_violation"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := stdout.String()
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E201: ")
	assert.Contains(t, out, "cutoff")
}

func TestValidate_SchemaViolationJSON(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), scenarioPath("schema_violation"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Contains(t, resp.Data.Errors[0].Path, "cutoff")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
}

func TestValidate_CrossFieldViolation(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), scenarioPath("duplicate_structure"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout.String(), `E100: structures[1]: duplicate structure name "dimer"`)
}

func TestValidate_MissingFile(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout.String(), "Error [E005]")
}
