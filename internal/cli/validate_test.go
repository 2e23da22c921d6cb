package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/config"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "tuning.yaml", "controls:\n  required: 5\n")
	cuePath := writeFile(t, dir, "tuning.cue", "lights: sequence_length: 5\n")

	for _, path := range []string{yamlPath, cuePath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			out, err := execute(t, "validate", path)
			require.NoError(t, err)
			assert.Contains(t, out, "Tuning valid")
		})
	}
}

func TestValidateCommand_JSONIncludesTuning(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tuning.yaml", "recently_fixed_ms: 1200\n")

	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Tuning)
	assert.Equal(t, 1200, resp.Data.Tuning.RecentlyFixedMs)
	assert.Equal(t, config.Default().Controls, resp.Data.Tuning.Controls)
}

func TestValidateCommand_RangeErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tuning.yaml", `controls:
  required: 2
  maxed_required: 3
lights:
  sequence_length: 9
`)

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	fields := map[string]bool{}
	for _, issue := range resp.Data.Errors {
		fields[issue.Field] = true
		assert.Equal(t, config.CodeConstraint, issue.Code)
	}
	assert.True(t, fields["controls.maxed_required"])
	assert.True(t, fields["lights.sequence_length"])
}

func TestValidateCommand_ParseErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown yaml field", "tuning.yaml", "laser:\n  speed: 3\n", config.CodeParse},
		{"cue constraint", "tuning.cue", "controls: tolerance_deg: 90\n", config.CodeConstraint},
		{"unsupported extension", "tuning.json", "{}", config.CodeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.body)
			out, err := execute(t, "validate", path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Validation failed")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, config.CodeNotFound)
}
