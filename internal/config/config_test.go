package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	assert.Equal(t, 2500*time.Millisecond, d.RecentlyFixed())
	assert.Equal(t, 4, d.Lights.SequenceLengthFor(false))
	assert.Equal(t, 3, d.Lights.SequenceLengthFor(true))
	assert.Equal(t, 4, d.Controls.RequiredFor(false))
	assert.Equal(t, 3, d.Controls.RequiredFor(true))
}

func TestValidate_CollectsAll(t *testing.T) {
	tn := Default()
	tn.Laser.ShakeMs = 0
	tn.Controls.ToleranceDeg = 50
	tn.Lights.MaxedSequenceLength = 5

	err := tn.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"controls.tolerance_deg", "laser.shake_ms", "lights.maxed_sequence_length"}, fields)
}

func TestValidate_SequenceBounds(t *testing.T) {
	tn := Default()
	tn.Lights.SequenceLength = 7
	require.Error(t, tn.Validate())
}

func TestLoad_YAMLPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tuning.yaml", `
recently_fixed_ms: 1000
lights:
  flash_ms: 250
`)
	tn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, tn.RecentlyFixedMs)
	assert.Equal(t, 250, tn.Lights.FlashMs)
	assert.Equal(t, 100, tn.Lights.GapMs)
	assert.Equal(t, 300, tn.Laser.ShakeMs)
	assert.Equal(t, 15.0, tn.Controls.ToleranceDeg)
}

func TestLoad_YAMLEmpty(t *testing.T) {
	tn, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), tn)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "shake_everything: true\n"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeParse, le.Code)
}

func TestLoad_YAMLInvalidValue(t *testing.T) {
	_, err := Load(writeFile(t, "neg.yaml", "laser:\n  shake_ms: -5\n"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "laser.shake_ms", verr.Fields[0].Field)
}

func TestLoad_CUEDefaults(t *testing.T) {
	path := writeFile(t, "tuning.cue", `
recently_fixed_ms: 2000
controls: tolerance_deg: 10
`)
	tn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2000, tn.RecentlyFixedMs)
	assert.Equal(t, 10.0, tn.Controls.ToleranceDeg)
	assert.Equal(t, 4, tn.Controls.Required)
	assert.Equal(t, 400, tn.Lights.RecenterMs)
	assert.Equal(t, 100.0, tn.Controls.DialCenterX)
}

func TestLoad_CUEConstraintViolation(t *testing.T) {
	_, err := Load(writeFile(t, "bad.cue", "laser: shake_ms: -1\n"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeConstraint, le.Code)
}

func TestLoad_CUEUnknownField(t *testing.T) {
	_, err := Load(writeFile(t, "extra.cue", "turbo: true\n"))
	require.Error(t, err)
}

func TestLoad_CUESyntaxError(t *testing.T) {
	_, err := Load(writeFile(t, "syntax.cue", "laser: {\n"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeParse, le.Code)
}

func TestLoad_NotFoundAndFormat(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeNotFound, le.Code)

	_, err = Load(writeFile(t, "tuning.toml", ""))
	require.True(t, errors.As(err, &le))
	assert.Equal(t, CodeFormat, le.Code)
}
