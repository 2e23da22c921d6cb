package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/store"
)

// seedHistory writes three resolutions into a fresh save file.
func seedHistory(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "save.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, r := range []store.Resolution{
		{ComplicationID: "c-1", Type: complication.Laser, AtMs: 1200},
		{ComplicationID: "c-2", Type: complication.Lights, AtMs: 9000},
		{ComplicationID: "c-3", Type: complication.Laser, AtMs: 15500},
	} {
		_, err := st.RecordResolution(ctx, r)
		require.NoError(t, err)
	}
	return db
}

func TestHistoryCommand_Text(t *testing.T) {
	db := seedHistory(t)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Resolutions:")
	assert.Contains(t, out, "[1]       1.2s laser    c-1")
	assert.Contains(t, out, "[3]      15.5s laser    c-3")
	assert.Contains(t, out, "  laser    2\n")
	assert.Contains(t, out, "  controls 0\n")
	assert.Contains(t, out, "  all      3\n")
}

func TestHistoryCommand_JSONFilterAndLimit(t *testing.T) {
	db := seedHistory(t)

	out, err := execute(t, "--format", "json", "history", "--db", db, "--type", "laser", "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Resolutions, 1)
	assert.Equal(t, "c-1", resp.Data.Resolutions[0].ComplicationID)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Counts[complication.Laser])
}

func TestHistoryCommand_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "save.db")

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No resolutions recorded.")
	assert.Contains(t, out, "  all      0\n")
}

func TestHistoryCommand_Errors(t *testing.T) {
	db := seedHistory(t)

	_, err := execute(t, "history", "--db", db, "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "history", "--db", db, "--type", "reactor")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeInvalidType)
}
