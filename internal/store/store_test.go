package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/complication"
)

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_RefusesNewerSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SetMaxed(ctx, complication.Lights, true))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	m, err := s2.Maxed(ctx)
	require.NoError(t, err)
	assert.True(t, m.IsMaxed(complication.Lights), "flags survive reopening")
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.RecordResolution(context.Background(), createTestResolution("c-1", complication.Laser, 10))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestSetMaxed_Upsert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m, err := s.Maxed(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, s.SetMaxed(ctx, complication.Laser, true))
	require.NoError(t, s.SetMaxed(ctx, complication.Controls, true))
	require.NoError(t, s.SetMaxed(ctx, complication.Laser, false))

	m, err = s.Maxed(ctx)
	require.NoError(t, err)
	assert.Equal(t, complication.MaxedSet{complication.Laser: false, complication.Controls: true}, m)
	assert.Equal(t, []complication.Type{complication.Controls}, m.Sorted())
}

func TestRecordResolution_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok, err := s.RecordResolution(ctx, createTestResolution("c-1", complication.Laser, 100))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RecordResolution(ctx, createTestResolution("c-1", complication.Laser, 999))
	require.NoError(t, err)
	assert.False(t, ok, "second write of the same id is ignored")

	all, err := s.Resolutions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(100), all[0].AtMs)
}

func TestResolutions_OrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, r := range []Resolution{
		createTestResolution("c-1", complication.Laser, 10),
		createTestResolution("c-2", complication.Lights, 20),
		createTestResolution("c-3", complication.Laser, 30),
	} {
		_, err := s.RecordResolution(ctx, r)
		require.NoError(t, err, "resolution %d", i)
	}

	all, err := s.Resolutions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, []string{all[0].ComplicationID, all[1].ComplicationID, all[2].ComplicationID})
	assert.Less(t, all[0].Seq, all[1].Seq)
	assert.Equal(t, complication.Lights, all[1].Type)

	two, err := s.Resolutions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	counts, err := s.ResolutionCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[complication.Type]int{complication.Laser: 2, complication.Lights: 1}, counts)
}

func TestStore_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Resolutions(ctx, 0)
	assert.Error(t, err)
}
