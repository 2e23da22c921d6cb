package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/complications/internal/complication"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResolution creates a resolution with minimal fields.
func createTestResolution(id string, t complication.Type, atMs int64) Resolution {
	return Resolution{ComplicationID: id, Type: t, AtMs: atMs}
}
