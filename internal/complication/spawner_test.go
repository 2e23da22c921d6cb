package complication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/testutil"
)

func TestSpawner_SpawnOneFillsMissing(t *testing.T) {
	b := NewBoard(NewSequenceIDs("c"))
	// Always pick the first missing type.
	s := NewSpawner(b, time.Second, rng.NewScripted(0), testutil.Quiet())

	c, ok := s.SpawnOne()
	require.True(t, ok)
	assert.Equal(t, Complication{ID: "c-1", Type: Laser}, c)

	c, ok = s.SpawnOne()
	require.True(t, ok)
	assert.Equal(t, Lights, c.Type)

	c, ok = s.SpawnOne()
	require.True(t, ok)
	assert.Equal(t, Controls, c.Type)

	_, ok = s.SpawnOne()
	assert.False(t, ok, "every type already active")
	assert.Len(t, b.Snapshot(), 3)
}

func TestSpawner_RunStopsOnCancel(t *testing.T) {
	b := NewBoard(nil)
	s := NewSpawner(b, 5*time.Millisecond, rng.NewSeeded(1), testutil.Quiet())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(b.Snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("spawner did not stop")
	}
}

func TestSpawner_DisabledInterval(t *testing.T) {
	b := NewBoard(nil)
	s := NewSpawner(b, 0, rng.NewSeeded(1), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Empty(t, b.Snapshot())
}
