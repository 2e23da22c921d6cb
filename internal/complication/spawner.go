package complication

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/complications/internal/rng"
)

// Spawner adds a random missing complication to a Board at a fixed
// interval. It is the simplest stand-in for the gameplay system that
// normally decides when faults appear.
type Spawner struct {
	board *Board
	every time.Duration
	src   rng.Source
	log   *slog.Logger
}

// NewSpawner creates a spawner. src is used from the Run goroutine only and
// must not be shared with the console.
func NewSpawner(board *Board, every time.Duration, src rng.Source, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{board: board, every: every, src: src, log: logger}
}

// SpawnOne adds one complication of a type not currently active. It reports
// false when every type is already active.
func (s *Spawner) SpawnOne() (Complication, bool) {
	missing := s.board.Missing()
	if len(missing) == 0 {
		return Complication{}, false
	}
	t := missing[s.src.IntN(len(missing))]
	c, err := s.board.Spawn(t)
	if err != nil {
		// Lost a race with another spawn of the same type.
		s.log.Debug("spawn skipped", "type", t, "error", err)
		return Complication{}, false
	}
	return c, true
}

// Run spawns every interval until ctx is cancelled. A non-positive interval
// disables spawning and Run just waits for cancellation.
func (s *Spawner) Run(ctx context.Context) error {
	if s.every <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	s.log.Info("spawner starting", "every", s.every)
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c, ok := s.SpawnOne(); ok {
				s.log.Info("complication spawned", "type", c.Type, "id", c.ID)
			}
		}
	}
}
