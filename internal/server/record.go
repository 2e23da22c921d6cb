package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/store"
)

// recordTimeout bounds one resolution write.
const recordTimeout = 5 * time.Second

// RecordResolutions returns a board hook that appends every resolution to
// st, stamped with now. The hook runs on whichever goroutine resolved the
// complication, which for a live console is the loop goroutine, so now may
// read the console clock directly.
func RecordResolutions(st *store.Store, now func() time.Duration, logger *slog.Logger) complication.ResolveHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c complication.Complication) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		r := store.Resolution{ComplicationID: c.ID, Type: c.Type, AtMs: now().Milliseconds()}
		written, err := st.RecordResolution(ctx, r)
		if err != nil {
			logger.Error("failed to record resolution", "id", c.ID, "type", c.Type, "error", err)
			return
		}
		if !written {
			logger.Debug("resolution already recorded", "id", c.ID)
		}
	}
}
