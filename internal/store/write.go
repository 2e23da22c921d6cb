package store

import (
	"context"
	"fmt"

	"github.com/roach88/complications/internal/complication"
)

// Resolution is one resolved complication.
type Resolution struct {
	Seq            int64             `json:"seq"`
	ComplicationID string            `json:"complication_id"`
	Type           complication.Type `json:"type"`
	AtMs           int64             `json:"at_ms"`
}

// SetMaxed records the upgrade flag for a minigame, replacing any earlier
// value.
func (s *Store) SetMaxed(ctx context.Context, t complication.Type, maxed bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upgrades (type, maxed)
		VALUES (?, ?)
		ON CONFLICT(type) DO UPDATE SET maxed = excluded.maxed
	`, string(t), boolToInt(maxed))
	if err != nil {
		return fmt.Errorf("set maxed %s: %w", t, err)
	}
	return nil
}

// RecordResolution appends a resolution. Uses ON CONFLICT DO NOTHING for
// idempotency: a complication id already recorded is silently ignored.
// It reports whether a row was written.
func (s *Store) RecordResolution(ctx context.Context, r Resolution) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (complication_id, type, at_ms)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.ComplicationID, string(r.Type), r.AtMs)
	if err != nil {
		return false, fmt.Errorf("record resolution %s: %w", r.ComplicationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record resolution %s: %w", r.ComplicationID, err)
	}
	return n == 1, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
