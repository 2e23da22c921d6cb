package store

import (
	"context"
	"fmt"

	"github.com/roach88/complications/internal/complication"
)

// Maxed returns every stored upgrade flag. Types never set are absent,
// which MaxedSet reports as not maxed.
func (s *Store) Maxed(ctx context.Context) (complication.MaxedSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, maxed FROM upgrades
		ORDER BY type ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query upgrades: %w", err)
	}
	defer rows.Close()

	out := complication.MaxedSet{}
	for rows.Next() {
		var (
			t     string
			maxed int
		)
		if err := rows.Scan(&t, &maxed); err != nil {
			return nil, fmt.Errorf("scan upgrade: %w", err)
		}
		out[complication.Type(t)] = maxed == 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upgrades: %w", err)
	}
	return out, nil
}

// Resolutions returns recorded resolutions oldest first. A limit of zero or
// less returns all of them.
func (s *Store) Resolutions(ctx context.Context, limit int) ([]Resolution, error) {
	query := `
		SELECT seq, complication_id, type, at_ms FROM resolutions
		ORDER BY seq ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		var (
			r Resolution
			t string
		)
		if err := rows.Scan(&r.Seq, &r.ComplicationID, &t, &r.AtMs); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		r.Type = complication.Type(t)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return out, nil
}

// ResolutionCounts returns the number of resolutions per type.
func (s *Store) ResolutionCounts(ctx context.Context) (map[complication.Type]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM resolutions
		GROUP BY type
		ORDER BY type ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query resolution counts: %w", err)
	}
	defer rows.Close()

	out := make(map[complication.Type]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan resolution count: %w", err)
		}
		out[complication.Type(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolution counts: %w", err)
	}
	return out, nil
}
