package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/recolte/dbopen"
	"github.com/hazyhaar/recolte/idgen"
)

// Run is one collector pass over a source.
type Run struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	ItemsSeen    int    `json:"items_seen"`
	ItemsNew     int    `json:"items_new"`
	ItemsUpdated int    `json:"items_updated"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error"`
	StartedAt    int64  `json:"started_at"`
}

// InsertRun records a collector run. An empty ID is filled with a fresh
// run-scoped UUID; a caller-supplied ID must be "run_" plus a valid UUID.
// An empty StartedAt is filled with the current time.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = s.newID()
	} else {
		raw, ok := strings.CutPrefix(r.ID, "run_")
		if !ok {
			return fmt.Errorf("%w: run id %q lacks run_ prefix", ErrInvalidInput, r.ID)
		}
		if _, err := idgen.Parse(raw); err != nil {
			return fmt.Errorf("%w: run id: %v", ErrInvalidInput, err)
		}
	}
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixMilli()
	}
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO collection_runs (id, source, items_seen, items_new,
		items_updated, duration_ms, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.ItemsSeen, r.ItemsNew, r.ItemsUpdated,
		r.DurationMs, r.Error, r.StartedAt,
	)
	if err != nil {
		return asStoreErr("insert run", err)
	}
	return nil
}

// RecentRuns returns the most recent collector runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, source, items_seen, items_new, items_updated, duration_ms,
		error, started_at
		FROM collection_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, asStoreErr("recent runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.ItemsSeen, &r.ItemsNew,
			&r.ItemsUpdated, &r.DurationMs, &r.Error, &r.StartedAt); err != nil {
			return nil, asStoreErr("recent runs", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, asStoreErr("recent runs", err)
	}
	return runs, nil
}
