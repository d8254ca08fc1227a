package record

import "context"

// Stats holds aggregate counters for the record store.
type Stats struct {
	Records   int            `json:"records"`
	Processed int            `json:"processed"`
	Scored    int            `json:"scored"`
	Runs      int            `json:"runs"`
	BySource  map[string]int `json:"by_source"`
}

// Stats returns aggregate counters: total records, processed, scored,
// collector runs, and a per-source breakdown.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records`).Scan(&stats.Records); err != nil {
		return nil, asStoreErr("stats", err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records WHERE processed = 1`).Scan(&stats.Processed); err != nil {
		return nil, asStoreErr("stats", err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records WHERE score IS NOT NULL`).Scan(&stats.Scored); err != nil {
		return nil, asStoreErr("stats", err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collection_runs`).Scan(&stats.Runs); err != nil {
		return nil, asStoreErr("stats", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM content_records GROUP BY source`)
	if err != nil {
		return nil, asStoreErr("stats", err)
	}
	defer rows.Close()

	stats.BySource = make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, asStoreErr("stats", err)
		}
		stats.BySource[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, asStoreErr("stats", err)
	}
	return &stats, nil
}
