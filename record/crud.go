package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/recolte/dbopen"
)

const recordCols = `id, source, source_id, title, description, tags, score,
	score_breakdown, processed, created_at, updated_at`

// Create inserts a new record. It fails with ErrDuplicate if the logical
// key (source, source_id) already exists — uniqueness is enforced by the
// composite index, never by a check-then-insert.
func (s *Store) Create(ctx context.Context, d Draft) (*ContentRecord, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	breakdown, err := encodeOptionalBreakdown(d.Breakdown)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	res, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO content_records (source, source_id, title, description, tags,
		score, score_breakdown, processed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		d.Source, d.SourceID, d.Title, d.Description, d.Tags,
		d.Score, breakdown, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicate, d.Source, d.SourceID)
		}
		return nil, asStoreErr("create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, asStoreErr("create", err)
	}

	return &ContentRecord{
		ID:             id,
		Source:         d.Source,
		SourceID:       d.SourceID,
		Title:          d.Title,
		Description:    d.Description,
		Tags:           d.Tags,
		Score:          d.Score,
		ScoreBreakdown: breakdown,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Get retrieves a record by its logical key. Pure lookup, no mutation.
func (s *Store) Get(ctx context.Context, source, sourceID string) (*ContentRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM content_records WHERE source = ? AND source_id = ?`,
		source, sourceID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, source, sourceID)
	}
	if err != nil {
		return nil, asStoreErr("get", err)
	}
	return rec, nil
}

// GetByID retrieves a record by its surrogate primary key.
func (s *Store) GetByID(ctx context.Context, id int64) (*ContentRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM content_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, asStoreErr("get", err)
	}
	return rec, nil
}

// Update applies a partial update to an existing record and returns the
// updated row. Only non-nil patch fields change; updated_at is bumped even
// for an empty patch. The update and the readback run in one transaction.
func (s *Store) Update(ctx context.Context, source, sourceID string, p Patch) (*ContentRecord, error) {
	if err := validatePatch(&p); err != nil {
		return nil, err
	}

	set := make([]string, 0, 7)
	args := make([]any, 0, 9)
	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Tags != nil {
		set = append(set, "tags = ?")
		args = append(args, *p.Tags)
	}
	if p.Score != nil {
		set = append(set, "score = ?")
		args = append(args, *p.Score)
	}
	if p.Breakdown != nil {
		encoded, err := encodeOptionalBreakdown(p.Breakdown)
		if err != nil {
			return nil, err
		}
		set = append(set, "score_breakdown = ?")
		args = append(args, encoded)
	}
	if p.Processed != nil {
		set = append(set, "processed = ?")
		args = append(args, *p.Processed)
	}

	// MAX(now, updated_at+1) keeps updated_at strictly increasing even when
	// two mutations land within the same millisecond.
	set = append(set, "updated_at = MAX(?, updated_at + 1)")
	args = append(args, time.Now().UnixMilli(), source, sourceID)

	var rec *ContentRecord
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE content_records SET `+strings.Join(set, ", ")+
				` WHERE source = ? AND source_id = ?`, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, source, sourceID)
		}

		row := tx.QueryRowContext(ctx,
			`SELECT `+recordCols+` FROM content_records WHERE source = ? AND source_id = ?`,
			source, sourceID)
		rec, err = scanRecord(row)
		return err
	})
	if err != nil {
		return nil, asStoreErr("update", err)
	}
	return rec, nil
}

// Upsert inserts the draft if the logical key is absent, otherwise updates
// the existing row. The conflict clause makes insert-or-update a single
// statement, so two concurrent upserts for the same key serialize on the
// row and never both insert. On the update path, nil optional fields keep
// their existing values and processed is left untouched.
//
// A returned record whose CreatedAt equals UpdatedAt was inserted by this
// call; an updated row always has UpdatedAt > CreatedAt.
func (s *Store) Upsert(ctx context.Context, d Draft) (*ContentRecord, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	breakdown, err := encodeOptionalBreakdown(d.Breakdown)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	var rec *ContentRecord
	err = dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO content_records (source, source_id, title, description, tags,
			score, score_breakdown, processed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
			ON CONFLICT(source, source_id) DO UPDATE SET
				title           = excluded.title,
				description     = COALESCE(excluded.description, description),
				tags            = COALESCE(excluded.tags, tags),
				score           = COALESCE(excluded.score, score),
				score_breakdown = COALESCE(excluded.score_breakdown, score_breakdown),
				updated_at      = MAX(excluded.updated_at, updated_at + 1)`,
			d.Source, d.SourceID, d.Title, d.Description, d.Tags,
			d.Score, breakdown, now, now,
		)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx,
			`SELECT `+recordCols+` FROM content_records WHERE source = ? AND source_id = ?`,
			d.Source, d.SourceID)
		rec, err = scanRecord(row)
		return err
	})
	if err != nil {
		return nil, asStoreErr("upsert", err)
	}
	return rec, nil
}

// ListOptions controls List ordering and pagination.
type ListOptions struct {
	Limit     int    // <= 0 means all rows
	OrderBy   string // one of sortColumns; default "score"
	Ascending bool   // default: descending
}

// sortColumns is the allow-list of sortable columns. Anything else is
// rejected before it can reach the SQL text.
var sortColumns = map[string]bool{
	"score":      true,
	"created_at": true,
	"updated_at": true,
	"id":         true,
}

// List returns records ordered by the requested column, highest first by
// default. The result is a materialized slice, not a live cursor.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*ContentRecord, error) {
	col := opts.OrderBy
	if col == "" {
		col = "score"
	}
	if !sortColumns[col] {
		return nil, fmt.Errorf("%w: cannot order by %q", ErrInvalidInput, opts.OrderBy)
	}
	dir := "DESC"
	if opts.Ascending {
		dir = "ASC"
	}

	q := `SELECT ` + recordCols + ` FROM content_records ORDER BY ` + col + ` ` + dir + `, id ASC`
	var args []any
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, asStoreErr("list", err)
	}
	defer rows.Close()

	var records []*ContentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, asStoreErr("list", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, asStoreErr("list", err)
	}
	return records, nil
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_records`).Scan(&n)
	return n, asStoreErr("count", err)
}

// CountBySource returns the number of records for one source platform.
func (s *Store) CountBySource(ctx context.Context, source string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records WHERE source = ?`, source).Scan(&n)
	return n, asStoreErr("count", err)
}

// Delete removes a record by its logical key and reports whether a row was
// removed. Deleting an absent key is not an error; it returns false.
func (s *Store) Delete(ctx context.Context, source, sourceID string) (bool, error) {
	res, err := dbopen.Exec(ctx, s.DB,
		`DELETE FROM content_records WHERE source = ? AND source_id = ?`,
		source, sourceID)
	if err != nil {
		return false, asStoreErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, asStoreErr("delete", err)
	}
	return n > 0, nil
}

// ClearAll deletes every record and returns the count removed.
// Irreversible; intended for tests and operator resets.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := dbopen.Exec(ctx, s.DB, `DELETE FROM content_records`)
	if err != nil {
		return 0, asStoreErr("clear", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, asStoreErr("clear", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*ContentRecord, error) {
	var rec ContentRecord
	var processed int
	err := sc.Scan(
		&rec.ID, &rec.Source, &rec.SourceID, &rec.Title, &rec.Description,
		&rec.Tags, &rec.Score, &rec.ScoreBreakdown, &processed,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Processed = processed != 0
	return &rec, nil
}
