// Package record is the persistence layer for collected content metadata.
//
// One ContentRecord row exists per ingested item, identified by the logical
// key (source, source_id). The Store is the only gateway to persisted state:
// it enforces the composite uniqueness constraint, stamps timestamps, and
// keeps every write transactional.
package record

// ContentRecord is one ingested item.
//
// Timestamps are Unix milliseconds. CreatedAt is set once at creation and
// never changes; UpdatedAt strictly increases with every successful mutation.
type ContentRecord struct {
	ID             int64    `json:"id"`
	Source         string   `json:"source"`
	SourceID       string   `json:"source_id"`
	Title          string   `json:"title"`
	Description    *string  `json:"description,omitempty"`
	Tags           *string  `json:"tags,omitempty"` // comma-separated
	Score          *float64 `json:"score,omitempty"`
	ScoreBreakdown *string  `json:"score_breakdown,omitempty"` // encoded JSON object
	Processed      bool     `json:"processed"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

// Draft carries the caller-supplied fields for Create and Upsert.
// Nil optional fields are stored as NULL (Create) or leave the existing
// value untouched (Upsert).
type Draft struct {
	Source      string
	SourceID    string
	Title       string
	Description *string
	Tags        *string
	Score       *float64
	Breakdown   map[string]float64
}

// Patch carries a partial update: only non-nil fields change.
// UpdatedAt is refreshed even when the patch is empty.
type Patch struct {
	Title       *string
	Description *string
	Tags        *string
	Score       *float64
	Breakdown   map[string]float64
	Processed   *bool
}

// ToPlain returns a flat, exportable view of the record. Every column is
// present as a key; absent optionals map to nil. The score breakdown is
// rendered as its encoded text, not the decoded mapping.
func (r *ContentRecord) ToPlain() map[string]any {
	m := map[string]any{
		"id":         r.ID,
		"source":     r.Source,
		"source_id":  r.SourceID,
		"title":      r.Title,
		"processed":  r.Processed,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
	m["description"] = deref(r.Description)
	m["tags"] = deref(r.Tags)
	m["score_breakdown"] = deref(r.ScoreBreakdown)
	if r.Score != nil {
		m["score"] = *r.Score
	} else {
		m["score"] = nil
	}
	return m
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ptr helpers used throughout the package and by callers building drafts.

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
