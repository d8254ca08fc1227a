package record

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recolte.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Create(ctx, Draft{Source: "reddit", SourceID: "x", Title: "t"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A second Open against the same file must see the schema already in
	// place and the row persisted.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	if n, _ := s2.Count(ctx); n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestOpenUnavailable(t *testing.T) {
	// A directory path cannot be opened as a database file.
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(dir) err = %v, want ErrUnavailable", err)
	}
}

func TestInsertRunAndRecentRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runs := []*Run{
		{Source: "reddit", ItemsSeen: 10, ItemsNew: 7, ItemsUpdated: 3, DurationMs: 250, StartedAt: 1000},
		{Source: "reddit", ItemsSeen: 5, ItemsNew: 0, ItemsUpdated: 5, DurationMs: 120, StartedAt: 2000},
		{Source: "hackernews", ItemsSeen: 3, Error: "rate limited", StartedAt: 3000},
	}
	for _, r := range runs {
		if err := s.InsertRun(ctx, r); err != nil {
			t.Fatalf("InsertRun: %v", err)
		}
		if r.ID == "" {
			t.Error("InsertRun did not assign an ID")
		}
	}

	got, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Source != "hackernews" || got[0].Error != "rate limited" {
		t.Errorf("newest run = %+v", got[0])
	}
	if got[1].StartedAt != 2000 {
		t.Errorf("second run started_at = %d, want 2000", got[1].StartedAt)
	}
}

func TestInsertRunSuppliedID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := s.newID()
	if err := s.InsertRun(ctx, &Run{ID: id, Source: "reddit", StartedAt: 1000}); err != nil {
		t.Fatalf("InsertRun with supplied ID: %v", err)
	}
	got, err := s.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 1 || got[0].ID != id {
		t.Fatalf("persisted run = %+v, want ID %q", got, id)
	}

	for _, bad := range []string{"not-a-run-id", "run_", "run_zzz", "9b2e8f1c"} {
		err := s.InsertRun(ctx, &Run{ID: bad, Source: "reddit"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("InsertRun(%q) err = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestOperationsAfterCloseUnavailable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, Draft{Source: "reddit", SourceID: "x", Title: "t"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.DB.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, Draft{Source: "reddit", SourceID: "y", Title: "t"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create on closed db: err = %v, want ErrUnavailable", err)
	}
	if _, err := s.Get(ctx, "reddit", "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get on closed db: err = %v, want ErrUnavailable", err)
	}
	if _, err := s.List(ctx, ListOptions{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("List on closed db: err = %v, want ErrUnavailable", err)
	}
	if _, err := s.Count(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Count on closed db: err = %v, want ErrUnavailable", err)
	}
	if _, err := s.Stats(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Stats on closed db: err = %v, want ErrUnavailable", err)
	}
	if err := s.InsertRun(ctx, &Run{Source: "reddit"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("InsertRun on closed db: err = %v, want ErrUnavailable", err)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []Draft{
		{Source: "reddit", SourceID: "1", Title: "a", Score: Float(5)},
		{Source: "reddit", SourceID: "2", Title: "b"},
		{Source: "hackernews", SourceID: "1", Title: "c", Score: Float(2)},
	} {
		if _, err := s.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := s.Update(ctx, "reddit", "1", Patch{Processed: Bool(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.InsertRun(ctx, &Run{Source: "reddit"}); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Records != 3 || stats.Processed != 1 || stats.Scored != 2 || stats.Runs != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BySource["reddit"] != 2 || stats.BySource["hackernews"] != 1 {
		t.Errorf("by_source = %v", stats.BySource)
	}
}

func TestToPlainAllKeysPresent(t *testing.T) {
	rec := ContentRecord{ID: 1, Source: "reddit", SourceID: "x", Title: "t", CreatedAt: 10, UpdatedAt: 10}
	m := rec.ToPlain()

	for _, k := range []string{"id", "source", "source_id", "title", "description",
		"tags", "score", "score_breakdown", "processed", "created_at", "updated_at"} {
		if _, ok := m[k]; !ok {
			t.Errorf("ToPlain missing key %q", k)
		}
	}
	if m["description"] != nil || m["score"] != nil {
		t.Errorf("absent optionals should be nil: %v", m)
	}

	rec.Description = String("d")
	rec.Score = Float(1.5)
	m = rec.ToPlain()
	if m["description"] != "d" || m["score"] != 1.5 {
		t.Errorf("present optionals: %v", m)
	}
}
