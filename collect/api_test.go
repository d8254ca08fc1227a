package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/recolte/dbopen"
	"github.com/hazyhaar/recolte/record"
	_ "modernc.org/sqlite"
)

func newTestAPI(t *testing.T) (*httptest.Server, *record.Store) {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(record.Schema))
	store := record.NewStore(db)
	srv := httptest.NewServer(NewAPI(store, nil).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAPIUpsertAndGet(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/records", map[string]any{
		"source":    "reddit",
		"source_id": "abc",
		"title":     "hello",
		"tags":      "golang",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first upsert status = %d, want 201", resp.StatusCode)
	}
	created := decode[record.ContentRecord](t, resp)
	if created.ID == 0 || created.Title != "hello" {
		t.Errorf("created = %+v", created)
	}

	// Same key again: update, not create.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/records", map[string]any{
		"source":    "reddit",
		"source_id": "abc",
		"title":     "hello v2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second upsert status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/records/reddit/abc", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	got := decode[record.ContentRecord](t, resp)
	if got.Title != "hello v2" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Tags == nil || *got.Tags != "golang" {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	srv, _ := newTestAPI(t)

	// Missing title -> 400.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/records", map[string]any{
		"source": "reddit", "source_id": "x",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid draft status = %d, want 400", resp.StatusCode)
	}

	// Unknown record -> 404.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/records/reddit/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["error"] == "" {
		t.Error("error body missing")
	}

	// Malformed JSON -> 400.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/records", bytes.NewBufferString("{nope"))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp2.StatusCode)
	}

	// Bad order column -> 400.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/records?order=title", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad order status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIListAndStats(t *testing.T) {
	srv, store := newTestAPI(t)
	ctx := context.Background()

	for _, d := range []record.Draft{
		{Source: "reddit", SourceID: "1", Title: "low", Score: record.Float(2)},
		{Source: "reddit", SourceID: "2", Title: "high", Score: record.Float(9)},
	} {
		if _, err := store.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/records?limit=1", nil)
	recs := decode[[]record.ContentRecord](t, resp)
	if len(recs) != 1 || recs[0].SourceID != "2" {
		t.Errorf("list = %+v", recs)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/stats", nil)
	stats := decode[record.Stats](t, resp)
	if stats.Records != 2 || stats.BySource["reddit"] != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAPIPatchAndProcessed(t *testing.T) {
	srv, store := newTestAPI(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, record.Draft{Source: "reddit", SourceID: "p", Title: "t"}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/records/reddit/p", map[string]any{
		"score": 4.5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	patched := decode[record.ContentRecord](t, resp)
	if patched.Score == nil || *patched.Score != 4.5 {
		t.Errorf("score = %v", patched.Score)
	}
	if patched.Title != "t" {
		t.Errorf("patch touched title: %q", patched.Title)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/records/reddit/p/processed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("processed status = %d", resp.StatusCode)
	}
	marked := decode[record.ContentRecord](t, resp)
	if !marked.Processed {
		t.Error("processed flag not set")
	}
}

func TestAPIDelete(t *testing.T) {
	srv, store := newTestAPI(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, record.Draft{Source: "reddit", SourceID: "d", Title: "t"}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/records/reddit/d", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Removed") != "true" {
		t.Errorf("X-Removed = %q", resp.Header.Get("X-Removed"))
	}

	// Deleting again stays 204 but reports no removal.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/records/reddit/d", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Removed") != "false" {
		t.Errorf("X-Removed = %q", resp.Header.Get("X-Removed"))
	}
}
