package collect

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/recolte/record"
)

const maxRequestBody = 1 << 20 // 1 MiB

// API serves the record store over HTTP.
type API struct {
	store  *record.Store
	logger *slog.Logger
}

// NewAPI wires the HTTP surface. A nil logger falls back to slog.Default.
func NewAPI(store *record.Store, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{store: store, logger: logger}
}

// Router builds the chi router for the API.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, secureHeaders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/records", a.handleList)
		r.Post("/records", a.handleUpsert)
		r.Route("/records/{source}/{sourceID}", func(r chi.Router) {
			r.Get("/", a.handleGet)
			r.Patch("/", a.handlePatch)
			r.Delete("/", a.handleDelete)
			r.Post("/processed", a.handleMarkProcessed)
		})
		r.Get("/stats", a.handleStats)
		r.Get("/runs", a.handleRuns)
	})
	return r
}

// GET /api/records?limit=&order=&asc=
func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	opts := record.ListOptions{
		Limit:     queryInt(r, "limit", 0),
		OrderBy:   r.URL.Query().Get("order"),
		Ascending: r.URL.Query().Get("asc") == "true",
	}
	recs, err := a.store.List(r.Context(), opts)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []*record.ContentRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// upsertRequest is the body for POST /api/records.
type upsertRequest struct {
	Source      string             `json:"source"`
	SourceID    string             `json:"source_id"`
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	Tags        *string            `json:"tags"`
	Score       *float64           `json:"score"`
	Breakdown   map[string]float64 `json:"score_breakdown"`
}

// POST /api/records — insert-or-update on the logical key.
// 201 when the call created the record, 200 when it updated one.
func (a *API) handleUpsert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := a.store.Upsert(r.Context(), record.Draft{
		Source:      req.Source,
		SourceID:    req.SourceID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Score:       req.Score,
		Breakdown:   req.Breakdown,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusOK
	if rec.CreatedAt == rec.UpdatedAt {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

// GET /api/records/{source}/{sourceID}
func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.Get(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "sourceID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// patchRequest is the body for PATCH /api/records/{source}/{sourceID}.
// Absent fields are left untouched.
type patchRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Tags        *string            `json:"tags"`
	Score       *float64           `json:"score"`
	Breakdown   map[string]float64 `json:"score_breakdown"`
	Processed   *bool              `json:"processed"`
}

// PATCH /api/records/{source}/{sourceID}
func (a *API) handlePatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := a.store.Update(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "sourceID"), record.Patch{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Score:       req.Score,
		Breakdown:   req.Breakdown,
		Processed:   req.Processed,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DELETE /api/records/{source}/{sourceID} — 204 whether or not a row existed.
func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := a.store.Delete(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "sourceID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("X-Removed", strconv.FormatBool(removed))
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/records/{source}/{sourceID}/processed
func (a *API) handleMarkProcessed(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.Update(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "sourceID"),
		record.Patch{Processed: record.Bool(true)})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/stats
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/runs?limit=
func (a *API) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.store.RecentRuns(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*record.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// writeError maps store errors onto HTTP statuses. Unexpected failures are
// logged server-side and surfaced as an opaque 500.
func (a *API) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, record.ErrInvalidInput):
		jsonErr(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, record.ErrNotFound):
		jsonErr(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, record.ErrDuplicate):
		jsonErr(w, err.Error(), http.StatusConflict)
	case errors.Is(err, record.ErrUnavailable):
		jsonErr(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		a.logger.Error("request failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
	}
}

// secureHeaders sets conservative response headers on every reply. The API
// serves JSON only, so framing and sniffing are always denied.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
