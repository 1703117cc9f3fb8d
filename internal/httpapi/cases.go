package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/chat/memory"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/store/searchquery"
)

// filterFromQuery builds a store.CaseFilter from the request's query
// string, per spec.md §6 "GET /api/v1/cases?status&q&service&
// classification&family&team&limit&offset".
func filterFromQuery(r *http.Request) store.CaseFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	return store.CaseFilter{
		Status:         q.Get("status"),
		Query:          searchquery.Parse(q.Get("q")),
		Service:        q.Get("service"),
		Classification: q.Get("classification"),
		Family:         q.Get("family"),
		Team:           q.Get("team"),
		Limit:          limit,
		Offset:         offset,
	}
}

// listCases serves GET /api/v1/cases (spec.md §6): paginated, hybrid-search
// case listing with {total, counts, items}.
func (h *Handler) listCases(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, tarkaerrors.CodePostgresNotConfigured)
		return
	}
	items, total, counts, err := h.deps.Store.ListCases(r.Context(), filterFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"counts": counts,
		"items":  items,
	})
}

// caseFacets serves GET /api/v1/cases/facets: distinct teams under the
// same filters as listCases (spec.md §6).
func (h *Handler) caseFacets(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, tarkaerrors.CodePostgresNotConfigured)
		return
	}
	teams, err := h.deps.Store.Facets(r.Context(), filterFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// runsPerCase bounds GET /api/v1/cases/{id}'s embedded run history.
const runsPerCase = 20

// getCase serves GET /api/v1/cases/{id}: the case plus up to runsPerCase
// runs (spec.md §6).
func (h *Handler) getCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.deps.Store.GetCase(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if c == nil {
		notFound(w, "case")
		return
	}
	runs, err := h.deps.Store.ListRunsForCase(r.Context(), id, runsPerCase)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"case": c, "runs": runs})
}

// caseMemory serves GET /api/v1/cases/{id}/memory: similar cases and
// matched skills, empty when MEMORY_ENABLED is off (spec.md §6, §4.13).
func (h *Handler) caseMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.deps.Store.GetCase(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if c == nil {
		notFound(w, "case")
		return
	}
	enabled := h.deps.Config != nil && h.deps.Config.MemoryEnabled
	fields := store.IdentityFields{
		Cluster:      strOr(c.Cluster),
		Namespace:    strOr(c.Namespace),
		WorkloadKind: strOr(c.WorkloadKind),
		WorkloadName: strOr(c.WorkloadName),
		Service:      strOr(c.Service),
	}
	res, err := memory.Lookup(r.Context(), h.deps.Store, enabled, fields, "")
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type resolveRequest struct {
	ResolutionCategory string  `json:"resolution_category" validate:"required"`
	ResolutionSummary  string  `json:"resolution_summary" validate:"required"`
	PostmortemLink     *string `json:"postmortem_link"`
}

// resolveCase serves POST /api/v1/cases/{id}/resolve (spec.md §3 Case
// transitions: "open -> closed (with category+summary required)").
func (h *Handler) resolveCase(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.deps.Store.ResolveCase(r.Context(), id, req.ResolutionCategory, req.ResolutionSummary, req.PostmortemLink); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// reopenCase serves POST /api/v1/cases/{id}/reopen (spec.md §3:
// "closed -> open (clears resolution fields)").
func (h *Handler) reopenCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Store.ReopenCase(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
