package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// getRun serves GET /api/v1/investigation-runs/{run_id}: run detail
// including the analysis snapshot (spec.md §6).
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := h.deps.Store.GetRun(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if run == nil {
		notFound(w, "run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
