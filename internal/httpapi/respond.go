package httpapi

import (
	"encoding/json"
	"net/http"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeStoreError maps a store/lookup failure to an HTTP status using the
// stable error-code taxonomy (spec.md §7): postgres_not_configured and
// db_unavailable are 503s, anything else is a 500 with its code preserved
// so the console can render a useful message (spec.md §7 "User-visible
// behavior").
func writeStoreError(w http.ResponseWriter, err error) {
	code := tarkaerrors.CodeOf(err)
	switch code {
	case tarkaerrors.CodePostgresNotConfigured, tarkaerrors.CodeDBUnavailable:
		writeError(w, http.StatusServiceUnavailable, code)
	case "":
		writeError(w, http.StatusInternalServerError, "internal_error")
	default:
		writeError(w, http.StatusInternalServerError, code)
	}
}

func notFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, what+"_not_found")
}
