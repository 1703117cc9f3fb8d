package httpapi

import (
	"net/http"
	"os"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tarkyaio/tarka/internal/logging"
)

// accessLog writes one structured JSON line per finished request via
// internal/logging, carrying the same request_id chi's RequestID
// middleware assigns (spec.md §4.11 "a RequestLog-style helper for HTTP
// access logs carrying request_id, ... method, path, status, duration").
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.WriteAccessLog(os.Stdout, chimw.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start), "")
	})
}
