// Package httpapi implements the console-facing HTTP surface: case/run
// reads, C9 chat (blocking + SSE), and the actions workflow (spec.md §6,
// SPEC_FULL.md §0 "cmd/api"). Grounded on the teacher's rest.Handler shape
// (kubilitics-backend/internal/api/rest) — one Handler struct closing over
// every service dependency, routes registered against a router built
// outside the handler — but routed with go-chi/chi/v5 instead of
// gorilla/mux per SPEC_FULL.md §4.12's domain-stack wiring table (the pack
// member jordigilh-kubernaut is the only one to require go-chi, so it is
// adopted here rather than carrying the teacher's gorilla/mux forward).
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/tarkyaio/tarka/internal/chat"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/investigation"
	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/policy"
	"github.com/tarkyaio/tarka/internal/rca"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/tools"
)

// Deps bundles every dependency the console API needs to serve a request.
type Deps struct {
	Store          store.Store
	Pipeline       *investigation.Pipeline
	RCA            *rca.Graph
	LLM            llm.Client
	ToolRegistry   *tools.Registry
	ToolExecutor   *tools.Executor
	ActionPolicy   *policy.Evaluator
	Config         *config.Config
	Auth           Authenticator
	Logger         *slog.Logger
}

// Handler closes over Deps and a validator instance shared across every
// request-body check (spec.md §4.5/§6 "400 on malformed input",
// SPEC_FULL.md §4.12 "go-playground/validator/v10 — request-body
// validation in internal/httpapi and internal/webhook").
type Handler struct {
	deps     Deps
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// NewRouter builds the full chi.Router serving every endpoint in spec.md
// §6's "HTTP (console, authenticated)" table plus /healthz, wrapped in
// request-id, structured access-log, CORS, and panic-recovery middleware
// (spec.md §4.11 ambient stack; §5 "an unhandled panic ... must not kill
// the worker process" applies equally to the API process).
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(h.accessLog)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	var allowedOrigins []string
	if deps.Config != nil {
		allowedOrigins = deps.Config.AllowedOrigins
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.handleHealthz)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(h.requireAuth)

		api.Get("/cases", h.listCases)
		api.Get("/cases/facets", h.caseFacets)
		api.Get("/cases/{id}", h.getCase)
		api.Get("/cases/{id}/memory", h.caseMemory)
		api.Post("/cases/{id}/resolve", h.resolveCase)
		api.Post("/cases/{id}/reopen", h.reopenCase)
		api.Post("/cases/{id}/actions/{transition}", h.caseAction)
		api.Post("/cases/{id}/chat", h.chatBlocking)

		api.Get("/investigation-runs/{run_id}", h.getRun)

		api.Post("/chat/threads/{tid}/send", h.chatStreamThread)
		api.Post("/chat/threads/global", h.chatStreamGlobal)
		api.Post("/chat/threads/case/{cid}", h.chatStreamCase)
		api.Get("/chat/config", h.chatConfig)

		api.Get("/actions/config", h.actionsConfig)
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
