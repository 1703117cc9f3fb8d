package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tarkyaio/tarka/internal/chat"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

// caseScopedTools returns the tool names C9 may call in case mode: every
// non-global tool the executor's registry carries (spec.md §4.7 "Tool set
// (case-scoped)").
func (h *Handler) caseScopedTools() []string {
	if h.deps.ToolRegistry == nil {
		return nil
	}
	return h.deps.ToolRegistry.Names(false)
}

// globalTools returns the tool names C9 may call in global mode: the
// registry's global-flagged tools only (spec.md §4.7 "Tool set (global)").
func (h *Handler) globalTools() []string {
	if h.deps.ToolRegistry == nil {
		return nil
	}
	all := h.deps.ToolRegistry.Names(true)
	caseOnly := make(map[string]bool, len(h.caseScopedTools()))
	for _, n := range h.caseScopedTools() {
		caseOnly[n] = true
	}
	out := make([]string, 0, len(all))
	for _, n := range all {
		if !caseOnly[n] {
			out = append(out, n)
		}
	}
	return out
}

// caseContext loads a case and its latest run's analysis snapshot to build
// a case-scoped chat.Context (spec.md §4.9 "Modes": "case mode ... scoped to
// a single case's SSOT analysis snapshot").
func (h *Handler) caseContext(r *http.Request, caseID string) (chat.Context, error) {
	c, err := h.deps.Store.GetCase(r.Context(), caseID)
	if err != nil {
		return chat.Context{}, err
	}
	cc := chat.Context{
		Mode:       chat.ModeCase,
		CaseID:     caseID,
		Allowed:    h.caseScopedTools(),
		Namespaces: h.chatNamespaceAllowlist(),
		Clusters:   h.chatClusterAllowlist(),
	}
	if c == nil {
		return cc, nil
	}
	cc.TargetName = strOr(c.WorkloadName)
	if cc.TargetName == "" {
		cc.TargetName = strOr(c.Service)
	}
	cc.Cluster = strOr(c.Cluster)
	cc.Namespace = strOr(c.Namespace)

	run, err := h.deps.Store.LatestRunForCase(r.Context(), caseID)
	if err != nil {
		return cc, err
	}
	if run != nil && len(run.AnalysisSnapshot) > 0 {
		var snap models.AnalysisSnapshot
		if json.Unmarshal(run.AnalysisSnapshot, &snap) == nil {
			cc.Snapshot = &snap
		}
	}
	return cc, nil
}

func (h *Handler) globalContext() chat.Context {
	return chat.Context{
		Mode:       chat.ModeGlobal,
		Allowed:    h.globalTools(),
		Namespaces: h.chatNamespaceAllowlist(),
		Clusters:   h.chatClusterAllowlist(),
	}
}

func (h *Handler) chatNamespaceAllowlist() []string {
	if h.deps.Config == nil {
		return nil
	}
	return h.deps.Config.ChatNamespaceAllowlist
}

func (h *Handler) chatClusterAllowlist() []string {
	if h.deps.Config == nil {
		return nil
	}
	return h.deps.Config.ChatClusterAllowlist
}

func (h *Handler) chatDeps() chat.Deps {
	return chat.Deps{
		LLM:      h.deps.LLM,
		Executor: h.deps.ToolExecutor,
		Registry: h.deps.ToolRegistry,
		Store:    h.deps.Store,
	}
}

func (h *Handler) chatEnabled(w http.ResponseWriter) bool {
	if h.deps.Config != nil && !h.deps.Config.ChatEnabled {
		writeError(w, http.StatusServiceUnavailable, "chat_disabled")
		return false
	}
	return true
}

// chatBlocking serves POST /api/v1/cases/{id}/chat: one blocking chat turn
// scoped to the case, persisted to that case's thread (spec.md §6).
func (h *Handler) chatBlocking(w http.ResponseWriter, r *http.Request) {
	if !h.chatEnabled(w) {
		return
	}
	var req chatRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	caseID := chi.URLParam(r, "id")

	cc, err := h.caseContext(r, caseID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	userKey := UserKeyFromContext(r.Context())
	thread, err := h.deps.Store.GetOrCreateThread(r.Context(), userKey, models.ChatCase, &caseID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	history, err := h.deps.Store.ListMessages(r.Context(), thread.ThreadID, 50)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	turn, err := chat.Handle(r.Context(), h.chatDeps(), thread.ThreadID, cc, req.Message, modelMessages(history), cc.Allowed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "chat_turn_failed")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func modelMessages(msgs []*models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, *m)
	}
	return out
}

// chatStreamThread serves POST /api/v1/chat/threads/{tid}/send: an SSE turn
// against an existing thread, inferring mode from the thread's kind.
func (h *Handler) chatStreamThread(w http.ResponseWriter, r *http.Request) {
	if !h.chatEnabled(w) {
		return
	}
	tid := chi.URLParam(r, "tid")
	thread, err := h.deps.Store.GetThread(r.Context(), tid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if thread == nil {
		notFound(w, "thread")
		return
	}

	var cc chat.Context
	if thread.Kind == models.ChatCase && thread.CaseID != nil {
		cc, err = h.caseContext(r, *thread.CaseID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
	} else {
		cc = h.globalContext()
	}
	h.streamTurn(w, r, thread, cc)
}

// chatStreamGlobal serves POST /api/v1/chat/threads/global: SSE turn on
// the caller's single global thread, created on first use.
func (h *Handler) chatStreamGlobal(w http.ResponseWriter, r *http.Request) {
	if !h.chatEnabled(w) {
		return
	}
	userKey := UserKeyFromContext(r.Context())
	thread, err := h.deps.Store.GetOrCreateThread(r.Context(), userKey, models.ChatGlobal, nil)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.streamTurn(w, r, thread, h.globalContext())
}

// chatStreamCase serves POST /api/v1/chat/threads/case/{cid}: SSE turn on
// the caller's thread for case cid, created on first use.
func (h *Handler) chatStreamCase(w http.ResponseWriter, r *http.Request) {
	if !h.chatEnabled(w) {
		return
	}
	cid := chi.URLParam(r, "cid")
	userKey := UserKeyFromContext(r.Context())
	thread, err := h.deps.Store.GetOrCreateThread(r.Context(), userKey, models.ChatCase, &cid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	cc, err := h.caseContext(r, cid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.streamTurn(w, r, thread, cc)
}

// streamTurn decodes the request body, runs the fast-path check, and
// drives either a deterministic reply or the full streamed graph, framing
// every event as SSE before persisting the turn (spec.md §4.9 "Streaming").
func (h *Handler) streamTurn(w http.ResponseWriter, r *http.Request, thread *models.ChatThread, cc chat.Context) {
	var req chatRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	sw, ok := prepareSSE(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	deps := h.chatDeps()
	if turn, fast := chat.Try(r.Context(), deps, cc, req.Message); fast {
		sw.send(chat.SSEEvent{Kind: chat.SSEInit})
		sw.send(chat.SSEEvent{Kind: chat.SSEDone, Data: map[string]any{"reply": turn.Reply, "tool_events": turn.ToolEvents}})
		if h.deps.Store != nil {
			_, _ = chat.Persist(r.Context(), h.deps.Store, thread.ThreadID, req.Message, turn)
		}
		return
	}

	history, err := h.deps.Store.ListMessages(r.Context(), thread.ThreadID, 50)
	if err != nil {
		sw.send(chat.SSEEvent{Kind: chat.SSEError, Data: err.Error()})
		return
	}

	g := chat.NewGraph(h.deps.LLM, h.deps.ToolExecutor, h.deps.ToolRegistry, chat.DefaultBudget)
	events := g.RunStream(r.Context(), cc, req.Message, modelMessages(history), cc.Allowed)
	var last chat.SSEEvent
	for ev := range events {
		sw.send(ev)
		last = ev
	}
	if last.Kind != chat.SSEDone || h.deps.Store == nil {
		return
	}
	var done struct {
		Reply      string        `json:"reply"`
		ToolEvents []tools.Event `json:"tool_events"`
	}
	if raw, err := json.Marshal(last.Data); err == nil {
		_ = json.Unmarshal(raw, &done)
	}
	_, _ = chat.Persist(r.Context(), h.deps.Store, thread.ThreadID, req.Message, chat.Turn{Reply: done.Reply, ToolEvents: done.ToolEvents})
}

// chatConfig serves GET /api/v1/chat/config: the chat-policy readout the
// console uses to render capability hints (spec.md §6).
func (h *Handler) chatConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.deps.Config
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":                cfg.ChatEnabled,
		"max_tool_calls":         cfg.ChatMaxToolCalls,
		"max_steps":              cfg.ChatMaxSteps,
		"max_time_window_seconds": cfg.ChatMaxTimeWindowSeconds,
		"max_log_lines":          cfg.ChatMaxLogLines,
		"allow_github":           cfg.ChatAllowGithub,
		"allow_aws":              cfg.ChatAllowAWS,
		"allow_argocd":           cfg.ChatAllowArgoCD,
		"namespace_allowlist":    cfg.ChatNamespaceAllowlist,
		"cluster_allowlist":      cfg.ChatClusterAllowlist,
	})
}
