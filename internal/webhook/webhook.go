// Package webhook implements C5: the Alertmanager-facing HTTP receiver.
// POST /alerts normalizes, allowlists, dedupes and enqueues each alert;
// GET /healthz is a public liveness check. Grounded on the teacher's HTTP
// handler shape (kubilitics-backend's net/http ServeMux handlers) kept
// deliberately framework-free since this surface has exactly two routes
// (spec.md §4.5).
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tarkyaio/tarka/internal/alertid"
	"github.com/tarkyaio/tarka/internal/logging"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/queue"
)

// Payload is the Alertmanager webhook request body (spec.md §6 "POST
// /alerts — body: {status?, alerts:[...]}").
type Payload struct {
	Status string              `json:"status"`
	Alerts []alertid.RawAlert  `json:"alerts"`
}

// Counts is the structured per-request outcome (spec.md §4.5 step 7).
type Counts struct {
	OK               bool   `json:"ok"`
	Mode             string `json:"mode"`
	Received         int    `json:"received"`
	Enqueued         int    `json:"enqueued"`
	SkippedResolved  int    `json:"skipped_resolved"`
	SkippedAllowlist int    `json:"skipped_allowlist"`
	SkippedDuplicate int    `json:"skipped_duplicate"`
	Errors           int    `json:"errors"`
}

// Deps bundles what the receiver needs to process one request.
type Deps struct {
	Queue              queue.Queue
	TimeWindow         time.Duration
	BucketHours        int
	AlertnameAllowlist []string // empty means allow everything
	Logger             *slog.Logger
}

// Handler builds the net/http handler serving POST /alerts and GET
// /healthz (spec.md §6).
type Handler struct {
	deps Deps
}

// NewHandler builds a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /alerts", h.handleAlerts)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	return mux
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleAlerts implements spec.md §4.5's per-alert pipeline: normalize,
// drop-if-not-firing, allowlist, identity+msg-id, in-payload dedupe,
// enqueue.
func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_payload"})
		return
	}
	if payload.Alerts == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_payload"})
		return
	}

	now := time.Now().UTC()
	counts := Counts{Mode: "enqueue", Received: len(payload.Alerts)}
	seenThisPayload := map[string]bool{}

	for _, raw := range payload.Alerts {
		alert := alertid.NormalizeAlert(raw, now)
		if alert.Status.State != models.StatusFiring {
			counts.SkippedResolved++
			continue
		}

		alertname := alert.Name()
		if !allowed(alertname, h.deps.AlertnameAllowlist) {
			counts.SkippedAllowlist++
			continue
		}

		family := alertid.DetectFamily(alertname, alert.Labels)
		msgID := alertid.QueueMsgID(alertname, family, alert.Labels, alert.Fingerprint, now, h.deps.BucketHours)

		if seenThisPayload[msgID] {
			counts.SkippedDuplicate++
			continue
		}
		seenThisPayload[msgID] = true

		job := queue.AlertJob{
			Alert:        alert,
			TimeWindow:   h.deps.TimeWindow,
			ParentStatus: payload.Status,
			MsgID:        msgID,
		}
		enqueued, err := h.deps.Queue.Publish(r.Context(), job)
		if err != nil {
			counts.Errors++
			logging.FromContext(r.Context(), h.deps.Logger).Error("webhook: publish failed", "alertname", alertname, "err", err)
			continue
		}
		if !enqueued {
			counts.SkippedDuplicate++
			continue
		}
		counts.Enqueued++
	}

	counts.OK = true
	writeJSON(w, http.StatusAccepted, counts)
}

func allowed(alertname string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, a := range allowlist {
		if a == alertname {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WarmUp pings the queue at startup; the receiver must fail fast if the
// queue is unreachable rather than accept traffic it cannot durably queue
// (spec.md §4.5 "Startup").
func WarmUp(ctx context.Context, deps Deps) error {
	return deps.Queue.Ping(ctx)
}
