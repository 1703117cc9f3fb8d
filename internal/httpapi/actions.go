package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/policy"
)

// proposeRequest is the body for POST .../actions/propose (spec.md §3
// Action proposal).
type proposeRequest struct {
	ActionType       string          `json:"action_type" validate:"required"`
	Title            string          `json:"title" validate:"required"`
	RunID            *string         `json:"run_id"`
	HypothesisID     *string         `json:"hypothesis_id"`
	Risk             *string         `json:"risk"`
	Preconditions    []string        `json:"preconditions"`
	ExecutionPayload json.RawMessage `json:"execution_payload"`
}

// caseAction serves POST /api/v1/cases/{id}/actions/{transition}, gating
// every transition through internal/policy's action evaluator (spec.md §3
// "Transitions gated by an action policy"; §6).
func (h *Handler) caseAction(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	transition := chi.URLParam(r, "transition")

	switch transition {
	case "propose":
		h.proposeAction(w, r, caseID)
	case "approve", "reject", "execute":
		h.transitionAction(w, r, caseID, transition)
	default:
		writeError(w, http.StatusBadRequest, "unknown_transition")
	}
}

func (h *Handler) proposeAction(w http.ResponseWriter, r *http.Request, caseID string) {
	var req proposeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	allowed, err := h.actionPolicyAllow(r, policy.ActionInput{
		ActionType:    req.ActionType,
		Transition:    "propose",
		TypeAllowlist: h.actionsTypeAllowlist(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "policy_evaluation_failed")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "action_type_not_allowed")
		return
	}

	action := &models.ActionProposal{
		ActionID:         uuid.NewString(),
		CaseID:           caseID,
		RunID:            req.RunID,
		HypothesisID:     req.HypothesisID,
		ActionType:       req.ActionType,
		Title:            req.Title,
		Risk:             req.Risk,
		Preconditions:    req.Preconditions,
		ExecutionPayload: []byte(req.ExecutionPayload),
		Status:           models.ActionProposed,
		ProposedBy:       UserKeyFromContext(r.Context()),
	}
	if err := h.deps.Store.CreateAction(r.Context(), action); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (h *Handler) transitionAction(w http.ResponseWriter, r *http.Request, caseID, transition string) {
	actionID := r.URL.Query().Get("action_id")
	if actionID == "" {
		writeError(w, http.StatusBadRequest, "action_id_required")
		return
	}
	action, err := h.deps.Store.GetAction(r.Context(), actionID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if action == nil || action.CaseID != caseID {
		notFound(w, "action")
		return
	}

	allowed, err := h.actionPolicyAllow(r, policy.ActionInput{
		ActionType:      action.ActionType,
		Transition:      transition,
		TypeAllowlist:   h.actionsTypeAllowlist(),
		RequireApproval: h.deps.Config != nil && h.deps.Config.ActionsRequireApproval,
		AllowExecute:    h.deps.Config != nil && h.deps.Config.ActionsAllowExecute,
		CurrentStatus:   string(action.Status),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "policy_evaluation_failed")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "transition_not_allowed")
		return
	}

	status := map[string]models.ActionStatus{
		"approve": models.ActionApproved,
		"reject":  models.ActionRejected,
		"execute": models.ActionExecuted,
	}[transition]

	actor := UserKeyFromContext(r.Context())
	if err := h.deps.Store.UpdateActionStatus(r.Context(), actionID, status, actor, time.Now()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) actionPolicyAllow(r *http.Request, in policy.ActionInput) (bool, error) {
	if h.deps.ActionPolicy == nil {
		return false, nil
	}
	if in.TypeAllowlist == nil {
		in.TypeAllowlist = h.actionsTypeAllowlist()
	}
	return h.deps.ActionPolicy.AllowAction(r.Context(), in)
}

func (h *Handler) actionsTypeAllowlist() []string {
	if h.deps.Config == nil {
		return nil
	}
	return h.deps.Config.ActionsTypeAllowlist
}

// actionsConfig serves GET /api/v1/actions/config: the action-policy
// readout the console renders alongside proposed actions (spec.md §6).
func (h *Handler) actionsConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.deps.Config
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"require_approval": cfg.ActionsRequireApproval,
		"allow_execute":    cfg.ActionsAllowExecute,
		"type_allowlist":   cfg.ActionsTypeAllowlist,
	})
}
