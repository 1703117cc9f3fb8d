package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
)

// ArgoCDConfig is the Argo CD API server Tarka queries for app sync/health
// status (spec.md §4.7 "argocd.app_status"). Like github.go, no Argo CD Go
// client appears anywhere in the retrieved pack, so this calls Argo CD's
// REST API directly with net/http.
type ArgoCDConfig struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func (c ArgoCDConfig) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// RegisterArgoCD wires argocd.app_status.
func RegisterArgoCD(r *Registry, cfg ArgoCDConfig) {
	r.Register("argocd.app_status", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		app, ok := ArgString(args, "app")
		if !ok || app == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		if cfg.BaseURL == "" {
			return Result{OK: false, Error: tarkaerrors.CodeProviderNotConfigured}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/api/v1/applications/"+app, nil)
		if err != nil {
			return errResult(err)
		}
		if cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.Token)
		}
		resp, err := cfg.client().Do(req)
		if err != nil {
			return errResult(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errResult(err)
		}
		if resp.StatusCode >= 400 {
			return errResult(fmt.Errorf("argocd: %d fetching app %s", resp.StatusCode, app))
		}
		var parsed struct {
			Status struct {
				Sync   struct{ Status string `json:"status"` } `json:"sync"`
				Health struct{ Status string `json:"status"` } `json:"health"`
				OperationState struct {
					Phase   string `json:"phase"`
					Message string `json:"message"`
				} `json:"operationState"`
			} `json:"status"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{
			"app":              app,
			"sync_status":      parsed.Status.Sync.Status,
			"health_status":    parsed.Status.Health.Status,
			"operation_phase":  parsed.Status.OperationState.Phase,
			"operation_message": parsed.Status.OperationState.Message,
		}}
	})
}
