package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
)

// GitHubConfig resolves a bare workload name to an "org/repo" slug and
// supplies the token used for GitHub REST calls. No GitHub client SDK
// appears anywhere in the retrieved pack (see DESIGN.md), so these tools
// call the public REST API directly with net/http — the same minimal,
// single-purpose HTTP usage the teacher reaches for when no domain SDK is
// warranted.
type GitHubConfig struct {
	Token          string
	ServiceCatalog map[string]string // workload name -> "org/repo", highest-priority source
	BaseURL        string            // defaults to https://api.github.com
	HTTPClient     *http.Client
}

func (c GitHubConfig) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.github.com"
}

func (c GitHubConfig) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c GitHubConfig) do(ctx context.Context, method, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// resolveRepo implements spec.md §4.7's "github.recent_commits" org/repo
// resolution: explicit args win, then the service catalog, then naming
// convention ("org/<workload>"), else not_found.
func resolveRepo(args map[string]any, cfg GitHubConfig, defaultOrg string) (repo, source string) {
	if explicit, ok := ArgString(args, "repo"); ok && explicit != "" {
		return explicit, "args"
	}
	workload, _ := ArgString(args, "workload")
	if workload == "" {
		return "", "not_found"
	}
	cleaned := strings.TrimSuffix(workload, "-service")
	if cfg.ServiceCatalog != nil {
		if repo, ok := cfg.ServiceCatalog[workload]; ok {
			return repo, "service_catalog"
		}
		if repo, ok := cfg.ServiceCatalog[cleaned]; ok {
			return repo, "service_catalog"
		}
	}
	if cleaned != workload {
		if defaultOrg != "" {
			return defaultOrg + "/" + cleaned, "args_cleaned"
		}
	}
	if defaultOrg != "" {
		return defaultOrg + "/" + workload, "naming_convention"
	}
	return "", "not_found"
}

// RegisterGitHub wires the github.* tool set (spec.md §4.7).
func RegisterGitHub(r *Registry, cfg GitHubConfig, defaultOrg string) {
	r.Register("github.recent_commits", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, source := resolveRepo(args, cfg, defaultOrg)
		if repo == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		limit := ArgInt(args, "limit", 20)
		if limit < 1 {
			limit = 1
		}
		if limit > 30 {
			limit = 30
		}
		since, explicitSince := ArgString(args, "since")

		fetch := func(since string) ([]map[string]any, error) {
			path := fmt.Sprintf("/repos/%s/commits?per_page=%d", repo, limit)
			if since != "" {
				path += "&since=" + since
			}
			body, status, err := cfg.do(ctx, http.MethodGet, path)
			if err != nil {
				return nil, err
			}
			if status >= 400 {
				return nil, fmt.Errorf("github: %d fetching commits for %s", status, repo)
			}
			var raw []map[string]any
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, err
			}
			return raw, nil
		}

		effectiveSince := since
		if !explicitSince {
			effectiveSince = time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
		}
		commits, err := fetch(effectiveSince)
		if err != nil {
			return errResult(err)
		}
		if len(commits) == 0 && !explicitSince {
			// Zero commits in the default 2h window and no explicit since:
			// retry once with a 24h window (spec.md §4.7).
			effectiveSince = time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
			commits, err = fetch(effectiveSince)
			if err != nil {
				return errResult(err)
			}
		}
		if len(commits) == 0 {
			return Result{OK: true, Result: map[string]any{"repo": repo, "source": source, "commits": nil}}
		}
		return Result{OK: true, Result: map[string]any{"repo": repo, "source": source, "commits": commits}}
	})

	r.Register("github.workflow_runs", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, source := resolveRepo(args, cfg, defaultOrg)
		if repo == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		limit := ArgInt(args, "limit", 10)
		body, status, err := cfg.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/actions/runs?per_page=%d", repo, limit))
		if err != nil {
			return errResult(err)
		}
		if status >= 400 {
			return errResult(fmt.Errorf("github: %d fetching workflow runs for %s", status, repo))
		}
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{"repo": repo, "source": source, "runs": parsed["workflow_runs"]}}
	})

	r.Register("github.workflow_logs", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, _ := resolveRepo(args, cfg, defaultOrg)
		runID, _ := ArgString(args, "run_id")
		if repo == "" || runID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		body, status, err := cfg.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/actions/runs/%s/logs", repo, runID))
		if err != nil {
			return errResult(err)
		}
		if status >= 400 {
			return errResult(fmt.Errorf("github: %d fetching workflow logs for %s run %s", status, repo, runID))
		}
		return Result{OK: true, Result: map[string]any{"repo": repo, "run_id": runID, "log_archive_bytes": len(body)}}
	})

	r.Register("github.read_file", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, _ := resolveRepo(args, cfg, defaultOrg)
		path, _ := ArgString(args, "path")
		ref, hasRef := ArgString(args, "ref")
		if repo == "" || path == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		url := fmt.Sprintf("/repos/%s/contents/%s", repo, path)
		if hasRef {
			url += "?ref=" + ref
		}
		body, status, err := cfg.do(ctx, http.MethodGet, url)
		if err != nil {
			return errResult(err)
		}
		if status >= 400 {
			return errResult(fmt.Errorf("github: %d fetching %s@%s", status, path, repo))
		}
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: parsed}
	})

	r.Register("github.commit_diff", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		repo, _ := resolveRepo(args, cfg, defaultOrg)
		sha, _ := ArgString(args, "sha")
		if repo == "" || sha == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		body, status, err := cfg.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/commits/%s", repo, sha))
		if err != nil {
			return errResult(err)
		}
		if status >= 400 {
			return errResult(fmt.Errorf("github: %d fetching commit %s@%s", status, sha, repo))
		}
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{"files": parsed["files"], "stats": parsed["stats"]}}
	})
}
