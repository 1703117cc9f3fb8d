// Package store implements C4's SQL case/run index: case creation and
// matching, case-level denormalized updates, the run index, action
// proposals, and chat persistence. Object-storage writes (the Markdown +
// evidence JSON side of C4) live in internal/objectstore; this package is
// the relational half. Grounded on the teacher's internal/repository
// (interface.go + postgres.go): a narrow Go interface backed by a
// jmoiron/sqlx + lib/pq implementation, constructed via a connection-string
// factory so tests can swap in sqlmock.
package store

import (
	"context"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store/searchquery"
)

// CaseFilter narrows GET /api/v1/cases (spec.md §6).
type CaseFilter struct {
	Status         string // open | closed | "" (any)
	Query          searchquery.Query
	Service        string
	Classification string
	Family         string
	Team           string
	Limit          int
	Offset         int
}

// CaseCounts is the {open, closed, total} summary returned alongside a
// case listing.
type CaseCounts struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
	Total  int `json:"total"`
}

// CaseMatchResult records which case a run was attached to and why.
type CaseMatchResult struct {
	Case   *models.Case
	Reason string // exact_workload | prefix_job_name | service_only | new_case
}

// Store is the full SQL index contract C4/C6/httpapi depend on.
type Store interface {
	// Cases
	ListCases(ctx context.Context, f CaseFilter) ([]*models.Case, int, CaseCounts, error)
	Facets(ctx context.Context, f CaseFilter) ([]string, error)
	GetCase(ctx context.Context, caseID string) (*models.Case, error)
	GetOpenCaseByKey(ctx context.Context, caseKey string) (*models.Case, error)
	CreateCase(ctx context.Context, c *models.Case) error
	UpdateCaseFromRun(ctx context.Context, caseID string, run *models.Run, oneLiner, primaryDriver, family string) error
	ResolveCase(ctx context.Context, caseID, category, summary string, postmortemLink *string) error
	ReopenCase(ctx context.Context, caseID string) error

	// Runs
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListRunsForCase(ctx context.Context, caseID string, limit int) ([]*models.Run, error)
	LatestRunForCase(ctx context.Context, caseID string) (*models.Run, error)
	FindSimilarRuns(ctx context.Context, family, cluster, namespace, workloadKind, workloadName string, excludeFingerprint string, limit int) ([]*models.Run, error)
	// CountRunsByFamily aggregates investigation_runs over [since, now) for
	// the case family/global chat fast paths (spec.md §4.9 "Case family
	// count over window": "one SQL aggregation over investigation_runs
	// filtered by family and target"). target is matched against
	// workload_name OR service when non-empty.
	CountRunsByFamily(ctx context.Context, family, target string, since time.Time) (int, error)

	// Actions
	CreateAction(ctx context.Context, a *models.ActionProposal) error
	GetAction(ctx context.Context, actionID string) (*models.ActionProposal, error)
	ListActionsForCase(ctx context.Context, caseID string) ([]*models.ActionProposal, error)
	UpdateActionStatus(ctx context.Context, actionID string, status models.ActionStatus, actor string, at time.Time) error

	// Chat
	GetOrCreateThread(ctx context.Context, userKey string, kind models.ChatThreadKind, caseID *string) (*models.ChatThread, error)
	GetThread(ctx context.Context, threadID string) (*models.ChatThread, error)
	AppendMessage(ctx context.Context, threadID string, role models.ChatRole, content string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]*models.ChatMessage, error)
	AppendToolEvents(ctx context.Context, messageID string, events []models.ToolEvent) error

	Close() error
}

// IdentityFields extracts the case-matching identity tuple from a Target,
// used both to compute a case_key and to drive FindSimilarRuns (spec.md
// §4.4 "Case matching").
type IdentityFields struct {
	Cluster      string
	Namespace    string
	WorkloadKind string
	WorkloadName string
	Service      string
}

func identityFrom(t models.Target) IdentityFields {
	return IdentityFields{
		Cluster:      t.Cluster,
		Namespace:    t.Namespace,
		WorkloadKind: t.WorkloadKind,
		WorkloadName: t.WorkloadName,
		Service:      t.Service,
	}
}
