// Package chat implements C9: the tool-using, streaming conversational loop
// scoped to either a single case's SSOT analysis snapshot (case mode) or the
// case database (global mode). Grounded on the teacher's kubilitics-ai
// reasoning-graph shape — the same node vocabulary internal/rca's C8 graph
// uses — specialized here for spec.md §4.9's deterministic-fast-path, then
// plan/act/respond flow.
package chat

import (
	"context"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/tools"
)

// Mode distinguishes a case-scoped thread from the global inbox-wide thread
// (spec.md §4.9 "Modes").
type Mode string

const (
	ModeCase   Mode = "case"
	ModeGlobal Mode = "global"
)

// Budget bounds one chat turn (spec.md §4.9: "same budgets and dedupe as
// C8"; §6 CHAT_MAX_TOOL_CALLS/CHAT_MAX_STEPS).
type Budget struct {
	MaxSteps     int
	MaxToolCalls int
}

// DefaultBudget matches config.Config's CHAT_MAX_STEPS/CHAT_MAX_TOOL_CALLS
// ceilings (spec.md §6).
var DefaultBudget = Budget{MaxSteps: 8, MaxToolCalls: 20}

// Deps bundles the dependencies one chat turn needs.
type Deps struct {
	LLM      llm.Client
	Executor *tools.Executor
	Registry *tools.Registry
	Store    store.Store
}

// Context is the per-turn scoping information: which mode and case (if
// any), the case's latest analysis snapshot, and the policy allowlists
// gating tool calls for this invocation.
type Context struct {
	Mode       Mode
	CaseID     string
	TargetName string
	Snapshot   *models.AnalysisSnapshot
	Allowed    []string
	Namespaces []string
	Clusters   []string
	Cluster    string
	Namespace  string
}

// Turn is one completed (non-streaming) chat exchange — the shape
// POST /api/v1/cases/{id}/chat returns and the shape the streaming path
// assembles incrementally before persistence.
type Turn struct {
	Reply      string
	ToolEvents []tools.Event
	FastPath   bool
}

// Handle runs one blocking chat turn: deterministic fast paths first, then
// the full plan/act/respond graph, persisting both the user and assistant
// rows (and any tool events) before returning (spec.md §4.9, §6
// "POST /api/v1/cases/{id}/chat — blocking chat turn").
func Handle(ctx context.Context, deps Deps, threadID string, cc Context, msg string, history []models.ChatMessage, allowedTools []string) (Turn, error) {
	if turn, ok := Try(ctx, deps, cc, msg); ok {
		if _, err := persistTurn(ctx, deps, threadID, msg, turn); err != nil {
			return turn, err
		}
		return turn, nil
	}

	g := NewGraph(deps.LLM, deps.Executor, deps.Registry, DefaultBudget)
	turn := g.Run(ctx, cc, msg, history, allowedTools)
	if _, err := persistTurn(ctx, deps, threadID, msg, turn); err != nil {
		return turn, err
	}
	return turn, nil
}

func persistTurn(ctx context.Context, deps Deps, threadID, msg string, turn Turn) (*models.ChatMessage, error) {
	if deps.Store == nil {
		return nil, nil
	}
	return Persist(ctx, deps.Store, threadID, msg, turn)
}

func invocationFor(cc Context) tools.Invocation {
	return tools.Invocation{
		CaseID:     cc.CaseID,
		Cluster:    cc.Cluster,
		Namespace:  cc.Namespace,
		Allowed:    cc.Allowed,
		Namespaces: cc.Namespaces,
		Clusters:   cc.Clusters,
	}
}
