package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

func TestIsGreeting_MatchesEntireMessageOnly(t *testing.T) {
	assert.True(t, IsGreeting("hi"))
	assert.True(t, IsGreeting("  Thanks! "))
	assert.True(t, IsGreeting("OK"))
	assert.False(t, IsGreeting("hi, what's the status of the checkout deployment?"))
	assert.False(t, IsGreeting("thanks for checking, but what's next"))
}

func TestGreetingReply_IsTargetAware(t *testing.T) {
	withTarget := GreetingReply(Context{TargetName: "checkout-api"})
	assert.Contains(t, withTarget, "checkout-api")

	without := GreetingReply(Context{})
	assert.NotEmpty(t, without)
}

func TestIsSummaryRequest(t *testing.T) {
	assert.True(t, IsSummaryRequest("what's the root cause here?"))
	assert.True(t, IsSummaryRequest("give me a summary"))
	assert.False(t, IsSummaryRequest("restart the pod please"))
}

func TestSummaryReply_UsesSnapshotVerdictAndHypotheses(t *testing.T) {
	snap := &models.AnalysisSnapshot{
		Analysis: models.Analysis{
			Verdict: models.Verdict{
				OneLiner:       "Pod OOMKilled repeatedly.",
				Severity:       "high",
				Classification: "actionable",
				Next:           []string{"raise memory limit"},
			},
			Hypotheses: []models.Hypothesis{
				{Title: "Memory limit too low", Confidence0To100: 85},
				{Title: "Leak in handler", Confidence0To100: 40},
			},
		},
	}
	reply := SummaryReply(Context{Snapshot: snap})
	assert.Contains(t, reply, "Pod OOMKilled repeatedly.")
	assert.Contains(t, reply, "Memory limit too low")
	assert.Contains(t, reply, "85%")
	assert.Contains(t, reply, "raise memory limit")
}

func TestSummaryReply_NoSnapshot(t *testing.T) {
	reply := SummaryReply(Context{})
	assert.Contains(t, reply, "don't have an analysis snapshot")
}

func TestGlobalCountsIntent_Count(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("cases.count", true, func(ctx context.Context, inv *tools.Invocation, args map[string]any) tools.Result {
		return tools.Result{OK: true, Result: map[string]any{"total": 4, "counts": map[string]any{"open": 4, "closed": 0, "total": 4}}}
	})
	deps := Deps{Executor: tools.NewExecutor(r, nil, false)}

	turn, ok := GlobalCountsIntent(context.Background(), deps, Context{Mode: ModeGlobal}, "how many alerts fired in the last 3 days?")
	require.True(t, ok)
	assert.Contains(t, turn.Reply, "4")
	assert.True(t, turn.FastPath)
	assert.Len(t, turn.ToolEvents, 1)
}

func TestGlobalCountsIntent_Top(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("cases.top", true, func(ctx context.Context, inv *tools.Invocation, args map[string]any) tools.Result {
		assert.Equal(t, "team", args["group_by"])
		return tools.Result{OK: true, Result: []map[string]any{{"key": "payments", "count": 3}}}
	})
	deps := Deps{Executor: tools.NewExecutor(r, nil, false)}

	turn, ok := GlobalCountsIntent(context.Background(), deps, Context{Mode: ModeGlobal}, "top teams")
	require.True(t, ok)
	assert.Contains(t, turn.Reply, "payments")
}

func TestGlobalCountsIntent_NoMatch(t *testing.T) {
	deps := Deps{Executor: tools.NewExecutor(tools.NewRegistry(), nil, false)}
	_, ok := GlobalCountsIntent(context.Background(), deps, Context{Mode: ModeGlobal}, "restart the deployment")
	assert.False(t, ok)
}

func TestCaseFamilyWindowIntent_RequiresStoreAndCaseMode(t *testing.T) {
	deps := Deps{}
	_, ok := CaseFamilyWindowIntent(context.Background(), deps, Context{Mode: ModeCase}, "how many oom_killed alerts in the last 7 days")
	assert.False(t, ok, "no store configured means no fast path")
}

func TestTry_DispatchesGreetingBeforeOtherPaths(t *testing.T) {
	deps := Deps{}
	turn, ok := Try(context.Background(), deps, Context{Mode: ModeCase, TargetName: "checkout-api"}, "hey")
	require.True(t, ok)
	assert.True(t, turn.FastPath)
	assert.Contains(t, turn.Reply, "checkout-api")
}
