package chat

import (
	"context"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// Graph runs C9's llm -> (tools -> llm)* loop, sharing C8's budget/dedupe
// shape (spec.md §4.9 "Main loop (graph)") but with chat's own fail-fast
// rule instead of RCA's family-verification/spin-guard logic.
type Graph struct {
	LLM      llm.Client
	Executor *tools.Executor
	Registry *tools.Registry
	Budget   Budget
}

// NewGraph builds a Graph, defaulting the budget when unset.
func NewGraph(client llm.Client, executor *tools.Executor, registry *tools.Registry, budget Budget) *Graph {
	if budget.MaxSteps <= 0 || budget.MaxToolCalls <= 0 {
		budget = DefaultBudget
	}
	return &Graph{LLM: client, Executor: executor, Registry: registry, Budget: budget}
}

// state is the graph's mutable per-turn state.
type state struct {
	remainingSteps     int
	remainingToolCalls int
	events             []tools.Event
	failFast           bool
}

// Run drives one chat turn's plan/act/respond loop. msg is the user's
// message, cc the mode/case scoping context, history the thread's prior
// messages (oldest first), allowedTools the policy-resolved tool allowlist.
func (g *Graph) Run(ctx context.Context, cc Context, msg string, history []models.ChatMessage, allowedTools []string) Turn {
	inv := invocationFor(cc)
	inv.Allowed = allowedTools

	st := &state{
		remainingSteps:     g.Budget.MaxSteps,
		remainingToolCalls: g.Budget.MaxToolCalls,
	}

	for st.remainingSteps > 0 && st.remainingToolCalls > 0 && !st.failFast {
		st.remainingSteps--

		plan, err := g.plan(ctx, cc, history, st, allowedTools)
		if err != nil || len(plan.ToolCalls) == 0 {
			break
		}

		roundErrored := 0
		roundTotal := 0
		for _, call := range plan.ToolCalls {
			if st.remainingToolCalls <= 0 {
				break
			}
			st.remainingToolCalls--
			roundTotal++

			ev := g.Executor.Call(ctx, &inv, call.Name, call.Args)
			st.events = append(st.events, ev)
			if ev.Outcome == tools.OutcomeError {
				roundErrored++
			}
		}

		// Fail-fast (spec.md §4.9): when every tool call in a round errors,
		// take one final no-tool turn instead of continuing to plan.
		if roundTotal > 0 && roundErrored == roundTotal {
			st.failFast = true
		}
	}

	reply := g.respond(ctx, cc, msg, history, st)
	return Turn{Reply: reply, ToolEvents: st.events}
}

// plan calls the structured LLM for the next round of tool calls.
func (g *Graph) plan(ctx context.Context, cc Context, history []models.ChatMessage, st *state, allowed []string) (planResult, error) {
	system := plannerSystemPrompt(cc, allowed)
	res, err := g.LLM.GenerateStructured(ctx, llm.StructuredRequest{
		PromptVersion: llm.PromptToolPlanV1,
		System:        system,
		Messages:      []llm.Message{{Role: llm.RoleUser, Content: turnContext(cc, history, st.events)}},
		Schema:        llm.ToolPlanSchema,
		MaxTokens:     1024,
	})
	if err != nil {
		return planResult{}, err
	}
	return parsePlanResult(res)
}

// respond produces the final, non-streamed reply text (the blocking-chat
// path; stream.go drives the equivalent streamed version).
func (g *Graph) respond(ctx context.Context, cc Context, msg string, history []models.ChatMessage, st *state) string {
	system := respondSystemPrompt(cc)
	res, err := g.LLM.GenerateStructured(ctx, llm.StructuredRequest{
		PromptVersion: llm.PromptEnrichV1,
		System:        system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: turnContext(cc, history, st.events)},
			{Role: llm.RoleUser, Content: msg},
		},
		MaxTokens: 1500,
	})
	if err != nil {
		return "I hit an error putting that together: " + err.Error()
	}
	if res.Text != "" {
		return res.Text
	}
	return "I wasn't able to produce a reply from that."
}
