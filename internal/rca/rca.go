// Package rca implements C8: the bounded plan/act/synth graph that turns an
// already-investigated models.Investigation into a root-cause verdict by
// selectively pulling more evidence through C7's tool executor. Grounded on
// the teacher's kubilitics-ai reasoning graph shape (baseline -> decide ->
// plan/tools loop -> synth, driven by a structured-LLM planner node) and
// internal/investigation/pipeline.go's sequential-stage style, generalized to
// spec.md §4.8's need_more_evidence/family-verification/spin-guard rules.
package rca

import (
	"context"
	"fmt"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// DefaultConfidenceThreshold mirrors investigation.DefaultConfidenceThreshold
// (spec.md §4.8 "top confidence below a threshold (70 by default)").
const DefaultConfidenceThreshold = 70

// HighConfidenceThreshold is the bar above which family-specific verification
// tools must additionally have succeeded (spec.md §4.8 "when top confidence
// >= 80").
const HighConfidenceThreshold = 80

// SingleToolSufficientThreshold lets one verification call stand in for the
// family's usual pair, once confidence is overwhelming (spec.md §4.8: "one is
// sufficient only when confidence >= 95").
const SingleToolSufficientThreshold = 95

// Budget bounds one RCA invocation (spec.md §5: "Tool-call budgets and step
// counters are per-invocation, not shared").
type Budget struct {
	MaxSteps     int
	MaxToolCalls int
}

// DefaultBudget matches config.Config's defaults for CHAT_MAX_STEPS/
// CHAT_MAX_TOOL_CALLS, reused here since C8 shares the same ceiling.
var DefaultBudget = Budget{MaxSteps: 8, MaxToolCalls: 20}

// Graph runs the plan/act/synth loop over one Investigation.
type Graph struct {
	LLM               llm.Client
	Executor          *tools.Executor
	Registry          *tools.Registry
	Budget            Budget
	ConfidenceThreshold int
}

// NewGraph builds a Graph. confidenceThreshold <= 0 defaults to
// DefaultConfidenceThreshold.
func NewGraph(client llm.Client, executor *tools.Executor, registry *tools.Registry, budget Budget, confidenceThreshold int) *Graph {
	if confidenceThreshold <= 0 {
		confidenceThreshold = DefaultConfidenceThreshold
	}
	if budget.MaxSteps <= 0 {
		budget = DefaultBudget
	}
	return &Graph{
		LLM: client, Executor: executor, Registry: registry,
		Budget: budget, ConfidenceThreshold: confidenceThreshold,
	}
}

// State is C8's mutable graph state (spec.md §4.8 "State").
type State struct {
	Investigation *models.Investigation
	Allowed       []string

	ToolEvents        []tools.Event
	Planned           []llm.ToolCall
	RemainingSteps    int
	RemainingToolCalls int
	LastRoundNewKeys  int
	LastRoundOutcomes []tools.Outcome
	Stop              bool
}

// seenKeys tracks which (tool,key) pairs have already produced a successful
// event, used to compute last_round_new_keys between rounds.
type seenKeys map[string]bool

// Run drives the full baseline -> decide -> (plan -> tools)* -> synth graph
// and returns the synthesized models.RCAResult. inv.Analysis must already be
// populated by C3; Run augments it with rca.
func (g *Graph) Run(ctx context.Context, inv *models.Investigation, allowedTools []string, invocation tools.Invocation) *models.RCAResult {
	result, _ := g.run(ctx, inv, allowedTools, invocation)
	return result
}

// RunCapturingEvents behaves exactly like Run but additionally returns the
// tool events accumulated over the whole invocation, so a caller (C6) can
// attach them to Investigation.Meta["rca_tool_events"] without re-deriving
// graph internals (spec.md §4.6 step 5).
func (g *Graph) RunCapturingEvents(ctx context.Context, inv *models.Investigation, allowedTools []string, invocation tools.Invocation) (*models.RCAResult, []tools.Event) {
	return g.run(ctx, inv, allowedTools, invocation)
}

func (g *Graph) run(ctx context.Context, inv *models.Investigation, allowedTools []string, invocation tools.Invocation) (*models.RCAResult, []tools.Event) {
	st := &State{
		Investigation:      inv,
		Allowed:            allowedTools,
		RemainingSteps:     g.Budget.MaxSteps,
		RemainingToolCalls: g.Budget.MaxToolCalls,
	}

	seen := seenKeys{}
	invocation.Allowed = allowedTools

	for st.RemainingSteps > 0 && st.RemainingToolCalls > 0 {
		if !g.needMoreEvidence(st) {
			break
		}
		st.RemainingSteps--

		plan, err := g.plan(ctx, st)
		if err != nil || len(plan.ToolCalls) == 0 {
			break
		}

		roundOutcomes := make([]tools.Outcome, 0, len(plan.ToolCalls))
		newKeys := 0
		for _, call := range plan.ToolCalls {
			if st.RemainingToolCalls <= 0 {
				break
			}
			st.RemainingToolCalls--

			ev := g.Executor.Call(ctx, &invocation, call.Name, call.Args)
			st.ToolEvents = append(st.ToolEvents, ev)
			roundOutcomes = append(roundOutcomes, ev.Outcome)

			if ev.Outcome == tools.OutcomeOK {
				key := ev.Tool + ":" + ev.Key
				if !seen[key] {
					seen[key] = true
					newKeys++
				}
			}
		}
		st.LastRoundOutcomes = roundOutcomes
		st.LastRoundNewKeys = newKeys

		if g.spinGuard(st) {
			st.Stop = true
			break
		}
	}

	return g.synth(ctx, st)
}

// needMoreEvidence implements spec.md §4.8's "decide" node.
func (g *Graph) needMoreEvidence(st *State) bool {
	if st.Stop {
		return false
	}
	a := st.Investigation.Analysis
	if a.Features.Quality.EvidenceQuality == "low" {
		return true
	}
	if len(a.Features.Quality.MissingInputs) > 0 {
		return true
	}
	if len(a.Features.Quality.ContradictionFlags) > 0 {
		return true
	}
	if len(a.Hypotheses) == 0 {
		return true
	}

	top := topConfidence(a.Hypotheses)
	if top < g.ConfidenceThreshold {
		return true
	}
	if top >= HighConfidenceThreshold {
		return !g.familyVerificationSatisfied(st, top)
	}
	return false
}

// familyVerificationSatisfied implements the critical rule: at
// confidence >= 80, family-appropriate verification tools must have
// succeeded, with a pair normally required and a single call sufficient only
// once confidence reaches SingleToolSufficientThreshold (spec.md §4.8).
func (g *Graph) familyVerificationSatisfied(st *State, confidence int) bool {
	family := st.Investigation.Target.Playbook
	required := verificationToolsFor(family)
	if len(required.pair) == 0 {
		return true
	}

	succeeded := successfulTools(st.ToolEvents)
	count := 0
	for _, t := range required.pair {
		if succeeded[t] {
			count++
		}
	}

	switch {
	case required.anyOneSuffices:
		return count >= 1
	case confidence >= SingleToolSufficientThreshold:
		return count >= 1
	default:
		return count >= 2
	}
}

type verification struct {
	pair           []string
	anyOneSuffices bool
}

// verificationToolsFor returns the family-specific verification tool set
// (spec.md §4.8): S3/DB/image-related families require a pair (or one at
// very high confidence); network/pod-related families accept any one.
func verificationToolsFor(family string) verification {
	switch family {
	case string(models.FamilyJobFailed):
		return verification{pair: []string{"aws.s3_bucket_location", "aws.iam_role_permissions"}}
	case string(models.FamilyPodNotHealthy):
		return verification{pair: []string{"aws.ecr", "aws.iam_role_permissions"}}
	case string(models.FamilyTargetDown), string(models.FamilyK8sRolloutHealth):
		return verification{pair: []string{"k8s.pod_context", "k8s.rollout_status", "promql.instant"}, anyOneSuffices: true}
	default:
		return verification{}
	}
}

func successfulTools(events []tools.Event) map[string]bool {
	out := map[string]bool{}
	for _, ev := range events {
		if ev.Outcome == tools.OutcomeOK {
			out[ev.Tool] = true
		}
	}
	return out
}

func topConfidence(hyps []models.Hypothesis) int {
	best := 0
	for _, h := range hyps {
		if h.Confidence0To100 > best {
			best = h.Confidence0To100
		}
	}
	return best
}

// spinGuard implements spec.md §4.8's stop conditions: no new evidence keys
// surfaced, or every outcome this round was unproductive.
func (g *Graph) spinGuard(st *State) bool {
	if st.LastRoundNewKeys == 0 {
		return true
	}
	for _, o := range st.LastRoundOutcomes {
		switch o {
		case tools.OutcomeEmpty, tools.OutcomeUnavailable, tools.OutcomeError, tools.OutcomeSkippedDuplicate:
			continue
		default:
			return false
		}
	}
	return true
}

// plan calls the structured LLM with the family-aware planner prompt
// (spec.md §4.8 "plan").
func (g *Graph) plan(ctx context.Context, st *State) (planResult, error) {
	family := st.Investigation.Target.Playbook
	system := plannerSystemPrompt(family, st.Allowed)

	res, err := g.LLM.GenerateStructured(ctx, llm.StructuredRequest{
		PromptVersion: llm.PromptToolPlanV1,
		System:        system,
		Messages:      []llm.Message{{Role: llm.RoleUser, Content: investigationSummary(st.Investigation)}},
		Schema:        llm.ToolPlanSchema,
		MaxTokens:     1024,
	})
	if err != nil {
		return planResult{}, err
	}

	return parsePlanResult(res)
}

// synth implements spec.md §4.8's "synth" node: emit the final verdict,
// auto-promoting unknown -> ok once summary/root_cause are substantive.
func (g *Graph) synth(ctx context.Context, st *State) *models.RCAResult {
	system := synthSystemPrompt(st.Investigation.Target.Playbook)

	res, err := g.LLM.GenerateStructured(ctx, llm.StructuredRequest{
		PromptVersion: llm.PromptRCAV1,
		System:        system,
		Messages:      []llm.Message{{Role: llm.RoleUser, Content: synthUserPrompt(st)}},
		Schema:        llm.RCASynthesisSchema,
		MaxTokens:     1500,
	})
	if err != nil {
		return &models.RCAResult{
			Status:  models.RCAStatusError,
			Summary: fmt.Sprintf("synthesis failed: %v", err),
		}
	}

	result := parseSynthResult(res)
	if result.Status == models.RCAStatusUnknown && substantive(result.Summary) && substantive(result.RootCause) {
		result.Status = models.RCAStatusOK
	}
	return result
}

func substantive(s string) bool {
	return len(s) >= 20
}
