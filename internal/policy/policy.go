// Package policy gates C7 tool execution and the action-proposal workflow
// (spec.md §4.7, §3 Action proposal, §6 actions endpoints) behind
// open-policy-agent/opa's Rego evaluator. Grounded on the shape of
// jordigilh-kubernaut's internal `rego.Evaluator` (test/unit/aianalysis/
// rego_evaluator_test.go: a Config-constructed evaluator taking a typed
// PolicyInput and returning an allow/deny decision) — the pack has no
// concrete Evaluator source file to copy, so this package wires the real
// open-policy-agent/opa/rego package directly to the same input/decision
// shape that test exercises.
package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed tool_policy.rego
var toolPolicySource string

//go:embed action_policy.rego
var actionPolicySource string

// ToolInput is evaluated against tool_policy.rego to decide whether C7 may
// execute a given tool call (spec.md §4.7).
type ToolInput struct {
	Tool      string   `json:"tool"`
	Namespace string   `json:"namespace,omitempty"`
	Cluster   string   `json:"cluster,omitempty"`
	Allowed   []string `json:"allowed_tools"`
	Namespaces []string `json:"namespace_allowlist,omitempty"`
	Clusters   []string `json:"cluster_allowlist,omitempty"`
}

// ActionInput is evaluated against action_policy.rego to decide whether a
// proposed action may move to approved/executed (spec.md §3 Action
// proposal, §6 action endpoints).
type ActionInput struct {
	ActionType      string   `json:"action_type"`
	Transition      string   `json:"transition"` // approve | reject | execute
	TypeAllowlist   []string `json:"type_allowlist"`
	RequireApproval bool     `json:"require_approval"`
	AllowExecute    bool     `json:"allow_execute"`
	CurrentStatus   string   `json:"current_status"`
}

// Evaluator wraps a prepared Rego query for one policy module.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

func newEvaluator(ctx context.Context, source, pkg string) (*Evaluator, error) {
	q, err := rego.New(
		rego.Query("data."+pkg+".allow"),
		rego.Module(pkg+".rego", source),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: preparing %s: %w", pkg, err)
	}
	return &Evaluator{query: q}, nil
}

// NewToolEvaluator prepares the tool-allowlist policy.
func NewToolEvaluator(ctx context.Context) (*Evaluator, error) {
	return newEvaluator(ctx, toolPolicySource, "tarka.tools")
}

// NewActionEvaluator prepares the action-proposal policy.
func NewActionEvaluator(ctx context.Context) (*Evaluator, error) {
	return newEvaluator(ctx, actionPolicySource, "tarka.actions")
}

// Allow evaluates input and returns the boolean "allow" decision.
func (e *Evaluator) Allow(ctx context.Context, input any) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allow, _ := rs[0].Expressions[0].Value.(bool)
	return allow, nil
}

// AllowTool is a convenience wrapper evaluating a ToolInput.
func (e *Evaluator) AllowTool(ctx context.Context, in ToolInput) (bool, error) {
	return e.Allow(ctx, in)
}

// AllowAction is a convenience wrapper evaluating an ActionInput.
func (e *Evaluator) AllowAction(ctx context.Context, in ActionInput) (bool, error) {
	return e.Allow(ctx, in)
}
