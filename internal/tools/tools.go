// Package tools implements C7: the single choke point every C8/C9 tool
// call passes through. It applies policy gates (internal/policy), redaction
// (redact.go), an in-invocation dedupe key, and produces the uniform
// ToolResult shape (spec.md §4.7). Grounded on the teacher's reasoning/tools
// executor shape (kubilitics-ai's tool-calling dispatch: a name->handler
// map plus a budget-aware loop) generalized to Tarka's tool catalog and
// wired to the real policy/redaction/dedupe requirements spec.md adds.
package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2s"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/policy"
)

// Result is the uniform shape every tool call returns (spec.md §4.7).
type Result struct {
	OK               bool           `json:"ok"`
	Result           any            `json:"result,omitempty"`
	Error            string         `json:"error,omitempty"`
	UpdatedAnalysis  map[string]any `json:"updated_analysis,omitempty"`
}

// Outcome classifies a tool event for persistence and spin-guard logic
// (spec.md §4.8 "last_round_outcomes").
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeEmpty            Outcome = "empty"
	OutcomeUnavailable      Outcome = "unavailable"
	OutcomeError            Outcome = "error"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
)

// Event records one attempted tool call, mirroring models.ToolEvent's
// shape closely enough that callers can persist it directly.
type Event struct {
	Tool    string
	Args    map[string]any
	Key     string
	Outcome Outcome
	Result  Result
	Summary string
}

// Func is one tool's handler. ctx carries the caller's deadline; args are
// the planner-supplied parameters; Invocation supplies shared, per-call
// context (namespace/cluster allowlists already resolved by the caller).
type Func func(ctx context.Context, inv *Invocation, args map[string]any) Result

// Invocation bundles the case/target context a tool handler needs: which
// case/run it's scoped to (empty for global tools), and the policy
// allowlists gating it.
type Invocation struct {
	CaseID     string
	Cluster    string
	Namespace  string
	Allowed    []string // policy AllowedTools
	Namespaces []string // policy AllowedNamespaces
	Clusters   []string // policy AllowedClusters
}

// spec describes one registered tool: its handler and whether it's
// reachable from the global (inbox-wide) tool set.
type spec struct {
	name   string
	fn     Func
	global bool
}

// Registry is the full catalog of tool handlers (spec.md §4.7's
// case-scoped and global tool sets).
type Registry struct {
	tools map[string]spec
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]spec)}
}

// Register adds a tool handler under name.
func (r *Registry) Register(name string, global bool, fn Func) {
	r.tools[name] = spec{name: name, fn: fn, global: global}
}

// Names returns every registered tool name, case-scoped tools first,
// stably sorted — used to build the planner prompt's tool catalog.
func (r *Registry) Names(includeGlobal bool) []string {
	out := make([]string, 0, len(r.tools))
	for name, s := range r.tools {
		if s.global && !includeGlobal {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Executor is C7: policy-gated, redacting, dedupe-tracking dispatch over a
// Registry. One Executor is built per RCA/chat invocation (spec.md §5:
// "tool-call budgets and step counters are per-invocation, not shared").
type Executor struct {
	registry  *Registry
	toolPolicy *policy.Evaluator
	redactInfra bool

	mu   sync.Mutex
	seen map[string]bool // dedupe keys already executed this invocation
}

// NewExecutor builds an Executor bound to one invocation's registry and
// tool policy. redactInfra enables the optional infrastructure-pattern
// redaction pass (spec.md §4.7, gated by LLM_REDACT_INFRASTRUCTURE).
func NewExecutor(registry *Registry, toolPolicy *policy.Evaluator, redactInfra bool) *Executor {
	return &Executor{
		registry:    registry,
		toolPolicy:  toolPolicy,
		redactInfra: redactInfra,
		seen:        make(map[string]bool),
	}
}

// DedupeKey computes blake2s(tool_id + canonical(args))[:12] in hex
// (spec.md §4.7 "Dedupe key").
func DedupeKey(tool string, args map[string]any) string {
	canon := canonicalArgs(args)
	sum := blake2s.Sum256([]byte(tool + canon))
	return hex.EncodeToString(sum[:])[:12]
}

// canonicalArgs renders args as JSON with sorted keys so equal argument
// sets always produce the same dedupe key regardless of map iteration
// order.
func canonicalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]any, len(args))
	for _, k := range keys {
		ordered[k] = args[k]
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		h := sha256.Sum256([]byte(fmt.Sprintf("%v", args)))
		return hex.EncodeToString(h[:])
	}
	return string(b)
}

// Call runs one tool invocation: dedupe check, policy gate, handler
// dispatch, redaction of the result. Returns the persisted Event shape.
func (e *Executor) Call(ctx context.Context, inv *Invocation, tool string, args map[string]any) Event {
	key := DedupeKey(tool, args)

	e.mu.Lock()
	duplicate := e.seen[key]
	if !duplicate {
		e.seen[key] = true
	}
	e.mu.Unlock()

	if duplicate {
		return Event{
			Tool: tool, Args: args, Key: key,
			Outcome: OutcomeSkippedDuplicate,
			Result:  Result{OK: false, Error: tarkaerrors.CodeSkippedDuplicate},
			Summary: "skipped duplicate tool call",
		}
	}

	s, ok := e.registry.tools[tool]
	if !ok {
		return e.errorEvent(tool, args, key, tarkaerrors.CodeToolMissing)
	}

	if e.toolPolicy != nil {
		allow, err := e.toolPolicy.AllowTool(ctx, policy.ToolInput{
			Tool: tool, Namespace: inv.Namespace, Cluster: inv.Cluster,
			Allowed: inv.Allowed, Namespaces: inv.Namespaces, Clusters: inv.Clusters,
		})
		if err != nil {
			return e.errorEvent(tool, args, key, tarkaerrors.ToolException("policy", err.Error()))
		}
		if !allow {
			return e.errorEvent(tool, args, key, tarkaerrors.CodeToolNotAllowed)
		}
	}

	result := e.safeCall(ctx, s.fn, inv, args)
	result.Result = RedactValue(result.Result, e.redactInfra)

	outcome := outcomeFor(result)
	return Event{
		Tool: tool, Args: args, Key: key,
		Outcome: outcome,
		Result:  result,
		Summary: summarize(tool, result),
	}
}

// safeCall recovers a panicking handler into a tool_exception result, per
// spec.md §7 "Tool executor catches all exceptions and returns a stable
// code."
func (e *Executor) safeCall(ctx context.Context, fn Func, inv *Invocation, args map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{OK: false, Error: tarkaerrors.ToolException("panic", fmt.Sprintf("%v", r))}
		}
	}()
	return fn(ctx, inv, args)
}

func (e *Executor) errorEvent(tool string, args map[string]any, key, code string) Event {
	return Event{
		Tool: tool, Args: args, Key: key,
		Outcome: OutcomeError,
		Result:  Result{OK: false, Error: code},
		Summary: code,
	}
}

func outcomeFor(r Result) Outcome {
	switch {
	case !r.OK && r.Error == tarkaerrors.CodeSkippedDuplicate:
		return OutcomeSkippedDuplicate
	case !r.OK:
		return OutcomeError
	case r.Result == nil:
		return OutcomeEmpty
	default:
		return OutcomeOK
	}
}

func summarize(tool string, r Result) string {
	if !r.OK {
		return fmt.Sprintf("%s failed: %s", tool, r.Error)
	}
	if r.Result == nil {
		return fmt.Sprintf("%s returned no data", tool)
	}
	return fmt.Sprintf("%s succeeded", tool)
}

// ArgString reads a required string arg, returning ("", false) when absent
// or not a string.
func ArgString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ArgInt reads an integer-ish arg (json.Unmarshal into map[string]any
// yields float64 for numbers), defaulting when absent.
func ArgInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
