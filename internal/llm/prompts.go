package llm

// Prompt catalog versions (spec.md §4.10). Every LLM call names one of
// these so traces and eval fixtures stay pinned to a schema revision.
const (
	PromptToolPlanV1 = "tarka.tool_plan.v1"
	PromptRCAV1      = "tarka.rca.v1"
	PromptEnrichV1   = "tarka.enrich.v1"
)

// ToolPlanSchema is the JSON Schema the planner node (C8 "plan", C9 "plan"
// stage) forces the model to satisfy: at most 3 tool calls per round,
// clamped confidence where applicable (spec.md §4.8 "plan calls the
// structured LLM ... returns at most 3 tool calls").
var ToolPlanSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"thinking": map[string]any{"type": "string", "maxLength": 2000},
		"tool_calls": map[string]any{
			"type":     "array",
			"maxItems": 3,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tool": map[string]any{"type": "string"},
					"args": map[string]any{"type": "object"},
				},
				"required": []string{"tool", "args"},
			},
		},
	},
	"required": []string{"tool_calls"},
}

// RCASynthesisSchema is the JSON Schema C8's synth node forces (spec.md
// §4.8 "synth emits {status, summary, root_cause, confidence_0_1,
// evidence[], remediation[], unknowns[]}").
var RCASynthesisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"status":          map[string]any{"type": "string", "enum": []string{"ok", "unknown", "blocked", "unavailable", "error"}},
		"summary":         map[string]any{"type": "string", "maxLength": 2000},
		"root_cause":      map[string]any{"type": "string", "maxLength": 1000},
		"confidence_0_1":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"evidence":        map[string]any{"type": "array", "maxItems": 10, "items": map[string]any{"type": "string"}},
		"remediation":     map[string]any{"type": "array", "maxItems": 10, "items": map[string]any{"type": "string"}},
		"unknowns":        map[string]any{"type": "array", "maxItems": 10, "items": map[string]any{"type": "string"}},
	},
	"required": []string{"status", "summary", "root_cause", "confidence_0_1"},
}

// FamilyGuidance returns the family-specific planner guidance block
// injected into the tool-plan prompt (spec.md §4.8/§4.10): which
// verification tools matter for this family, and the explicit instruction
// to treat provider AccessDenied as diagnostic evidence rather than a
// failed verification.
func FamilyGuidance(family string) string {
	base := "Treat provider errors like AccessDenied or permission_denied as diagnostic evidence about misconfigured access, never as a failed verification step — report them as a finding, don't retry blindly."
	switch family {
	case "job_failed":
		return base + " For job_failed, S3/IAM-flavored hypotheses require both aws.s3_bucket_location and aws.iam_role_permissions before you may report high confidence; a single call only suffices once confidence reaches 95."
	case "pod_not_healthy":
		return base + " For pod_not_healthy image-pull hypotheses, treat a db- or image-pull-flavored hypothesis as needing two independent verification tool calls before reporting confidence >= 80."
	case "target_down", "k8s_rollout_health":
		return base + " For network/pod-reachability hypotheses, a single relevant verification tool call (k8s.pod_context, k8s.rollout_status, or promql.instant) is sufficient."
	default:
		return base
	}
}

// ForbidFabrication is appended to every structured prompt's system text
// (spec.md §4.10: "Prompts forbid fabricated facts, require citation of
// evidence keys ... and forbid repeating a (tool,key) already in
// TOOL_HISTORY").
const ForbidFabrication = "Cite concrete evidence keys you were given (e.g. features.k8s.waiting_reason) for every claim. Never state a fact not present in the supplied evidence or tool results. Never repeat a (tool, key) pair already present in TOOL_HISTORY."
