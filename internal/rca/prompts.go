package rca

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// toolDescriptions gives the planner prompt a one-line description per tool
// id (spec.md §4.10 "must list the exact allowed tool ids with one-line
// descriptions"). Kept local to rca rather than on tools.Registry since only
// the planner prompt needs human-readable descriptions; the registry itself
// only needs names for dispatch.
var toolDescriptions = map[string]string{
	"k8s.pod_context":          "Current pod phase, node, container statuses.",
	"k8s.rollout_status":       "Deployment/StatefulSet rollout progress and conditions.",
	"k8s.events":               "Recent Kubernetes events for the target namespace/object.",
	"logs.tail":                "Tail recent container log lines.",
	"promql.instant":           "Run one instant PromQL query against the cluster's Prometheus.",
	"aws.s3_bucket_location":   "Confirm an S3 bucket exists and its region.",
	"aws.iam_role_permissions": "Fetch an IAM role's trust policy and attached policies (IRSA).",
	"aws.ec2":                  "EC2 instance state.",
	"aws.ebs":                  "EBS volume state.",
	"aws.security_group":       "Security group ingress/egress rule summary.",
	"aws.nat_gateway":          "NAT gateway state.",
	"aws.vpc_endpoint":         "VPC endpoint state.",
	"aws.rds":                  "RDS instance state.",
	"aws.elb":                  "Target group health summary.",
	"aws.ecr":                  "Confirm an ECR image reference exists.",
	"aws.cloudtrail":           "Recent CloudTrail events for a resource.",
	"github.recent_commits":    "Recent commits to the service's repository.",
	"github.workflow_runs":     "Recent CI workflow runs.",
	"github.workflow_logs":     "Logs for one CI workflow run.",
	"github.read_file":         "Read a file at a repo ref.",
	"github.commit_diff":       "Diff for one commit.",
	"argocd.app_status":        "Argo CD application sync/health status.",
}

func describeTool(id string) string {
	if d, ok := toolDescriptions[id]; ok {
		return d
	}
	return "no description available"
}

// plannerSystemPrompt builds the system text for the plan node: allowed tool
// catalog, family-specific verification guidance, and the anti-fabrication
// rules (spec.md §4.10).
func plannerSystemPrompt(family string, allowed []string) string {
	var b strings.Builder
	b.WriteString("You are Tarka's root-cause investigation planner. Given the current investigation evidence, decide whether more evidence is needed and, if so, plan at most 3 tool calls.\n\n")
	b.WriteString("Allowed tools:\n")
	for _, id := range allowed {
		fmt.Fprintf(&b, "- %s: %s\n", id, describeTool(id))
	}
	b.WriteString("\n")
	b.WriteString(llm.FamilyGuidance(family))
	b.WriteString("\n\n")
	b.WriteString(llm.ForbidFabrication)
	return b.String()
}

// synthSystemPrompt builds the system text for the synth node.
func synthSystemPrompt(family string) string {
	var b strings.Builder
	b.WriteString("You are Tarka's root-cause synthesizer. Produce a final verdict from the supplied evidence and tool results. Use status=unknown when evidence is insufficient rather than guessing; use blocked/unavailable when verification tools could not run, and error only for an internal failure.\n\n")
	b.WriteString(llm.FamilyGuidance(family))
	b.WriteString("\n\n")
	b.WriteString(llm.ForbidFabrication)
	return b.String()
}

// investigationSummary renders the compact, model-consumable context for the
// plan node: features, current hypotheses, and prior tool history (so the
// model can honor "never repeat a (tool,key) pair").
func investigationSummary(inv *models.Investigation) string {
	payload := map[string]any{
		"family":     inv.Target.Playbook,
		"features":   inv.Analysis.Features,
		"hypotheses": inv.Analysis.Hypotheses,
		"errors":     inv.Errors,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("investigation summary unavailable: %v", err)
	}
	return string(b)
}

// synthUserPrompt renders the investigation plus every tool event gathered
// so far, for the synth node's final call.
func synthUserPrompt(st *State) string {
	payload := map[string]any{
		"family":      st.Investigation.Target.Playbook,
		"target":      st.Investigation.Target,
		"features":    st.Investigation.Analysis.Features,
		"hypotheses":  st.Investigation.Analysis.Hypotheses,
		"tool_events": toolEventSummaries(st.ToolEvents),
		"errors":      st.Investigation.Errors,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("synthesis context unavailable: %v", err)
	}
	return string(b)
}

// toolEventSummaries strips each Event down to what the synth prompt needs:
// never the raw redacted payload twice, just tool id, key, outcome, and
// result for citation.
func toolEventSummaries(events []tools.Event) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]any{
			"tool":    ev.Tool,
			"key":     ev.Key,
			"outcome": ev.Outcome,
			"summary": ev.Summary,
			"result":  ev.Result.Result,
		})
	}
	return out
}
