// Package summaries renders the contextual tool_start/tool_end SSE messages
// keyed by tool id (spec.md §4.9 "emitting tool_start/tool_end with
// contextual messages keyed by tool id"). Grounded on the supplemented
// original_source/agent/chat/tool_summaries.py feature (SPEC_FULL.md §4.13):
// the original kept a small per-tool phrasebook rather than a generic
// "calling <tool>" message; this package is that phrasebook reimplemented
// as a Go map, in the teacher's terse-comment style.
package summaries

import "fmt"

var starting = map[string]string{
	"k8s.pod_context":          "Checking the pod's current status...",
	"k8s.rollout_status":       "Checking rollout status...",
	"k8s.events":               "Pulling recent Kubernetes events...",
	"logs.tail":                "Tailing recent logs...",
	"promql.instant":           "Querying Prometheus...",
	"aws.s3_bucket_location":   "Confirming the S3 bucket exists...",
	"aws.iam_role_permissions": "Checking IAM role permissions...",
	"aws.ec2":                  "Checking EC2 instance state...",
	"aws.ebs":                  "Checking EBS volume state...",
	"aws.security_group":       "Checking security group rules...",
	"aws.nat_gateway":          "Checking NAT gateway state...",
	"aws.vpc_endpoint":         "Checking VPC endpoint state...",
	"aws.rds":                  "Checking RDS instance state...",
	"aws.elb":                  "Checking load balancer target health...",
	"aws.ecr":                  "Confirming the container image exists...",
	"aws.cloudtrail":           "Pulling recent CloudTrail events...",
	"github.recent_commits":    "Checking recent commits...",
	"github.workflow_runs":     "Checking recent CI runs...",
	"github.workflow_logs":     "Pulling CI logs...",
	"github.read_file":         "Reading a file from the repo...",
	"github.commit_diff":       "Diffing a commit...",
	"argocd.app_status":        "Checking Argo CD app status...",
	"cases.count":              "Counting matching cases...",
	"cases.top":                "Tallying cases by group...",
	"cases.lookup":             "Looking up the case...",
	"cases.summary":            "Summarizing the case...",
	"actions.list":             "Listing proposed actions...",
	"actions.propose":          "Proposing an action...",
	"memory.similar_cases":     "Searching similar past cases...",
	"memory.skills":            "Checking known playbooks...",
}

// Start returns the SSE tool_start message for tool.
func Start(tool string) string {
	if s, ok := starting[tool]; ok {
		return s
	}
	return fmt.Sprintf("Calling %s...", tool)
}

// End returns the SSE tool_end message for tool, aware of whether the call
// succeeded.
func End(tool string, ok bool) string {
	if ok {
		return fmt.Sprintf("%s done.", tool)
	}
	return fmt.Sprintf("%s didn't return usable data.", tool)
}
