package models

import "time"

// Investigation is the mutable Single Source Of Truth built during pipeline
// execution (spec.md §3, §4.3). Collectors populate Evidence/Meta fields
// idempotently and append to Errors instead of raising.
type Investigation struct {
	Alert      Alert      `json:"alert"`
	Target     Target     `json:"target"`
	TimeWindow TimeWindow `json:"time_window"`

	Evidence Evidence `json:"evidence"`
	Analysis Analysis `json:"analysis"`

	Errors []string       `json:"errors"`
	Meta   map[string]any `json:"meta"`
}

// NewInvestigation constructs an empty Investigation with initialized maps.
func NewInvestigation(alert Alert, target Target, window TimeWindow) *Investigation {
	return &Investigation{
		Alert:      alert,
		Target:     target,
		TimeWindow: window,
		Meta:       map[string]any{},
	}
}

// AddError appends a best-effort error breadcrumb; never raised to callers.
func (inv *Investigation) AddError(stage string, err error) {
	if err == nil {
		return
	}
	inv.Errors = append(inv.Errors, stage+": "+err.Error())
}

// Evidence is the sparse, family-keyed evidence record populated by
// collectors (spec.md §3, §4.2).
type Evidence struct {
	K8s     *K8sEvidence     `json:"k8s,omitempty"`
	Metrics *MetricsEvidence `json:"metrics,omitempty"`
	Logs    *LogsEvidence    `json:"logs,omitempty"`
	AWS     *AWSEvidence     `json:"aws,omitempty"`
	GitHub  *GitHubEvidence  `json:"github,omitempty"`
	Meta    map[string]any   `json:"meta,omitempty"`
}

// K8sEvidence captures pod/workload context gathered from the cluster.
type K8sEvidence struct {
	PodInfo        map[string]any   `json:"pod_info,omitempty"`
	Conditions     []map[string]any `json:"conditions,omitempty"`
	Events         []K8sEvent       `json:"events,omitempty"`
	OwnerChain     []OwnerRef       `json:"owner_chain,omitempty"`
	RolloutStatus  map[string]any   `json:"rollout_status,omitempty"`
	RestartSeries  []TimeseriesPoint `json:"restart_series,omitempty"`
	PhaseSeries    []TimeseriesPoint `json:"phase_series,omitempty"`
	CPUUsage       *ResourceSeries  `json:"cpu_usage,omitempty"`
	MemoryUsage    *ResourceSeries  `json:"memory_usage,omitempty"`
	PreviousLogsAvailable bool      `json:"previous_logs_available,omitempty"`
	CrashDuration  *time.Duration  `json:"crash_duration,omitempty"`
	ProbeFailure   string           `json:"probe_failure,omitempty"` // "liveness" | "readiness" | ""
	ImagePull      *ImagePullDiagnostics `json:"image_pull,omitempty"`
	JobEvents      []K8sEvent       `json:"job_events,omitempty"`
	JobPodsFound   *bool            `json:"job_pods_found,omitempty"`
}

// OwnerRef is one hop in a pod's controller owner chain.
type OwnerRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// K8sEvent is a condensed Kubernetes event.
type K8sEvent struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Count     int32     `json:"count"`
	LastSeen  time.Time `json:"last_seen"`
}

// TimeseriesPoint is one (timestamp, value) sample.
type TimeseriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ResourceSeries pairs a usage series with limit/request context.
type ResourceSeries struct {
	Usage        []TimeseriesPoint `json:"usage"`
	Limit        *float64          `json:"limit,omitempty"`
	Request      *float64          `json:"request,omitempty"`
	NearLimit    bool              `json:"near_limit"`
}

// ImagePullDiagnostics is attached for pod_not_healthy image-pull failures.
type ImagePullDiagnostics struct {
	ImageRef        string `json:"image_ref"`
	Registry        string `json:"registry"`
	Repository      string `json:"repository"`
	Tag             string `json:"tag,omitempty"`
	Digest          string `json:"digest,omitempty"`
	IsECR           bool   `json:"is_ecr"`
	ECRAccountID    string `json:"ecr_account_id,omitempty"`
	ECRRegion       string `json:"ecr_region,omitempty"`
	ErrorBucket     string `json:"error_bucket"` // not_found | auth | tls | network | unknown
	PullSecrets     []string `json:"pull_secrets,omitempty"`
	ECRProbeResult  string `json:"ecr_probe_result,omitempty"`
}

// MetricsEvidence captures Prometheus-derived evidence.
type MetricsEvidence struct {
	ThrottlePercent map[string]float64 `json:"throttle_percent,omitempty"` // keyed by container/pod/namespace
	ThrottlePeriods map[string]float64 `json:"throttle_periods,omitempty"`
	HTTP5xxRate     []TimeseriesPoint  `json:"http_5xx_rate,omitempty"`
	HTTP5xxSeriesUsed string           `json:"http_5xx_series_used,omitempty"`
	UpDownSkeleton  map[string]bool    `json:"up_down_skeleton,omitempty"`
	OOMHint         string             `json:"oom_hint,omitempty"`
}

// LogsEvidence captures parsed log lines and derived pattern counts.
type LogsEvidence struct {
	Lines         []LogLine      `json:"lines,omitempty"`
	PatternCounts map[string]int `json:"pattern_counts,omitempty"`
	Truncated     bool           `json:"truncated"`
}

// LogLine is one deterministically-classified log line.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"index"`
	Pattern   string    `json:"pattern"` // FATAL|CRITICAL | Exception|Traceback|panic | ERROR | ""
	Message   string    `json:"message"`
}

// AWSEvidence captures optional cloud validation evidence.
type AWSEvidence struct {
	BucketExists   *bool          `json:"bucket_exists,omitempty"`
	BucketRegion   string         `json:"bucket_region,omitempty"`
	IRSARoleARN    string         `json:"irsa_role_arn,omitempty"`
	IAMTrustPolicy map[string]any `json:"iam_trust_policy,omitempty"`
	IAMPolicies    []string       `json:"iam_policies,omitempty"`
}

// GitHubEvidence captures optional source-control evidence.
type GitHubEvidence struct {
	RecentCommits []map[string]any `json:"recent_commits,omitempty"`
	WorkflowRuns  []map[string]any `json:"workflow_runs,omitempty"`
}

// Analysis is the computed analysis attached during pipeline scoring.
type Analysis struct {
	Features    Features       `json:"features"`
	Verdict     Verdict        `json:"verdict"`
	Scores      Scores         `json:"scores"`
	Hypotheses  []Hypothesis   `json:"hypotheses,omitempty"`
	Change      map[string]any `json:"change,omitempty"`
	Noise       map[string]any `json:"noise,omitempty"`
	Capacity    map[string]any `json:"capacity,omitempty"`
	RCA         *RCAResult     `json:"rca,omitempty"`
}

// Quality summarizes evidence-gathering confidence.
type Quality struct {
	EvidenceQuality    string   `json:"evidence_quality"` // low | medium | high
	MissingInputs      []string `json:"missing_inputs,omitempty"`
	ContradictionFlags []string `json:"contradiction_flags,omitempty"`
}

// Features is the compact, model-consumable feature record (spec.md §4.3 step 4).
type Features struct {
	WaitingReason      string  `json:"waiting_reason,omitempty"`
	RestartRateMax     float64 `json:"restart_rate_max"`
	CPUThrottleP95     float64 `json:"cpu_throttle_p95"`
	CPUNearLimit       bool    `json:"cpu_near_limit"`
	MemoryNearLimit    bool    `json:"memory_near_limit"`
	OOMFlag            bool    `json:"oom_flag"`
	HTTP5xxRateP95     float64 `json:"http_5xx_rate_p95"`
	LogsStatus         string  `json:"logs_status,omitempty"`
	Quality            Quality `json:"quality"`
}

// Hypothesis is one diagnostic module's proposed explanation.
type Hypothesis struct {
	HypothesisID     string   `json:"hypothesis_id"`
	Label            string   `json:"label"`
	Title            string   `json:"title"`
	Confidence0To100 int      `json:"confidence_0_100"`
	Why              []string `json:"why,omitempty"`
	SupportingRefs   []string `json:"supporting_refs,omitempty"`
	NextTests        []string `json:"next_tests,omitempty"`
}

// Verdict is the human-facing summary of an investigation.
type Verdict struct {
	Severity       string   `json:"severity"`
	Classification string   `json:"classification"` // actionable | noisy | informational — SSOT, see DESIGN.md
	PrimaryDriver  string   `json:"primary_driver"`
	OneLiner       string   `json:"one_liner"`
	Family         Family   `json:"family"`
	Next           []string `json:"next,omitempty"`
}

// Scores carries the numeric scoring outputs plus a denormalized copy of
// verdict.classification (see DESIGN.md open-question decision #2: the SSOT
// for classification is Verdict.Classification; this field is always
// written from that same value, never computed independently).
type Scores struct {
	ImpactScore     float64 `json:"impact_score"`
	ConfidenceScore float64 `json:"confidence_score"`
	NoiseScore      float64 `json:"noise_score"`
	Classification  string  `json:"classification"`
}

// RCAStatus enumerates C8 synthesis outcomes.
type RCAStatus string

const (
	RCAStatusOK          RCAStatus = "ok"
	RCAStatusUnknown     RCAStatus = "unknown"
	RCAStatusBlocked     RCAStatus = "blocked"
	RCAStatusUnavailable RCAStatus = "unavailable"
	RCAStatusError       RCAStatus = "error"
)

// RCAResult is C8's synthesized root-cause summary.
type RCAResult struct {
	Status        RCAStatus `json:"status"`
	Summary       string    `json:"summary"`
	RootCause     string    `json:"root_cause"`
	Confidence0To1 float64  `json:"confidence_0_1"`
	Evidence      []string  `json:"evidence,omitempty"`
	Remediation   []string  `json:"remediation,omitempty"`
	Unknowns      []string  `json:"unknowns,omitempty"`
}

// AnalysisSnapshot is the versioned, persisted SSOT JSON shape consumed by
// the chat/RCA runtimes and by read APIs (spec.md §3).
type AnalysisSnapshot struct {
	SchemaVersion string   `json:"schema_version"`
	Target        Target   `json:"target"`
	Analysis      Analysis `json:"analysis"`
	Evidence      Evidence `json:"evidence"`
}

const SnapshotSchemaVersion = "tarka.analysis_snapshot.v1"

// BuildSnapshot renders the persisted analysis snapshot from an Investigation,
// enforcing the classification-SSOT invariant (DESIGN.md decision #2).
func BuildSnapshot(inv *Investigation) AnalysisSnapshot {
	a := inv.Analysis
	a.Scores.Classification = a.Verdict.Classification
	return AnalysisSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Target:        inv.Target,
		Analysis:      a,
		Evidence:      inv.Evidence,
	}
}
