// Package models defines the typed records shared across Tarka's components:
// the normalized Alert, the Investigation SSOT, the persisted Case/Run/
// ActionProposal/ChatThread rows, and the analysis snapshot schema. These
// replace the teacher's ad-hoc map[string]interface{} payloads (see the
// Investigation struct in the teacher's reasoning/investigation package,
// which carries most fields as `interface{}`) with explicit typed fields,
// per the "ad-hoc dynamic context dicts" design note in spec.md §9.
package models

import "time"

// AlertStatusState is the normalized alert lifecycle state.
type AlertStatusState string

const (
	StatusFiring   AlertStatusState = "firing"
	StatusResolved AlertStatusState = "resolved"
	StatusUnknown  AlertStatusState = "unknown"
)

// AlertStatus wraps the derived alert state.
type AlertStatus struct {
	State AlertStatusState `json:"state"`
}

// Alert is the normalized Alertmanager alert, per spec.md §3.
type Alert struct {
	Fingerprint  string            `json:"fingerprint"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"starts_at"`
	EndsAt       time.Time         `json:"ends_at"`
	GeneratorURL string            `json:"generator_url,omitempty"`
	Status       AlertStatus       `json:"status"`
}

// Name returns the alertname label, or "" if absent.
func (a *Alert) Name() string {
	if a == nil || a.Labels == nil {
		return ""
	}
	return a.Labels["alertname"]
}

// Family is the enumerated alert classification from spec.md §3.
type Family string

const (
	FamilyCrashloop              Family = "crashloop"
	FamilyCPUThrottling          Family = "cpu_throttling"
	FamilyOOMKilled              Family = "oom_killed"
	FamilyMemoryPressure         Family = "memory_pressure"
	FamilyHTTP5xx                Family = "http_5xx"
	FamilyPodNotHealthy          Family = "pod_not_healthy"
	FamilyJobFailed              Family = "job_failed"
	FamilyTargetDown             Family = "target_down"
	FamilyK8sRolloutHealth       Family = "k8s_rollout_health"
	FamilyObservabilityPipeline  Family = "observability_pipeline"
	FamilyMeta                   Family = "meta"
	FamilyGeneric                Family = "generic"
)

// TargetType enumerates the kind of entity a Target identifies.
type TargetType string

const (
	TargetPod      TargetType = "pod"
	TargetWorkload TargetType = "workload"
	TargetService  TargetType = "service"
	TargetNone     TargetType = "none"
)

// Target is the derived investigation subject, per spec.md §3.
type Target struct {
	TargetType   TargetType `json:"target_type"`
	Cluster      string     `json:"cluster,omitempty"`
	Namespace    string     `json:"namespace,omitempty"`
	Pod          string     `json:"pod,omitempty"`
	Container    string     `json:"container,omitempty"`
	WorkloadKind string     `json:"workload_kind,omitempty"`
	WorkloadName string     `json:"workload_name,omitempty"`
	Service      string     `json:"service,omitempty"`
	Job          string     `json:"job,omitempty"`
	Instance     string     `json:"instance,omitempty"`
	Team         string     `json:"team,omitempty"`
	Playbook     string     `json:"playbook,omitempty"`
}

// Name returns the most identity-bearing name available for display.
func (t *Target) Name() string {
	if t == nil {
		return "unknown"
	}
	switch {
	case t.Pod != "":
		return t.Pod
	case t.WorkloadName != "":
		return t.WorkloadName
	case t.Service != "":
		return t.Service
	case t.Job != "":
		return t.Job
	default:
		return "unknown"
	}
}

// TimeWindow bounds the investigation's evidence query range.
type TimeWindow struct {
	Window    time.Duration `json:"window"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
}
