// Package alertid implements C1: the identity & dedupe algebra. Every
// function here is pure — no I/O, never raises, tolerant of missing labels —
// grounded on original_source/agent/core/dedup.py and
// original_source/agent/pipeline/families.py (via the _INDEX.md summary and
// the family table in spec.md §3).
package alertid

import "strings"

// DetectFamily derives the coarse alert family from the alertname and
// labels. Unknown or unparsable input always falls back to FamilyGeneric —
// never raises (spec.md §4.1).
func DetectFamily(alertname string, labels map[string]string) string {
	name := strings.ToLower(strings.TrimSpace(alertname))
	if name == "" && labels != nil {
		name = strings.ToLower(strings.TrimSpace(labels["alertname"]))
	}

	switch {
	case name == "":
		return string(familyGeneric)
	case contains(name, "crashloop"):
		return string(familyCrashloop)
	case contains(name, "cputhrottl"):
		return string(familyCPUThrottling)
	case contains(name, "oomkill"):
		return string(familyOOMKilled)
	case contains(name, "memorypressure") || contains(name, "memoryhigh"):
		return string(familyMemoryPressure)
	case contains(name, "http5xx") || contains(name, "5xxrate") || contains(name, "errorrate"):
		return string(familyHTTP5xx)
	case contains(name, "podnothealthy"):
		return string(familyPodNotHealthy)
	case contains(name, "jobfailed"):
		return string(familyJobFailed)
	case contains(name, "targetdown"):
		return string(familyTargetDown)
	case contains(name, "rollouthealth") || contains(name, "deploymentrollout"):
		return string(familyK8sRolloutHealth)
	case contains(name, "observabilitypipeline") || contains(name, "scrapefailure"):
		return string(familyObservabilityPipeline)
	case contains(name, "watchdog") || contains(name, "dead manswitch") || contains(name, "deadmansswitch"):
		return string(familyMeta)
	default:
		return string(familyGeneric)
	}
}

type family string

const (
	familyCrashloop             family = "crashloop"
	familyCPUThrottling         family = "cpu_throttling"
	familyOOMKilled             family = "oom_killed"
	familyMemoryPressure        family = "memory_pressure"
	familyHTTP5xx               family = "http_5xx"
	familyPodNotHealthy         family = "pod_not_healthy"
	familyJobFailed             family = "job_failed"
	familyTargetDown            family = "target_down"
	familyK8sRolloutHealth      family = "k8s_rollout_health"
	familyObservabilityPipeline family = "observability_pipeline"
	familyMeta                  family = "meta"
	familyGeneric               family = "generic"
)

// PodIdentityExcludedFamilies are families whose pod label is commonly
// scrape metadata, not incident identity (spec.md §3 Target, §4.1).
var PodIdentityExcludedFamilies = map[string]bool{
	string(familyTargetDown):            true,
	string(familyK8sRolloutHealth):      true,
	string(familyObservabilityPipeline): true,
	string(familyMeta):                  true,
	string(familyJobFailed):             true,
}

// RolloutNoisyAlertnames are alert classes where pod identity churns and
// workload-scoped identity is used instead (spec.md §3 Rollout-workload key).
var RolloutNoisyAlertnames = map[string]bool{
	"KubernetesPodNotHealthy":         true,
	"KubernetesPodNotHealthyCritical": true,
	"KubernetesContainerOomKiller":    true,
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ReplaceAll(haystack, "_", ""), needle)
}
