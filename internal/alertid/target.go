package alertid

import (
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// DeriveTarget computes the investigation Target from normalized labels and
// the detected family, label-first, per spec.md §3 Target.
//
// Excluded families (target_down, k8s_rollout_health, observability_pipeline,
// meta, job_failed) must not adopt pod labels as identity — those labels are
// scrape metadata, not incident identity.
func DeriveTarget(family string, labels map[string]string) models.Target {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(labels[k]); v != "" {
				return v
			}
		}
		return ""
	}

	t := models.Target{
		Cluster:      get("cluster"),
		Namespace:    get("namespace", "kubernetes_namespace_name", "k8s_namespace", "kube_namespace"),
		Container:    get("container"),
		Service:      get("service", "kubernetes_service_name"),
		Job:          get("job"),
		Instance:     get("instance"),
		Team:         get("team"),
		WorkloadKind: get("workload_kind", "deployment_kind"),
	}

	excludesPod := PodIdentityExcludedFamilies[family]

	if family == string(familyJobFailed) {
		// job_name is the stable identity label for KubeJobFailed; `job` is
		// scrape metadata for this family (spec.md §3 Target).
		t.WorkloadName = get("job_name")
		t.WorkloadKind = "Job"
		t.TargetType = models.TargetWorkload
		return t
	}

	if !excludesPod {
		t.Pod = get("pod", "pod_name", "podName", "kubernetes_pod_name")
	}

	switch {
	case !excludesPod && t.Pod != "" && t.Namespace != "":
		t.TargetType = models.TargetPod
	case t.Service != "":
		t.TargetType = models.TargetService
		t.WorkloadName = get("workload", "deployment", "deployment_name", "workload_name")
	case get("workload", "deployment", "deployment_name", "workload_name") != "":
		t.WorkloadName = get("workload", "deployment", "deployment_name", "workload_name")
		t.TargetType = models.TargetWorkload
	default:
		t.TargetType = models.TargetNone
	}

	return t
}
