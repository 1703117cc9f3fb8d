package alertid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFamily_KnownAlertnames(t *testing.T) {
	cases := map[string]string{
		"KubePodCrashLooping":          string(familyCrashloop),
		"CPUThrottlingHigh":            string(familyCPUThrottling),
		"KubernetesContainerOomKiller": string(familyOOMKilled),
		"KubeMemoryPressure":           string(familyMemoryPressure),
		"HighHTTP5xxRate":              string(familyHTTP5xx),
		"KubernetesPodNotHealthy":      string(familyPodNotHealthy),
		"KubeJobFailed":                string(familyJobFailed),
		"TargetDown":                   string(familyTargetDown),
		"KubeDeploymentRolloutStuck":   string(familyK8sRolloutHealth),
		"PrometheusScrapeFailure":      string(familyObservabilityPipeline),
		"Watchdog":                     string(familyMeta),
		"SomeWeirdCustomAlert":         string(familyGeneric),
		"":                             string(familyGeneric),
	}
	for name, want := range cases {
		assert.Equal(t, want, DetectFamily(name, nil), "alertname=%q", name)
	}
}

func TestDetectFamily_NeverPanicsOnNilLabels(t *testing.T) {
	assert.NotPanics(t, func() {
		DetectFamily("", nil)
	})
}

func TestDeriveTarget_ExcludedFamilyIgnoresPod(t *testing.T) {
	tgt := DeriveTarget(string(familyTargetDown), map[string]string{
		"namespace": "monitoring",
		"pod":       "blackbox-exporter-abcde",
		"service":   "blackbox-exporter",
	})
	assert.Equal(t, "", tgt.Pod)
	assert.Equal(t, "blackbox-exporter", tgt.Service)
}

func TestDeriveTarget_JobFailedUsesJobName(t *testing.T) {
	tgt := DeriveTarget(string(familyJobFailed), map[string]string{
		"namespace": "batch",
		"job":       "kube-state-metrics",
		"job_name":  "nightly-export-28371",
	})
	assert.Equal(t, "nightly-export-28371", tgt.WorkloadName)
	assert.Equal(t, "Job", tgt.WorkloadKind)
}

func TestDeriveTarget_PodIdentityWhenAvailable(t *testing.T) {
	tgt := DeriveTarget(string(familyCrashloop), map[string]string{
		"namespace": "payments",
		"pod":       "checkout-7b9f-abcde",
	})
	assert.Equal(t, "checkout-7b9f-abcde", tgt.Pod)
}
