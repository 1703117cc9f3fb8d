package evidence

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// The functions below propose family-keyed hypotheses from the compact
// Features record already populated on inv.Analysis.Features (spec.md
// §4.3 step 5: "each diagnostic module proposes {hypothesis_id, title,
// confidence_0_100, why[], supporting_refs[], next_tests[]} using features
// only"). Each is called from its own family module's Diagnose method
// (spec.md §9: a Module is "a polymorphic interface with a fixed, known
// variant set ... {applies, collect, diagnose}") rather than from a
// central switch, so hypothesis generation lives with the rest of that
// family's evidence-gathering code.

func crashloopHypotheses(f models.Features) []models.Hypothesis {
	confidence := 40
	why := []string{"container restarts observed"}
	if f.RestartRateMax > 0 {
		confidence = 60
		why = append(why, fmt.Sprintf("restart rate peaked at %.2f/min", f.RestartRateMax))
	}
	if f.LogsStatus == "fatal" || f.LogsStatus == "exception" {
		confidence += 20
		why = append(why, "logs contain "+f.LogsStatus+" entries near crash time")
	}
	return []models.Hypothesis{{
		HypothesisID:     "crashloop.app_failure",
		Label:            "crashloop",
		Title:            "Application is crash-looping",
		Confidence0To100: confidence,
		Why:              why,
		SupportingRefs:   []string{"features.restart_rate_max", "features.logs_status"},
		NextTests:        []string{"inspect previous container logs", "check probe configuration"},
	}}
}

func cpuThrottlingHypotheses(f models.Features) []models.Hypothesis {
	confidence := 30
	if f.CPUThrottleP95 > 50 {
		confidence = 75
	} else if f.CPUThrottleP95 > 10 {
		confidence = 50
	}
	return []models.Hypothesis{{
		HypothesisID:     "cpu_throttling.limits_too_low",
		Label:            "cpu_throttling",
		Title:            "Container is CPU-throttled against its limit",
		Confidence0To100: confidence,
		Why:              []string{fmt.Sprintf("p95 CPU throttle %.1f%%", f.CPUThrottleP95)},
		SupportingRefs:   []string{"features.cpu_throttle_p95"},
		NextTests:        []string{"review CPU limit vs observed usage"},
	}}
}

func oomHypotheses(f models.Features) []models.Hypothesis {
	confidence := 35
	if f.OOMFlag {
		confidence = 80
	}
	if f.MemoryNearLimit {
		confidence += 10
	}
	return []models.Hypothesis{{
		HypothesisID:     "oom_killed.memory_limit_exceeded",
		Label:            "oom_killed",
		Title:            "Container was OOM-killed",
		Confidence0To100: confidence,
		Why:              []string{"OOM hint present in alert metadata"},
		SupportingRefs:   []string{"features.oom_flag", "features.memory_near_limit"},
		NextTests:        []string{"review memory limit vs usage history"},
	}}
}

func memoryPressureHypotheses(f models.Features) []models.Hypothesis {
	confidence := 30
	if f.MemoryNearLimit {
		confidence = 65
	}
	return []models.Hypothesis{{
		HypothesisID:     "memory_pressure.node_pressure",
		Label:            "memory_pressure",
		Title:            "Node or pod is under memory pressure",
		Confidence0To100: confidence,
		Why:              []string{"memory usage trending near configured limit"},
		SupportingRefs:   []string{"features.memory_near_limit"},
	}}
}

func http5xxHypotheses(f models.Features) []models.Hypothesis {
	confidence := 30
	if f.HTTP5xxRateP95 > 5 {
		confidence = 70
	} else if f.HTTP5xxRateP95 > 0 {
		confidence = 50
	}
	return []models.Hypothesis{{
		HypothesisID:     "http_5xx.error_rate_elevated",
		Label:            "http_5xx",
		Title:            "Service is returning an elevated 5xx rate",
		Confidence0To100: confidence,
		Why:              []string{fmt.Sprintf("p95 5xx rate %.2f req/s", f.HTTP5xxRateP95)},
		SupportingRefs:   []string{"features.http_5xx_rate_p95"},
		NextTests:        []string{"inspect upstream/downstream error correlation"},
	}}
}

func podNotHealthyHypotheses(f models.Features) []models.Hypothesis {
	confidence := 40
	why := []string{"pod is not reaching a healthy state"}
	if f.WaitingReason != "" {
		confidence = 60
		why = append(why, "waiting reason: "+f.WaitingReason)
	}
	return []models.Hypothesis{{
		HypothesisID:     "pod_not_healthy.startup_failure",
		Label:            "pod_not_healthy",
		Title:            "Pod failing to become healthy",
		Confidence0To100: confidence,
		Why:              why,
		SupportingRefs:   []string{"features.waiting_reason"},
		NextTests:        []string{"inspect image pull diagnostics", "check readiness probe"},
	}}
}

func jobFailedHypotheses(f models.Features) []models.Hypothesis {
	confidence := 45
	why := []string{"job completed with a failed status"}
	if f.LogsStatus == "fatal" || f.LogsStatus == "exception" {
		confidence = 70
		why = append(why, "job logs contain "+f.LogsStatus+" entries")
	}
	return []models.Hypothesis{{
		HypothesisID:     "job_failed.task_error",
		Label:            "job_failed",
		Title:            "Job task failed before completion",
		Confidence0To100: confidence,
		Why:              why,
		SupportingRefs:   []string{"features.logs_status"},
		NextTests:        []string{"check Job resource events", "validate AWS permissions if S3/IAM-related"},
	}}
}
