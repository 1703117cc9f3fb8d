package investigation

import (
	"sort"

	"github.com/tarkyaio/tarka/internal/models"
)

// nearLimitThreshold is the usage/limit ratio above which a resource is
// considered "near limit" (spec.md §4.3 feature extraction).
const nearLimitThreshold = 0.85

// ExtractFeatures folds raw Evidence into the compact Features record
// consumed by hypothesis generation and scoring (spec.md §4.3 step 4).
func ExtractFeatures(inv *models.Investigation) models.Features {
	f := models.Features{}
	ev := inv.Evidence

	if ev.K8s != nil {
		if ev.K8s.PodInfo != nil {
			if phase, ok := ev.K8s.PodInfo["phase"].(string); ok && phase == "Pending" {
				f.WaitingReason = waitingReasonFromConditions(ev.K8s.Conditions)
			}
		}
		f.RestartRateMax = maxRate(ev.K8s.RestartSeries)
		f.CPUNearLimit = resourceNearLimit(ev.K8s.CPUUsage)
		f.MemoryNearLimit = resourceNearLimit(ev.K8s.MemoryUsage)
	}

	if ev.Metrics != nil {
		f.CPUThrottleP95 = p95(mapValues(ev.Metrics.ThrottlePercent))
		f.HTTP5xxRateP95 = p95(pointValues(ev.Metrics.HTTP5xxRate))
		f.OOMFlag = ev.Metrics.OOMHint != ""
	}

	if ev.Logs != nil {
		f.LogsStatus = logsStatus(ev.Logs)
	}

	f.Quality = assessQuality(inv)
	return f
}

func waitingReasonFromConditions(conditions []map[string]any) string {
	for _, c := range conditions {
		if reason, ok := c["reason"].(string); ok && reason != "" {
			return reason
		}
	}
	return ""
}

func maxRate(series []models.TimeseriesPoint) float64 {
	var max float64
	for _, p := range series {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}

func resourceNearLimit(rs *models.ResourceSeries) bool {
	if rs == nil {
		return false
	}
	if rs.NearLimit {
		return true
	}
	if rs.Limit == nil || *rs.Limit == 0 {
		return false
	}
	for _, p := range rs.Usage {
		if p.Value/(*rs.Limit) >= nearLimitThreshold {
			return true
		}
	}
	return false
}

func mapValues(m map[string]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func pointValues(points []models.TimeseriesPoint) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Value)
	}
	return out
}

// p95 computes the 95th percentile via nearest-rank over a copy of values.
func p95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted))*0.95 + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func logsStatus(logs *models.LogsEvidence) string {
	switch {
	case logs.PatternCounts["FATAL|CRITICAL"] > 0:
		return "fatal"
	case logs.PatternCounts["Exception|Traceback|panic"] > 0:
		return "exception"
	case logs.PatternCounts["ERROR"] > 0:
		return "error"
	case len(logs.Lines) == 0:
		return "unavailable"
	default:
		return "clean"
	}
}

// assessQuality derives the evidence-quality tier, missing inputs, and
// contradiction flags used to gate RCA confidence (spec.md §4.3 "quality").
func assessQuality(inv *models.Investigation) models.Quality {
	var missing []string
	var contradictions []string

	if inv.Evidence.K8s == nil {
		missing = append(missing, "k8s")
	}
	if inv.Evidence.Logs == nil || len(inv.Evidence.Logs.Lines) == 0 {
		missing = append(missing, "logs")
	}
	if inv.Evidence.Metrics == nil {
		missing = append(missing, "metrics")
	}

	if inv.Evidence.K8s != nil && inv.Evidence.K8s.PodInfo != nil {
		if phase, ok := inv.Evidence.K8s.PodInfo["phase"].(string); ok && phase == "Running" {
			if inv.Evidence.Logs != nil && inv.Evidence.Logs.PatternCounts["FATAL|CRITICAL"] > 0 {
				contradictions = append(contradictions, "pod_running_with_fatal_logs")
			}
		}
	}

	quality := "high"
	switch {
	case len(missing) >= 2:
		quality = "low"
	case len(missing) == 1 || len(contradictions) > 0:
		quality = "medium"
	}

	return models.Quality{
		EvidenceQuality:    quality,
		MissingInputs:      missing,
		ContradictionFlags: contradictions,
	}
}
