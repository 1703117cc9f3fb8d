package investigation

import (
	"github.com/tarkyaio/tarka/internal/models"
)

// CorrelateChange attaches a best-effort, read-only change-correlation
// sub-record: whether the workload's rollout status suggests a recent
// deploy coincided with the alert (spec.md §4.3 step 7). Never raises;
// returns an empty map when insufficient evidence is present.
func CorrelateChange(inv *models.Investigation) map[string]any {
	if inv.Evidence.K8s == nil || inv.Evidence.K8s.RolloutStatus == nil {
		return map[string]any{"correlated": false, "reason": "no_rollout_status"}
	}
	rollout := inv.Evidence.K8s.RolloutStatus
	updated, _ := rollout["updated_replicas"]
	ready, _ := rollout["ready_replicas"]

	correlated := false
	reason := "no_mismatch_detected"
	if updated != nil && ready != nil && updated != ready {
		correlated = true
		reason = "rollout_in_progress_at_alert_time"
	}

	return map[string]any{
		"correlated": correlated,
		"reason":     reason,
		"rollout":    rollout,
	}
}

// CapacityReport attaches a best-effort, read-only capacity sub-record
// summarizing resource headroom relevant to the alert's family (spec.md
// §4.3 step 7).
func CapacityReport(inv *models.Investigation) map[string]any {
	out := map[string]any{}
	if inv.Evidence.K8s == nil {
		return out
	}
	if cpu := inv.Evidence.K8s.CPUUsage; cpu != nil {
		out["cpu_near_limit"] = cpu.NearLimit
		if cpu.Limit != nil {
			out["cpu_limit"] = *cpu.Limit
		}
	}
	if mem := inv.Evidence.K8s.MemoryUsage; mem != nil {
		out["memory_near_limit"] = mem.NearLimit
		if mem.Limit != nil {
			out["memory_limit"] = *mem.Limit
		}
	}
	return out
}
