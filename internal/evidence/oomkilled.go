package evidence

import (
	"context"
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// OOMKilledModule extracts an OOM hint from the alert's labels/annotations
// on top of the pod baseline (spec.md §4.2 oom_killed row).
type OOMKilledModule struct{}

func (m *OOMKilledModule) Name() string { return "oom_killed" }

func (m *OOMKilledModule) Applies(family string) bool { return family == "oom_killed" }

func (m *OOMKilledModule) Collect(ctx context.Context, inv *models.Investigation) {
	hint := oomHintFrom(inv.Alert.Labels)
	if hint == "" {
		hint = oomHintFrom(inv.Alert.Annotations)
	}
	if hint == "" {
		return
	}
	me := inv.Evidence.Metrics
	if me == nil {
		me = &models.MetricsEvidence{}
	}
	if me.OOMHint == "" {
		me.OOMHint = hint
	}
	inv.Evidence.Metrics = me
}

func (m *OOMKilledModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return oomHypotheses(inv.Analysis.Features)
}

func oomHintFrom(kv map[string]string) string {
	for _, key := range []string{"reason", "oom_reason", "description", "summary", "message"} {
		v, ok := kv[key]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(v), "oom") {
			return v
		}
	}
	return ""
}

// MemoryPressureModule is pod-baseline-only (spec.md §4.2 memory_pressure
// row); it exists so the module registry has an explicit, discoverable
// entry for the family even though it adds no extra evidence.
type MemoryPressureModule struct{}

func (m *MemoryPressureModule) Name() string { return "memory_pressure" }

func (m *MemoryPressureModule) Applies(family string) bool { return family == "memory_pressure" }

func (m *MemoryPressureModule) Collect(ctx context.Context, inv *models.Investigation) {}

func (m *MemoryPressureModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return memoryPressureHypotheses(inv.Analysis.Features)
}
