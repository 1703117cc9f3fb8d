package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/common/model"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/promclient"
)

// CPUThrottlingModule attaches throttling percent and period counters per
// (container,pod,namespace) on top of the pod baseline (spec.md §4.2
// cpu_throttling row).
type CPUThrottlingModule struct {
	Metrics *promclient.Registry
}

func (m *CPUThrottlingModule) Name() string { return "cpu_throttling" }

func (m *CPUThrottlingModule) Applies(family string) bool { return family == "cpu_throttling" }

func (m *CPUThrottlingModule) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Evidence.Metrics != nil && inv.Evidence.Metrics.ThrottlePercent != nil {
		return
	}
	prom, err := m.Metrics.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(m.Name(), err)
		return
	}

	selector := podScopedSelector(inv.Target)
	percentQuery := fmt.Sprintf(
		`rate(container_cpu_cfs_throttled_periods_total%s[5m]) / rate(container_cpu_cfs_periods_total%s[5m]) * 100`,
		selector, selector,
	)
	periodsQuery := fmt.Sprintf(`rate(container_cpu_cfs_throttled_periods_total%s[5m])`, selector)

	percentVec, err := prom.Instant(ctx, percentQuery, time.Now())
	if err != nil {
		inv.AddError(m.Name()+".percent", err)
	}
	periodsVec, err := prom.Instant(ctx, periodsQuery, time.Now())
	if err != nil {
		inv.AddError(m.Name()+".periods", err)
	}

	me := inv.Evidence.Metrics
	if me == nil {
		me = &models.MetricsEvidence{}
	}
	me.ThrottlePercent = vectorToSeriesMap(percentVec)
	me.ThrottlePeriods = vectorToSeriesMap(periodsVec)
	inv.Evidence.Metrics = me
}

func (m *CPUThrottlingModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return cpuThrottlingHypotheses(inv.Analysis.Features)
}

func podScopedSelector(t models.Target) string {
	matchers := ""
	add := func(label, value string) {
		if value == "" {
			return
		}
		if matchers != "" {
			matchers += ","
		}
		matchers += fmt.Sprintf("%s=%q", label, value)
	}
	add("namespace", t.Namespace)
	add("pod", t.Pod)
	add("container", t.Container)
	if matchers == "" {
		return ""
	}
	return "{" + matchers + "}"
}

// vectorToSeriesMap reduces a PromQL instant vector to a flat map keyed by
// "container/pod/namespace", matching spec.md §4.2's "per (container,pod,
// namespace)" grouping.
func vectorToSeriesMap(vec model.Vector) map[string]float64 {
	if len(vec) == 0 {
		return nil
	}
	out := make(map[string]float64, len(vec))
	for _, sample := range vec {
		key := fmt.Sprintf("%s/%s/%s", sample.Metric["container"], sample.Metric["pod"], sample.Metric["namespace"])
		out[key] = float64(sample.Value)
	}
	return out
}
