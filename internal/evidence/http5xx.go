package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/promclient"
)

// http5xxCandidateSeries are common series names for a 5xx rate, tried in
// order until one returns nonempty data (spec.md §4.2 http_5xx row: "picks
// the first candidate returning nonempty data").
var http5xxCandidateSeries = []string{
	`sum(rate(http_requests_total{status=~"5..",%s}[5m]))`,
	`sum(rate(http_server_requests_seconds_count{status=~"5..",%s}[5m]))`,
	`sum(rate(nginx_ingress_controller_requests{status=~"5..",%s}[5m]))`,
	`sum(rate(istio_requests_total{response_code=~"5..",%s}[5m]))`,
}

// HTTP5xxModule runs a best-effort rate query over a set of common series
// names for the target's service (spec.md §4.2 http_5xx row).
type HTTP5xxModule struct {
	Metrics *promclient.Registry
}

func (m *HTTP5xxModule) Name() string { return "http_5xx" }

func (m *HTTP5xxModule) Applies(family string) bool { return family == "http_5xx" }

func (m *HTTP5xxModule) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Evidence.Metrics != nil && len(inv.Evidence.Metrics.HTTP5xxRate) > 0 {
		return
	}
	prom, err := m.Metrics.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(m.Name(), err)
		return
	}

	selector := httpServiceSelector(inv.Target)
	now := time.Now()

	for _, tmpl := range http5xxCandidateSeries {
		query := fmt.Sprintf(tmpl, selector)
		vec, err := prom.Instant(ctx, query, now)
		if err != nil {
			inv.AddError(m.Name(), err)
			continue
		}
		if len(vec) == 0 {
			continue
		}
		me := inv.Evidence.Metrics
		if me == nil {
			me = &models.MetricsEvidence{}
		}
		for _, sample := range vec {
			me.HTTP5xxRate = append(me.HTTP5xxRate, models.TimeseriesPoint{
				Timestamp: sample.Timestamp.Time(),
				Value:     float64(sample.Value),
			})
		}
		me.HTTP5xxSeriesUsed = query
		inv.Evidence.Metrics = me
		return
	}
}

func (m *HTTP5xxModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return http5xxHypotheses(inv.Analysis.Features)
}

func httpServiceSelector(t models.Target) string {
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
	add("service", t.Service)
	return matchers
}
