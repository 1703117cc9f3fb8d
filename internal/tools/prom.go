package tools

import (
	"context"
	"time"

	"github.com/tarkyaio/tarka/internal/promclient"
)

// RegisterProm wires promql.instant against the shared promclient.Registry
// used by C2's metrics-backed collectors (spec.md §4.7).
func RegisterProm(r *Registry, metrics *promclient.Registry) {
	r.Register("promql.instant", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		query, ok := ArgString(args, "query")
		if !ok || query == "" {
			return Result{OK: false, Error: "time_window_required"}
		}
		cli, err := metrics.Get(inv.Cluster)
		if err != nil {
			return errResult(err)
		}
		vec, err := cli.Instant(ctx, query, time.Now())
		if err != nil {
			return errResult(err)
		}
		if len(vec) == 0 {
			return Result{OK: true, Result: nil}
		}
		samples := make([]map[string]any, 0, len(vec))
		for _, s := range vec {
			labels := make(map[string]string, len(s.Metric))
			for k, v := range s.Metric {
				labels[string(k)] = string(v)
			}
			samples = append(samples, map[string]any{
				"labels": labels,
				"value":  float64(s.Value),
			})
		}
		return Result{OK: true, Result: samples}
	})
}
