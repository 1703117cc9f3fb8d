package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/promclient"
)

// NonPodBaseline handles alerts whose target never resolves to a pod
// (target_down, k8s_rollout_health, observability_pipeline, meta): it
// infers workload identity from labels, fetches rollout status, and on
// failure falls back to a kube-state-metrics-derived up/down skeleton via
// instant PromQL over {job,instance,service,namespace} (spec.md §4.2
// "Non-pod baseline").
type NonPodBaseline struct {
	Clusters *k8sclient.Registry
	Metrics  *promclient.Registry
}

func (b *NonPodBaseline) Name() string { return "non_pod_baseline" }

func (b *NonPodBaseline) Applies(family string) bool {
	switch family {
	case "target_down", "k8s_rollout_health", "observability_pipeline", "meta":
		return true
	default:
		return false
	}
}

func (b *NonPodBaseline) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Evidence.K8s != nil && inv.Evidence.K8s.RolloutStatus != nil {
		return // idempotent
	}

	cli, err := b.Clusters.Get(inv.Target.Cluster)
	if err == nil && inv.Target.WorkloadName != "" {
		if rollout, rerr := RolloutStatus(ctx, cli, inv.Target); rerr == nil && rollout != nil {
			ev := inv.Evidence.K8s
			if ev == nil {
				ev = &models.K8sEvidence{}
			}
			ev.RolloutStatus = rollout
			inv.Evidence.K8s = ev
			return
		} else if rerr != nil {
			inv.AddError(b.Name()+".rollout", rerr)
		}
	} else if err != nil {
		inv.AddError(b.Name()+".cluster", err)
	}

	// Fall back to a kube-state-metrics-derived up/down skeleton.
	skeleton, serr := b.upDownSkeleton(ctx, inv)
	if serr != nil {
		inv.AddError(b.Name()+".up_down_skeleton", serr)
		return
	}
	m := inv.Evidence.Metrics
	if m == nil {
		m = &models.MetricsEvidence{}
	}
	m.UpDownSkeleton = skeleton
	inv.Evidence.Metrics = m
}

func (b *NonPodBaseline) Diagnose(inv *models.Investigation) []models.Hypothesis { return nil }

func (b *NonPodBaseline) upDownSkeleton(ctx context.Context, inv *models.Investigation) (map[string]bool, error) {
	prom, err := b.Metrics.Get(inv.Target.Cluster)
	if err != nil {
		return nil, err
	}

	query := upQuery(inv.Target)
	vec, err := prom.Instant(ctx, query, time.Now())
	if err != nil {
		return nil, err
	}

	out := map[string]bool{}
	for _, sample := range vec {
		key := fmt.Sprintf("%s/%s", sample.Metric["job"], sample.Metric["instance"])
		out[key] = sample.Value == 1
	}
	return out, nil
}

func upQuery(t models.Target) string {
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
	add("job", t.Job)
	add("instance", t.Instance)
	add("service", t.Service)
	add("namespace", t.Namespace)
	if matchers == "" {
		return "up"
	}
	return fmt.Sprintf("up{%s}", matchers)
}
