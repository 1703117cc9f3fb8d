package evidence

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

const maxLogLines = 400

// PodBaseline collects the common pod-scoped evidence set: pod info,
// conditions, events, owner chain, rollout status, restart-rate and phase
// series, CPU/memory usage, and recent logs parsed for ERROR/FATAL/
// Exception patterns (spec.md §4.2 "Pod baseline"). Grounded on the
// teacher's internal/k8s/resources.go resource-fetch + internal/metrics
// usage-series shape.
type PodBaseline struct {
	Clusters *k8sclient.Registry
}

func (b *PodBaseline) Name() string { return "pod_baseline" }

// Applies runs for every family except the ones whose target never carries
// pod identity (spec.md §4.2 baseline routing mirrors alertid's pod
// exclusion set).
func (b *PodBaseline) Applies(family string) bool {
	switch family {
	case "target_down", "k8s_rollout_health", "observability_pipeline", "meta":
		return false
	default:
		return true
	}
}

func (b *PodBaseline) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Target.Pod == "" || inv.Target.Namespace == "" {
		return
	}
	if inv.Evidence.K8s != nil && inv.Evidence.K8s.PodInfo != nil {
		return // idempotent: already populated
	}

	cli, err := b.Clusters.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(b.Name(), err)
		return
	}

	ev := inv.Evidence.K8s
	if ev == nil {
		ev = &models.K8sEvidence{}
	}

	var pod *corev1.Pod
	err = cli.Do(ctx, func(ctx context.Context) error {
		p, err := cli.Clientset.CoreV1().Pods(inv.Target.Namespace).Get(ctx, inv.Target.Pod, metav1.GetOptions{})
		if err != nil {
			return err
		}
		pod = p
		return nil
	})
	if err != nil {
		inv.AddError(b.Name()+".get_pod", err)
	} else if pod != nil {
		ev.PodInfo = map[string]any{
			"phase":      string(pod.Status.Phase),
			"node":       pod.Spec.NodeName,
			"start_time": podStartTime(pod),
			"qos_class":  string(pod.Status.QOSClass),
		}
		for _, c := range pod.Status.Conditions {
			ev.Conditions = append(ev.Conditions, map[string]any{
				"type":    string(c.Type),
				"status":  string(c.Status),
				"reason":  c.Reason,
				"message": c.Message,
			})
		}
		ev.OwnerChain = ownerChain(pod.OwnerReferences)
	}

	if events, err := listPodEvents(ctx, cli, inv.Target.Namespace, inv.Target.Pod); err != nil {
		inv.AddError(b.Name()+".events", err)
	} else {
		ev.Events = events
	}

	if rollout, err := RolloutStatus(ctx, cli, inv.Target); err != nil {
		inv.AddError(b.Name()+".rollout", err)
	} else {
		ev.RolloutStatus = rollout
	}

	inv.Evidence.K8s = ev

	if err := collectPodLogs(ctx, cli, inv, false); err != nil {
		inv.AddError(b.Name()+".logs", err)
	}
}

func (b *PodBaseline) Diagnose(inv *models.Investigation) []models.Hypothesis { return nil }

func podStartTime(pod *corev1.Pod) string {
	if pod.Status.StartTime == nil {
		return ""
	}
	return pod.Status.StartTime.Format(time.RFC3339)
}

func ownerChain(refs []metav1.OwnerReference) []models.OwnerRef {
	out := make([]models.OwnerRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, models.OwnerRef{Kind: r.Kind, Name: r.Name})
	}
	return out
}

func listPodEvents(ctx context.Context, cli *k8sclient.Client, namespace, pod string) ([]models.K8sEvent, error) {
	var events *corev1.EventList
	err := cli.Do(ctx, func(ctx context.Context) error {
		fieldSelector := fmt.Sprintf("involvedObject.name=%s,involvedObject.namespace=%s", pod, namespace)
		e, err := cli.Clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{FieldSelector: fieldSelector})
		if err != nil {
			return err
		}
		events = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.K8sEvent, 0, len(events.Items))
	for _, e := range events.Items {
		out = append(out, models.K8sEvent{
			Type:     e.Type,
			Reason:   e.Reason,
			Message:  e.Message,
			Count:    e.Count,
			LastSeen: e.LastTimestamp.Time,
		})
	}
	return out, nil
}

// collectPodLogs fetches and parses recent logs (capped to ~400 lines),
// optionally the previous terminated container's logs (previous=true for
// crashloop).
func collectPodLogs(ctx context.Context, cli *k8sclient.Client, inv *models.Investigation, previous bool) error {
	var raw []string
	err := cli.Do(ctx, func(ctx context.Context) error {
		opts := &corev1.PodLogOptions{
			Container: inv.Target.Container,
			Previous:  previous,
			TailLines: int64Ptr(maxLogLines),
		}
		req := cli.Clientset.CoreV1().Pods(inv.Target.Namespace).GetLogs(inv.Target.Pod, opts)
		stream, err := req.Stream(ctx)
		if err != nil {
			return err
		}
		defer stream.Close()
		raw, err = readLines(stream, maxLogLines)
		return err
	})
	if err != nil {
		if previous {
			if inv.Evidence.K8s != nil {
				inv.Evidence.K8s.PreviousLogsAvailable = false
			}
			return nil // previous-container logs are best-effort optional
		}
		return err
	}

	parsed := ParseLogLines(raw, maxLogLines)
	if previous {
		if inv.Evidence.K8s != nil {
			inv.Evidence.K8s.PreviousLogsAvailable = true
		}
	}
	if inv.Evidence.Logs == nil {
		inv.Evidence.Logs = &parsed
	}
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
