package evidence

import (
	"context"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

// CrashloopModule attaches previous-container logs, probe-failure
// classification, and crash duration on top of the pod baseline (spec.md
// §4.2 crashloop row).
type CrashloopModule struct {
	Clusters *k8sclient.Registry
}

func (m *CrashloopModule) Name() string { return "crashloop" }

func (m *CrashloopModule) Applies(family string) bool { return family == "crashloop" }

func (m *CrashloopModule) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Target.Pod == "" || inv.Target.Namespace == "" {
		return
	}
	cli, err := m.Clusters.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(m.Name(), err)
		return
	}

	if err := collectPodLogs(ctx, cli, inv, true); err != nil {
		inv.AddError(m.Name()+".previous_logs", err)
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
		inv.AddError(m.Name()+".get_pod", err)
		return
	}

	ev := inv.Evidence.K8s
	if ev == nil {
		ev = &models.K8sEvidence{}
	}

	for _, cs := range pod.Status.ContainerStatuses {
		if inv.Target.Container != "" && cs.Name != inv.Target.Container {
			continue
		}
		if cs.LastTerminationState.Terminated != nil {
			t := cs.LastTerminationState.Terminated
			if !t.StartedAt.IsZero() && !t.FinishedAt.IsZero() {
				d := t.FinishedAt.Sub(t.StartedAt.Time)
				ev.CrashDuration = &d
			}
		}
	}

	if probe := classifyProbeFailure(ev.Events); probe != "" {
		ev.ProbeFailure = probe
	}

	inv.Evidence.K8s = ev
}

func (m *CrashloopModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return crashloopHypotheses(inv.Analysis.Features)
}

// classifyProbeFailure inspects pod events for liveness/readiness probe
// failures, preferring liveness (spec.md: "probe-failure classification
// (liveness > readiness) from events").
func classifyProbeFailure(events []models.K8sEvent) string {
	sawReadiness := false
	for _, e := range events {
		lower := strings.ToLower(e.Reason + " " + e.Message)
		if strings.Contains(lower, "liveness") && strings.Contains(lower, "fail") {
			return "liveness"
		}
		if strings.Contains(lower, "readiness") && strings.Contains(lower, "fail") {
			sawReadiness = true
		}
	}
	if sawReadiness {
		return "readiness"
	}
	return ""
}
