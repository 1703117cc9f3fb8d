package investigation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/tarkyaio/tarka/internal/alertid"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/k8sclient"
)

// TestPipeline_Crashloop_EndToEnd exercises the full C3 pipeline against a
// fake Kubernetes backend: PodBaseline + CrashloopModule collect real
// evidence from a seeded crashlooping pod, and the pipeline scores it into
// an actionable-or-informational verdict.
func TestPipeline_Crashloop_EndToEnd(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "checkout-7b9f-abcde", Namespace: "payments"},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{
				Name:         "app",
				RestartCount: 6,
				LastTerminationState: corev1.ContainerState{
					Terminated: &corev1.ContainerStateTerminated{
						Reason:     "Error",
						ExitCode:   1,
						StartedAt:  metav1.NewTime(time.Now().Add(-time.Minute)),
						FinishedAt: metav1.NewTime(time.Now()),
					},
				},
			}},
		},
	}
	clientset := fake.NewSimpleClientset(pod)
	cli := k8sclient.NewForTest(clientset)
	clusters := k8sclient.NewRegistryForTest(cli, "default")

	collectors := evidence.NewRegistry()
	collectors.Register(&evidence.PodBaseline{Clusters: clusters})
	collectors.Register(&evidence.CrashloopModule{Clusters: clusters})

	p := NewPipeline(collectors)

	raw := alertid.RawAlert{
		Status: "firing",
		Labels: map[string]string{
			"alertname": "KubePodCrashLooping",
			"namespace": "payments",
			"pod":       "checkout-7b9f-abcde",
		},
		StartsAt: time.Now().Add(-10 * time.Minute),
	}

	inv := p.Run(context.Background(), RawInvestigationInput{Raw: raw, Window: time.Hour, Now: time.Now()})

	require.NotNil(t, inv)
	assert.Equal(t, "crashloop", inv.Target.Playbook)
	require.NotNil(t, inv.Evidence.K8s)
	assert.NotNil(t, inv.Evidence.K8s.PodInfo)
	assert.NotEmpty(t, inv.Analysis.Hypotheses)
	assert.NotEmpty(t, inv.Analysis.Verdict.OneLiner)
	assert.Equal(t, inv.Analysis.Verdict.Classification, inv.Analysis.Scores.Classification)
}

func TestPipeline_UnknownFamily_StillProducesVerdict(t *testing.T) {
	collectors := evidence.NewRegistry()
	p := NewPipeline(collectors)

	raw := alertid.RawAlert{
		Status:   "firing",
		Labels:   map[string]string{"alertname": "SomeUnmappedAlert"},
		StartsAt: time.Now().Add(-time.Minute),
	}

	inv := p.Run(context.Background(), RawInvestigationInput{Raw: raw, Window: time.Hour, Now: time.Now()})

	require.NotNil(t, inv)
	assert.NotEmpty(t, inv.Analysis.Verdict.Classification)
}
