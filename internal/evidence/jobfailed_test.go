package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

func newJobFailedInvestigation(namespace, jobName string) *models.Investigation {
	target := models.Target{Cluster: "default", Namespace: namespace, WorkloadName: jobName}
	return models.NewInvestigation(models.Alert{}, target, models.TimeWindow{})
}

// TestJobFailedModule_ZeroPodsAndEmptyFallback_SetsBlockedMode covers spec.md
// §8 S5: a KubeJobFailed alert whose pods have already been TTL-deleted and
// whose historical fallback also finds nothing must set
// Investigation.Meta["blocked_mode"]="job_pods_not_found" (spec.md §3
// Investigation.meta, §4.2 job_failed row).
func TestJobFailedModule_ZeroPodsAndEmptyFallback_SetsBlockedMode(t *testing.T) {
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-etl", Namespace: "jobs"},
		Status:     batchv1.JobStatus{StartTime: &metav1.Time{Time: time.Now().Add(-time.Hour)}},
	}
	deadlineEvent := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-etl.deadline", Namespace: "jobs"},
		Reason:     "DeadlineExceeded",
		Message:    "Job was active longer than specified deadline",
		Type:       "Warning",
	}
	clientset := fake.NewSimpleClientset(job, deadlineEvent)
	clusters := k8sclient.NewRegistryForTest(k8sclient.NewForTest(clientset), "default")

	m := &JobFailedModule{Clusters: clusters}
	inv := newJobFailedInvestigation("jobs", "batch-etl")

	m.Collect(context.Background(), inv)

	require.NotNil(t, inv.Evidence.K8s)
	require.NotNil(t, inv.Evidence.K8s.JobPodsFound)
	assert.False(t, *inv.Evidence.K8s.JobPodsFound)
	assert.NotEmpty(t, inv.Evidence.K8s.JobEvents, "Job events must always be collected even when pods are missing")
	assert.Equal(t, true, inv.Meta["job_failed_historical_fallback"])
	assert.Equal(t, "job_pods_not_found", inv.Meta["blocked_mode"])
}

// TestJobFailedModule_HistoricalFallbackRecoversPod_NoBlockedMode covers the
// other half of S5: when the job's SuccessfulCreate events name a pod that
// still exists (not yet garbage-collected), the historical fallback recovers
// its logs/events and blocked_mode must NOT be set.
func TestJobFailedModule_HistoricalFallbackRecoversPod_NoBlockedMode(t *testing.T) {
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-etl", Namespace: "jobs"},
		Status:     batchv1.JobStatus{StartTime: &metav1.Time{Time: time.Now().Add(-time.Hour)}},
	}
	// No job-name label: excluded from the live label-selector pod listing,
	// simulating a pod that's aged out of the Job's live selector view but
	// hasn't been deleted yet.
	survivingPod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-etl-7x2kq", Namespace: "jobs"},
		Status:     corev1.PodStatus{Phase: corev1.PodSucceeded},
	}
	createdEvent := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-etl.created", Namespace: "jobs"},
		Reason:     "SuccessfulCreate",
		Message:    "Created pod: batch-etl-7x2kq",
		Type:       "Normal",
	}
	clientset := fake.NewSimpleClientset(job, survivingPod, createdEvent)
	clusters := k8sclient.NewRegistryForTest(k8sclient.NewForTest(clientset), "default")

	m := &JobFailedModule{Clusters: clusters}
	inv := newJobFailedInvestigation("jobs", "batch-etl")

	m.Collect(context.Background(), inv)

	require.NotNil(t, inv.Evidence.K8s)
	require.NotNil(t, inv.Evidence.K8s.JobPodsFound)
	assert.False(t, *inv.Evidence.K8s.JobPodsFound, "live label-selector listing must not have found the pod")
	assert.Equal(t, "batch-etl-7x2kq", inv.Target.Pod, "fallback must adopt the recovered historical pod as target")
	_, blocked := inv.Meta["blocked_mode"]
	assert.False(t, blocked, "recovering historical evidence must clear the blocked_mode path")
}

func TestHistoricalPodNames_ExtractsOnlySuccessfulCreateMessages(t *testing.T) {
	events := []models.K8sEvent{
		{Reason: "SuccessfulCreate", Message: "Created pod: batch-etl-aaa11"},
		{Reason: "DeadlineExceeded", Message: "Created pod: batch-etl-bbb22"},
		{Reason: "SuccessfulCreate", Message: "Created pod: batch-etl-ccc33"},
	}
	names := historicalPodNames(events)
	assert.Equal(t, []string{"batch-etl-aaa11", "batch-etl-ccc33"}, names)
}
