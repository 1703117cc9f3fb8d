package alertid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey_StableUnderFingerprintChurn(t *testing.T) {
	labels := map[string]string{
		"cluster":   "prod-1",
		"namespace": "payments",
		"pod":       "checkout-7b9f-abcde",
	}
	now := time.Date(2026, 7, 31, 10, 15, 0, 0, time.UTC)

	k1 := DedupKey("KubePodCrashLooping", string(familyCrashloop), labels, "fp-aaa", now, 4)
	k2 := DedupKey("KubePodCrashLooping", string(familyCrashloop), labels, "fp-bbb", now, 4)

	assert.Equal(t, k1, k2, "pod identity must dominate fingerprint, so a changed fingerprint must not change the dedup key")
}

func TestDedupKey_DifferentIdentity_DifferentKey(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	labelsA := map[string]string{"cluster": "prod-1", "namespace": "payments", "pod": "checkout-1"}
	labelsB := map[string]string{"cluster": "prod-1", "namespace": "payments", "pod": "checkout-2"}

	kA := DedupKey("KubePodCrashLooping", string(familyCrashloop), labelsA, "fp", now, 4)
	kB := DedupKey("KubePodCrashLooping", string(familyCrashloop), labelsB, "fp", now, 4)

	assert.NotEqual(t, kA, kB)
}

func TestDedupKey_BucketBoundary(t *testing.T) {
	labels := map[string]string{"cluster": "c", "namespace": "ns", "pod": "p"}

	withinBucket := time.Date(2026, 7, 31, 8, 59, 59, 0, time.UTC)
	sameBucketEarlier := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	nextBucket := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	k1 := DedupKey("X", string(familyGeneric), labels, "fp", withinBucket, 4)
	k2 := DedupKey("X", string(familyGeneric), labels, "fp", sameBucketEarlier, 4)
	k3 := DedupKey("X", string(familyGeneric), labels, "fp", nextBucket, 4)

	assert.Equal(t, k1, k2, "08:59:59 and 08:00:00 fall in the same 4h bucket [08:00,12:00)")
	assert.NotEqual(t, k1, k3, "12:00:00 starts the next 4h bucket")
}

func TestDedupKey_JobFailedUsesJobNameNotJobLabel(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	labels := map[string]string{
		"cluster":   "c",
		"namespace": "batch",
		"job":       "kube-state-metrics",
		"job_name":  "nightly-export-28371",
	}
	k := DedupKey("KubeJobFailed", string(familyJobFailed), labels, "fp", now, 4)

	changedScrapeJob := map[string]string{
		"cluster":   "c",
		"namespace": "batch",
		"job":       "different-scraper",
		"job_name":  "nightly-export-28371",
	}
	k2 := DedupKey("KubeJobFailed", string(familyJobFailed), changedScrapeJob, "fp", now, 4)

	assert.Equal(t, k, k2, "job_failed identity keys on job_name, not the scrape `job` label")
}

func TestDedupKey_ExcludedFamilyIgnoresPodLabel(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	labels1 := map[string]string{"cluster": "c", "namespace": "ns", "pod": "exporter-aaaa", "service": "blackbox-exporter"}
	labels2 := map[string]string{"cluster": "c", "namespace": "ns", "pod": "exporter-bbbb", "service": "blackbox-exporter"}

	k1 := DedupKey("TargetDown", string(familyTargetDown), labels1, "fp", now, 4)
	k2 := DedupKey("TargetDown", string(familyTargetDown), labels2, "fp", now, 4)

	assert.Equal(t, k1, k2, "target_down must key on service, not the churning pod label")
}

func TestRolloutWorkloadKey_RequiresWorkloadIdentity(t *testing.T) {
	key := RolloutWorkloadKey("KubernetesPodNotHealthy", string(familyPodNotHealthy), map[string]string{
		"namespace": "payments",
	})
	assert.Equal(t, "", key, "missing workload name must yield an empty key")

	key2 := RolloutWorkloadKey("KubernetesPodNotHealthy", string(familyPodNotHealthy), map[string]string{
		"namespace": "payments",
		"workload":  "checkout",
	})
	require.NotEmpty(t, key2)
}

func TestRolloutWorkloadKey_ContainerScopedForOOMKiller(t *testing.T) {
	base := map[string]string{"namespace": "ns", "workload": "checkout"}
	withContainerA := map[string]string{"namespace": "ns", "workload": "checkout", "container": "app"}
	withContainerB := map[string]string{"namespace": "ns", "workload": "checkout", "container": "sidecar"}

	kBase := RolloutWorkloadKey("KubernetesContainerOomKiller", string(familyOOMKilled), base)
	kA := RolloutWorkloadKey("KubernetesContainerOomKiller", string(familyOOMKilled), withContainerA)
	kB := RolloutWorkloadKey("KubernetesContainerOomKiller", string(familyOOMKilled), withContainerB)

	assert.NotEqual(t, kBase, kA)
	assert.NotEqual(t, kA, kB, "different containers on the same workload must not collapse to one key")
}

func TestQueueMsgID_RolloutNoisyCollapsesAcrossPods(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)
	laterSameHour := time.Date(2026, 7, 31, 9, 50, 0, 0, time.UTC)

	labelsPodA := map[string]string{"namespace": "payments", "workload": "checkout", "pod": "checkout-aaaa"}
	labelsPodB := map[string]string{"namespace": "payments", "workload": "checkout", "pod": "checkout-bbbb"}

	idA := QueueMsgID("KubernetesPodNotHealthy", string(familyPodNotHealthy), labelsPodA, "fp-a", now, 4)
	idB := QueueMsgID("KubernetesPodNotHealthy", string(familyPodNotHealthy), labelsPodB, "fp-b", laterSameHour, 4)

	assert.Equal(t, idA, idB, "rollout-noisy alerts across different pods in the same workload+hour must collapse to one queue message id")
}

func TestQueueMsgID_FallsBackToDedupKeyWithoutWorkloadIdentity(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)
	labels := map[string]string{"namespace": "payments", "pod": "checkout-aaaa"}

	dedup := DedupKey("KubernetesPodNotHealthy", string(familyPodNotHealthy), labels, "fp", now, 4)
	queueID := QueueMsgID("KubernetesPodNotHealthy", string(familyPodNotHealthy), labels, "fp", now, 4)

	assert.Equal(t, dedup, queueID, "without resolvable workload identity, queue msg id must fall back to the dedup key")
}

func TestQueueMsgID_NonRolloutAlertUsesDedupKey(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)
	labels := map[string]string{"namespace": "payments", "pod": "checkout-aaaa"}

	dedup := DedupKey("KubePodCrashLooping", string(familyCrashloop), labels, "fp", now, 4)
	queueID := QueueMsgID("KubePodCrashLooping", string(familyCrashloop), labels, "fp", now, 4)

	assert.Equal(t, dedup, queueID)
}
