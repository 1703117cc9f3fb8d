package alertid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// canonicalHash SHA-256-hashes the canonical (stable-key-order, via Go's
// map-key-sorted json.Marshal) JSON encoding of v and returns the hex digest.
// Grounded on original_source/agent/core/dedup.py's hashlib.sha256(json...).
func canonicalHash(v any) string {
	// encoding/json sorts map keys deterministically, giving us canonical
	// JSON for plain maps without a bespoke encoder.
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("{}")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// IdentityKind is the dedupe-key identity kind preference order (spec.md §3).
type IdentityKind string

const (
	IdentityJob         IdentityKind = "job"
	IdentityPod         IdentityKind = "pod"
	IdentityService     IdentityKind = "service"
	IdentityFingerprint IdentityKind = "fingerprint"
)

// resolveIdentity picks the dedupe identity in job > pod > service >
// fingerprint preference order, honoring excluded-family rules.
func resolveIdentity(family string, labels map[string]string, fingerprint string) (IdentityKind, map[string]string) {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(labels[k]); v != "" {
				return v
			}
		}
		return ""
	}

	cluster := get("cluster")
	namespace := get("namespace", "kubernetes_namespace_name", "k8s_namespace", "kube_namespace")

	if family == string(familyJobFailed) {
		if jobName := get("job_name"); jobName != "" && namespace != "" {
			return IdentityJob, map[string]string{"cluster": cluster, "namespace": namespace, "job_name": jobName}
		}
	}

	excludesPod := PodIdentityExcludedFamilies[family]
	if !excludesPod {
		if pod := get("pod", "pod_name", "podName", "kubernetes_pod_name"); pod != "" && namespace != "" {
			return IdentityPod, map[string]string{"cluster": cluster, "namespace": namespace, "pod": pod}
		}
	}

	if service := get("service", "kubernetes_service_name"); service != "" {
		return IdentityService, map[string]string{"cluster": cluster, "service": service}
	}

	return IdentityFingerprint, map[string]string{"fingerprint": strings.TrimSpace(fingerprint)}
}

// DedupKey computes the stable dedup key described in spec.md §3: SHA-256 of
// canonical JSON {v, bucket_hours, bucket, alertname, family, kind, identity}.
func DedupKey(alertname, family string, labels map[string]string, fingerprint string, now time.Time, bucketHours int) string {
	if bucketHours <= 0 {
		bucketHours = 4
	}
	bucketStart, err := BucketStart(now, bucketHours)
	if err != nil {
		bucketStart = now.UTC()
	}
	kind, identity := resolveIdentity(family, labels, fingerprint)

	payload := map[string]any{
		"v":            1,
		"bucket_hours": bucketHours,
		"bucket":       BucketLabel(bucketStart),
		"alertname":    strings.TrimSpace(alertname),
		"family":       family,
		"kind":         string(kind),
		"identity":     identity,
	}
	return canonicalHash(payload)
}

// RolloutWorkloadKey computes the workload-scoped identity key used for
// rollout-noisy families (spec.md §3). Returns "" when workload identity is
// unavailable.
func RolloutWorkloadKey(alertname, family string, labels map[string]string) string {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(labels[k]); v != "" {
				return v
			}
		}
		return ""
	}
	cluster := get("cluster")
	namespace := get("namespace", "kubernetes_namespace_name", "k8s_namespace", "kube_namespace")
	workloadKind := get("workload_kind", "deployment_kind")
	workloadName := get("workload", "deployment", "deployment_name", "workload_name")

	if namespace == "" || workloadName == "" {
		return ""
	}

	payload := map[string]any{
		"v":             1,
		"scope":         "workload",
		"alertname":     strings.TrimSpace(alertname),
		"family":        family,
		"cluster":       cluster,
		"namespace":     namespace,
		"workload_kind": workloadKind,
		"workload_name": workloadName,
	}
	if alertname == "KubernetesContainerOomKiller" {
		if container := get("container"); container != "" {
			payload["container"] = container
		}
	}
	return canonicalHash(payload)
}

// QueueMsgID computes the message-queue dedupe id (spec.md §3). For
// rollout-noisy alerts whose workload identity resolves, it is
// SHA-256(workload_key + ":" + hour_bucket); otherwise it falls back to
// DedupKey (4h bucket). Message-queue dedupe is authoritative; the receiver
// additionally dedupes within a single payload.
//
// DESIGN.md decision #1: DedupKey is always computed independently here
// (not derived from or shared with the workload-key branch), so there is no
// unbound-variable hazard between the two schemes.
func QueueMsgID(alertname, family string, labels map[string]string, fingerprint string, now time.Time, bucketHours int) string {
	dedup := DedupKey(alertname, family, labels, fingerprint, now, bucketHours)

	if !RolloutNoisyAlertnames[alertname] {
		return dedup
	}
	workloadKey := RolloutWorkloadKey(alertname, family, labels)
	if workloadKey == "" {
		return dedup
	}
	hourBucket := HourBucketLabel(now)
	raw := workloadKey + ":" + hourBucket
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
