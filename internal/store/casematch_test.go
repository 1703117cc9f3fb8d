package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseKey_StableAcrossGeneratedJobNames(t *testing.T) {
	a := CaseKey("job_failed", IdentityFields{
		Cluster: "c1", Namespace: "ns", WorkloadKind: "job", WorkloadName: "batch-etl-1700000000-abcde",
	})
	b := CaseKey("job_failed", IdentityFields{
		Cluster: "c1", Namespace: "ns", WorkloadKind: "job", WorkloadName: "batch-etl-1800000000-zyxwv",
	})
	assert.Equal(t, a, b, "generated Job name suffixes must collapse to the same case identity")
}

func TestCaseKey_DifferentWorkloadsDiffer(t *testing.T) {
	a := CaseKey("crashloop", IdentityFields{Cluster: "c1", Namespace: "ns", WorkloadKind: "deployment", WorkloadName: "api"})
	b := CaseKey("crashloop", IdentityFields{Cluster: "c1", Namespace: "ns", WorkloadKind: "deployment", WorkloadName: "worker"})
	assert.NotEqual(t, a, b)
}

func TestJobNamePrefix_NonJobUnchanged(t *testing.T) {
	assert.Equal(t, "api-7d9f8b", jobNamePrefix("deployment", "api-7d9f8b"))
}
