package alertid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tarkyaio/tarka/internal/models"
)

func TestNormalizeAlert_FingerprintFallback(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	raw := RawAlert{
		Status: "firing",
		Labels: map[string]string{"alertname": "KubePodCrashLooping", "pod": "checkout-1"},
	}
	a := NormalizeAlert(raw, now)
	assert.NotEmpty(t, a.Fingerprint)

	a2 := NormalizeAlert(raw, now)
	assert.Equal(t, a.Fingerprint, a2.Fingerprint, "fingerprint fallback must be deterministic for identical labels")
}

func TestNormalizeAlert_ExplicitFingerprintPreserved(t *testing.T) {
	raw := RawAlert{Status: "firing", Fingerprint: "abc123", Labels: map[string]string{"alertname": "X"}}
	a := NormalizeAlert(raw, time.Now())
	assert.Equal(t, "abc123", a.Fingerprint)
}

func TestNormalizeAlert_StatusFromString(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	raw := RawAlert{Status: "resolved", Labels: map[string]string{"alertname": "X"}}
	a := NormalizeAlert(raw, now)
	assert.Equal(t, models.StatusResolved, a.Status.State)
}

func TestNormalizeAlert_StatusFallsBackToEndsAtComparison(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	starts := now.Add(-time.Hour)
	ends := now.Add(-time.Minute)

	raw := RawAlert{
		Labels:   map[string]string{"alertname": "X"},
		StartsAt: starts,
		EndsAt:   ends,
	}
	a := NormalizeAlert(raw, now)
	assert.Equal(t, models.StatusResolved, a.Status.State, "ends_at in the past with no status string must resolve to resolved")
}

func TestNormalizeAlert_NoEndsAtMeansStillFiring(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	raw := RawAlert{
		Labels:   map[string]string{"alertname": "X"},
		StartsAt: now.Add(-time.Hour),
	}
	a := NormalizeAlert(raw, now)
	assert.Equal(t, models.StatusFiring, a.Status.State)
}

func TestNormalizeAlert_ZeroStartsAtDefaultsToNow(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	raw := RawAlert{Labels: map[string]string{"alertname": "X"}}
	a := NormalizeAlert(raw, now)
	assert.Equal(t, now, a.StartsAt)
}

func TestNormalizeAlert_NilMapsBecomeEmpty(t *testing.T) {
	a := NormalizeAlert(RawAlert{}, time.Now())
	assert.NotNil(t, a.Labels)
	assert.NotNil(t, a.Annotations)
}
