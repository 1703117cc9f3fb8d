package objectstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeAlertname(t *testing.T) {
	assert.Equal(t, "CrashLoopBackOff", SanitizeAlertname("CrashLoopBackOff"))
	assert.Equal(t, "a_b_c", SanitizeAlertname("a/b c"))
	assert.Equal(t, "unknown", SanitizeAlertname("***"))
}

func TestShouldWrite(t *testing.T) {
	now := time.Now().UTC()
	assert.True(t, ShouldWrite(false, time.Time{}, false, now), "missing object always writes")
	assert.False(t, ShouldWrite(true, now, false, now), "existing object, non-refresh path, skip")
	assert.False(t, ShouldWrite(true, now.Add(-30*time.Minute), true, now), "within freshness window, skip")
	assert.True(t, ShouldWrite(true, now.Add(-2*time.Hour), true, now), "stale rollout refresh, overwrite")
}

func TestMemoryStore_HeadPutGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	exists, _, err := m.Head(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Put(ctx, "k", []byte("hello"), "text/markdown"))
	exists, mtime, err := m.Head(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.WithinDuration(t, time.Now().UTC(), mtime, 5*time.Second)

	body, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestRegistry_CachesPerBucketRegion(t *testing.T) {
	calls := 0
	reg := NewRegistry(func(ctx context.Context, bucket, region string) (Store, error) {
		calls++
		return NewMemory(), nil
	})
	ctx := context.Background()
	s1, _ := reg.Get(ctx, "b", "r1")
	s2, _ := reg.Get(ctx, "b", "r1")
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, calls)

	_, _ = reg.Get(ctx, "b", "r2")
	assert.Equal(t, 2, calls)
}
