package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PublishDedupesByMsgID(t *testing.T) {
	q := NewMemory(10)
	ctx := context.Background()

	ok, err := q.Publish(ctx, AlertJob{MsgID: "m1"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Publish(ctx, AlertJob{MsgID: "m1"})
	require.NoError(t, err)
	assert.False(t, ok, "duplicate msg_id must not enqueue twice")

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-ch:
		assert.Equal(t, "m1", msg.Job.MsgID)
	case <-time.After(time.Second):
		t.Fatal("expected one message")
	}
}

func TestRedis_PublishDedupeAndConsume(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q, err := NewRedis(ctx, mr.Addr(), "tarka:alerts:test", "workers", "worker-1")
	require.NoError(t, err)
	defer q.Close()

	ok, err := q.Publish(ctx, AlertJob{MsgID: "dup-1"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Publish(ctx, AlertJob{MsgID: "dup-1"})
	require.NoError(t, err)
	assert.False(t, ok)

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-ch:
		assert.Equal(t, "dup-1", msg.Job.MsgID)
		require.NoError(t, msg.Ack(ctx))
	case <-time.After(3 * time.Second):
		t.Fatal("expected one message from redis stream")
	}
}
