// Package queue defines the message-queue contract C5 publishes to and C6
// consumes from, plus a Redis Streams implementation and an in-memory one
// for tests. Grounded on jordigilh-kubernaut's redis/go-redis/v9 usage
// (the teacher has no queue of its own — kubilitics-backend's addon
// lifecycle is synchronous); Redis Streams' consumer-group semantics give
// the "at-most-once enqueue, durable dequeue" shape spec.md §4.5/§4.6 need
// without standing up a heavier broker.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
)

// AlertJob is the compact message C5 enqueues and C6 dequeues (spec.md §4.5
// step 6).
type AlertJob struct {
	Alert        models.Alert  `json:"alert"`
	TimeWindow   time.Duration `json:"time_window"`
	ParentStatus string        `json:"parent_status"`
	MsgID        string        `json:"msg_id"`
}

// Message is a dequeued job plus an opaque ack handle.
type Message struct {
	Job AlertJob
	Ack func(ctx context.Context) error
}

// Queue is the contract C5 (publish) and C6 (consume) depend on.
// Publish MUST be idempotent keyed by job.MsgID: publishing the same
// MsgID twice must not produce two deliverable messages (spec.md §3
// "Message-queue dedupe is authoritative").
type Queue interface {
	// Publish enqueues job, returning (enqueued=false, nil) when an entry
	// with the same MsgID was already durably queued (queue-level dedupe).
	Publish(ctx context.Context, job AlertJob) (enqueued bool, err error)
	// Consume blocks, yielding jobs as they become available, until ctx is
	// canceled or the channel is explicitly stopped.
	Consume(ctx context.Context) (<-chan Message, error)
	// Ping verifies connectivity; used by C5's startup warm-up (spec.md
	// §4.5 "Startup": fail fast if the queue is unreachable).
	Ping(ctx context.Context) error
	Close() error
}

func marshal(job AlertJob) ([]byte, error) { return json.Marshal(job) }
func unmarshal(b []byte) (AlertJob, error) {
	var job AlertJob
	err := json.Unmarshal(b, &job)
	return job, err
}
