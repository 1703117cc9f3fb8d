package queue

import (
	"context"
	"sync"
)

// Memory is an in-process Queue for tests and single-process dev mode.
// Safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	seen map[string]bool
	ch   chan Message
}

// NewMemory builds a buffered in-memory Queue.
func NewMemory(buffer int) *Memory {
	return &Memory{seen: map[string]bool{}, ch: make(chan Message, buffer)}
}

func (m *Memory) Publish(ctx context.Context, job AlertJob) (bool, error) {
	m.mu.Lock()
	if m.seen[job.MsgID] {
		m.mu.Unlock()
		return false, nil
	}
	m.seen[job.MsgID] = true
	m.mu.Unlock()

	select {
	case m.ch <- Message{Job: job, Ack: func(context.Context) error { return nil }}:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context) (<-chan Message, error) {
	return m.ch, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error                { close(m.ch); return nil }
