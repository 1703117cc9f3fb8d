package awsclient

import (
	"context"
	"sync"
)

// Registry caches one Client per AWS region.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Get returns the cached Client for region, constructing it on first use.
func (r *Registry) Get(ctx context.Context, region string) (*Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	r.mu.RLock()
	c, ok := r.clients[region]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[region]; ok {
		return c, nil
	}
	c, err := New(ctx, region)
	if err != nil {
		return nil, err
	}
	r.clients[region] = c
	return c, nil
}
