package k8sclient

import (
	"fmt"
	"sync"
)

// Registry caches one Client per cluster name, so every collector
// investigating the same cluster shares the same rate limiter and circuit
// breaker (spec.md §5 Shared resources).
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	opts    func(cluster string) Options
}

// NewRegistry builds a Registry. optsFn resolves per-cluster connection
// options (kubeconfig path/context, QPS/burst) from configuration.
func NewRegistry(optsFn func(cluster string) Options) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		opts:    optsFn,
	}
}

// NewRegistryForTest builds a Registry pre-populated with cli under every
// name in clusterNames (defaulting to "default" if none given), so tests
// can inject a fake-clientset-backed Client without going through New's
// kubeconfig-loading path.
func NewRegistryForTest(cli *Client, clusterNames ...string) *Registry {
	if len(clusterNames) == 0 {
		clusterNames = []string{"default"}
	}
	clients := make(map[string]*Client, len(clusterNames))
	for _, name := range clusterNames {
		clients[name] = cli
	}
	return &Registry{clients: clients}
}

// Get returns the cached Client for cluster, constructing it on first use.
func (r *Registry) Get(cluster string) (*Client, error) {
	if cluster == "" {
		cluster = "default"
	}

	r.mu.RLock()
	c, ok := r.clients[cluster]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[cluster]; ok {
		return c, nil
	}

	opts := Options{}
	if r.opts != nil {
		opts = r.opts(cluster)
	}
	c, err := New(cluster, opts)
	if err != nil {
		return nil, fmt.Errorf("k8sclient registry: %w", err)
	}
	r.clients[cluster] = c
	return c, nil
}
