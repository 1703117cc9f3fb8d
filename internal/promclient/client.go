// Package promclient provides a thin, rate-limited wrapper over
// Prometheus's HTTP query API for instant PromQL queries, shared by every
// evidence collector that needs metrics (spec.md §4.2 baselines and
// family-specific collectors). Grounded on the teacher's metrics package
// shape (internal/metrics/provider.go's MetricsProvider abstraction), using
// prometheus/client_golang's api/v1 client for the actual HTTP query
// instead of the teacher's metrics-server-only provider — Prometheus is
// the domain's metrics source of record per spec.md §2. The rate
// limiter/circuit-breaker pairing mirrors internal/k8sclient.Client's
// sony/gobreaker wiring (spec.md §5 "one cached client per cluster").
package promclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client wraps a Prometheus HTTP API client with a shared rate limiter and
// circuit breaker, one pair per cluster (spec.md §5 Shared resources).
type Client struct {
	api     promv1.API
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	mu              sync.RWMutex
	lastSuccessTime time.Time
	lastError       error
}

// New builds a Client against baseURL (the cluster's Prometheus/Thanos
// query endpoint).
func New(baseURL string, qps float64, burst int) (*Client, error) {
	c, err := api.NewClient(api.Config{Address: baseURL})
	if err != nil {
		return nil, fmt.Errorf("promclient: building client for %q: %w", baseURL, err)
	}
	if qps <= 0 {
		qps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &Client{
		api:     promv1.NewAPI(c),
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "prometheus:" + baseURL,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		lastSuccessTime: time.Now(),
	}, nil
}

// do runs fn under the shared rate limiter and circuit breaker, recording
// health, the same pattern internal/k8sclient.Client.Do uses.
func (c *Client) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("promclient: rate limit wait: %w", err)
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	c.recordHealth(err)
	return err
}

func (c *Client) recordHealth(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.lastSuccessTime = time.Now()
		c.lastError = nil
		return
	}
	c.lastError = err
}

// Healthy reports whether the breaker is closed and the last call
// succeeded.
func (c *Client) Healthy() (bool, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.breaker.State() == gobreaker.StateClosed && c.lastError == nil, c.lastSuccessTime, c.lastError
}

// Instant runs an instant PromQL query at ts, returning the raw vector
// result. Callers reduce it to the small typed shapes used by collectors.
func (c *Client) Instant(ctx context.Context, query string, ts time.Time) (model.Vector, error) {
	var vec model.Vector
	err := c.do(ctx, func(ctx context.Context) error {
		val, warnings, err := c.api.Query(ctx, query, ts)
		_ = warnings
		if err != nil {
			return fmt.Errorf("promclient: instant query %q: %w", query, err)
		}
		v, ok := val.(model.Vector)
		if !ok {
			return fmt.Errorf("promclient: instant query %q returned non-vector result", query)
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// RangeSeries runs a range PromQL query, returning one ResourceSeries-style
// point set for the first returned series (callers needing multiple series
// should use Range directly).
func (c *Client) Range(ctx context.Context, query string, start, end time.Time, step time.Duration) (model.Matrix, error) {
	var mat model.Matrix
	err := c.do(ctx, func(ctx context.Context) error {
		val, warnings, err := c.api.QueryRange(ctx, query, promv1.Range{Start: start, End: end, Step: step})
		_ = warnings
		if err != nil {
			return fmt.Errorf("promclient: range query %q: %w", query, err)
		}
		m, ok := val.(model.Matrix)
		if !ok {
			return fmt.Errorf("promclient: range query %q returned non-matrix result", query)
		}
		mat = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mat, nil
}

// Registry caches a Client per cluster, mirroring k8sclient.Registry.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	resolve func(cluster string) (baseURL string, qps float64, burst int)
}

// NewRegistry builds a Registry. resolve maps a cluster name to its
// Prometheus endpoint and rate-limit tuning from configuration.
func NewRegistry(resolve func(cluster string) (string, float64, int)) *Registry {
	return &Registry{clients: make(map[string]*Client), resolve: resolve}
}

// Get returns the cached Client for cluster, constructing it on first use.
func (r *Registry) Get(cluster string) (*Client, error) {
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
	baseURL, qps, burst := "", 0.0, 0
	if r.resolve != nil {
		baseURL, qps, burst = r.resolve(cluster)
	}
	c, err := New(baseURL, qps, burst)
	if err != nil {
		return nil, err
	}
	r.clients[cluster] = c
	return c, nil
}
