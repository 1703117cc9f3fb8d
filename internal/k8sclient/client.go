// Package k8sclient provides a cached, rate-limited, circuit-broken
// Kubernetes client factory shared by every family-specific collector in
// internal/evidence. Grounded on the teacher's internal/k8s/client.go
// (kubeconfig loading, in-cluster fallback, health tracking) but backed by
// sony/gobreaker instead of the teacher's hand-rolled circuit breaker, per
// the domain-stack wiring in SPEC_FULL.md §4.12.
package k8sclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

// Client wraps the client-go clientset and metrics clientset for one
// cluster, with a shared rate limiter and circuit breaker (spec.md §5
// Shared resources: one limiter/breaker pair per cluster, reused across all
// evidence collectors for that cluster).
type Client struct {
	Clientset  kubernetes.Interface
	Metrics    metricsclientset.Interface
	Config     *rest.Config
	ClusterID  string

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	mu              sync.RWMutex
	lastSuccessTime time.Time
	lastError       error
}

// Options configures a Client's shared rate-limit and circuit-breaker
// behavior.
type Options struct {
	KubeconfigPath string
	Context        string
	// QPS/Burst feed the token-bucket limiter guarding outbound API calls.
	QPS   float64
	Burst int
	// BreakerMaxRequests/Interval/Timeout tune the gobreaker half-open
	// policy; zero values take gobreaker's defaults.
	BreakerMaxRequests uint32
	BreakerTimeout     time.Duration
}

// New builds a Client for one cluster: in-cluster config first, falling
// back to the kubeconfig path (or $HOME/.kube/config), per the teacher's
// NewClient.
func New(clusterID string, opts Options) (*Client, error) {
	cfg, err := loadConfig(opts.KubeconfigPath, opts.Context)
	if err != nil {
		return nil, fmt.Errorf("k8sclient: building config for cluster %q: %w", clusterID, err)
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8sclient: building clientset for cluster %q: %w", clusterID, err)
	}
	mc, err := metricsclientset.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8sclient: building metrics clientset for cluster %q: %w", clusterID, err)
	}

	qps := opts.QPS
	if qps <= 0 {
		qps = 20
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 40
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "k8s:" + clusterID,
		MaxRequests: maxU32(opts.BreakerMaxRequests, 1),
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		Clientset:       cs,
		Metrics:         mc,
		Config:          cfg,
		ClusterID:       clusterID,
		limiter:         rate.NewLimiter(rate.Limit(qps), burst),
		breaker:         breaker,
		lastSuccessTime: time.Now(),
	}, nil
}

// NewForTest builds a Client around an already-constructed clientset (e.g.
// k8s.io/client-go/kubernetes/fake.NewSimpleClientset()), with an
// always-open breaker and an effectively unlimited rate limiter. Mirrors
// the teacher's NewClientForTest helper in internal/k8s/client.go.
func NewForTest(cs kubernetes.Interface) *Client {
	return &Client{
		Clientset: cs,
		ClusterID: "test",
		limiter:   rate.NewLimiter(rate.Inf, 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "test",
		}),
		lastSuccessTime: time.Now(),
	}
}

func loadConfig(kubeconfigPath, context string) (*rest.Config, error) {
	if kubeconfigPath == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			return cfg, nil
		}
		if home, _ := os.UserHomeDir(); home != "" {
			kubeconfigPath = filepath.Join(home, ".kube", "config")
		}
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
		&clientcmd.ConfigOverrides{CurrentContext: context},
	).ClientConfig()
}

// Do runs fn under the shared rate limiter and circuit breaker, recording
// health. Every evidence collector call is routed through this.
func (c *Client) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("k8sclient: rate limit wait: %w", err)
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

// ServerVersion returns the cluster's Kubernetes version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.Do(ctx, func(ctx context.Context) error {
		v, err := c.Clientset.Discovery().ServerVersion()
		if err != nil {
			return err
		}
		version = v.GitVersion
		return nil
	})
	return version, err
}

// Ping verifies connectivity with a cheap, bounded list call.
func (c *Client) Ping(ctx context.Context) error {
	return c.Do(ctx, func(ctx context.Context) error {
		_, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
		return err
	})
}

func maxU32(v, min uint32) uint32 {
	if v < min {
		return min
	}
	return v
}
