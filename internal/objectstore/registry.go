package objectstore

import (
	"context"
	"sync"
)

// Registry caches one Store per (bucket, region) pair, guarded by a mutex
// on first use (spec.md §5 Shared resources: "One cached object-store
// client per (bucket, prefix)").
type Registry struct {
	mu      sync.Mutex
	stores  map[string]Store
	factory func(ctx context.Context, bucket, region string) (Store, error)
}

// NewRegistry builds a Registry using the given factory to construct a
// fresh Store on first request for a (bucket, region) pair.
func NewRegistry(factory func(ctx context.Context, bucket, region string) (Store, error)) *Registry {
	return &Registry{stores: map[string]Store{}, factory: factory}
}

// NewS3Registry builds a Registry backed by S3Store.
func NewS3Registry() *Registry {
	return NewRegistry(func(ctx context.Context, bucket, region string) (Store, error) {
		return NewS3Store(ctx, bucket, region)
	})
}

// Get returns the cached Store for (bucket, region), constructing one via
// the factory on first access.
func (r *Registry) Get(ctx context.Context, bucket, region string) (Store, error) {
	key := bucket + "|" + region
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[key]; ok {
		return s, nil
	}
	s, err := r.factory(ctx, bucket, region)
	if err != nil {
		return nil, err
	}
	r.stores[key] = s
	return s, nil
}
