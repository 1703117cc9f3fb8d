// Package objectstore persists investigation reports (Markdown + JSON
// snapshot) with HEAD-before-PUT idempotency (spec.md §4.4). Grounded on the
// teacher's repository-interface pattern (internal/repository defines an
// interface that PostgresRepository/SQLiteRepository both satisfy); here the
// same shape backs an S3 implementation and an in-memory one for tests.
package objectstore

import (
	"context"
	"time"
)

// Store is the object-storage contract C4/C6 depend on. Every method is
// safe to call concurrently.
type Store interface {
	// Head reports whether key exists and, if so, its last-modified time.
	Head(ctx context.Context, key string) (exists bool, lastModified time.Time, err error)
	// Put writes body under key with the given content type, overwriting
	// any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Get fetches the object's body.
	Get(ctx context.Context, key string) ([]byte, error)
}

// RolloutRefreshWindow is the 1-hour freshness gate applied to rollout-noisy
// families before an existing object is treated as fresh enough to skip
// (spec.md §4.4 "For rollout-noisy families ... 1-hour freshness gate").
const RolloutRefreshWindow = time.Hour

// ShouldWrite decides, given a HEAD result, whether C6 should proceed to
// render+PUT a new report. rolloutRefresh is true when the alert's family is
// in the rollout-noisy set (spec.md §4.1 queue-msg-id scheme selection
// mirrors this same flag).
func ShouldWrite(exists bool, lastModified time.Time, rolloutRefresh bool, now time.Time) bool {
	if !exists {
		return true
	}
	if !rolloutRefresh {
		return false // HEAD-before-PUT idempotency: object exists, not a refresh path, skip
	}
	return now.Sub(lastModified) >= RolloutRefreshWindow
}
