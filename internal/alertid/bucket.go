package alertid

import (
	"fmt"
	"time"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
)

// BucketStart floors now (treated as UTC; naive/zero-location timestamps are
// assumed UTC) to the start of its H-hour UTC bucket. Fails with
// InvalidArgument when H<=0 (spec.md §4.1).
func BucketStart(now time.Time, hours int) (time.Time, error) {
	if hours <= 0 {
		return time.Time{}, tarkaerrors.Wrap("invalid_argument", fmt.Errorf("bucket hours must be > 0, got %d", hours))
	}
	nowUTC := toUTC(now)
	bucketHour := (nowUTC.Hour() / hours) * hours
	return time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), bucketHour, 0, 0, 0, time.UTC), nil
}

// BucketLabel formats a bucket-start timestamp as YYYYMMDDHH (UTC).
func BucketLabel(bucketStartUTC time.Time) string {
	t := toUTC(bucketStartUTC)
	return t.Format("2006010215")
}

// HourBucketLabel is the 1h-bucket label used by the rollout-workload
// queue msg-id scheme (spec.md §3 Queue msg-id).
func HourBucketLabel(now time.Time) string {
	start, _ := BucketStart(now, 1)
	return BucketLabel(start)
}

// toUTC converts to UTC. Go's time.Time always carries a location (unlike
// Python's naive datetimes), so the "naive datetimes treated as UTC" rule
// in spec.md §3 only matters at the parse boundary (internal/models /
// webhook normalization), not here.
func toUTC(t time.Time) time.Time {
	return t.UTC()
}
