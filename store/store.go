// Package store persists registry reports.
//
// Saving a report after every observation period (e.g. at the end of each
// test run) makes it possible to compare leaks across runs.
//
// Available implementations:
//   - MemoryStore: for tests and development
//   - RedisStore: Redis hashes with sorted-set indexes
//   - MongoStore: one document per report
//
// Usage with a tracker:
//
//	reports := store.NewRedisStore(redisClient)
//	tracker := evtrack.New(evtrack.WithSinks(store.Sink(reports)))
//	...
//	tracker.Flush(ctx) // logs and saves the report
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rbaliyan/evtrack"
)

// Store errors
var (
	ErrNotFound = errors.New("report not found")
	ErrClosed   = errors.New("store is closed")
)

// Store defines the interface for report storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save creates or replaces a report, keyed by report ID.
	Save(ctx context.Context, report *evtrack.Report) error

	// Get retrieves a report by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*evtrack.Report, error)

	// List returns reports matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*evtrack.Report, error)

	// DeleteOlderThan removes reports taken before now-age.
	// Returns the number of reports deleted.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Filter specifies criteria for listing reports.
// All fields are optional. Empty filter returns the newest DefaultLimit reports.
type Filter struct {
	Name      string    // Tracker name
	StartTime time.Time // Reports taken at or after this time
	EndTime   time.Time // Reports taken before this time
	Limit     int       // Max results (0 = DefaultLimit)
}

// DefaultLimit is the default page size when Limit is 0.
const DefaultLimit = 100

// MaxLimit is the maximum allowed page size.
const MaxLimit = 1000

// EffectiveLimit returns the effective limit, applying defaults and bounds.
func (f *Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	if f.Limit > MaxLimit {
		return MaxLimit
	}
	return f.Limit
}

// matches checks the report against name and time bounds
func (f *Filter) matches(r *evtrack.Report) bool {
	if f.Name != "" && r.Name != f.Name {
		return false
	}
	if !f.StartTime.IsZero() && r.TakenAt.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && !r.TakenAt.Before(f.EndTime) {
		return false
	}
	return true
}

// Sink adapts a Store to evtrack.Sink so that reports are saved on Flush.
func Sink(s Store) evtrack.Sink {
	return evtrack.SinkFunc(func(ctx context.Context, r *evtrack.Report) error {
		return s.Save(ctx, r)
	})
}
