package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rbaliyan/evtrack"
)

// MemoryStore implements Store using in-memory storage.
//
// MemoryStore is primarily intended for testing and development.
// Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*evtrack.Report
	closed  bool
}

// NewMemoryStore creates a new in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*evtrack.Report),
	}
}

// copyReport returns a deep copy so callers cannot mutate stored reports
func copyReport(r *evtrack.Report) *evtrack.Report {
	c := *r
	c.Objects = make([]evtrack.ObjectReport, len(r.Objects))
	for i, obj := range r.Objects {
		c.Objects[i] = obj
		c.Objects[i].Events = append([]evtrack.EventCount(nil), obj.Events...)
	}
	return &c
}

// Save creates or replaces a report.
func (s *MemoryStore) Save(ctx context.Context, report *evtrack.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.reports[report.ID] = copyReport(report)
	return nil
}

// Get retrieves a report by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*evtrack.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(r), nil
}

// List returns reports matching the filter, newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*evtrack.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var matches []*evtrack.Report
	for _, r := range s.reports {
		if filter.matches(r) {
			matches = append(matches, copyReport(r))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].TakenAt.After(matches[j].TakenAt)
	})

	if limit := filter.EffectiveLimit(); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DeleteOlderThan removes reports taken before now-age.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	cutoff := time.Now().Add(-age)
	var deleted int64
	for id, r := range s.reports {
		if r.TakenAt.Before(cutoff) {
			delete(s.reports, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.reports = nil
	return nil
}

// Len returns the number of reports in the store (for testing).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
