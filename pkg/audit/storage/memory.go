// Package storage provides durable sinks for audit events: an in-memory
// sink for tests, an append-only JSON lines file sink, and a SQLite sink on
// the pure-Go modernc driver.
package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/vesta/pkg/audit"
)

// MemorySink keeps events in process memory. For tests and ephemeral
// deployments only.
type MemorySink struct {
	mu     sync.RWMutex
	events []*audit.Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Store appends a copy of event.
func (s *MemorySink) Store(ctx context.Context, event *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

// Query returns matching events, newest first.
func (s *MemorySink) Query(ctx context.Context, q *audit.Query) ([]*audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*audit.Event
	for _, event := range s.events {
		if q.Matches(event) {
			copied := *event
			results = append(results, &copied)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Sequence > results[j].Sequence
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of matching events.
func (s *MemorySink) Count(ctx context.Context, q *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, event := range s.events {
		if q.Matches(event) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching events.
func (s *MemorySink) Delete(ctx context.Context, q *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, event := range s.events {
		if q.Matches(event) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	s.events = kept
	return removed, nil
}

// LastSequence returns the highest stored sequence number.
func (s *MemorySink) LastSequence(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last uint64
	for _, event := range s.events {
		if event.Sequence > last {
			last = event.Sequence
		}
	}
	return last, nil
}

// Close releases the sink.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}

// Size returns the number of stored events. Useful for tests.
func (s *MemorySink) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
