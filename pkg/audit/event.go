package audit

import (
	"context"
	"time"

	"mercator-hq/vesta/pkg/store"
)

// EventType classifies what a configuration operation did.
type EventType string

const (
	EventCreated           EventType = "Created"
	EventUpdated           EventType = "Updated"
	EventDeleted           EventType = "Deleted"
	EventRead              EventType = "Read"
	EventSecretAccessed    EventType = "SecretAccessed"
	EventRollbackPerformed EventType = "RollbackPerformed"
	EventPermissionDenied  EventType = "PermissionDenied"
)

// Event is one immutable audit record. Sequence is assigned by the Logger's
// worker, not by callers, and is strictly increasing and gap-free within one
// sink.
type Event struct {
	// ID uniquely identifies the event (UUID v4).
	ID string `json:"id"`

	// Sequence is the gap-free position of this event in the trail. Zero
	// means the event has not been committed yet.
	Sequence uint64 `json:"sequence"`

	Type  EventType `json:"type"`
	Actor string    `json:"actor"`

	// The configuration key the operation targeted. Namespace may be set
	// with an empty Key for namespace-wide operations such as List.
	Namespace   string            `json:"namespace"`
	Key         string            `json:"key,omitempty"`
	Environment store.Environment `json:"environment,omitempty"`

	// Version is the entry version the operation produced or read, when
	// applicable.
	Version uint64 `json:"version,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Success records the operation outcome; Reason carries the denial or
	// failure cause, or a short outcome detail for successes that need one.
	// Reasons never contain configuration values.
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Query filters audit events. Zero fields match everything.
type Query struct {
	// Actor filters by exact actor identity.
	Actor string

	// Namespace filters by exact namespace.
	Namespace string

	// Types filters by event type; empty means all types.
	Types []EventType

	// Start and End bound the event timestamp (inclusive start, exclusive
	// end).
	Start *time.Time
	End   *time.Time

	// MaxSequence, when non-zero, matches only events at or below that
	// sequence number. Retention uses it to trim the old end of the trail
	// exactly, which timestamps cannot guarantee.
	MaxSequence uint64

	// Limit caps the number of returned events; 0 means no cap. Results are
	// ordered by sequence descending (newest first).
	Limit int
}

// Matches reports whether event passes every filter in q.
func (q *Query) Matches(event *Event) bool {
	if q.Actor != "" && event.Actor != q.Actor {
		return false
	}
	if q.Namespace != "" && event.Namespace != q.Namespace {
		return false
	}
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Start != nil && event.Timestamp.Before(*q.Start) {
		return false
	}
	if q.End != nil && !event.Timestamp.Before(*q.End) {
		return false
	}
	if q.MaxSequence > 0 && event.Sequence > q.MaxSequence {
		return false
	}
	return true
}

// Sink is durable storage for audit events. Implementations must be safe for
// concurrent use, though the Logger funnels all writes through one worker.
type Sink interface {
	// Store durably persists one event.
	Store(ctx context.Context, event *Event) error

	// Query returns events matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Event, error)

	// Count returns the number of events matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes events matching q and returns the number removed.
	// Used by retention pruning only; the trail is otherwise append-only.
	Delete(ctx context.Context, q *Query) (int64, error)

	// LastSequence returns the highest committed sequence number, or 0 for
	// an empty sink. The Logger resumes from here so restarts never reuse
	// or skip numbers.
	LastSequence(ctx context.Context) (uint64, error)

	// Close releases sink resources.
	Close() error
}
