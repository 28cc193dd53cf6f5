package cache

import (
	"context"
	"errors"
	"time"

	"mercator-hq/vesta/pkg/store"
)

// ErrMiss is returned by a Tier when the key is not present (or has
// expired). Any other error means the tier itself failed.
var ErrMiss = errors.New("cache: miss")

// Tier is a shared second-level cache. Implementations serialize entries as
// JSON and must be safe for concurrent use. Secret values pass through in
// their encrypted envelope form, so a shared tier never holds plaintext
// secrets.
type Tier interface {
	// Get returns the cached entry for key, or ErrMiss.
	Get(ctx context.Context, key string) (*store.ConfigEntry, error)

	// Set stores entry under key with the given TTL.
	Set(ctx context.Context, key string, entry *store.ConfigEntry, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry this tier holds.
	Clear(ctx context.Context) error

	// Close releases tier resources.
	Close() error
}
