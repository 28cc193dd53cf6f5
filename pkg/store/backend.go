package store

import "context"

// Backend persists versioned configuration entries. Implementations live in
// the storage subpackage; the manager accepts any Backend so tests and
// embedders can substitute their own. Implementations must be safe for
// concurrent use.
type Backend interface {
	// GetCurrent returns the highest version recorded for key, including
	// tombstones. Callers that need live values must check Tombstone on the
	// result. Returns NotFoundError if no version exists at all.
	GetCurrent(ctx context.Context, key ConfigKey) (*ConfigEntry, error)

	// GetVersion returns one specific version of key. Returns NotFoundError
	// carrying the requested version if it was never written or has been
	// pruned.
	GetVersion(ctx context.Context, key ConfigKey, version uint64) (*ConfigEntry, error)

	// AppendVersion writes entry as the next version of its key. The backend
	// assigns Version (previous current + 1, or 1 for a new key), links
	// PreviousID to the prior current entry, fills ID and CreatedAt when
	// unset, and returns the stored entry. The read-increment-write is one
	// atomic unit: concurrent appenders to the same key serialize, and a
	// detected race surfaces as VersionConflictError.
	AppendVersion(ctx context.Context, entry *ConfigEntry) (*ConfigEntry, error)

	// ListCurrent returns the current version of every live (non-tombstoned)
	// key in the namespace and environment, sorted by key name ascending.
	ListCurrent(ctx context.Context, namespace string, env Environment) ([]*ConfigEntry, error)

	// ListVersions returns the full version chain for key, newest first,
	// tombstones included. Returns NotFoundError if no version exists.
	ListVersions(ctx context.Context, key ConfigKey) ([]*ConfigEntry, error)

	// PruneVersions deletes historical versions of key beyond the keepLast
	// most recent and returns the number removed. The current version is
	// never pruned; keepLast below 1 is treated as 1.
	PruneVersions(ctx context.Context, key ConfigKey, keepLast int) (int64, error)

	// Close releases backend resources. The backend must not be used after
	// Close returns.
	Close() error
}
