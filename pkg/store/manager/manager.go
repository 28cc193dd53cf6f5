package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"mercator-hq/vesta/pkg/audit"
	"mercator-hq/vesta/pkg/cache"
	"mercator-hq/vesta/pkg/crypto"
	"mercator-hq/vesta/pkg/rbac"
	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/telemetry/metrics"
)

// Operation names used in metrics labels.
const (
	opGet      = "get"
	opSet      = "set"
	opDelete   = "delete"
	opList     = "list"
	opHistory  = "history"
	opRollback = "rollback"
	opPrune    = "prune"
)

// Secret envelope operations used in metrics labels.
const (
	secretSeal = "seal"
	secretOpen = "open"
)

// SetOptions carries the optional attributes of a write.
type SetOptions struct {
	// Secret marks the value for envelope encryption before persistence.
	Secret bool

	// Description is free-text provenance for the new version.
	Description string

	// Tags label the new version for discovery.
	Tags []string
}

// Manager orchestrates every configuration operation through the pipeline
// Authorize, then Cache or Storage, then Audit. Collaborators are optional:
// a missing enforcer disables authorization, a missing cache reads through
// to storage, a missing audit logger records nothing, a missing crypto
// engine rejects secret operations. The backend is required.
//
// All methods are safe for concurrent use.
type Manager struct {
	backend  store.Backend
	cache    *cache.Manager
	enforcer *rbac.Enforcer
	auditor  *audit.Logger
	crypto   *crypto.Engine
	metrics  *metrics.Collector
	logger   *slog.Logger
	clock    func() time.Time

	// flights collapses concurrent storage loads of the same cold key.
	flights singleflight.Group
}

// Get returns the current live value for key in env, falling back to Base
// when env holds no live value. The actor needs read, plus read_secret when
// the resolved entry is a secret; secrets are decrypted only after that
// second check passes. A tombstoned or absent key resolves to NotFoundError.
//
// Parameters:
//   - namespace: logical grouping the key belongs to
//   - key: key name within the namespace
//   - env: requested environment; Base is the fallback
//   - actor: identity performing the read
//
// Returns: the entry with plaintext value, or NotFoundError,
// PermissionDeniedError, or a storage error.
func (m *Manager) Get(ctx context.Context, namespace, key string, env store.Environment, actor string) (entry *store.ConfigEntry, err error) {
	start := m.clock()
	defer func() { m.observe(opGet, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionRead, resource); err != nil {
		m.auditDenied(actor, rbac.ActionRead, namespace, key, env)
		return nil, err
	}

	found, err := m.resolve(ctx, namespace, key, env)
	if err != nil {
		return nil, err
	}
	if found == nil {
		m.recordAudit(&audit.Event{
			Type:        audit.EventRead,
			Actor:       actor,
			Namespace:   namespace,
			Key:         key,
			Environment: env,
			Success:     false,
			Reason:      "not found",
		})
		return nil, store.NewNotFoundError(store.NewConfigKey(namespace, key, env))
	}

	// resolve may hand back a pointer shared with the cache or with other
	// in-flight readers; never mutate it.
	entry = found.Clone()

	if entry.Secret {
		if err = m.authorize(actor, rbac.ActionReadSecret, resource); err != nil {
			m.auditDenied(actor, rbac.ActionReadSecret, namespace, key, env)
			return nil, err
		}
		plaintext, openErr := m.openSecret(entry)
		if openErr != nil {
			m.recordAudit(&audit.Event{
				Type:        audit.EventSecretAccessed,
				Actor:       actor,
				Namespace:   entry.Namespace,
				Key:         entry.Key,
				Environment: entry.Environment,
				Version:     entry.Version,
				Success:     false,
				Reason:      "envelope decryption failed",
			})
			err = openErr
			return nil, err
		}
		entry.Value = plaintext
		m.recordSecret(secretOpen)
		m.recordAudit(&audit.Event{
			Type:        audit.EventSecretAccessed,
			Actor:       actor,
			Namespace:   entry.Namespace,
			Key:         entry.Key,
			Environment: entry.Environment,
			Version:     entry.Version,
			Success:     true,
		})
		return entry, nil
	}

	m.recordAudit(&audit.Event{
		Type:        audit.EventRead,
		Actor:       actor,
		Namespace:   entry.Namespace,
		Key:         entry.Key,
		Environment: entry.Environment,
		Version:     entry.Version,
		Success:     true,
	})
	return entry, nil
}

// Set writes value as the next version of key in env. The actor needs write.
// Secret values are sealed into an encryption envelope before they reach
// storage or any cache tier. Both cache tiers are invalidated before the
// call returns, so a Get immediately after Set never serves the old value.
//
// Parameters:
//   - value: raw value bytes; at most 1 MiB
//   - opts: secret flag, description, and tags for the new version
//
// Returns: the stored entry as persisted (secret values stay enveloped), or
// PermissionDeniedError, ValidationError, VersionConflictError, or a storage
// error.
func (m *Manager) Set(ctx context.Context, namespace, key string, env store.Environment, value []byte, opts SetOptions, actor string) (entry *store.ConfigEntry, err error) {
	start := m.clock()
	defer func() { m.observe(opSet, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionWrite, resource); err != nil {
		m.auditDenied(actor, rbac.ActionWrite, namespace, key, env)
		return nil, err
	}

	ck := store.NewConfigKey(namespace, key, env)
	if err = store.ValidateKey(ck); err != nil {
		return nil, err
	}
	if err = store.ValidateValue(value); err != nil {
		return nil, err
	}
	if err = store.ValidateMetadata(opts.Tags, opts.Description); err != nil {
		return nil, err
	}

	pending := &store.ConfigEntry{
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Value:       slices.Clone(value),
		Secret:      opts.Secret,
		Metadata: store.Metadata{
			CreatedBy:   actor,
			Tags:        slices.Clone(opts.Tags),
			Description: opts.Description,
		},
	}
	if opts.Secret {
		sealed, sealErr := m.sealSecret(pending.Value, ck)
		if sealErr != nil {
			err = sealErr
			return nil, err
		}
		pending.Value = sealed
		m.recordSecret(secretSeal)
	}

	entry, err = m.backend.AppendVersion(ctx, pending)
	if err != nil {
		return nil, err
	}

	m.cacheInvalidate(ctx, ck)
	m.recordValueSize(opSet, len(value))

	eventType := audit.EventUpdated
	if entry.Version == 1 {
		eventType = audit.EventCreated
	}
	m.recordAudit(&audit.Event{
		Type:        eventType,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Version:     entry.Version,
		Success:     true,
	})
	return entry, nil
}

// Delete appends a tombstone version for key in env, preserving history for
// rollback. The actor needs delete. Returns false without error when the key
// does not exist or is already tombstoned. Both cache tiers are invalidated
// before the call returns.
func (m *Manager) Delete(ctx context.Context, namespace, key string, env store.Environment, actor string) (deleted bool, err error) {
	start := m.clock()
	defer func() { m.observe(opDelete, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionDelete, resource); err != nil {
		m.auditDenied(actor, rbac.ActionDelete, namespace, key, env)
		return false, err
	}

	ck := store.NewConfigKey(namespace, key, env)
	if err = store.ValidateKey(ck); err != nil {
		return false, err
	}

	current, getErr := m.backend.GetCurrent(ctx, ck)
	if store.IsNotFound(getErr) {
		return false, nil
	}
	if getErr != nil {
		err = getErr
		return false, err
	}
	if current.Tombstone {
		return false, nil
	}

	tombstone := &store.ConfigEntry{
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Tombstone:   true,
		Metadata:    store.Metadata{CreatedBy: actor},
	}
	stored, appendErr := m.backend.AppendVersion(ctx, tombstone)
	if appendErr != nil {
		err = appendErr
		return false, err
	}

	m.cacheInvalidate(ctx, ck)
	m.recordAudit(&audit.Event{
		Type:        audit.EventDeleted,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Version:     stored.Version,
		Success:     true,
	})
	return true, nil
}

// List returns the current live entries in namespace and env, sorted by key
// name. Entries the actor may not read are silently omitted rather than
// failing the whole call. Secret values stay in envelope form unless the
// actor also holds read_secret, in which case they are returned decrypted.
// List never falls back to Base and never consults the cache.
func (m *Manager) List(ctx context.Context, namespace string, env store.Environment, actor string) (entries []*store.ConfigEntry, err error) {
	start := m.clock()
	defer func() { m.observe(opList, namespace, start, err) }()

	current, err := m.backend.ListCurrent(ctx, namespace, env)
	if err != nil {
		return nil, err
	}

	visible := make([]*store.ConfigEntry, 0, len(current))
	for _, e := range current {
		resource := rbac.Resource{Namespace: e.Namespace, Environment: e.Environment}
		if m.authorize(actor, rbac.ActionRead, resource) != nil {
			continue
		}
		if e.Secret && m.authorize(actor, rbac.ActionReadSecret, resource) == nil {
			m.openInPlace(e)
		}
		visible = append(visible, e)
	}

	m.recordAudit(&audit.Event{
		Type:        audit.EventRead,
		Actor:       actor,
		Namespace:   namespace,
		Environment: env,
		Success:     true,
	})
	return visible, nil
}

// History returns the full version chain for key in env, newest first,
// tombstones included. The actor needs read. Secret versions stay enveloped
// unless the actor also holds read_secret. Returns NotFoundError when no
// version was ever written.
func (m *Manager) History(ctx context.Context, namespace, key string, env store.Environment, actor string) (entries []*store.ConfigEntry, err error) {
	start := m.clock()
	defer func() { m.observe(opHistory, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionRead, resource); err != nil {
		m.auditDenied(actor, rbac.ActionRead, namespace, key, env)
		return nil, err
	}

	ck := store.NewConfigKey(namespace, key, env)
	versions, err := m.backend.ListVersions(ctx, ck)
	if err != nil {
		if store.IsNotFound(err) {
			m.recordAudit(&audit.Event{
				Type:        audit.EventRead,
				Actor:       actor,
				Namespace:   namespace,
				Key:         key,
				Environment: env,
				Success:     false,
				Reason:      "not found",
			})
		}
		return nil, err
	}

	if m.authorize(actor, rbac.ActionReadSecret, resource) == nil {
		for _, e := range versions {
			if e.Secret {
				m.openInPlace(e)
			}
		}
	}

	m.recordAudit(&audit.Event{
		Type:        audit.EventRead,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Success:     true,
	})
	return versions, nil
}

// Rollback appends a new version carrying the value of targetVersion. The
// actor needs rollback, which plain write never implies. The target version
// itself is untouched; the new version is current+1, never a reused number.
// Tombstone targets are rejected as validation errors. Both cache tiers are
// invalidated before the call returns.
//
// Returns: the new entry, or NotFoundError (key or version absent),
// ValidationError (tombstone target), PermissionDeniedError, or a storage
// error.
func (m *Manager) Rollback(ctx context.Context, namespace, key string, env store.Environment, targetVersion uint64, actor string) (entry *store.ConfigEntry, err error) {
	start := m.clock()
	defer func() { m.observe(opRollback, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionRollback, resource); err != nil {
		m.auditDenied(actor, rbac.ActionRollback, namespace, key, env)
		return nil, err
	}

	ck := store.NewConfigKey(namespace, key, env)
	if err = store.ValidateKey(ck); err != nil {
		return nil, err
	}

	target, err := m.backend.GetVersion(ctx, ck, targetVersion)
	if err != nil {
		if store.IsNotFound(err) {
			m.recordAudit(&audit.Event{
				Type:        audit.EventRollbackPerformed,
				Actor:       actor,
				Namespace:   namespace,
				Key:         key,
				Environment: env,
				Version:     targetVersion,
				Success:     false,
				Reason:      "target version not found",
			})
		}
		return nil, err
	}
	if target.Tombstone {
		err = store.NewValidationError("version", fmt.Sprintf("version %d is a tombstone and cannot be restored", targetVersion))
		m.recordAudit(&audit.Event{
			Type:        audit.EventRollbackPerformed,
			Actor:       actor,
			Namespace:   namespace,
			Key:         key,
			Environment: env,
			Version:     targetVersion,
			Success:     false,
			Reason:      "target version is a tombstone",
		})
		return nil, err
	}

	restored := &store.ConfigEntry{
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Value:       slices.Clone(target.Value),
		Secret:      target.Secret,
		Metadata: store.Metadata{
			CreatedBy:   actor,
			Tags:        slices.Clone(target.Metadata.Tags),
			Description: fmt.Sprintf("restored from version %d", targetVersion),
		},
	}
	entry, err = m.backend.AppendVersion(ctx, restored)
	if err != nil {
		return nil, err
	}

	m.cacheInvalidate(ctx, ck)
	m.recordValueSize(opRollback, len(entry.Value))
	m.recordAudit(&audit.Event{
		Type:        audit.EventRollbackPerformed,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Version:     entry.Version,
		Success:     true,
		Reason:      fmt.Sprintf("restored version %d", targetVersion),
	})
	return entry, nil
}

// Prune deletes historical versions of key in env beyond the keepLast most
// recent and returns the number removed. The current version is never
// pruned. The actor needs delete. The cache is untouched: pruning never
// affects the current version.
func (m *Manager) Prune(ctx context.Context, namespace, key string, env store.Environment, keepLast int, actor string) (removed int64, err error) {
	start := m.clock()
	defer func() { m.observe(opPrune, namespace, start, err) }()

	resource := rbac.Resource{Namespace: namespace, Environment: env}
	if err = m.authorize(actor, rbac.ActionDelete, resource); err != nil {
		m.auditDenied(actor, rbac.ActionDelete, namespace, key, env)
		return 0, err
	}

	ck := store.NewConfigKey(namespace, key, env)
	if err = store.ValidateKey(ck); err != nil {
		return 0, err
	}

	removed, err = m.backend.PruneVersions(ctx, ck, keepLast)
	if err != nil {
		return 0, err
	}

	m.recordAudit(&audit.Event{
		Type:        audit.EventDeleted,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Success:     true,
		Reason:      fmt.Sprintf("pruned %d historical versions", removed),
	})
	return removed, nil
}

// Close releases the collaborators the manager was built with: the audit
// logger first (draining buffered events), then the cache tiers, then the
// storage backend. The manager must not be used after Close returns.
func (m *Manager) Close() error {
	var errs []error
	if m.auditor != nil {
		if err := m.auditor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// resolve returns the live entry for the requested environment, falling back
// to Base, in persisted form. A tombstoned candidate counts as absent, so
// deleting an environment override re-exposes the Base value. Returns nil
// when no candidate holds a live value.
func (m *Manager) resolve(ctx context.Context, namespace, key string, env store.Environment) (*store.ConfigEntry, error) {
	candidates := []store.Environment{env}
	if env != store.EnvBase {
		candidates = append(candidates, store.EnvBase)
	}

	for _, candidate := range candidates {
		entry, err := m.loadCurrent(ctx, store.NewConfigKey(namespace, key, candidate))
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}
	}
	return nil, nil
}

// loadCurrent consults the cache, then storage behind a singleflight so a
// cold key costs one backend read no matter how many readers miss together.
// Entries are cached under their own environment in persisted form; secrets
// stay enveloped in both tiers.
func (m *Manager) loadCurrent(ctx context.Context, key store.ConfigKey) (*store.ConfigEntry, error) {
	if entry, ok := m.cacheGet(ctx, key); ok {
		return entry, nil
	}

	v, err, _ := m.flights.Do(key.String(), func() (any, error) {
		// A flight that just finished may have populated the cache between
		// our miss and this one starting.
		if entry, ok := m.cacheGet(ctx, key); ok {
			return entry, nil
		}

		current, err := m.backend.GetCurrent(ctx, key)
		if store.IsNotFound(err) {
			return (*store.ConfigEntry)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		if current.Tombstone {
			return (*store.ConfigEntry)(nil), nil
		}

		m.cachePut(ctx, key, current)
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.ConfigEntry), nil
}

func (m *Manager) authorize(actor string, action rbac.Action, resource rbac.Resource) error {
	if m.enforcer == nil {
		return nil
	}
	return m.enforcer.Authorize(actor, action, resource)
}

func (m *Manager) sealSecret(plaintext []byte, key store.ConfigKey) ([]byte, error) {
	if m.crypto == nil {
		return nil, crypto.NewEncryptionError("encrypt", crypto.ErrNoActiveKey)
	}
	// The key identity is the additional data, so an envelope copied onto
	// another key fails authentication.
	return m.crypto.Seal(plaintext, key.String())
}

func (m *Manager) openSecret(entry *store.ConfigEntry) ([]byte, error) {
	if m.crypto == nil {
		return nil, crypto.NewEncryptionError("decrypt", crypto.ErrNoActiveKey)
	}
	return m.crypto.Open(entry.Value, entry.ConfigKey().String())
}

// openInPlace decrypts a secret entry for a reader already authorized for
// read_secret. Failures leave the envelope in place rather than failing the
// surrounding listing; the per-key Get path reports the error properly.
func (m *Manager) openInPlace(entry *store.ConfigEntry) {
	plaintext, err := m.openSecret(entry)
	if err != nil {
		m.logger.Warn("cannot open secret envelope, returning it sealed",
			"key", entry.ConfigKey().String(),
			"version", entry.Version,
			"error", err,
		)
		return
	}
	entry.Value = plaintext
	m.recordSecret(secretOpen)
}

func (m *Manager) recordAudit(event *audit.Event) {
	if m.auditor == nil {
		return
	}
	m.auditor.Record(event)
}

func (m *Manager) auditDenied(actor string, action rbac.Action, namespace, key string, env store.Environment) {
	m.recordAudit(&audit.Event{
		Type:        audit.EventPermissionDenied,
		Actor:       actor,
		Namespace:   namespace,
		Key:         key,
		Environment: env,
		Success:     false,
		Reason:      string(action),
	})
}

func (m *Manager) cacheGet(ctx context.Context, key store.ConfigKey) (*store.ConfigEntry, bool) {
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Get(ctx, key)
}

func (m *Manager) cachePut(ctx context.Context, key store.ConfigKey, entry *store.ConfigEntry) {
	if m.cache == nil {
		return
	}
	m.cache.Put(ctx, key, entry)
}

// cacheInvalidate removes key from both tiers before the caller acknowledges
// its write. An L2 failure is alarmed but does not fail the durable write:
// a tier that cannot delete cannot serve the stale entry either.
func (m *Manager) cacheInvalidate(ctx context.Context, key store.ConfigKey) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, key); err != nil {
		m.logger.Error("cache invalidation failed after write",
			"key", key.String(),
			"error", err,
		)
	}
}

func (m *Manager) observe(operation, namespace string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordOperation(operation, namespace, outcome(err), m.clock().Sub(start))
}

func (m *Manager) recordSecret(operation string) {
	if m.metrics != nil {
		m.metrics.RecordSecretAccess(operation)
	}
}

func (m *Manager) recordValueSize(operation string, sizeBytes int) {
	if m.metrics != nil {
		m.metrics.RecordValueSize(operation, sizeBytes)
	}
}

// outcome maps an operation error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case store.IsNotFound(err):
		return "not_found"
	case store.IsPermissionDenied(err):
		return "denied"
	case store.IsValidation(err):
		return "invalid"
	case store.IsVersionConflict(err):
		return "conflict"
	default:
		return "error"
	}
}
