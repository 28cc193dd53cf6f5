// Package store implements the versioned configuration store at the core of
// Vesta. It defines the configuration data model (keys, entries, environments,
// version history) and the Manager orchestrator that composes authorization,
// caching, storage, encryption, and audit logging behind six public
// operations: Get, Set, Delete, List, History, and Rollback.
//
// Every operation follows the same pipeline: authorize the actor, serve the
// request from the cache tiers or the storage backend, then record an audit
// event. Collaborators are optional; a Manager built with only a storage
// backend skips the authorization, caching, and audit steps while preserving
// the same operation semantics.
//
// Storage backends live in the storage subpackage. Envelope encryption for
// secret values is provided by pkg/crypto, role-based access control by
// pkg/rbac, the two-tier cache by pkg/cache, and audit logging by pkg/audit.
package store
