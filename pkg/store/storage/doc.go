// Package storage implements the store.Backend persistence interface three
// ways: an in-memory backend for tests and ephemeral deployments, a SQLite
// backend for single-node durability, and a PostgreSQL backend for shared
// deployments.
//
// Backends store append-only version chains. AppendVersion assigns the next
// version number and links the new entry to its predecessor as a single
// atomic unit, so concurrent writers to the same key serialize and version
// numbers stay gap-free. Writers to different keys never block each other.
//
// Backends treat values as opaque bytes. Secret values arrive already
// encrypted by the caller; no backend ever sees or logs plaintext secrets.
package storage
