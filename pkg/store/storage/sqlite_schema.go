package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the configuration store
// schema. The UNIQUE constraint on (namespace, key, environment, version) is
// the backstop for version assignment: a racing append that computes the same
// next version fails the insert instead of silently forking the chain.
const Schema = `
-- Version chain: one row per version of each configuration key.
CREATE TABLE IF NOT EXISTS config_versions (
    id TEXT PRIMARY KEY,
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    environment TEXT NOT NULL,
    version INTEGER NOT NULL,

    -- Payload; secret values arrive already enveloped.
    value BLOB NOT NULL,
    secret BOOLEAN NOT NULL DEFAULT 0,
    tombstone BOOLEAN NOT NULL DEFAULT 0,

    -- Chain link to the previous version's id ('' for version 1).
    previous_id TEXT NOT NULL DEFAULT '',

    -- Metadata
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    tags TEXT,
    description TEXT NOT NULL DEFAULT '',

    UNIQUE (namespace, key, environment, version)
);

-- Chain walks and current-version lookups.
CREATE INDEX IF NOT EXISTS idx_config_versions_chain
    ON config_versions(namespace, key, environment, version DESC);

-- Namespace listings.
CREATE INDEX IF NOT EXISTS idx_config_versions_listing
    ON config_versions(namespace, environment);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion inserts the schema version record.
const InsertSchemaVersion = `
INSERT INTO schema_version (version) VALUES (?)
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
