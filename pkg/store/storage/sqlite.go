package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"mercator-hq/vesta/pkg/store"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/vesta.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteBackend implements store.Backend using SQLite via database/sql.
type SQLiteBackend struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteBackend opens (or creates) the database at config.Path and
// initializes the schema.
func NewSQLiteBackend(config *SQLiteConfig) (*SQLiteBackend, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "store.storage.sqlite")

	// Transactions begin IMMEDIATE so the write lock is taken up front;
	// a concurrent appender waits on the busy timeout instead of failing
	// mid-transaction with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_txlock=immediate",
		url.PathEscape(config.Path), config.BusyTimeout.Milliseconds())
	if config.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, store.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	b := &SQLiteBackend{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := b.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite backend initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return b, nil
}

// initialize creates the schema and verifies the schema version.
func (b *SQLiteBackend) initialize() error {
	if _, err := b.db.Exec(Schema); err != nil {
		return store.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := b.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return store.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := b.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return store.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return store.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

const sqliteEntryColumns = `id, namespace, key, environment, version, value, secret, tombstone, previous_id, created_at, created_by, tags, description`

// GetCurrent returns the highest version recorded for key, tombstones
// included.
func (b *SQLiteBackend) GetCurrent(ctx context.Context, key store.ConfigKey) (*store.ConfigEntry, error) {
	query := `SELECT ` + sqliteEntryColumns + `
		FROM config_versions
		WHERE namespace = ? AND key = ? AND environment = ?
		ORDER BY version DESC LIMIT 1`

	row := b.db.QueryRowContext(ctx, query, key.Namespace, key.Key, string(key.Environment))
	entry, err := scanSQLiteEntry(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFoundError(key)
	}
	if err != nil {
		return nil, store.NewStorageError("sqlite", "get_current", err)
	}
	return entry, nil
}

// GetVersion returns one specific version of key.
func (b *SQLiteBackend) GetVersion(ctx context.Context, key store.ConfigKey, version uint64) (*store.ConfigEntry, error) {
	query := `SELECT ` + sqliteEntryColumns + `
		FROM config_versions
		WHERE namespace = ? AND key = ? AND environment = ? AND version = ?`

	row := b.db.QueryRowContext(ctx, query, key.Namespace, key.Key, string(key.Environment), version)
	entry, err := scanSQLiteEntry(row)
	if err == sql.ErrNoRows {
		return nil, store.NewVersionNotFoundError(key, version)
	}
	if err != nil {
		return nil, store.NewStorageError("sqlite", "get_version", err)
	}
	return entry, nil
}

// AppendVersion writes entry as the next version of its key inside a single
// transaction: read the current head, compute version+1, insert. The UNIQUE
// constraint catches appenders that raced past the read.
func (b *SQLiteBackend) AppendVersion(ctx context.Context, entry *store.ConfigEntry) (*store.ConfigEntry, error) {
	key := entry.ConfigKey()

	stored := entry.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Metadata.CreatedAt.IsZero() {
		stored.Metadata.CreatedAt = time.Now().UTC()
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.NewStorageError("sqlite", "begin_append", err)
	}
	defer tx.Rollback()

	var prevID string
	var prevVersion uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM config_versions
		 WHERE namespace = ? AND key = ? AND environment = ?
		 ORDER BY version DESC LIMIT 1`,
		key.Namespace, key.Key, string(key.Environment),
	).Scan(&prevID, &prevVersion)
	switch err {
	case nil:
		stored.Version = prevVersion + 1
		stored.PreviousID = prevID
	case sql.ErrNoRows:
		stored.Version = 1
		stored.PreviousID = ""
	default:
		return nil, store.NewStorageError("sqlite", "read_head", err)
	}

	tags, err := json.Marshal(stored.Metadata.Tags)
	if err != nil {
		return nil, store.NewStorageError("sqlite", "marshal_tags", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO config_versions (`+sqliteEntryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Namespace, stored.Key, string(stored.Environment), stored.Version,
		stored.Value, stored.Secret, stored.Tombstone, stored.PreviousID,
		stored.Metadata.CreatedAt, stored.Metadata.CreatedBy, string(tags), stored.Metadata.Description,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, store.NewVersionConflictError(key, err)
		}
		return nil, store.NewStorageError("sqlite", "append_version", err)
	}

	if err := tx.Commit(); err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, store.NewVersionConflictError(key, err)
		}
		return nil, store.NewStorageError("sqlite", "commit_append", err)
	}

	return stored, nil
}

// ListCurrent returns the current version of every live key in the namespace
// and environment, sorted by key name.
func (b *SQLiteBackend) ListCurrent(ctx context.Context, namespace string, env store.Environment) ([]*store.ConfigEntry, error) {
	query := `SELECT ` + sqliteEntryColumns + `
		FROM config_versions cv
		WHERE cv.namespace = ? AND cv.environment = ?
		  AND cv.version = (
			SELECT MAX(version) FROM config_versions
			WHERE namespace = cv.namespace AND key = cv.key AND environment = cv.environment
		  )
		  AND cv.tombstone = 0
		ORDER BY cv.key ASC`

	rows, err := b.db.QueryContext(ctx, query, namespace, string(env))
	if err != nil {
		return nil, store.NewStorageError("sqlite", "list_current", err)
	}
	defer rows.Close()

	var entries []*store.ConfigEntry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, store.NewStorageError("sqlite", "scan_current", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("sqlite", "list_current", err)
	}
	return entries, nil
}

// ListVersions returns the full version chain for key, newest first.
func (b *SQLiteBackend) ListVersions(ctx context.Context, key store.ConfigKey) ([]*store.ConfigEntry, error) {
	query := `SELECT ` + sqliteEntryColumns + `
		FROM config_versions
		WHERE namespace = ? AND key = ? AND environment = ?
		ORDER BY version DESC`

	rows, err := b.db.QueryContext(ctx, query, key.Namespace, key.Key, string(key.Environment))
	if err != nil {
		return nil, store.NewStorageError("sqlite", "list_versions", err)
	}
	defer rows.Close()

	var entries []*store.ConfigEntry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, store.NewStorageError("sqlite", "scan_versions", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("sqlite", "list_versions", err)
	}
	if len(entries) == 0 {
		return nil, store.NewNotFoundError(key)
	}
	return entries, nil
}

// PruneVersions removes historical versions beyond the keepLast most recent.
func (b *SQLiteBackend) PruneVersions(ctx context.Context, key store.ConfigKey, keepLast int) (int64, error) {
	if keepLast < 1 {
		keepLast = 1
	}

	result, err := b.db.ExecContext(ctx,
		`DELETE FROM config_versions
		 WHERE namespace = ? AND key = ? AND environment = ?
		   AND version NOT IN (
			SELECT version FROM config_versions
			WHERE namespace = ? AND key = ? AND environment = ?
			ORDER BY version DESC LIMIT ?
		   )`,
		key.Namespace, key.Key, string(key.Environment),
		key.Namespace, key.Key, string(key.Environment), keepLast,
	)
	if err != nil {
		return 0, store.NewStorageError("sqlite", "prune_versions", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStorageError("sqlite", "prune_versions", err)
	}
	if removed > 0 {
		b.logger.Debug("pruned versions", "key", key.String(), "removed", removed, "keep_last", keepLast)
	}
	return removed, nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return store.NewStorageError("sqlite", "close", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSQLiteEntry scans one config_versions row into a ConfigEntry.
func scanSQLiteEntry(row rowScanner) (*store.ConfigEntry, error) {
	var entry store.ConfigEntry
	var env string
	var tags sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Namespace, &entry.Key, &env, &entry.Version,
		&entry.Value, &entry.Secret, &entry.Tombstone, &entry.PreviousID,
		&entry.Metadata.CreatedAt, &entry.Metadata.CreatedBy, &tags, &entry.Metadata.Description,
	)
	if err != nil {
		return nil, err
	}

	entry.Environment = store.Environment(env)
	if tags.Valid && tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &entry.Metadata.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return &entry, nil
}

// isSQLiteUniqueViolation reports whether err is a UNIQUE constraint failure.
func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
