package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for Vesta. It is loaded from a YAML file
// with LoadConfig, optionally overridden by VESTA_* environment variables,
// and validated before use. Component packages never read files or the
// environment themselves; wiring code hands them the resolved sub-configs.
type Config struct {
	// Server contains REST server configuration.
	Server ServerConfig `yaml:"server"`

	// Storage contains storage backend configuration.
	Storage StorageConfig `yaml:"storage"`

	// Cache contains read cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// Crypto contains encryption key configuration.
	Crypto CryptoConfig `yaml:"crypto"`

	// RBAC contains role-based access control configuration.
	RBAC RBACConfig `yaml:"rbac"`

	// Audit contains audit trail configuration.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the REST server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading an entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests during
	// shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request body size. The cap must cover the 1 MiB
	// value limit plus JSON and base64 framing.
	// Default: 2097152 (2 MiB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Auth contains actor authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit contains per-actor rate limiting configuration.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig controls how the server establishes actor identity.
type AuthConfig struct {
	// Mode selects the authentication scheme.
	// Options: "header" (trusts the X-Actor header, development only),
	// "jwt" (Authorization: Bearer with an HS256 token whose subject
	// claim names the actor).
	// Default: "header"
	Mode string `yaml:"mode"`

	// JWTSecret is the HS256 signing secret. Required when Mode is "jwt".
	// Prefer the VESTA_SERVER_AUTH_JWT_SECRET environment variable over
	// placing the secret in the file.
	JWTSecret string `yaml:"jwt_secret"`
}

// RateLimitConfig contains per-actor rate limiting configuration.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Requests is the number of requests allowed per actor per window.
	// Default: 300
	Requests int `yaml:"requests"`

	// Window is the fixed window length.
	// Default: 1m
	Window time.Duration `yaml:"window"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "memory", "sqlite", "postgres"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration, used when Backend is
	// "sqlite".
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Postgres contains PostgreSQL backend configuration, used when
	// Backend is "postgres".
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite storage configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/vesta.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// PostgresConfig contains PostgreSQL storage configuration.
type PostgresConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `yaml:"host"`

	// Port is the PostgreSQL server port.
	// Default: 5432
	Port int `yaml:"port"`

	// Database is the database name.
	Database string `yaml:"database"`

	// User is the database user.
	User string `yaml:"user"`

	// Password is the database password. Prefer the
	// VESTA_STORAGE_POSTGRES_PASSWORD environment variable over placing
	// the password in the file.
	Password string `yaml:"password"`

	// SSLMode is the PostgreSQL SSL mode.
	// Options: "disable", "allow", "prefer", "require", "verify-ca",
	// "verify-full"
	// Default: "require"
	SSLMode string `yaml:"ssl_mode"`

	// MaxConns is the maximum pool size.
	// Default: 10
	MaxConns int32 `yaml:"max_conns"`

	// MinConns is the number of connections kept open when idle.
	// Default: 2
	MinConns int32 `yaml:"min_conns"`

	// ConnectTimeout bounds the initial connect and ping.
	// Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DSN assembles the pgx connection string from the individual fields,
// escaping the user and password.
func (c *PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// CacheConfig contains read cache configuration.
type CacheConfig struct {
	// Enabled controls whether the read cache is constructed. When false
	// the manager reads storage directly.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// L1Capacity bounds the number of in-process entries.
	// Default: 1024
	L1Capacity uint64 `yaml:"l1_capacity"`

	// L1TTL is the in-process entry lifetime.
	// Default: 30s
	L1TTL time.Duration `yaml:"l1_ttl"`

	// L2TTL is the shared-tier entry lifetime.
	// Default: 5m
	L2TTL time.Duration `yaml:"l2_ttl"`

	// L2 selects the shared second tier.
	// Options: "none", "redis", "file"
	// Default: "none"
	L2 string `yaml:"l2"`

	// Redis contains Redis tier configuration, used when L2 is "redis".
	Redis RedisConfig `yaml:"redis"`

	// File contains file tier configuration, used when L2 is "file".
	File FileCacheConfig `yaml:"file"`
}

// RedisConfig contains Redis cache tier configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password authenticates against the server. Empty means no auth.
	// Prefer the VESTA_CACHE_REDIS_PASSWORD environment variable over
	// placing the password in the file.
	Password string `yaml:"password"`

	// DB selects the Redis logical database.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces the tier's keys.
	// Default: "vesta:cache:"
	KeyPrefix string `yaml:"key_prefix"`

	// OpTimeout bounds each cache operation so a slow Redis cannot stall
	// the read path.
	// Default: 250ms
	OpTimeout time.Duration `yaml:"op_timeout"`

	// ConnectTimeout bounds the initial ping.
	// Default: 2s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// FileCacheConfig contains file cache tier configuration.
type FileCacheConfig struct {
	// Dir is the directory holding cached entries.
	// Default: "data/cache"
	Dir string `yaml:"dir"`
}

// CryptoConfig contains encryption key configuration. Secrets cannot be
// written or read unless the engine is enabled with at least one key.
type CryptoConfig struct {
	// Enabled controls whether the encryption engine is constructed.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ActiveKey is the id of the key used for new encryptions. Empty
	// selects the first listed key. Retired keys stay listed so
	// envelopes written under them remain decryptable.
	ActiveKey string `yaml:"active_key"`

	// Keys lists the configured encryption keys.
	Keys []KeyConfig `yaml:"keys"`
}

// KeyConfig describes one encryption key. Exactly one material source must
// be set per key.
type KeyConfig struct {
	// ID identifies the key in envelopes and must stay stable for the
	// lifetime of the data encrypted under it.
	ID string `yaml:"id"`

	// Material is the key material as inline hex. Suitable for
	// development only; prefer MaterialFile or MaterialEnv.
	Material string `yaml:"material"`

	// MaterialFile is the path of a file holding the hex material.
	MaterialFile string `yaml:"material_file"`

	// MaterialEnv is the name of an environment variable holding the hex
	// material.
	MaterialEnv string `yaml:"material_env"`
}

// RBACConfig contains role-based access control configuration.
type RBACConfig struct {
	// Enabled controls whether authorization is enforced. When false,
	// every actor is allowed every action.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// PolicyFile is the YAML file holding role definitions and actor
	// assignments. Required when Enabled is true.
	PolicyFile string `yaml:"policy_file"`

	// Watch hot-reloads the policy file when it changes on disk.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a reload fires.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// AuditConfig contains audit trail configuration.
type AuditConfig struct {
	// Enabled controls whether operations are audited.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Sink selects where audit events are stored.
	// Options: "memory", "file", "sqlite"
	// Default: "sqlite"
	Sink string `yaml:"sink"`

	// File contains file sink configuration, used when Sink is "file".
	File FileSinkConfig `yaml:"file"`

	// SQLite contains SQLite sink configuration, used when Sink is
	// "sqlite".
	SQLite SQLiteSinkConfig `yaml:"sqlite"`

	// BufferSize is the capacity of the async event channel. A full
	// buffer drops the event and raises an alarm rather than blocking
	// the operation.
	// Default: 1024
	BufferSize int `yaml:"buffer_size"`

	// WriteTimeout bounds each sink write attempt.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxRetries is how many times a failed write is retried before the
	// failure escalates.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the initial delay between retries; it doubles per
	// attempt.
	// Default: 100ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// Retention contains retention pruning configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// FileSinkConfig contains file audit sink configuration.
type FileSinkConfig struct {
	// Path is the JSON lines file to append to.
	// Default: "data/audit.jsonl"
	Path string `yaml:"path"`

	// SyncOnWrite fsyncs after every event. Slower, but an OS crash
	// cannot lose acknowledged events.
	// Default: false
	SyncOnWrite bool `yaml:"sync_on_write"`
}

// SQLiteSinkConfig contains SQLite audit sink configuration.
type SQLiteSinkConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains audit retention configuration.
type RetentionConfig struct {
	// Enabled schedules retention pruning alongside the server.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Days is the number of days to retain audit events. 0 keeps events
	// forever (no age-based pruning).
	// Default: 365
	Days int `yaml:"days"`

	// MaxEvents is the maximum number of events to keep. 0 means
	// unlimited.
	// Default: 0
	MaxEvents int64 `yaml:"max_events"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete writes events to a JSON lines archive before
	// deleting them. A failed archive aborts the delete.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for archive files.
	// Default: "data/audit-archives/"
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets scrubs values that look like credentials (hex key
	// material, bearer tokens, connection-string passwords) from log
	// attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns contains additional redaction patterns applied when
	// RedactSecrets is enabled.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is an optional separate port for metrics (0 = serve on the
	// main listener).
	// Default: 0
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "vesta"
	Subsystem string `yaml:"subsystem"`

	// OperationDurationBuckets defines histogram buckets for store
	// operation durations in seconds.
	// Default: [0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5]
	OperationDurationBuckets []float64 `yaml:"operation_duration_buckets"`

	// ValueSizeBuckets defines histogram buckets for stored value sizes
	// in bytes.
	// Default: [64, 256, 1024, 4096, 16384, 65536, 262144, 1048576]
	ValueSizeBuckets []float64 `yaml:"value_size_buckets"`
}
