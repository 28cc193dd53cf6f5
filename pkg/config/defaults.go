package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress     = "127.0.0.1:8080"
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxBodyBytes      = int64(2 * 1024 * 1024)
	DefaultAuthMode          = "header"
	DefaultRateLimitRequests = 300
	DefaultRateLimitWindow   = time.Minute

	// Storage defaults
	DefaultStorageBackend         = "sqlite"
	DefaultSQLitePath             = "data/vesta.db"
	DefaultSQLiteMaxOpenConns     = 10
	DefaultSQLiteMaxIdleConns     = 5
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultPostgresPort           = 5432
	DefaultPostgresSSLMode        = "require"
	DefaultPostgresMaxConns       = int32(10)
	DefaultPostgresMinConns       = int32(2)
	DefaultPostgresConnectTimeout = 5 * time.Second

	// Cache defaults
	DefaultCacheL1Capacity     = uint64(1024)
	DefaultCacheL1TTL          = 30 * time.Second
	DefaultCacheL2TTL          = 5 * time.Minute
	DefaultCacheL2             = "none"
	DefaultRedisAddr           = "localhost:6379"
	DefaultRedisKeyPrefix      = "vesta:cache:"
	DefaultRedisOpTimeout      = 250 * time.Millisecond
	DefaultRedisConnectTimeout = 2 * time.Second
	DefaultFileCacheDir        = "data/cache"

	// RBAC defaults
	DefaultRBACWatchDebounce = 100 * time.Millisecond

	// Audit defaults
	DefaultAuditSink            = "sqlite"
	DefaultAuditFilePath        = "data/audit.jsonl"
	DefaultAuditSQLitePath      = "data/audit.db"
	DefaultAuditBufferSize      = 1024
	DefaultAuditWriteTimeout    = 5 * time.Second
	DefaultAuditMaxRetries      = 3
	DefaultAuditRetryBackoff    = 100 * time.Millisecond
	DefaultRetentionDays        = 365
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionArchivePath = "data/audit-archives/"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "mercator"
	DefaultMetricsSubsystem = "vesta"
)

// DefaultConfig returns a configuration with every field at its default.
// LoadConfig unmarshals the YAML file over this value, so fields whose
// defaults are true (cache, audit, metrics, WAL mode, secret redaction)
// stay true unless the file explicitly disables them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			Auth: AuthConfig{
				Mode: DefaultAuthMode,
			},
			RateLimit: RateLimitConfig{
				Enabled:  false,
				Requests: DefaultRateLimitRequests,
				Window:   DefaultRateLimitWindow,
			},
		},
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
			SQLite: SQLiteConfig{
				Path:         DefaultSQLitePath,
				MaxOpenConns: DefaultSQLiteMaxOpenConns,
				MaxIdleConns: DefaultSQLiteMaxIdleConns,
				WALMode:      true,
				BusyTimeout:  DefaultSQLiteBusyTimeout,
			},
			Postgres: PostgresConfig{
				Port:           DefaultPostgresPort,
				SSLMode:        DefaultPostgresSSLMode,
				MaxConns:       DefaultPostgresMaxConns,
				MinConns:       DefaultPostgresMinConns,
				ConnectTimeout: DefaultPostgresConnectTimeout,
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			L1Capacity: DefaultCacheL1Capacity,
			L1TTL:      DefaultCacheL1TTL,
			L2TTL:      DefaultCacheL2TTL,
			L2:         DefaultCacheL2,
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				KeyPrefix:      DefaultRedisKeyPrefix,
				OpTimeout:      DefaultRedisOpTimeout,
				ConnectTimeout: DefaultRedisConnectTimeout,
			},
			File: FileCacheConfig{
				Dir: DefaultFileCacheDir,
			},
		},
		Crypto: CryptoConfig{
			Enabled: false,
		},
		RBAC: RBACConfig{
			Enabled:       false,
			WatchDebounce: DefaultRBACWatchDebounce,
		},
		Audit: AuditConfig{
			Enabled: true,
			Sink:    DefaultAuditSink,
			File: FileSinkConfig{
				Path: DefaultAuditFilePath,
			},
			SQLite: SQLiteSinkConfig{
				Path:        DefaultAuditSQLitePath,
				BusyTimeout: DefaultSQLiteBusyTimeout,
			},
			BufferSize:   DefaultAuditBufferSize,
			WriteTimeout: DefaultAuditWriteTimeout,
			MaxRetries:   DefaultAuditMaxRetries,
			RetryBackoff: DefaultAuditRetryBackoff,
			Retention: RetentionConfig{
				Enabled:       false,
				Days:          DefaultRetentionDays,
				PruneSchedule: DefaultRetentionSchedule,
				ArchivePath:   DefaultRetentionArchivePath,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:         DefaultLoggingLevel,
				Format:        DefaultLoggingFormat,
				RedactSecrets: true,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
				Subsystem: DefaultMetricsSubsystem,
			},
		},
	}
}

// ApplyDefaults fills zero-valued string, numeric, and duration fields with
// their defaults. It backstops configurations assembled in code rather than
// loaded through LoadConfig, and fields a YAML file explicitly set to zero.
// Boolean fields are left alone: false is indistinguishable from unset, so
// their defaults come from DefaultConfig only. Idempotent.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.Auth.Mode == "" {
		cfg.Server.Auth.Mode = DefaultAuthMode
	}
	if cfg.Server.RateLimit.Requests == 0 {
		cfg.Server.RateLimit.Requests = DefaultRateLimitRequests
	}
	if cfg.Server.RateLimit.Window == 0 {
		cfg.Server.RateLimit.Window = DefaultRateLimitWindow
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Storage.Postgres.Port == 0 {
		cfg.Storage.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Storage.Postgres.SSLMode == "" {
		cfg.Storage.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Storage.Postgres.MaxConns == 0 {
		cfg.Storage.Postgres.MaxConns = DefaultPostgresMaxConns
	}
	if cfg.Storage.Postgres.MinConns == 0 {
		cfg.Storage.Postgres.MinConns = DefaultPostgresMinConns
	}
	if cfg.Storage.Postgres.ConnectTimeout == 0 {
		cfg.Storage.Postgres.ConnectTimeout = DefaultPostgresConnectTimeout
	}

	// Cache defaults
	if cfg.Cache.L1Capacity == 0 {
		cfg.Cache.L1Capacity = DefaultCacheL1Capacity
	}
	if cfg.Cache.L1TTL == 0 {
		cfg.Cache.L1TTL = DefaultCacheL1TTL
	}
	if cfg.Cache.L2TTL == 0 {
		cfg.Cache.L2TTL = DefaultCacheL2TTL
	}
	if cfg.Cache.L2 == "" {
		cfg.Cache.L2 = DefaultCacheL2
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Cache.Redis.OpTimeout == 0 {
		cfg.Cache.Redis.OpTimeout = DefaultRedisOpTimeout
	}
	if cfg.Cache.Redis.ConnectTimeout == 0 {
		cfg.Cache.Redis.ConnectTimeout = DefaultRedisConnectTimeout
	}
	if cfg.Cache.File.Dir == "" {
		cfg.Cache.File.Dir = DefaultFileCacheDir
	}

	// RBAC defaults
	if cfg.RBAC.WatchDebounce == 0 {
		cfg.RBAC.WatchDebounce = DefaultRBACWatchDebounce
	}

	// Audit defaults
	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = DefaultAuditSink
	}
	if cfg.Audit.File.Path == "" {
		cfg.Audit.File.Path = DefaultAuditFilePath
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.MaxRetries == 0 {
		cfg.Audit.MaxRetries = DefaultAuditMaxRetries
	}
	if cfg.Audit.RetryBackoff == 0 {
		cfg.Audit.RetryBackoff = DefaultAuditRetryBackoff
	}
	// Retention.Days stays as given: 0 means keep forever.
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Audit.Retention.ArchivePath == "" {
		cfg.Audit.Retention.ArchivePath = DefaultRetentionArchivePath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}
