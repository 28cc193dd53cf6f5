package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in
// tests. It starts from defaults and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a ConfigBuilder seeded with DefaultConfig. The
// resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *DefaultConfig()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithJWTAuth switches actor authentication to JWT with the given secret.
func (b *ConfigBuilder) WithJWTAuth(secret string) *ConfigBuilder {
	b.cfg.Server.Auth.Mode = "jwt"
	b.cfg.Server.Auth.JWTSecret = secret
	return b
}

// WithRateLimit enables per-actor rate limiting.
func (b *ConfigBuilder) WithRateLimit(requests int, window time.Duration) *ConfigBuilder {
	b.cfg.Server.RateLimit.Enabled = true
	b.cfg.Server.RateLimit.Requests = requests
	b.cfg.Server.RateLimit.Window = window
	return b
}

// WithMemoryStorage selects the in-memory storage backend.
func (b *ConfigBuilder) WithMemoryStorage() *ConfigBuilder {
	b.cfg.Storage.Backend = "memory"
	return b
}

// WithSQLitePath sets the SQLite database path and selects the backend.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Storage.Backend = "sqlite"
	b.cfg.Storage.SQLite.Path = path
	return b
}

// WithPostgres sets PostgreSQL connection details and selects the backend.
func (b *ConfigBuilder) WithPostgres(host, database, user, password string, port int) *ConfigBuilder {
	b.cfg.Storage.Backend = "postgres"
	b.cfg.Storage.Postgres.Host = host
	b.cfg.Storage.Postgres.Database = database
	b.cfg.Storage.Postgres.User = user
	b.cfg.Storage.Postgres.Password = password
	b.cfg.Storage.Postgres.Port = port
	return b
}

// WithCacheEnabled sets whether the read cache is constructed.
func (b *ConfigBuilder) WithCacheEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Cache.Enabled = enabled
	return b
}

// WithRedisCache selects a Redis L2 tier at the given address.
func (b *ConfigBuilder) WithRedisCache(addr string) *ConfigBuilder {
	b.cfg.Cache.L2 = "redis"
	b.cfg.Cache.Redis.Addr = addr
	return b
}

// WithFileCache selects a file L2 tier in the given directory.
func (b *ConfigBuilder) WithFileCache(dir string) *ConfigBuilder {
	b.cfg.Cache.L2 = "file"
	b.cfg.Cache.File.Dir = dir
	return b
}

// WithCryptoKey enables encryption and appends a key with inline material.
func (b *ConfigBuilder) WithCryptoKey(id, materialHex string) *ConfigBuilder {
	b.cfg.Crypto.Enabled = true
	b.cfg.Crypto.Keys = append(b.cfg.Crypto.Keys, KeyConfig{
		ID:       id,
		Material: materialHex,
	})
	return b
}

// WithRBACPolicyFile enables authorization against the given policy file.
func (b *ConfigBuilder) WithRBACPolicyFile(path string) *ConfigBuilder {
	b.cfg.RBAC.Enabled = true
	b.cfg.RBAC.PolicyFile = path
	return b
}

// WithAuditSink selects the audit sink.
func (b *ConfigBuilder) WithAuditSink(sink string) *ConfigBuilder {
	b.cfg.Audit.Sink = sink
	return b
}

// WithAuditSQLitePath sets the SQLite audit sink path and selects the sink.
func (b *ConfigBuilder) WithAuditSQLitePath(path string) *ConfigBuilder {
	b.cfg.Audit.Sink = "sqlite"
	b.cfg.Audit.SQLite.Path = path
	return b
}

// WithRetention enables age-based audit retention.
func (b *ConfigBuilder) WithRetention(days int) *ConfigBuilder {
	b.cfg.Audit.Retention.Enabled = true
	b.cfg.Audit.Retention.Days = days
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are collected.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// MinimalConfig returns a minimal valid configuration for tests that do not
// care about most values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
