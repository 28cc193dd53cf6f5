package config

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/vesta/pkg/crypto"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.
	// "storage.sqlite.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rules fail. All validation errors are collected and returned
// together rather than failing on the first.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateCrypto(&cfg.Crypto)...)
	errs = append(errs, validateRBAC(&cfg.RBAC)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must not be negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must not be negative",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must not be negative",
		})
	}

	switch cfg.Auth.Mode {
	case "header", "jwt":
	default:
		errs = append(errs, FieldError{
			Field:   "server.auth.mode",
			Message: fmt.Sprintf("invalid mode %q (must be one of: header, jwt)", cfg.Auth.Mode),
		})
	}
	if cfg.Auth.Mode == "jwt" && cfg.Auth.JWTSecret == "" {
		errs = append(errs, FieldError{
			Field:   "server.auth.jwt_secret",
			Message: "jwt secret is required when auth mode is jwt",
		})
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Requests <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests",
				Message: "requests must be positive when rate limiting is enabled",
			})
		}
		if cfg.RateLimit.Window <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.window",
				Message: "window must be positive when rate limiting is enabled",
			})
		}
	}

	return errs
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "path is required when backend is sqlite",
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_open_conns",
				Message: "max open conns must not be negative",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_idle_conns",
				Message: "max idle conns must not be negative",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.busy_timeout",
				Message: "busy timeout must not be negative",
			})
		}
	case "postgres":
		if cfg.Postgres.Host == "" {
			errs = append(errs, FieldError{
				Field:   "storage.postgres.host",
				Message: "host is required when backend is postgres",
			})
		}
		if cfg.Postgres.Database == "" {
			errs = append(errs, FieldError{
				Field:   "storage.postgres.database",
				Message: "database is required when backend is postgres",
			})
		}
		if cfg.Postgres.User == "" {
			errs = append(errs, FieldError{
				Field:   "storage.postgres.user",
				Message: "user is required when backend is postgres",
			})
		}
		if cfg.Postgres.Port < 1 || cfg.Postgres.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "storage.postgres.port",
				Message: fmt.Sprintf("invalid port %d (must be 1-65535)", cfg.Postgres.Port),
			})
		}
		switch cfg.Postgres.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			errs = append(errs, FieldError{
				Field:   "storage.postgres.ssl_mode",
				Message: fmt.Sprintf("invalid ssl mode %q", cfg.Postgres.SSLMode),
			})
		}
		if cfg.Postgres.MinConns > cfg.Postgres.MaxConns {
			errs = append(errs, FieldError{
				Field:   "storage.postgres.min_conns",
				Message: "min conns must not exceed max conns",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: memory, sqlite, postgres)", cfg.Backend),
		})
	}

	return errs
}

// validateCache validates cache configuration.
func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.L1Capacity == 0 {
		errs = append(errs, FieldError{
			Field:   "cache.l1_capacity",
			Message: "l1 capacity must be positive when the cache is enabled",
		})
	}
	if cfg.L1TTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.l1_ttl",
			Message: "l1 ttl must be positive when the cache is enabled",
		})
	}

	switch cfg.L2 {
	case "none":
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "cache.redis.addr",
				Message: "addr is required when l2 is redis",
			})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "cache.redis.db",
				Message: "db must not be negative",
			})
		}
	case "file":
		if cfg.File.Dir == "" {
			errs = append(errs, FieldError{
				Field:   "cache.file.dir",
				Message: "dir is required when l2 is file",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cache.l2",
			Message: fmt.Sprintf("invalid l2 tier %q (must be one of: none, redis, file)", cfg.L2),
		})
	}

	if cfg.L2 != "none" && cfg.L2TTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.l2_ttl",
			Message: "l2 ttl must be positive when an l2 tier is configured",
		})
	}

	return errs
}

// validateCrypto validates encryption key configuration. Inline material is
// checked here; file and environment sources are resolved at wiring time,
// so only their presence is checked.
func validateCrypto(cfg *CryptoConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if len(cfg.Keys) == 0 {
		errs = append(errs, FieldError{
			Field:   "crypto.keys",
			Message: "at least one key is required when crypto is enabled",
		})
		return errs
	}

	seen := make(map[string]bool, len(cfg.Keys))
	for i, key := range cfg.Keys {
		prefix := fmt.Sprintf("crypto.keys[%d]", i)

		if key.ID == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: "key id is required",
			})
		} else if seen[key.ID] {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate key id %q", key.ID),
			})
		}
		seen[key.ID] = true

		sources := 0
		if key.Material != "" {
			sources++
		}
		if key.MaterialFile != "" {
			sources++
		}
		if key.MaterialEnv != "" {
			sources++
		}
		switch sources {
		case 0:
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "exactly one of material, material_file, material_env must be set (none given)",
			})
		case 1:
		default:
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("exactly one of material, material_file, material_env must be set (%d given)", sources),
			})
		}

		if key.Material != "" {
			material, err := hex.DecodeString(strings.TrimSpace(key.Material))
			if err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".material",
					Message: "material is not valid hex",
				})
			} else if len(material) != crypto.KeySize {
				errs = append(errs, FieldError{
					Field:   prefix + ".material",
					Message: fmt.Sprintf("material must be %d bytes (%d hex characters), got %d bytes", crypto.KeySize, crypto.KeySize*2, len(material)),
				})
			}
		}
	}

	if cfg.ActiveKey != "" && !seen[cfg.ActiveKey] {
		errs = append(errs, FieldError{
			Field:   "crypto.active_key",
			Message: fmt.Sprintf("active key %q is not among the configured keys", cfg.ActiveKey),
		})
	}

	return errs
}

// validateRBAC validates role-based access control configuration.
func validateRBAC(cfg *RBACConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.PolicyFile == "" {
		errs = append(errs, FieldError{
			Field:   "rbac.policy_file",
			Message: "policy file is required when rbac is enabled",
		})
	}
	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "rbac.watch_debounce",
			Message: "watch debounce must not be negative",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Sink {
	case "memory":
	case "file":
		if cfg.File.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.file.path",
				Message: "path is required when sink is file",
			})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "path is required when sink is sqlite",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "audit.sink",
			Message: fmt.Sprintf("invalid sink %q (must be one of: memory, file, sqlite)", cfg.Sink),
		})
	}

	if cfg.BufferSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer_size",
			Message: "buffer size must be positive",
		})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.max_retries",
			Message: "max retries must not be negative",
		})
	}
	if cfg.RetryBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retry_backoff",
			Message: "retry backoff must not be negative",
		})
	}

	errs = append(errs, validateRetention(&cfg.Retention)...)

	return errs
}

// validateRetention validates audit retention configuration.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "days must not be negative",
		})
	}
	if cfg.MaxEvents < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_events",
			Message: "max events must not be negative",
		})
	}
	if cfg.Days == 0 && cfg.MaxEvents == 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention",
			Message: "retention is enabled but neither days nor max_events sets a limit",
		})
	}
	if cfg.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "audit.retention.prune_schedule",
			Message: "prune schedule is required when retention is enabled",
		})
	} else if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.retention.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	if cfg.ArchiveBeforeDelete && cfg.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.retention.archive_path",
			Message: "archive path is required when archive_before_delete is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be one of: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be one of: json, text, console)", cfg.Logging.Format),
		})
	}

	for i, pattern := range cfg.Logging.RedactPatterns {
		if pattern.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
			continue
		}
		if _, err := regexp.Compile(pattern.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.port",
			Message: fmt.Sprintf("invalid port %d (must be 0-65535)", cfg.Metrics.Port),
		})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "path is required when metrics are enabled",
		})
	}

	errs = append(errs, validateBuckets("telemetry.metrics.operation_duration_buckets", cfg.Metrics.OperationDurationBuckets)...)
	errs = append(errs, validateBuckets("telemetry.metrics.value_size_buckets", cfg.Metrics.ValueSizeBuckets)...)

	return errs
}

// validateBuckets checks that histogram buckets are strictly increasing.
func validateBuckets(field string, buckets []float64) []FieldError {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return []FieldError{{
				Field:   field,
				Message: "histogram buckets must be strictly increasing",
			}}
		}
	}
	return nil
}
