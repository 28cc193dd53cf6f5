package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Values start from DefaultConfig, are overlaid by the file, and are
// validated before returning. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention VESTA_SECTION_FIELD (e.g. VESTA_SERVER_LISTEN_ADDRESS)
// and always take precedence over file values.
//
// The loading sequence is:
//  1. Start from default values
//  2. Overlay the YAML file
//  3. Overlay environment variables
//  4. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables holding unparseable durations, integers, or
// booleans are ignored; validation catches the fields they leave behind.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("VESTA_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("VESTA_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("VESTA_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("VESTA_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("VESTA_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("VESTA_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}
	if val := os.Getenv("VESTA_SERVER_AUTH_MODE"); val != "" {
		cfg.Server.Auth.Mode = val
	}
	if val := os.Getenv("VESTA_SERVER_AUTH_JWT_SECRET"); val != "" {
		cfg.Server.Auth.JWTSecret = val
	}
	if val := os.Getenv("VESTA_SERVER_RATE_LIMIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.RateLimit.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_SERVER_RATE_LIMIT_REQUESTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.RateLimit.Requests = i
		}
	}
	if val := os.Getenv("VESTA_SERVER_RATE_LIMIT_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.RateLimit.Window = d
		}
	}

	// Storage overrides
	if val := os.Getenv("VESTA_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("VESTA_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLite.Path = val
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_HOST"); val != "" {
		cfg.Storage.Postgres.Host = val
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.Postgres.Port = i
		}
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_DATABASE"); val != "" {
		cfg.Storage.Postgres.Database = val
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_USER"); val != "" {
		cfg.Storage.Postgres.User = val
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_PASSWORD"); val != "" {
		cfg.Storage.Postgres.Password = val
	}
	if val := os.Getenv("VESTA_STORAGE_POSTGRES_SSL_MODE"); val != "" {
		cfg.Storage.Postgres.SSLMode = val
	}

	// Cache overrides
	if val := os.Getenv("VESTA_CACHE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_CACHE_L1_CAPACITY"); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Cache.L1Capacity = u
		}
	}
	if val := os.Getenv("VESTA_CACHE_L1_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.L1TTL = d
		}
	}
	if val := os.Getenv("VESTA_CACHE_L2_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.L2TTL = d
		}
	}
	if val := os.Getenv("VESTA_CACHE_L2"); val != "" {
		cfg.Cache.L2 = val
	}
	if val := os.Getenv("VESTA_CACHE_REDIS_ADDR"); val != "" {
		cfg.Cache.Redis.Addr = val
	}
	if val := os.Getenv("VESTA_CACHE_REDIS_PASSWORD"); val != "" {
		cfg.Cache.Redis.Password = val
	}
	if val := os.Getenv("VESTA_CACHE_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.Redis.DB = i
		}
	}
	if val := os.Getenv("VESTA_CACHE_FILE_DIR"); val != "" {
		cfg.Cache.File.Dir = val
	}

	// Crypto overrides
	if val := os.Getenv("VESTA_CRYPTO_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Crypto.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_CRYPTO_ACTIVE_KEY"); val != "" {
		cfg.Crypto.ActiveKey = val
	}

	// RBAC overrides
	if val := os.Getenv("VESTA_RBAC_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RBAC.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_RBAC_POLICY_FILE"); val != "" {
		cfg.RBAC.PolicyFile = val
	}
	if val := os.Getenv("VESTA_RBAC_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RBAC.Watch = b
		}
	}

	// Audit overrides
	if val := os.Getenv("VESTA_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_AUDIT_SINK"); val != "" {
		cfg.Audit.Sink = val
	}
	if val := os.Getenv("VESTA_AUDIT_FILE_PATH"); val != "" {
		cfg.Audit.File.Path = val
	}
	if val := os.Getenv("VESTA_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLite.Path = val
	}
	if val := os.Getenv("VESTA_AUDIT_BUFFER_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.BufferSize = i
		}
	}
	if val := os.Getenv("VESTA_AUDIT_RETENTION_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Retention.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("VESTA_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VESTA_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VESTA_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VESTA_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("VESTA_TELEMETRY_METRICS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.Metrics.Port = i
		}
	}
}
