package config

import (
	"strings"
	"testing"
	"time"
)

// hasFieldError reports whether err is a ValidationError containing an error
// for the given field path.
func hasFieldError(t *testing.T, err error, field string) bool {
	t.Helper()
	if err == nil {
		return false
	}
	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	for _, fieldErr := range validationErr.Errors {
		if fieldErr.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("expected no error for default config, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenAddress = ""
	cfg.Storage.Backend = "etcd"
	cfg.Telemetry.Logging.Level = "trace"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(validationErr.Errors), err)
	}
	if !strings.Contains(err.Error(), "3 errors") {
		t.Errorf("error message should mention the count: %q", err.Error())
	}
}

func TestValidate_Server(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "missing listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -time.Second },
			wantField: "server.read_timeout",
		},
		{
			name:      "negative max body bytes",
			mutate:    func(c *Config) { c.Server.MaxBodyBytes = -1 },
			wantField: "server.max_body_bytes",
		},
		{
			name:      "unknown auth mode",
			mutate:    func(c *Config) { c.Server.Auth.Mode = "mtls" },
			wantField: "server.auth.mode",
		},
		{
			name:      "jwt mode without secret",
			mutate:    func(c *Config) { c.Server.Auth.Mode = "jwt" },
			wantField: "server.auth.jwt_secret",
		},
		{
			name: "rate limit enabled with zero requests",
			mutate: func(c *Config) {
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.Requests = 0
			},
			wantField: "server.rate_limit.requests",
		},
		{
			name: "rate limit enabled with zero window",
			mutate: func(c *Config) {
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.Window = 0
			},
			wantField: "server.rate_limit.window",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}
}

func TestValidate_Storage(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.Storage.Backend = "etcd" },
			wantField: "storage.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "sqlite"
				c.Storage.SQLite.Path = ""
			},
			wantField: "storage.sqlite.path",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Storage.Backend = "postgres"
				c.Storage.Postgres.Database = "vesta"
				c.Storage.Postgres.User = "vesta"
			},
			wantField: "storage.postgres.host",
		},
		{
			name: "postgres invalid ssl mode",
			mutate: func(c *Config) {
				c.Storage.Backend = "postgres"
				c.Storage.Postgres.Host = "localhost"
				c.Storage.Postgres.Database = "vesta"
				c.Storage.Postgres.User = "vesta"
				c.Storage.Postgres.SSLMode = "maybe"
			},
			wantField: "storage.postgres.ssl_mode",
		},
		{
			name: "postgres min conns above max",
			mutate: func(c *Config) {
				c.Storage.Backend = "postgres"
				c.Storage.Postgres.Host = "localhost"
				c.Storage.Postgres.Database = "vesta"
				c.Storage.Postgres.User = "vesta"
				c.Storage.Postgres.MinConns = 20
				c.Storage.Postgres.MaxConns = 10
			},
			wantField: "storage.postgres.min_conns",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}

	t.Run("memory backend needs nothing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = "memory"
		cfg.Storage.SQLite.Path = ""
		if err := Validate(cfg); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})
}

func TestValidate_Cache(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "zero l1 capacity",
			mutate:    func(c *Config) { c.Cache.L1Capacity = 0 },
			wantField: "cache.l1_capacity",
		},
		{
			name:      "unknown l2 tier",
			mutate:    func(c *Config) { c.Cache.L2 = "memcached" },
			wantField: "cache.l2",
		},
		{
			name: "redis tier without addr",
			mutate: func(c *Config) {
				c.Cache.L2 = "redis"
				c.Cache.Redis.Addr = ""
			},
			wantField: "cache.redis.addr",
		},
		{
			name: "file tier without dir",
			mutate: func(c *Config) {
				c.Cache.L2 = "file"
				c.Cache.File.Dir = ""
			},
			wantField: "cache.file.dir",
		},
		{
			name: "l2 tier with zero ttl",
			mutate: func(c *Config) {
				c.Cache.L2 = "redis"
				c.Cache.L2TTL = 0
			},
			wantField: "cache.l2_ttl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}

	t.Run("disabled cache skips checks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Cache.Enabled = false
		cfg.Cache.L1Capacity = 0
		if err := Validate(cfg); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})
}

func TestValidate_Crypto(t *testing.T) {
	validMaterial := strings.Repeat("ab", 32)

	tests := []struct {
		name      string
		crypto    CryptoConfig
		wantField string
	}{
		{
			name:      "enabled without keys",
			crypto:    CryptoConfig{Enabled: true},
			wantField: "crypto.keys",
		},
		{
			name: "key without id",
			crypto: CryptoConfig{
				Enabled: true,
				Keys:    []KeyConfig{{Material: validMaterial}},
			},
			wantField: "crypto.keys[0].id",
		},
		{
			name: "duplicate key ids",
			crypto: CryptoConfig{
				Enabled: true,
				Keys: []KeyConfig{
					{ID: "k1", Material: validMaterial},
					{ID: "k1", Material: validMaterial},
				},
			},
			wantField: "crypto.keys[1].id",
		},
		{
			name: "no material source",
			crypto: CryptoConfig{
				Enabled: true,
				Keys:    []KeyConfig{{ID: "k1"}},
			},
			wantField: "crypto.keys[0]",
		},
		{
			name: "two material sources",
			crypto: CryptoConfig{
				Enabled: true,
				Keys:    []KeyConfig{{ID: "k1", Material: validMaterial, MaterialEnv: "VESTA_KEY"}},
			},
			wantField: "crypto.keys[0]",
		},
		{
			name: "material not hex",
			crypto: CryptoConfig{
				Enabled: true,
				Keys:    []KeyConfig{{ID: "k1", Material: "not-hex!"}},
			},
			wantField: "crypto.keys[0].material",
		},
		{
			name: "material wrong length",
			crypto: CryptoConfig{
				Enabled: true,
				Keys:    []KeyConfig{{ID: "k1", Material: "abcd"}},
			},
			wantField: "crypto.keys[0].material",
		},
		{
			name: "active key not configured",
			crypto: CryptoConfig{
				Enabled:   true,
				ActiveKey: "missing",
				Keys:      []KeyConfig{{ID: "k1", Material: validMaterial}},
			},
			wantField: "crypto.active_key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Crypto = tt.crypto
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}

	t.Run("valid key config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Crypto = CryptoConfig{
			Enabled:   true,
			ActiveKey: "k1",
			Keys: []KeyConfig{
				{ID: "k1", Material: validMaterial},
				{ID: "k2", MaterialEnv: "VESTA_KEY_K2"},
			},
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})
}

func TestValidate_RBAC(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RBAC.Enabled = true
	if !hasFieldError(t, Validate(cfg), "rbac.policy_file") {
		t.Error("expected error for missing policy file")
	}

	cfg.RBAC.PolicyFile = "roles.yaml"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestValidate_Audit(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown sink",
			mutate:    func(c *Config) { c.Audit.Sink = "kafka" },
			wantField: "audit.sink",
		},
		{
			name: "file sink without path",
			mutate: func(c *Config) {
				c.Audit.Sink = "file"
				c.Audit.File.Path = ""
			},
			wantField: "audit.file.path",
		},
		{
			name:      "zero buffer size",
			mutate:    func(c *Config) { c.Audit.BufferSize = 0 },
			wantField: "audit.buffer_size",
		},
		{
			name:      "zero write timeout",
			mutate:    func(c *Config) { c.Audit.WriteTimeout = 0 },
			wantField: "audit.write_timeout",
		},
		{
			name: "retention with bad cron expression",
			mutate: func(c *Config) {
				c.Audit.Retention.Enabled = true
				c.Audit.Retention.PruneSchedule = "every day at 3"
			},
			wantField: "audit.retention.prune_schedule",
		},
		{
			name: "retention with no limit",
			mutate: func(c *Config) {
				c.Audit.Retention.Enabled = true
				c.Audit.Retention.Days = 0
				c.Audit.Retention.MaxEvents = 0
			},
			wantField: "audit.retention",
		},
		{
			name: "archive without path",
			mutate: func(c *Config) {
				c.Audit.Retention.Enabled = true
				c.Audit.Retention.ArchiveBeforeDelete = true
				c.Audit.Retention.ArchivePath = ""
			},
			wantField: "audit.retention.archive_path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}

	t.Run("disabled audit skips checks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Audit.Enabled = false
		cfg.Audit.BufferSize = 0
		if err := Validate(cfg); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name: "empty redact pattern",
			mutate: func(c *Config) {
				c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x"}}
			},
			wantField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name: "invalid redact pattern",
			mutate: func(c *Config) {
				c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x", Pattern: "["}}
			},
			wantField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name:      "metrics port out of range",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Port = 70000 },
			wantField: "telemetry.metrics.port",
		},
		{
			name:      "metrics enabled without path",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "" },
			wantField: "telemetry.metrics.path",
		},
		{
			name: "non-increasing duration buckets",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.OperationDurationBuckets = []float64{0.1, 0.1, 0.5}
			},
			wantField: "telemetry.metrics.operation_duration_buckets",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if !hasFieldError(t, Validate(cfg), tt.wantField) {
				t.Errorf("expected error for field %q", tt.wantField)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		err := ValidationError{}
		if err.Error() != "configuration validation failed" {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		err := ValidationError{Errors: []FieldError{
			{Field: "server.listen_address", Message: "listen address is required"},
		}}
		want := "configuration validation failed: server.listen_address: listen address is required"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := ValidationError{Errors: []FieldError{
			{Field: "a", Message: "first"},
			{Field: "b", Message: "second"},
		}}
		msg := err.Error()
		if !strings.Contains(msg, "2 errors") {
			t.Errorf("message should mention the error count: %q", msg)
		}
		if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
			t.Errorf("message should list every error: %q", msg)
		}
	})
}
