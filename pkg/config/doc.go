// Package config provides runtime configuration for Vesta.
//
// This package handles loading, validating, and defaulting configuration
// from YAML files with environment variable overrides. Component packages
// (store, cache, crypto, rbac, audit, server) never read files or the
// environment themselves; wiring code loads a Config here and hands each
// component its resolved sub-config.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("vesta.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("vesta.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention VESTA_SECTION_FIELD.
// For example:
//
//   - VESTA_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - VESTA_STORAGE_POSTGRES_PASSWORD overrides storage.postgres.password
//   - VESTA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file values.
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (DefaultConfig)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Key Material
//
// Encryption keys name their material source rather than carrying raw bytes
// in the main file. Each key sets exactly one of:
//
//	crypto:
//	  enabled: true
//	  keys:
//	    - id: "2026-01"
//	      material_env: "VESTA_KEY_2026_01"   # env var holding hex
//	    - id: "2025-07"
//	      material_file: "/etc/vesta/keys/2025-07.hex"
//
// Inline material is accepted for development. KeyConfig.ResolveMaterial
// performs the resolution at wiring time; Validate checks source exclusivity
// and inline hex up front.
//
// # Validation
//
// All configuration is validated during loading. Validation accumulates
// every failure rather than stopping at the first, and errors include field
// paths:
//
//	configuration validation failed with 2 errors:
//	  - storage.postgres.host: host is required when backend is postgres
//	  - crypto.keys[0]: exactly one of material, material_file, material_env must be set (none given)
//
// # Example Configuration
//
// A minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/vesta.db"
//
//	audit:
//	  sink: "sqlite"
//	  sqlite:
//	    path: "data/audit.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// Defaults cover everything the file does not mention, so an empty file is
// also valid.
package config
