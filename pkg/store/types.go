package store

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Environment identifies the deployment tier a configuration value applies
// to. Values set in a non-Base environment shadow the Base value for readers
// of that environment but never modify it.
type Environment string

const (
	EnvBase        Environment = "base"
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
	EnvEdge        Environment = "edge"
)

// Environments lists all valid environments.
func Environments() []Environment {
	return []Environment{EnvBase, EnvDevelopment, EnvStaging, EnvProduction, EnvEdge}
}

// Valid reports whether e is one of the defined environments.
func (e Environment) Valid() bool {
	switch e {
	case EnvBase, EnvDevelopment, EnvStaging, EnvProduction, EnvEdge:
		return true
	}
	return false
}

// String returns the canonical lowercase name.
func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment converts a user-supplied name into an Environment.
// It accepts the canonical names plus the common short forms "dev",
// "stage", and "prod". Matching is case-insensitive.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "":
		return EnvBase, nil
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging", "stage":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "edge":
		return EnvEdge, nil
	}
	return "", NewValidationError("environment", fmt.Sprintf("unknown environment %q", s))
}

// ConfigKey is the composite identity of a configuration value:
// namespace, key, and environment. It is immutable once created.
type ConfigKey struct {
	Namespace   string      `json:"namespace"`
	Key         string      `json:"key"`
	Environment Environment `json:"environment"`
}

// NewConfigKey builds a ConfigKey from its parts.
func NewConfigKey(namespace, key string, env Environment) ConfigKey {
	return ConfigKey{Namespace: namespace, Key: key, Environment: env}
}

// String renders the key as "namespace:key:environment". This form is used
// for cache keys and log fields.
func (k ConfigKey) String() string {
	return k.Namespace + ":" + k.Key + ":" + string(k.Environment)
}

// WithEnvironment returns a copy of the key pointing at another environment.
func (k ConfigKey) WithEnvironment(env Environment) ConfigKey {
	k.Environment = env
	return k
}

// Metadata carries the audit-relevant attributes of a configuration version.
type Metadata struct {
	// CreatedAt is when this version was written.
	CreatedAt time.Time `json:"created_at"`

	// CreatedBy is the actor that wrote this version.
	CreatedBy string `json:"created_by"`

	// Tags are free-form labels attached to the version.
	Tags []string `json:"tags,omitempty"`

	// Description explains the change (or, for rollbacks, the origin version).
	Description string `json:"description,omitempty"`
}

// ConfigEntry is one immutable version of a configuration value.
//
// For a given ConfigKey, version numbers start at 1 and increase strictly
// with no gaps; the highest version is the current one. Entries form an
// append-only chain linked through PreviousID. Secret values hold a
// serialized crypto envelope in Value, never plaintext, while at rest or in
// any cache tier.
type ConfigEntry struct {
	// ID uniquely identifies this version record (UUID v4).
	ID string `json:"id"`

	Namespace   string      `json:"namespace"`
	Key         string      `json:"key"`
	Environment Environment `json:"environment"`

	// Value is the configuration payload: plaintext bytes, or a serialized
	// envelope when Secret is set.
	Value []byte `json:"value"`

	// Secret marks the value as envelope-encrypted at rest.
	Secret bool `json:"secret"`

	// Tombstone marks a logical delete. A tombstoned current version makes
	// the key read as absent while preserving its history.
	Tombstone bool `json:"tombstone"`

	// Version is the per-ConfigKey monotonic version number, starting at 1.
	Version uint64 `json:"version"`

	// PreviousID links to the prior version record, forming the history
	// chain. Empty for version 1.
	PreviousID string `json:"previous_id,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// ConfigKey returns the composite identity of the entry.
func (e *ConfigEntry) ConfigKey() ConfigKey {
	return ConfigKey{Namespace: e.Namespace, Key: e.Key, Environment: e.Environment}
}

// Clone returns a deep copy. Cache tiers and list results hand out clones so
// callers can never mutate shared state.
func (e *ConfigEntry) Clone() *ConfigEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Value = slices.Clone(e.Value)
	out.Metadata.Tags = slices.Clone(e.Metadata.Tags)
	return &out
}
