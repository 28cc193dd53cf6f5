// Package logging builds the structured root logger for Vesta.
//
// Everything in Vesta logs through log/slog; components hold a *slog.Logger
// derived from the root logger with a "component" attribute. New constructs
// that root logger from config.LoggingConfig: minimum level, output format
// (json, text, or console), optional source locations, and secret redaction.
//
// # Secret redaction
//
// A configuration store handles exactly the material that must never reach a
// log stream: encryption key material, bearer tokens, and connection-string
// passwords. When redaction is enabled the handler scrubs attribute values
// matching those shapes before a record is written, and masks the values of
// attributes whose keys already announce sensitivity (password, secret,
// token, material, and the like). Custom patterns from the configuration
// file are applied after the built-in ones.
//
// Redaction is a guard against accidents, not a substitute for keeping
// secrets out of log calls in the first place.
package logging
