package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/vesta/pkg/config"
)

// mask replaces the value of an attribute whose key marks it sensitive.
const mask = "***"

// redactPattern is one compiled redaction rule.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names. Custom patterns with the same name replace the
// built-in rule.
const (
	PatternKeyMaterial = "key_material"
	PatternBearerToken = "bearer_token"
	PatternDSNPassword = "dsn_password"
	PatternPasswordKV  = "password_kv"
)

// builtinPatterns covers the secret shapes Vesta itself handles: hex key
// material, bearer tokens in captured headers, passwords embedded in
// connection strings, and password fields serialized as key=value text.
var builtinPatterns = []redactPattern{
	{
		name:        PatternKeyMaterial,
		regex:       regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`),
		replacement: mask,
	},
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`),
		replacement: "Bearer " + mask,
	},
	{
		name:        PatternDSNPassword,
		regex:       regexp.MustCompile(`(://[^:/@\s]+):[^@\s]+@`),
		replacement: "$1:" + mask + "@",
	},
	{
		name:        PatternPasswordKV,
		regex:       regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[:=]\s*\S+`),
		replacement: "$1=" + mask,
	},
}

// sensitiveKeyParts mark an attribute as fully maskable by key name alone.
var sensitiveKeyParts = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"authorization", "credential",
	"material", "private_key", "privatekey",
}

// Redactor scrubs secret-shaped substrings from strings and slog attributes.
// It is immutable after construction and safe for concurrent use.
type Redactor struct {
	patterns []redactPattern
}

// NewRedactor builds a Redactor from the built-in rules plus custom ones. A
// custom pattern that does not compile is skipped; configuration validation
// reports it properly before a deployment gets this far.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	patterns := make([]redactPattern, 0, len(builtinPatterns)+len(custom))
	replaced := make(map[string]bool, len(custom))

	compiled := make([]redactPattern, 0, len(custom))
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
		replaced[p.Name] = true
	}

	for _, p := range builtinPatterns {
		if !replaced[p.name] {
			patterns = append(patterns, p)
		}
	}
	patterns = append(patterns, compiled...)

	return &Redactor{patterns: patterns}
}

// RedactString applies every pattern to s and returns the result.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactAttr returns a redacted copy of a. Attributes with sensitive key
// names are masked entirely; other string values are pattern-scrubbed.
// Groups are redacted member by member.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = r.RedactAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, mask)
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	}
	return a
}

// isSensitiveKey reports whether an attribute key alone marks its value as
// secret.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// RedactingHandler wraps a slog.Handler, redacting every attribute before it
// reaches the wrapped handler.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactingHandler wraps inner with redaction through r.
func NewRedactingHandler(inner slog.Handler, r *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: r}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler. The record's message is pattern-scrubbed
// and each attribute redacted.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.RedactString(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs implements slog.Handler. Attributes bound early (for example the
// component name) are redacted once here rather than per record.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
