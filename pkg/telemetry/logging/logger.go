package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"mercator-hq/vesta/pkg/config"
)

// LogFormat selects the output encoding of the root logger.
type LogFormat string

const (
	// FormatJSON emits one JSON object per record, for log pipelines.
	FormatJSON LogFormat = "json"

	// FormatText emits logfmt-style key=value records.
	FormatText LogFormat = "text"

	// FormatConsole is FormatText without the time attribute, for reading
	// in a terminal during development.
	FormatConsole LogFormat = "console"
)

// New builds the root logger from cfg, writing to w (os.Stdout when nil).
// When cfg.RedactSecrets is set the returned logger scrubs secret-shaped
// attribute values before they reach the output handler.
func New(cfg *config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if format == FormatConsole {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}

	var handler slog.Handler
	switch format {
	case FormatText, FormatConsole:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	if cfg.RedactSecrets {
		handler = NewRedactingHandler(handler, NewRedactor(cfg.RedactPatterns))
	}

	return slog.New(handler), nil
}

// ParseLevel converts a level name into its slog.Level. The empty string
// means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat converts a format name into its LogFormat. The empty string
// means json.
func ParseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	}
	return FormatJSON, fmt.Errorf("unknown log format %q", s)
}
