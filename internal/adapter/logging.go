package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var logLevels = map[string]slog.Level{
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// Attribute keys whose values never reach the log
var redactedKeys = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
}

// SetupLogger builds the application logger from cfg.
//
// File is a path (~ expanded), "stderr", or empty to discard. Format is
// "json" (default) or "text". Credentials passed as attributes are redacted.
func SetupLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	out, err := openLogSink(cfg.File)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.Level),
		ReplaceAttr: redactCredentials,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "", "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler).With("app", "laptophub"), nil
}

func openLogSink(path string) (io.Writer, error) {
	switch {
	case path == "":
		return io.Discard, nil
	case strings.EqualFold(path, "stderr"):
		return os.Stderr, nil
	}

	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func redactCredentials(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// parseLogLevel maps a config level name to slog.Level; unknown names are INFO
func parseLogLevel(level string) slog.Level {
	if l, ok := logLevels[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
