// Package logger provides structured logging for ysdb.
//
// Every command handled by the bot logs through a request-scoped child
// carrying request_id, command, user_id and chat_id (see WithContext).
// Output is slog text or JSON. Values logged under the keys token,
// bot_token, password or database_url are replaced with [REDACTED], so
// configuration can be logged as is.
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:   cfg.Logging.Level,
//	    Output:  cfg.Logging.Output,
//	    Format:  cfg.Logging.Format,
//	    Version: version,
//	})
//	log.Info("bot started", "driver", "bolt")
//
//	ctx = logger.WithContext(ctx, log.With("request_id", id))
//	logger.FromContext(ctx).Error("push failed", "error", err)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface used across the bot. Arguments after msg
// are alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	// With returns a child logger that adds keysAndValues to every record.
	With(keysAndValues ...interface{}) Logger
}

// Config mirrors the logging section of the ysdb config file.
type Config struct {
	// Level is logging.level: debug, info, warn or error. YSDB_LOG_LEVEL
	// overrides it. Unknown values log at info.
	Level string

	// Output is logging.output: stdout, stderr or a file appended to.
	// A file that cannot be opened falls back to stderr.
	Output string

	// Format is logging.format: text or json.
	Format string

	// Version, when set, is attached to every record as "version".
	Version string
}

// logger implements the Logger interface using slog.
type logger struct {
	slogger *slog.Logger
}

// New builds a logger from cfg. It never fails.
func New(cfg Config) Logger {
	writer, err := getWriter(cfg.Output)
	if err != nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	slogger := slog.New(handler)
	if cfg.Version != "" {
		slogger = slogger.With("version", cfg.Version)
	}
	if err != nil {
		slogger.Warn("log output unavailable, using stderr", "error", err)
	}

	return &logger{slogger: slogger}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

// With implements Logger.With.
func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{slogger: l.slogger.With(keysAndValues...)}
}

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = map[string]bool{
	"token":        true,
	"bot_token":    true,
	"password":     true,
	"database_url": true,
}

// redact replaces the value of secret attributes.
func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getWriter resolves logging.output. Empty means stderr.
func getWriter(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	}

	// #nosec G304: output path comes from the operator's config
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// Default returns an info level text logger on stderr, the same settings as
// an empty logging section.
func Default() Logger {
	return New(Config{})
}

// Noop returns a logger that discards everything. Packages fall back to it
// when no logger is passed in.
func Noop() Logger {
	return &logger{slogger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
