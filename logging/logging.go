// Package logging provides the structured logger shared by the rules server.
//
// Logs always go to stderr or another explicit writer, never stdout: stdout
// carries the MCP transport.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level is a minimum logging level.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format selects the handler output format.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds configuration for NewLogger.
type Config struct {
	// Level sets the minimum level. Defaults to LevelInfo.
	Level Level
	// Format selects text or JSON output. Defaults to text.
	Format Format
	// Output receives log records. Defaults to os.Stderr.
	Output io.Writer
	// AddSource includes file and line in records.
	AddSource bool
}

// DefaultConfig returns info-level text logging to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// Logger is a context-aware wrapper around slog. A nil *Logger and the
// logger returned by NewNopLogger discard everything.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logger from cfg.
func NewLogger(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level.slogLevel(),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.ErrorContext(ctx, msg, args...)
	}
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// Slog returns the underlying slog.Logger, or a discarding one.
func (l *Logger) Slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.logger
}

// ParseLevel parses a level name. Matching is case-insensitive and
// "warning" is accepted for warn.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %q", level)
	}
}

// ParseFormat parses an output format name.
func ParseFormat(format string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid log format: %q", format)
	}
}

// FetchKind distinguishes the two ways a mirror is brought up to date.
type FetchKind string

// Fetch kinds.
const (
	FetchClone FetchKind = "clone"
	FetchPull  FetchKind = "pull"
)

// LogFetch logs the outcome of a clone or pull.
func LogFetch(ctx context.Context, logger *Logger, kind FetchKind, url string, duration time.Duration, err error) {
	fields := []any{
		"kind", string(kind),
		"url", url,
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}

	if err != nil {
		logger.Warn(ctx, "rules repository fetch failed", append(fields, "error", err.Error())...)
		return
	}
	logger.Info(ctx, "rules repository fetched", fields...)
}

// LogFreshHit logs a freshness check that needed no fetch.
func LogFreshHit(ctx context.Context, logger *Logger, age time.Duration) {
	logger.Debug(ctx, "mirror fresh",
		"age", age.Round(time.Millisecond).String(),
		"result", "hit")
}

// LogFetchWait logs a caller joining a fetch that is already running.
func LogFetchWait(ctx context.Context, logger *Logger) {
	logger.Debug(ctx, "waiting for in-flight fetch", "result", "shared")
}
