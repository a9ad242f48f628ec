// Package logger provides the structured logging facility shared by every
// Metis subsystem. It wraps charmbracelet/log behind a small Logger
// interface so callers depend on an interface, not a concrete logging
// library, and so loggers can be threaded through context.Context instead
// of reached for as a package global.
package logger

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is the Metis-native log level vocabulary, mapped onto
// charmbracelet/log's levels by ToCharmlogLevel.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel converts a LogLevel to the charmbracelet/log level it
// configures the underlying logger with. Unrecognized levels default to
// InfoLevel rather than erroring, since logging must never be what breaks
// a process.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Config configures a Logger instance.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns the configuration used outside of tests: info level,
// text formatting, writing to stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig returns the configuration used under `go test`: logging
// disabled entirely, output discarded, so test runs stay quiet by default.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// IsTestEnvironment reports whether the process is running under `go test`.
func IsTestEnvironment() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	return strings.HasSuffix(os.Args[0], ".test") || strings.Contains(os.Args[0], "/_test/")
}

// Logger is the logging interface every Metis subsystem depends on.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a Logger from cfg. A nil cfg resolves to DefaultConfig
// outside of tests and TestConfig under `go test`.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		if IsTestEnvironment() {
			cfg = TestConfig()
		} else {
			cfg = DefaultConfig()
		}
	}
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	opts := charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.AddSource,
	}
	if cfg.JSON {
		opts.Formatter = charmlog.JSONFormatter
	}
	l := charmlog.NewWithOptions(output, opts)
	l.SetLevel(cfg.Level.ToCharmlogLevel())
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

type ctxKeyType struct{}

// LoggerCtxKey is the context.Context key a Logger is stored under.
// Exported so callers (and tests) can stash or probe it directly.
var LoggerCtxKey = ctxKeyType{}

var (
	defaultLoggerOnce sync.Once
	defaultLoggerVal  atomic.Value // Logger
)

func defaultLogger() Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerVal.Store(NewLogger(nil))
	})
	return defaultLoggerVal.Load().(Logger)
}

// SetGlobalLogger replaces the package-level default logger used by
// FromContext fallback and the package-level Debug/Info/Warn/Error helpers.
func SetGlobalLogger(l Logger) {
	if l == nil {
		return
	}
	defaultLoggerVal.Store(l)
}

// ContextWithLogger returns a copy of ctx carrying logger, retrievable via
// FromContext.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

// FromContext extracts the Logger stored in ctx, falling back silently to
// the package default when ctx carries no logger, the wrong type, or a nil
// Logger value.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerCtxKey).(Logger); ok && l != nil {
			return l
		}
	}
	return defaultLogger()
}

// Debug logs at debug level on the package default logger.
func Debug(msg string, keyvals ...any) { defaultLogger().Debug(msg, keyvals...) }

// Info logs at info level on the package default logger.
func Info(msg string, keyvals ...any) { defaultLogger().Info(msg, keyvals...) }

// Warn logs at warn level on the package default logger.
func Warn(msg string, keyvals ...any) { defaultLogger().Warn(msg, keyvals...) }

// Error logs at error level on the package default logger.
func Error(msg string, keyvals ...any) { defaultLogger().Error(msg, keyvals...) }
