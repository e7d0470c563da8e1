// Package logger provides structured logging with automatic secret redaction
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so that protocol code never reaches for raw
// zerolog events carrying secret material
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string

	// Output is where logs are written (default: os.Stderr)
	Output io.Writer

	// Pretty enables human-readable console output
	Pretty bool

	// TimeFormat for timestamps (default: RFC3339)
	TimeFormat string

	// CallerEnabled adds file and line number to logs
	CallerEnabled bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// New creates a new logger with the given configuration
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: cfg.TimeFormat,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()

	if cfg.CallerEnabled {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// With creates a child logger with additional context
func (l *Logger) With() *Context {
	return &Context{zctx: l.zlog.With()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
}

// Context provides fluent API for adding fields to logs
type Context struct {
	zctx zerolog.Context
}

// Str adds a string field
func (c *Context) Str(key, val string) *Context {
	c.zctx = c.zctx.Str(key, val)
	return c
}

// Int adds an int field
func (c *Context) Int(key string, val int) *Context {
	c.zctx = c.zctx.Int(key, val)
	return c
}

// Logger returns the configured logger
func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.zctx.Logger()}
}

// Event represents a log event
type Event struct {
	zevent *zerolog.Event
}

// Str adds a string field to the event
func (e *Event) Str(key, val string) *Event {
	e.zevent.Str(key, val)
	return e
}

// Int adds an int field to the event
func (e *Event) Int(key string, val int) *Event {
	e.zevent.Int(key, val)
	return e
}

// Stringer adds a fmt.Stringer field to the event
func (e *Event) Stringer(key string, val interface{ String() string }) *Event {
	e.zevent.Stringer(key, val)
	return e
}

// Err adds an error field to the event
func (e *Event) Err(err error) *Event {
	e.zevent.AnErr("error", err)
	return e
}

// Dur adds a duration field to the event
func (e *Event) Dur(key string, val time.Duration) *Event {
	e.zevent.Dur(key, val)
	return e
}

// Msg completes the event with a message
func (e *Event) Msg(msg string) {
	e.zevent.Msg(msg)
}

// DebugEvent returns a debug event
func (l *Logger) DebugEvent() *Event {
	return &Event{zevent: l.zlog.Debug()}
}

// InfoEvent returns an info event
func (l *Logger) InfoEvent() *Event {
	return &Event{zevent: l.zlog.Info()}
}

// WarnEvent returns a warn event
func (l *Logger) WarnEvent() *Event {
	return &Event{zevent: l.zlog.Warn()}
}

// ErrorEvent returns an error event
func (l *Logger) ErrorEvent() *Event {
	return &Event{zevent: l.zlog.Error()}
}

// Fingerprint returns a short hex digest of public material such as a
// session identifier or a public key, suitable for correlating log lines
func Fingerprint(public []byte) string {
	if len(public) == 0 {
		return "<empty>"
	}
	sum := sha256.Sum256(public)
	return hex.EncodeToString(sum[:6])
}
