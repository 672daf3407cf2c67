package common

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string to a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "info", "":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}

// Log output formats accepted by NewLoggerWithWriter.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatColor = "color"
)

// Logger provides a centralized logging interface for apismoke.
// Structured logs go to stderr by default so that suite progress on stdout stays readable.
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a new structured text logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(level, FormatText, os.Stderr)
}

// NewLoggerWithWriter builds a logger writing to w in the given format.
// Unknown formats fall back to text. Sensitive attributes are masked using the global masker.
func NewLoggerWithWriter(level LogLevel, format string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.ToSlogLevel(),
		ReplaceAttr: maskAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatColor, "colour":
		ch := NewColorHandler(w, opts)
		ch.SetColorEnabled(true)
		handler = ch
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// maskAttr redacts sensitive attribute values for the stdlib handlers.
func maskAttr(_ []string, a slog.Attr) slog.Attr {
	m := GetGlobalMasker()
	if !m.IsEnabled() {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		if m.IsSensitiveKey(a.Key) {
			return slog.String(a.Key, maskedValue)
		}
		return a
	}
	masked := m.MaskValue(a.Key, a.Value.String())
	if s, ok := masked.(string); ok && s != a.Value.String() {
		return slog.String(a.Key, s)
	}
	return a
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
	}
}

// WithSuite returns a logger with suite context
func (l *Logger) WithSuite(suite string) *Logger {
	return &Logger{
		Logger: l.Logger.With("suite", suite),
		level:  l.level,
	}
}

// WithStep returns a logger with step context
func (l *Logger) WithStep(step string) *Logger {
	return &Logger{
		Logger: l.Logger.With("step", step),
		level:  l.level,
	}
}

// WithAuth returns a logger with authentication context
func (l *Logger) WithAuth(authType string) *Logger {
	return &Logger{
		Logger: l.Logger.With("auth", authType),
		level:  l.level,
	}
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", storeType),
		level:  l.level,
	}
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, url string) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", method, "url", url),
		level:  l.level,
	}
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}
