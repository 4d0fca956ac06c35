package log

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/kataras/golog"
)

// Level is a logging severity. Levels order from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables logging.
	LevelNone
)

var levelNames = [...]string{"debug", "info", "warn", "error", "none"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelNone {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts a config value such as "debug" or "WARN" into a Level.
// Unknown values fall back to LevelInfo and report ok=false.
func ParseLevel(s string) (level Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "none", "off", "disable":
		return LevelNone, true
	}
	return LevelInfo, false
}

// Logger is the logging contract used by the pipeline, the session manager
// and the data sources.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

type holder struct{ Logger }

var defaultLogger atomic.Pointer[holder]

func init() {
	defaultLogger.Store(&holder{NewGologLogger(golog.Default)})
}

// SetDefaultLogger replaces the package-level logger. A nil logger
// silences it.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	defaultLogger.Store(&holder{logger})
}

// GetDefaultLogger returns the current package-level logger
func GetDefaultLogger() Logger {
	return defaultLogger.Load().Logger
}

// OrDefault returns l, or the package-level logger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return GetDefaultLogger()
	}
	return l
}

// For returns a logger that tags every line with component, falling back to
// the package-level logger when l is nil.
func For(l Logger, component string) Logger {
	l = OrDefault(l)
	if _, ok := l.(NoOpLogger); ok {
		return l
	}
	if _, ok := l.(*NoOpLogger); ok {
		return l
	}
	return &componentLogger{next: l, prefix: "[" + component + "] "}
}

type componentLogger struct {
	next   Logger
	prefix string
}

func (c *componentLogger) Debug(format string, v ...any) { c.next.Debug(c.prefix+format, v...) }
func (c *componentLogger) Info(format string, v ...any)  { c.next.Info(c.prefix+format, v...) }
func (c *componentLogger) Warn(format string, v ...any)  { c.next.Warn(c.prefix+format, v...) }
func (c *componentLogger) Error(format string, v ...any) { c.next.Error(c.prefix+format, v...) }
