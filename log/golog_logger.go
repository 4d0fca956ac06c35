package log

import (
	"github.com/kataras/golog"
)

// GologLogger forwards to a kataras/golog logger. Level filtering is done
// by golog itself.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps an existing golog.Logger without touching its level.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	return &GologLogger{logger: logger}
}

// NewGologLoggerWithLevel wraps logger and sets its level.
func NewGologLoggerWithLevel(logger *golog.Logger, level Level) *GologLogger {
	l := NewGologLogger(logger)
	l.SetLevel(level)
	return l
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }
func (l *GologLogger) Info(format string, v ...any)  { l.logger.Infof(format, v...) }
func (l *GologLogger) Warn(format string, v ...any)  { l.logger.Warnf(format, v...) }
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// SetLevel changes the level of the underlying golog logger.
func (l *GologLogger) SetLevel(level Level) {
	name := level.String()
	if level == LevelNone {
		name = "disable"
	}
	l.logger.SetLevel(name)
}

// GetLevel reads the level back from golog.
func (l *GologLogger) GetLevel() Level {
	switch l.logger.Level {
	case golog.DebugLevel:
		return LevelDebug
	case golog.InfoLevel:
		return LevelInfo
	case golog.WarnLevel:
		return LevelWarn
	case golog.ErrorLevel, golog.FatalLevel:
		return LevelError
	default:
		return LevelNone
	}
}
