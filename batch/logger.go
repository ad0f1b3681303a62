package batch

import (
	"go.uber.org/zap"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug covers per-sample detail.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo covers flow setup and source changes.
	LogLevelInfo
	// LogLevelWarn covers samples that degraded to nodata.
	LogLevelWarn
	// LogLevelError covers failures that end a flow.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger receives the Batcher's log messages. It is optional; without one
// nothing is logged.
type Logger interface {
	// Log writes a message at the given level, formatted with fmt.Sprintf.
	Log(level LogLevel, format string, args ...interface{})

	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// NoOpLogger discards every message. It is the default Logger.
type NoOpLogger struct{}

// Log implements the Logger interface.
func (n *NoOpLogger) Log(level LogLevel, format string, args ...interface{}) {}

// Debug implements the Logger interface.
func (n *NoOpLogger) Debug(format string, args ...interface{}) {}

// Info implements the Logger interface.
func (n *NoOpLogger) Info(format string, args ...interface{}) {}

// Warn implements the Logger interface.
func (n *NoOpLogger) Warn(format string, args ...interface{}) {}

// Error implements the Logger interface.
func (n *NoOpLogger) Error(format string, args ...interface{}) {}

// ZapLogger adapts a zap SugaredLogger.
type ZapLogger struct {
	Sugar *zap.SugaredLogger
}

// NewZapLogger wraps l.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{Sugar: l.Sugar()}
}

// Log implements the Logger interface.
func (z *ZapLogger) Log(level LogLevel, format string, args ...interface{}) {
	switch level {
	case LogLevelDebug:
		z.Sugar.Debugf(format, args...)
	case LogLevelInfo:
		z.Sugar.Infof(format, args...)
	case LogLevelWarn:
		z.Sugar.Warnf(format, args...)
	default:
		z.Sugar.Errorf(format, args...)
	}
}

// Debug implements the Logger interface.
func (z *ZapLogger) Debug(format string, args ...interface{}) {
	z.Sugar.Debugf(format, args...)
}

// Info implements the Logger interface.
func (z *ZapLogger) Info(format string, args ...interface{}) {
	z.Sugar.Infof(format, args...)
}

// Warn implements the Logger interface.
func (z *ZapLogger) Warn(format string, args ...interface{}) {
	z.Sugar.Warnf(format, args...)
}

// Error implements the Logger interface.
func (z *ZapLogger) Error(format string, args ...interface{}) {
	z.Sugar.Errorf(format, args...)
}
