package bale

import (
	"io"

	"go.uber.org/zap"

	"github.com/amarnathcjd/balegram/internal/utils"
)

// Logger is what the engine logs through. Bring your own by implementing it,
// or use NewLogger / NewZapLogger.
type Logger interface {
	SetLevel(level LogLevel) Logger
	WithPrefix(prefix string) Logger

	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type LogLevel = utils.LogLevel

const (
	LogDebug   = utils.DebugLevel
	LogInfo    = utils.InfoLevel
	LogWarn    = utils.WarnLevel
	LogError   = utils.ErrorLevel
	LogDisable = utils.DisableLevel
)

// NewLogger returns a console logger on stderr.
func NewLogger(level LogLevel, prefix ...string) Logger {
	return &loggerAdapter{internal: utils.NewLogger(getVariadic(prefix, "balegram")).SetLevel(level)}
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, level LogLevel, prefix ...string) Logger {
	return &loggerAdapter{internal: utils.NewLoggerTo(getVariadic(prefix, "balegram"), w).SetLevel(level)}
}

// NewZapLogger logs through an application's own zap logger.
func NewZapLogger(z *zap.Logger, prefix ...string) Logger {
	return &loggerAdapter{internal: utils.FromZap(z, getVariadic(prefix, "balegram"))}
}

type loggerAdapter struct {
	internal *utils.Logger
}

func (l *loggerAdapter) SetLevel(level LogLevel) Logger {
	l.internal.SetLevel(level)
	return l
}

func (l *loggerAdapter) WithPrefix(prefix string) Logger {
	return &loggerAdapter{internal: l.internal.WithPrefix(prefix)}
}

func (l *loggerAdapter) Debug(msg string, args ...any) { l.internal.Debug(msg, args...) }
func (l *loggerAdapter) Info(msg string, args ...any)  { l.internal.Info(msg, args...) }
func (l *loggerAdapter) Warn(msg string, args ...any)  { l.internal.Warn(msg, args...) }
func (l *loggerAdapter) Error(msg string, args ...any) { l.internal.Error(msg, args...) }

func (l *loggerAdapter) Debugf(format string, args ...any) { l.internal.Debugf(format, args...) }
func (l *loggerAdapter) Infof(format string, args ...any)  { l.internal.Infof(format, args...) }
func (l *loggerAdapter) Warnf(format string, args ...any)  { l.internal.Warnf(format, args...) }
func (l *loggerAdapter) Errorf(format string, args ...any) { l.internal.Errorf(format, args...) }

// internalLogger returns the utils logger behind l, or a fresh one when l
// is a user implementation.
func internalLogger(l Logger, prefix string) *utils.Logger {
	if a, ok := l.(*loggerAdapter); ok {
		return a.internal.WithPrefix(prefix)
	}
	return utils.NewLogger(prefix).SetLevel(utils.DisableLevel)
}

// flushLogger syncs the zap core behind l, if there is one.
func flushLogger(l Logger) {
	if a, ok := l.(*loggerAdapter); ok {
		_ = a.internal.Flush()
	}
}
