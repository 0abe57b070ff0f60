// Copyright (c) 2024 RoseLoverX

package utils

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

const (
	DebugLevel   LogLevel = "debug"
	InfoLevel    LogLevel = "info"
	WarnLevel    LogLevel = "warn"
	ErrorLevel   LogLevel = "error"
	DisableLevel LogLevel = "disable"
)

// ParseLevel maps a textual level onto a LogLevel, falling back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error", "fatal", "panic":
		return ErrorLevel
	case "disable", "none", "off":
		return DisableLevel
	default:
		return InfoLevel
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case DisableLevel:
		// above fatal, nothing gets through
		return zapcore.FatalLevel + 1
	default:
		return zapcore.InfoLevel
	}
}

// Logger is a prefixed, levelled logger backed by zap. Clones made with
// WithPrefix share the level of their parent.
type Logger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewLogger writes console-encoded entries to stderr.
func NewLogger(prefix string) *Logger {
	return NewLoggerTo(prefix, os.Stderr)
}

func NewLoggerTo(prefix string, w io.Writer) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	base := zap.New(core)
	return newLogger(base, level, prefix)
}

// FromZap wraps an existing zap logger. The core it was built with still
// applies its own level; SetLevel can only narrow it further.
func FromZap(z *zap.Logger, prefix string) *Logger {
	return newLogger(z, zap.NewAtomicLevelAt(zapcore.DebugLevel), prefix)
}

func newLogger(base *zap.Logger, level zap.AtomicLevel, prefix string) *Logger {
	named := base
	if prefix != "" {
		named = base.Named(prefix)
	}
	return &Logger{base: base, sugar: named.Sugar(), level: level}
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	return newLogger(l.base, l.level, prefix)
}

func (l *Logger) SetLevel(level LogLevel) *Logger {
	l.level.SetLevel(level.zapLevel())
	return l
}

func (l *Logger) Debug(msg string, args ...any) { l.logf(zapcore.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.logf(zapcore.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.logf(zapcore.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.logf(zapcore.ErrorLevel, msg, args) }

func (l *Logger) Debugf(format string, args ...any) { l.Debug(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.Info(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Warn(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.Error(format, args...) }

func (l *Logger) logf(level zapcore.Level, msg string, args []any) {
	if !l.level.Enabled(level) {
		return
	}
	switch level {
	case zapcore.DebugLevel:
		l.sugar.Debugf(msg, args...)
	case zapcore.InfoLevel:
		l.sugar.Infof(msg, args...)
	case zapcore.WarnLevel:
		l.sugar.Warnf(msg, args...)
	default:
		l.sugar.Errorf(msg, args...)
	}
}

func (l *Logger) Flush() error {
	return l.base.Sync()
}
