package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used across the injector.
// It is a narrow view over zap so callers never depend on zap directly.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger with the given fields attached to every
	// entry.
	With(fields ...Field) Logger

	// Named returns a child logger with the given name segment appended.
	Named(name string) Logger

	// Sync flushes buffered entries. Call before process exit.
	Sync() error
}

// LoggingConfig configures logger construction.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string `yaml:"level"`
	// Development enables the human-readable console encoder.
	Development bool `yaml:"development"`
}

type zapLogger struct {
	l *zap.Logger
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(config LoggingConfig) Logger {
	level := zapcore.InfoLevel
	if config.Level != "" {
		if parsed, err := zapcore.ParseLevel(config.Level); err == nil {
			level = parsed
		}
	}

	var cfg zap.Config
	if config.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config built from our own defaults cannot fail to build; fall
		// back to a no-op logger rather than panicking in library code.
		return NewNoopLogger()
	}
	return &zapLogger{l: l}
}

// NewProductionLogger creates a JSON logger at info level.
func NewProductionLogger() Logger {
	return NewLogger(LoggingConfig{Level: "info"})
}

// NewDevelopmentLogger creates a console logger at debug level.
func NewDevelopmentLogger() Logger {
	return NewLogger(LoggingConfig{Level: "debug", Development: true})
}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// NewTestLogger creates a logger suitable for tests: development encoding,
// never flushed.
func NewTestLogger() Logger {
	return NewDevelopmentLogger()
}

func (z *zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

func (z *zapLogger) Named(name string) Logger {
	return &zapLogger{l: z.l.Named(name)}
}

func (z *zapLogger) Sync() error {
	return z.l.Sync()
}
