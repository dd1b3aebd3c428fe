package logger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/turnbullerin/autoinject/internal/logger"
)

// TestNoopLogger ensures the noop logger implements the interface and all
// methods are callable without side effects.
func TestNoopLogger(t *testing.T) {
	noopLog := logger.NewNoopLogger()

	var _ logger.Logger = noopLog

	noopLog.Debug("debug message", logger.String("key", "value"))
	noopLog.Info("info message", logger.Int("count", 3))
	noopLog.Warn("warn message", logger.Bool("flag", true))
	noopLog.Error("error message", logger.Error(errors.New("boom")))

	child := noopLog.With(logger.String("component", "test")).Named("child")
	child.Info("child message", logger.Duration("elapsed", time.Millisecond))

	if err := noopLog.Sync(); err != nil {
		t.Fatalf("noop Sync returned error: %v", err)
	}
}

// TestNewLogger_LevelParsing verifies bad levels fall back instead of
// failing construction.
func TestNewLogger_LevelParsing(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error", "nonsense"} {
		l := logger.NewLogger(logger.LoggingConfig{Level: level, Development: true})
		if l == nil {
			t.Fatalf("NewLogger returned nil for level %q", level)
		}
	}
}
