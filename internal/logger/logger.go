package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared terrain logger. It is a no-op logger until Init runs so
// packages and tests can log unconditionally.
var Log = zap.NewNop()

// Init builds the global logger. An empty level means "info".
func Init(level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("logger: invalid level %q: %w", level, err)
		}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: build: %w", err)
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
