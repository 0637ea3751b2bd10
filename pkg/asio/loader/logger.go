// ABOUTME: Package-level zap logger for the driver loader
// ABOUTME: Defaults to a no-op logger until the host installs one
package loader

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger. Call it before loading drivers.
func SetLogger(l *zap.Logger) {
	logger = l
}
