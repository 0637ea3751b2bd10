// ABOUTME: Package-level zap logger for the asio package
// ABOUTME: Defaults to a no-op logger until the host installs one
package asio

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger. It is a no-op logger unless SetLogger
// was called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger.
// This must be called before any handle is released.
func SetLogger(l *zap.Logger) {
	logger = l
}
