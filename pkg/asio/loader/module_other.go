//go:build !windows && (android || !(darwin || freebsd || linux))

// ABOUTME: Module mapping stub for platforms without a dynamic loader binding
// ABOUTME: Every open fails so callers see a module load error
package loader

import (
	"errors"
	"runtime"
)

// OpenModule always fails on this platform.
func OpenModule(path string) (Module, error) {
	return nil, errors.New("dynamic modules are not supported on " + runtime.GOOS)
}
