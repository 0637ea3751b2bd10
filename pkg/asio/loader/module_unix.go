//go:build (darwin || freebsd || linux) && !android

// ABOUTME: Module mapping on Unix-like systems
// ABOUTME: Loads shared objects exporting the driver entry point through dlopen
package loader

import (
	"github.com/ebitengine/purego"
)

type sharedObject struct {
	handle uintptr
}

// OpenModule maps a shared object that exports the driver entry point.
func OpenModule(path string) (Module, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &sharedObject{handle: h}, nil
}

func (m *sharedObject) Lookup(symbol string) (uintptr, error) {
	return purego.Dlsym(m.handle, symbol)
}

func (m *sharedObject) Close() error {
	return purego.Dlclose(m.handle)
}
