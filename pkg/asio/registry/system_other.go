//go:build !windows

// ABOUTME: Registry store for platforms without a system registry
// ABOUTME: Returns an empty in-memory store so discovery reports no drivers
package registry

// System returns the platform store. Without a Windows registry there are
// no installed drivers, so this is an empty Memory store.
func System() Store {
	return NewMemory()
}
