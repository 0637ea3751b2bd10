// ABOUTME: Hierarchical key/value store abstraction
// ABOUTME: Windows registry backend plus an in-memory store for tests and other platforms
// Package registry reads the two-level key/value store drivers register in.
//
// On Windows, System returns the real registry. Elsewhere it returns an
// empty Memory store. Values are read into caller-owned UTF-16 buffers so a
// scan never allocates its output.
//
// Example:
//
//	mem := registry.NewMemory()
//	mem.SetString(registry.LocalMachine, `SOFTWARE\ASIO\My Driver`, "CLSID", "{...}")
//	key, err := mem.OpenKey(registry.LocalMachine, `SOFTWARE\ASIO`)
package registry
