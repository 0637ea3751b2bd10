//go:build (darwin || freebsd || linux) && (amd64 || arm64)

// ABOUTME: Direct vtable calls for the real-time path on unix
// ABOUTME: Goes through purego, which allocates a little per call
package loader

import "github.com/ebitengine/purego"

// call1 invokes a one-argument method through its function pointer.
// Unlike the Windows build this allocates, so drivers hosted off Windows
// do not get an allocation-free OutputReady.
func call1(fn, this uintptr) uintptr {
	r, _, _ := purego.SyscallN(fn, this)
	return r
}
