//go:build windows && (amd64 || arm64)

// ABOUTME: Direct vtable calls for the real-time path on Windows
// ABOUTME: Uses the runtime's syscall path, which needs no heap allocation
package loader

import "syscall"

// call1 invokes a one-argument method through its function pointer.
func call1(fn, this uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, this)
	return r
}
