//go:build !((windows || darwin || freebsd || linux) && (amd64 || arm64))

// ABOUTME: Activator stub for platforms without a foreign calling binding
// ABOUTME: Reports instantiation as unsupported
package loader

import (
	"errors"
	"runtime"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

type unsupportedActivator struct{}

// NativeActivator returns the platform activator.
func NativeActivator() Activator {
	return unsupportedActivator{}
}

func (unsupportedActivator) ClassObject(uintptr, asio.GUID, asio.GUID) (asio.ClassFactory, error) {
	return nil, errors.New("foreign calls are not supported on " + runtime.GOOS + "/" + runtime.GOARCH)
}
