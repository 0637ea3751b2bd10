// ABOUTME: Reference-counted driver handle
// ABOUTME: Owns a loaded driver and unloads its module when the last reference goes
package asio

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handle owns one driver instance and the module it was loaded from.
// It starts with one reference. When Release drops the count to zero the
// driver object is released and the module unmapped; after that every
// function pointer obtained from the driver is invalid.
type Handle struct {
	driver Driver
	module io.Closer
	refs   atomic.Int32
	once   sync.Once
	err    error
}

// NewHandle wraps driver. module may be nil for drivers that do not live in
// a separately mapped module.
func NewHandle(driver Driver, module io.Closer) *Handle {
	h := &Handle{driver: driver, module: module}
	h.refs.Store(1)
	return h
}

// Driver returns the capability table, or ErrReleased after the last release.
func (h *Handle) Driver() (Driver, error) {
	if h.refs.Load() <= 0 {
		return nil, ErrReleased
	}
	return h.driver, nil
}

// Acquire adds a reference. It fails once the handle has been torn down.
func (h *Handle) Acquire() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return ErrReleased
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference and tears the handle down when it was the last.
// It returns the remaining count. Releasing an already released handle
// reports ErrReleased and changes nothing.
func (h *Handle) Release() (int32, error) {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return 0, ErrReleased
		}
		if h.refs.CompareAndSwap(n, n-1) {
			if n-1 == 0 {
				return 0, h.teardown()
			}
			return n - 1, nil
		}
	}
}

// Close releases one reference, for use with defer.
func (h *Handle) Close() error {
	_, err := h.Release()
	if errors.Is(err, ErrReleased) {
		return nil
	}
	return err
}

// Refs returns the current reference count.
func (h *Handle) Refs() int32 {
	return h.refs.Load()
}

func (h *Handle) teardown() error {
	h.once.Do(func() {
		remaining := h.driver.Release()
		Logger().Debug("driver released", zap.Uint32("foreign_refs", remaining))

		if h.module != nil {
			if err := h.module.Close(); err != nil {
				h.err = &Error{Kind: KindModuleLoad, Op: "unload", Cause: err}
			}
		}
	})
	return h.err
}
