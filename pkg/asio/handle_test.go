// ABOUTME: Tests for the reference-counted driver handle
// ABOUTME: Verifies teardown happens once, at zero, and use after release fails
package asio

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	closes int
	err    error
}

func (c *countingCloser) Close() error {
	c.closes++
	return c.err
}

func TestHandleReleaseAtZero(t *testing.T) {
	drv := &stubDriver{}
	mod := &countingCloser{}
	h := NewHandle(drv, mod)

	require.NoError(t, h.Acquire())
	assert.Equal(t, int32(2), h.Refs())

	left, err := h.Release()
	require.NoError(t, err)
	assert.Equal(t, int32(1), left)
	assert.Zero(t, mod.closes)
	assert.Zero(t, drv.released)

	left, err = h.Release()
	require.NoError(t, err)
	assert.Zero(t, left)
	assert.Equal(t, 1, mod.closes)
	assert.Equal(t, 1, drv.released)
}

func TestHandleUseAfterRelease(t *testing.T) {
	h := NewHandle(&stubDriver{}, nil)
	require.NoError(t, h.Close())

	_, err := h.Driver()
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, h.Acquire(), ErrReleased)

	_, err = h.Release()
	assert.ErrorIs(t, err, ErrReleased)
	assert.NoError(t, h.Close())
}

func TestHandleUnloadError(t *testing.T) {
	mod := &countingCloser{err: errors.New("busy")}
	h := NewHandle(&stubDriver{}, mod)

	_, err := h.Release()
	assert.ErrorIs(t, err, &Error{Kind: KindModuleLoad})
	assert.Equal(t, 1, mod.closes)
}

func TestHandleConcurrentRelease(t *testing.T) {
	drv := &stubDriver{}
	mod := &countingCloser{}
	h := NewHandle(drv, mod)

	for i := 0; i < 31; i++ {
		require.NoError(t, h.Acquire())
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Release()
		}()
	}
	wg.Wait()

	assert.Zero(t, h.Refs())
	assert.Equal(t, 1, mod.closes)
	assert.Equal(t, 1, drv.released)
}
