//go:build windows && (amd64 || arm64)

// ABOUTME: Tests for the direct vtable calls on Windows
// ABOUTME: Checks OutputReady stays allocation free on the driver's thread
package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputReadyDoesNotAllocate(t *testing.T) {
	n := newNative(t)
	d := bindDriver(n.driver.addr())

	allocs := testing.AllocsPerRun(100, func() {
		_ = d.OutputReady()
	})
	assert.Zero(t, allocs)
	assert.Positive(t, n.outputs)
}
