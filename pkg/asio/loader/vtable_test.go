// ABOUTME: Tests for vtable slot layout and reading
// ABOUTME: Builds a fake object in Go memory and reads its slots back
package loader

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestSlotOrder(t *testing.T) {
	assert.Equal(t, 3, slotCreateInstance)
	assert.Equal(t, 4, slotLockServer)

	tests := []struct {
		name string
		slot int
		want int
	}{
		{"Init", slotInit, 3},
		{"GetDriverName", slotGetDriverName, 4},
		{"Start", slotStart, 7},
		{"GetChannels", slotGetChannels, 9},
		{"GetBufferSize", slotGetBufferSize, 11},
		{"GetSampleRate", slotGetSampleRate, 13},
		{"GetSamplePosition", slotGetSamplePosition, 17},
		{"GetChannelInfo", slotGetChannelInfo, 18},
		{"CreateBuffers", slotCreateBuffers, 19},
		{"DisposeBuffers", slotDisposeBuffers, 20},
		{"Future", slotFuture, 22},
		{"OutputReady", slotOutputReady, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slot)
		})
	}
	assert.Equal(t, 24, driverSlots)
}

func TestVtableSlot(t *testing.T) {
	var table [driverSlots]uintptr
	for i := range table {
		table[i] = uintptr(0x1000 + i*0x10)
	}
	obj := &struct {
		vtbl *[driverSlots]uintptr
		data int64
	}{vtbl: &table}
	p := uintptr(unsafe.Pointer(obj))

	assert.Equal(t, uintptr(0x1000), vtableSlot(p, slotQueryInterface))
	assert.Equal(t, uintptr(0x1020), vtableSlot(p, slotRelease))
	assert.Equal(t, uintptr(0x1000+slotOutputReady*0x10), vtableSlot(p, slotOutputReady))
	runtime.KeepAlive(obj)
}
