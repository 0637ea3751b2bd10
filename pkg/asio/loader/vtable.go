// ABOUTME: Virtual function table layout of the foreign objects
// ABOUTME: Slot indices and the slot reader shared by every binding
package loader

import "unsafe"

// IUnknown slots, shared by every foreign object.
const (
	slotQueryInterface = iota
	slotAddRef
	slotRelease
)

// IClassFactory slots.
const (
	slotCreateInstance = iota + slotRelease + 1
	slotLockServer
)

// Driver slots, in ABI order.
const (
	slotInit = iota + slotRelease + 1
	slotGetDriverName
	slotGetDriverVersion
	slotGetErrorMessage
	slotStart
	slotStop
	slotGetChannels
	slotGetLatencies
	slotGetBufferSize
	slotCanSampleRate
	slotGetSampleRate
	slotSetSampleRate
	slotGetClockSources
	slotSetClockSource
	slotGetSamplePosition
	slotGetChannelInfo
	slotCreateBuffers
	slotDisposeBuffers
	slotControlPanel
	slotFuture
	slotOutputReady

	driverSlots
)

// vtableSlot returns function pointer index of the object at obj. A foreign
// object starts with a pointer to its table of function pointers.
func vtableSlot(obj uintptr, index int) uintptr {
	table := *(*unsafe.Pointer)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Add(table, uintptr(index)*unsafe.Sizeof(uintptr(0))))
}
