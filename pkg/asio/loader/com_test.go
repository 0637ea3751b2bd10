//go:build (windows || darwin || freebsd || linux) && (amd64 || arm64)

// ABOUTME: Tests for the foreign object bindings against in-process function tables
// ABOUTME: Drives load, buffer creation, the callback trampolines and teardown through real function pointers
package loader

import (
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

const eNoInterface = 0x80004002

// object is laid out like a foreign object: a pointer to its table.
type object struct {
	vtbl *[driverSlots]uintptr
}

func (o *object) addr() uintptr { return uintptr(unsafe.Pointer(o)) }

// nativeDriver is a driver module implemented with Go callbacks. It records
// what the bound calls did.
type nativeDriver struct {
	factory object
	driver  object
	mem     [2][64]byte

	refuseFactory  bool
	refuseInstance bool

	gotIID          asio.GUID
	gotCLSID        asio.GUID
	factoryReleases int
	driverReleases  int
	outputs         int
	bufferSize      int32
	callbacks       *abiCallbacks
}

var (
	native       *nativeDriver
	nativeTables struct {
		once    sync.Once
		entry   uintptr
		factory [driverSlots]uintptr
		driver  [driverSlots]uintptr
	}
)

// newNative resets the recorded state. The callbacks themselves are created
// once, since they are never freed.
func newNative(t *testing.T) *nativeDriver {
	t.Helper()
	nativeTables.once.Do(func() {
		stub := purego.NewCallback(func(uintptr) uintptr { return 0 })
		common := func(table *[driverSlots]uintptr) {
			for i := range table {
				table[i] = stub
			}
			table[slotAddRef] = purego.NewCallback(nativeAddRef)
			table[slotRelease] = purego.NewCallback(nativeRelease)
		}

		nativeTables.entry = purego.NewCallback(nativeGetClassObject)

		common(&nativeTables.factory)
		nativeTables.factory[slotCreateInstance] = purego.NewCallback(nativeCreateInstance)

		common(&nativeTables.driver)
		nativeTables.driver[slotInit] = purego.NewCallback(func(this, sysHandle uintptr) uintptr { return 1 })
		nativeTables.driver[slotGetDriverName] = purego.NewCallback(nativeDriverName)
		nativeTables.driver[slotGetSampleRate] = purego.NewCallback(nativeSampleRate)
		nativeTables.driver[slotCreateBuffers] = purego.NewCallback(nativeCreateBuffers)
		nativeTables.driver[slotOutputReady] = purego.NewCallback(nativeOutputReady)
	})

	n := &nativeDriver{}
	n.factory.vtbl = &nativeTables.factory
	n.driver.vtbl = &nativeTables.driver
	native = n
	t.Cleanup(func() { native = nil })
	return n
}

func (n *nativeDriver) module() *fakeModule {
	return &fakeModule{symbols: map[string]uintptr{EntryPoint: nativeTables.entry}}
}

func nativeGetClassObject(clsid, iid, out uintptr) uintptr {
	native.gotIID = *(*asio.GUID)(unsafe.Pointer(iid))
	if native.refuseFactory {
		return eNoInterface
	}
	*(*uintptr)(unsafe.Pointer(out)) = native.factory.addr()
	return 0
}

func nativeAddRef(uintptr) uintptr { return 2 }

func nativeRelease(this uintptr) uintptr {
	if this == native.factory.addr() {
		native.factoryReleases++
	} else {
		native.driverReleases++
	}
	return 0
}

func nativeCreateInstance(this, outer, iid, out uintptr) uintptr {
	native.gotCLSID = *(*asio.GUID)(unsafe.Pointer(iid))
	if native.refuseInstance {
		return eNoInterface
	}
	*(*uintptr)(unsafe.Pointer(out)) = native.driver.addr()
	return 0
}

func nativeDriverName(this, name uintptr) uintptr {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(name)), 32), "Native Fake\x00")
	return 0
}

func nativeSampleRate(this, rate uintptr) uintptr {
	*(*float64)(unsafe.Pointer(rate)) = 48000
	return 0
}

func nativeCreateBuffers(this, infos, channels, bufferSize, callbacks uintptr) uintptr {
	slots := unsafe.Slice((*asio.BufferInfo)(unsafe.Pointer(infos)), int(int32(channels)))
	for i := range slots {
		for half := range slots[i].Buffers {
			slots[i].Buffers[half] = uintptr(unsafe.Pointer(&native.mem[half][0]))
		}
	}
	native.bufferSize = int32(bufferSize)
	native.callbacks = (*abiCallbacks)(unsafe.Pointer(callbacks))
	return 0
}

func nativeOutputReady(uintptr) uintptr {
	native.outputs++
	return 0
}

func TestNativeDriverLifecycle(t *testing.T) {
	n := newNative(t)
	mod := n.module()
	l := New(Options{
		Open:      func(string) (Module, error) { return mod, nil },
		Activator: NativeActivator(),
	})

	h, err := l.Load(testCLSID, "native.dll")
	require.NoError(t, err)

	clsid, err := asio.ParseGUID(testCLSID)
	require.NoError(t, err)
	assert.Equal(t, asio.IIDClassFactory, n.gotIID)
	assert.Equal(t, clsid, n.gotCLSID)
	assert.Equal(t, 1, n.factoryReleases)

	drv, err := h.Driver()
	require.NoError(t, err)
	require.NoError(t, drv.Init(0))
	assert.Equal(t, "Native Fake", drv.Name())

	var halves []int
	var rate float64
	cb := asio.Callbacks{
		OnBufferReady:       func(half int, _ bool) { halves = append(halves, half) },
		OnSampleRateChanged: func(r float64) { rate = r },
	}
	slots := []asio.BufferInfo{{ChannelIndex: 0}}
	require.NoError(t, drv.CreateBuffers(slots, 16, cb))
	require.NotNil(t, n.callbacks)
	assert.Equal(t, int32(16), n.bufferSize)
	assert.Equal(t, uintptr(unsafe.Pointer(&n.mem[1][0])), slots[0].Buffers[1])
	assert.ErrorIs(t, drv.CreateBuffers(slots, 16, cb), asio.ErrStreamActive)

	purego.SyscallN(n.callbacks.bufferSwitch, 1, 1)
	purego.SyscallN(n.callbacks.bufferSwitch, 0, 1)

	tm := &asio.Time{}
	r, _, _ := purego.SyscallN(n.callbacks.bufferSwitchTimeInfo, uintptr(unsafe.Pointer(tm)), 1, 0)
	assert.Equal(t, uintptr(unsafe.Pointer(tm)), r)
	assert.Equal(t, []int{1, 0, 1}, halves)

	r, _, _ = purego.SyscallN(n.callbacks.asioMessage, uintptr(asio.SelectorEngineVersion), 0, 0, 0)
	assert.Equal(t, uintptr(asio.HostEngineVersion), r)

	purego.SyscallN(n.callbacks.sampleRateDidChange, 0)
	assert.Equal(t, 48000.0, rate)

	require.NoError(t, drv.OutputReady())
	assert.Equal(t, 1, n.outputs)

	require.NoError(t, drv.DisposeBuffers())
	assert.Nil(t, streams.Active())

	require.NoError(t, h.Close())
	assert.Equal(t, 1, n.driverReleases)
	assert.Equal(t, 1, n.factoryReleases)
	assert.Equal(t, 1, mod.closed)
}

func TestNativeActivationFailures(t *testing.T) {
	tests := []struct {
		name            string
		refuseFactory   bool
		refuseInstance  bool
		factoryReleases int
	}{
		{name: "no class factory", refuseFactory: true},
		{name: "no instance", refuseInstance: true, factoryReleases: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNative(t)
			n.refuseFactory = tt.refuseFactory
			n.refuseInstance = tt.refuseInstance
			mod := n.module()
			l := New(Options{
				Open:      func(string) (Module, error) { return mod, nil },
				Activator: NativeActivator(),
			})

			h, err := l.Load(testCLSID, "native.dll")
			require.Error(t, err)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, asio.ErrInstantiation)

			assert.Equal(t, tt.factoryReleases, n.factoryReleases)
			assert.Zero(t, n.driverReleases)
			assert.Equal(t, 1, mod.closed)
		})
	}
}

func TestBufferSwitchTrampolineDoesNotAllocate(t *testing.T) {
	var n int
	stream := &asio.Stream{
		Callbacks:  asio.Callbacks{OnBufferReadyTimeInfo: func(*asio.TimeInfo, int, bool) { n++ }},
		BufferSize: 32,
	}
	require.NoError(t, streams.Claim(stream))
	defer streams.Free(stream)

	allocs := testing.AllocsPerRun(100, func() {
		bufferSwitch(uintptr(n&1), 1)
	})
	assert.Zero(t, allocs)
	assert.Positive(t, n)
}

func TestLoadSharedObjectWithoutEntryPoint(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs the GNU C library")
	}

	_, err := New(DefaultOptions()).Load(testCLSID, "libc.so.6")
	require.Error(t, err)
	assert.ErrorIs(t, err, asio.ErrEntryPointMissing)
}
