//go:build (windows || darwin || freebsd || linux) && (amd64 || arm64)

// ABOUTME: Foreign object bindings for the class factory and driver tables
// ABOUTME: Binds vtable slots to typed Go funcs with purego and wraps them as asio interfaces
package loader

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

// streams routes driver callbacks. The ABI passes no context to them, so
// one stream per process can be active.
var streams asio.CallbackSlot

type comActivator struct{}

// NativeActivator returns the platform activator.
func NativeActivator() Activator {
	return comActivator{}
}

func (comActivator) ClassObject(entry uintptr, clsid, iid asio.GUID) (asio.ClassFactory, error) {
	var getClassObject func(clsid, iid *asio.GUID, out *uintptr) int32
	purego.RegisterFunc(&getClassObject, entry)

	var obj uintptr
	hr := getClassObject(&clsid, &iid, &obj)
	if hr < 0 || obj == 0 {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: EntryPoint, Subject: clsid.String(), Code: hr}
	}
	return bindClassFactory(obj), nil
}

func bind(fptr any, obj uintptr, slot int) {
	purego.RegisterFunc(fptr, vtableSlot(obj, slot))
}

type unknown struct {
	this    uintptr
	addRef  func(this uintptr) uint32
	release func(this uintptr) uint32
}

func bindUnknown(obj uintptr) unknown {
	u := unknown{this: obj}
	bind(&u.addRef, obj, slotAddRef)
	bind(&u.release, obj, slotRelease)
	return u
}

func (u *unknown) AddRef() uint32  { return u.addRef(u.this) }
func (u *unknown) Release() uint32 { return u.release(u.this) }

type classFactory struct {
	unknown
	createInstance func(this, outer uintptr, iid *asio.GUID, out *uintptr) int32
	lockServer     func(this uintptr, lock int32) int32
}

func bindClassFactory(obj uintptr) *classFactory {
	f := &classFactory{unknown: bindUnknown(obj)}
	bind(&f.createInstance, obj, slotCreateInstance)
	bind(&f.lockServer, obj, slotLockServer)
	return f
}

// CreateInstance asks for the driver interface. Drivers expect their own
// class identifier as the interface identifier.
func (f *classFactory) CreateInstance(clsid asio.GUID) (asio.Driver, error) {
	var obj uintptr
	hr := f.createInstance(f.this, 0, &clsid, &obj)
	if hr < 0 || obj == 0 {
		return nil, &asio.Error{Kind: asio.KindInstantiation, Op: "create instance", Subject: clsid.String(), Code: hr}
	}
	return bindDriver(obj), nil
}

func (f *classFactory) LockServer(lock bool) error {
	var v int32
	if lock {
		v = 1
	}
	if hr := f.lockServer(f.this, v); hr < 0 {
		return &asio.Error{Kind: asio.KindInstantiation, Op: "lock server", Code: hr}
	}
	return nil
}

// abiCallbacks is the callback table handed to CreateBuffers.
type abiCallbacks struct {
	bufferSwitch         uintptr
	sampleRateDidChange  uintptr
	asioMessage          uintptr
	bufferSwitchTimeInfo uintptr
}

var trampolines struct {
	once  sync.Once
	table abiCallbacks
}

// callbackTable creates the trampolines on first use. purego callbacks are
// never freed, so there is one set per process.
func callbackTable() abiCallbacks {
	trampolines.once.Do(func() {
		trampolines.table = abiCallbacks{
			bufferSwitch:         purego.NewCallback(bufferSwitch),
			sampleRateDidChange:  purego.NewCallback(sampleRateDidChange),
			asioMessage:          purego.NewCallback(asioMessage),
			bufferSwitchTimeInfo: purego.NewCallback(bufferSwitchTimeInfo),
		}
	})
	return trampolines.table
}

// Arguments declared as 32-bit by the ABI arrive in full registers; only
// the low half is meaningful.

func bufferSwitch(index, directProcess uintptr) uintptr {
	streams.BufferSwitch(int(int32(index)), int32(directProcess) != 0)
	return 0
}

// The new rate arrives in a floating point register the callback cannot
// see, so it is read back from the driver.
func sampleRateDidChange(uintptr) uintptr {
	streams.SampleRateDidChange()
	return 0
}

func asioMessage(selector, value, message, opt uintptr) uintptr {
	r := streams.Message(asio.MessageSelector(int32(selector)), int32(value), message, (*float64)(unsafe.Pointer(opt)))
	return uintptr(r)
}

func bufferSwitchTimeInfo(params, index, directProcess uintptr) uintptr {
	t := streams.BufferSwitchTimeInfo((*asio.Time)(unsafe.Pointer(params)), int(int32(index)), int32(directProcess) != 0)
	return uintptr(unsafe.Pointer(t))
}

type driver struct {
	unknown

	init              func(this, sysHandle uintptr) int32
	getDriverName     func(this uintptr, name *byte)
	getDriverVersion  func(this uintptr) int32
	getErrorMessage   func(this uintptr, msg *byte)
	start             func(this uintptr) int32
	stop              func(this uintptr) int32
	getChannels       func(this uintptr, inputs, outputs *int32) int32
	getLatencies      func(this uintptr, input, output *int32) int32
	getBufferSize     func(this uintptr, minSize, maxSize, preferred, granularity *int32) int32
	canSampleRate     func(this uintptr, rate float64) int32
	getSampleRate     func(this uintptr, rate *float64) int32
	setSampleRate     func(this uintptr, rate float64) int32
	getClockSources   func(this uintptr, clocks *asio.ClockSource, count *int32) int32
	setClockSource    func(this uintptr, index int32) int32
	getSamplePosition func(this uintptr, position, timestamp *asio.Samples) int32
	getChannelInfo    func(this uintptr, info *asio.ChannelInfo) int32
	createBuffers     func(this uintptr, infos *asio.BufferInfo, channels, bufferSize int32, cb *abiCallbacks) int32
	disposeBuffers    func(this uintptr) int32
	controlPanel      func(this uintptr) int32
	future            func(this uintptr, selector int32, opt unsafe.Pointer) int32
	// Called from the buffer switch, so it is not a reflect-bound func.
	// See call1.
	outputReady uintptr

	mu     sync.Mutex
	stream *asio.Stream
	table  *abiCallbacks
	pinner runtime.Pinner
}

func bindDriver(obj uintptr) *driver {
	d := &driver{unknown: bindUnknown(obj)}
	bind(&d.init, obj, slotInit)
	bind(&d.getDriverName, obj, slotGetDriverName)
	bind(&d.getDriverVersion, obj, slotGetDriverVersion)
	bind(&d.getErrorMessage, obj, slotGetErrorMessage)
	bind(&d.start, obj, slotStart)
	bind(&d.stop, obj, slotStop)
	bind(&d.getChannels, obj, slotGetChannels)
	bind(&d.getLatencies, obj, slotGetLatencies)
	bind(&d.getBufferSize, obj, slotGetBufferSize)
	bind(&d.canSampleRate, obj, slotCanSampleRate)
	bind(&d.getSampleRate, obj, slotGetSampleRate)
	bind(&d.setSampleRate, obj, slotSetSampleRate)
	bind(&d.getClockSources, obj, slotGetClockSources)
	bind(&d.setClockSource, obj, slotSetClockSource)
	bind(&d.getSamplePosition, obj, slotGetSamplePosition)
	bind(&d.getChannelInfo, obj, slotGetChannelInfo)
	bind(&d.createBuffers, obj, slotCreateBuffers)
	bind(&d.disposeBuffers, obj, slotDisposeBuffers)
	bind(&d.controlPanel, obj, slotControlPanel)
	bind(&d.future, obj, slotFuture)
	d.outputReady = vtableSlot(obj, slotOutputReady)
	return d
}

func (d *driver) check(op string, code int32) error {
	if err := asio.Status(code).Err(); err != nil {
		return &asio.Error{Kind: asio.KindDriver, Op: op, Cause: err}
	}
	return nil
}

// Init returns a boolean rather than a status.
func (d *driver) Init(sysHandle uintptr) error {
	if d.init(d.this, sysHandle) != 0 {
		return nil
	}
	return &asio.Error{Kind: asio.KindDriver, Op: "init", Subject: d.Name(), Detail: d.ErrorMessage()}
}

func (d *driver) Start() error { return d.check("start", d.start(d.this)) }
func (d *driver) Stop() error  { return d.check("stop", d.stop(d.this)) }

func (d *driver) Name() string {
	var buf [32]byte
	d.getDriverName(d.this, &buf[0])
	return cString(buf[:])
}

func (d *driver) Version() int32 {
	return d.getDriverVersion(d.this)
}

func (d *driver) ErrorMessage() string {
	var buf [124]byte
	d.getErrorMessage(d.this, &buf[0])
	return cString(buf[:])
}

func (d *driver) Channels() (int, int, error) {
	var in, out int32
	if err := d.check("get channels", d.getChannels(d.this, &in, &out)); err != nil {
		return 0, 0, err
	}
	return int(in), int(out), nil
}

func (d *driver) Latencies() (int, int, error) {
	var in, out int32
	if err := d.check("get latencies", d.getLatencies(d.this, &in, &out)); err != nil {
		return 0, 0, err
	}
	return int(in), int(out), nil
}

func (d *driver) BufferSize() (asio.BufferSizeRange, error) {
	var lo, hi, pref, gran int32
	if err := d.check("get buffer size", d.getBufferSize(d.this, &lo, &hi, &pref, &gran)); err != nil {
		return asio.BufferSizeRange{}, err
	}
	return asio.BufferSizeRange{Min: int(lo), Max: int(hi), Preferred: int(pref), Granularity: int(gran)}, nil
}

func (d *driver) CanSampleRate(rate float64) error {
	return d.check("can sample rate", d.canSampleRate(d.this, rate))
}

func (d *driver) SampleRate() (float64, error) {
	var rate float64
	if err := d.check("get sample rate", d.getSampleRate(d.this, &rate)); err != nil {
		return 0, err
	}
	return rate, nil
}

func (d *driver) SetSampleRate(rate float64) error {
	return d.check("set sample rate", d.setSampleRate(d.this, rate))
}

func (d *driver) ClockSources(dst []asio.ClockSource) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	n := int32(len(dst))
	if err := d.check("get clock sources", d.getClockSources(d.this, &dst[0], &n)); err != nil {
		return 0, err
	}
	return min(int(n), len(dst)), nil
}

func (d *driver) SetClockSource(index int) error {
	return d.check("set clock source", d.setClockSource(d.this, int32(index)))
}

func (d *driver) SamplePosition() (int64, int64, error) {
	var pos, ts asio.Samples
	if err := d.check("get sample position", d.getSamplePosition(d.this, &pos, &ts)); err != nil {
		return 0, 0, err
	}
	return pos.Int64(), ts.Int64(), nil
}

func (d *driver) ChannelInfo(channel int, input bool) (asio.ChannelInfo, error) {
	info := asio.ChannelInfo{Channel: int32(channel)}
	if input {
		info.IsInput = 1
	}
	if err := d.check("get channel info", d.getChannelInfo(d.this, &info)); err != nil {
		return asio.ChannelInfo{}, err
	}
	return info, nil
}

// CreateBuffers claims the process-wide callback slot for the stream. It
// fails with asio.ErrStreamActive while another stream holds it.
func (d *driver) CreateBuffers(slots []asio.BufferInfo, bufferSize int, cb asio.Callbacks) error {
	if len(slots) == 0 {
		return &asio.Error{Kind: asio.KindDriver, Op: "create buffers", Detail: "no channels"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stream := &asio.Stream{Callbacks: cb, Driver: d, BufferSize: bufferSize}
	if err := streams.Claim(stream); err != nil {
		return err
	}

	table := callbackTable()
	d.table = &table
	d.pinner.Pin(d.table)

	code := d.createBuffers(d.this, &slots[0], int32(len(slots)), int32(bufferSize), d.table)
	if err := d.check("create buffers", code); err != nil {
		d.freeStream(stream)
		return err
	}
	d.stream = stream

	Logger().Debug("buffers created",
		zap.Int("channels", len(slots)),
		zap.Int("buffer_size", bufferSize))
	return nil
}

func (d *driver) DisposeBuffers() error {
	code := d.disposeBuffers(d.this)

	d.mu.Lock()
	if d.stream != nil {
		d.freeStream(d.stream)
		d.stream = nil
	}
	d.mu.Unlock()

	return d.check("dispose buffers", code)
}

func (d *driver) freeStream(stream *asio.Stream) {
	streams.Free(stream)
	d.pinner.Unpin()
	d.table = nil
}

func (d *driver) OutputReady() error {
	return asio.Status(int32(call1(d.outputReady, d.this))).Err()
}

func (d *driver) ControlPanel() error {
	return d.check("control panel", d.controlPanel(d.this))
}

func (d *driver) Future(selector int32, opt unsafe.Pointer) error {
	return d.check("future", d.future(d.this, selector, opt))
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
