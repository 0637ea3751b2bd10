// ABOUTME: Driver capability interfaces and ABI value types
// ABOUTME: Go view of the class factory and driver function tables
package asio

import "unsafe"

// Unknown is the reference-counting part every foreign object exposes.
type Unknown interface {
	AddRef() uint32
	Release() uint32
}

// ClassFactory produces driver instances for a class identifier.
type ClassFactory interface {
	Unknown
	CreateInstance(clsid GUID) (Driver, error)
	LockServer(lock bool) error
}

// Driver is the capability table of a loaded driver. Method order on the
// foreign side is fixed by the ABI; this interface only names the calls.
//
// All methods except the buffer callbacks' OutputReady must be called from
// the host's control thread.
type Driver interface {
	Unknown

	// Lifecycle
	Init(sysHandle uintptr) error
	Start() error
	Stop() error

	// Identity
	Name() string
	Version() int32
	ErrorMessage() string

	// Device queries
	Channels() (inputs, outputs int, err error)
	Latencies() (input, output int, err error)
	BufferSize() (BufferSizeRange, error)
	CanSampleRate(rate float64) error
	SampleRate() (float64, error)
	SetSampleRate(rate float64) error
	ClockSources(dst []ClockSource) (int, error)
	SetClockSource(index int) error
	SamplePosition() (position, timestamp int64, err error)
	ChannelInfo(channel int, input bool) (ChannelInfo, error)

	// Buffers
	CreateBuffers(slots []BufferInfo, bufferSize int, cb Callbacks) error
	DisposeBuffers() error
	OutputReady() error

	// Extensions
	ControlPanel() error
	Future(selector int32, opt unsafe.Pointer) error
}

// BufferSizeRange is what the driver reports from GetBufferSize. A
// Granularity of -1 means sizes must be powers of two.
type BufferSizeRange struct {
	Min         int
	Max         int
	Preferred   int
	Granularity int
}

// Accepts reports whether size is one the driver would accept.
func (r BufferSizeRange) Accepts(size int) bool {
	if size < r.Min || size > r.Max {
		return false
	}
	switch {
	case r.Granularity == -1:
		return size&(size-1) == 0
	case r.Granularity > 0:
		return (size-r.Min)%r.Granularity == 0
	default:
		return size == r.Preferred || r.Min == r.Max
	}
}

// BufferInfo is one channel's double buffer. Layout matches the ABI struct;
// the driver fills Buffers during CreateBuffers and owns that memory.
type BufferInfo struct {
	IsInput      int32
	ChannelIndex int32
	Buffers      [2]uintptr
}

// Bytes views one half of the buffer. size is the buffer length in bytes.
// The slice aliases driver memory and is only valid until DisposeBuffers.
func (b *BufferInfo) Bytes(half, size int) []byte {
	p := b.Buffers[half&1]
	if p == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(*(*unsafe.Pointer)(unsafe.Pointer(&p))), size)
}

// ChannelInfo mirrors the ABI's per-channel description.
type ChannelInfo struct {
	Channel    int32
	IsInput    int32
	IsActive   int32
	Group      int32
	SampleType SampleType
	RawName    [32]byte
}

// Name returns the channel name up to its NUL terminator.
func (c ChannelInfo) Name() string {
	return cString(c.RawName[:])
}

// ClockSource mirrors the ABI's clock source description.
type ClockSource struct {
	Index             int32
	AssociatedChannel int32
	AssociatedGroup   int32
	IsCurrentSource   int32
	RawName           [32]byte
}

// Name returns the clock name up to its NUL terminator.
func (c ClockSource) Name() string {
	return cString(c.RawName[:])
}

// Samples is the ABI's 64-bit sample counter, split into two 32-bit words.
type Samples struct {
	Hi uint32
	Lo uint32
}

// Int64 joins the two words.
func (s Samples) Int64() int64 {
	return int64(uint64(s.Hi)<<32 | uint64(s.Lo))
}

// SamplesFromInt64 splits v into the ABI's two words.
func SamplesFromInt64(v int64) Samples {
	return Samples{Hi: uint32(uint64(v) >> 32), Lo: uint32(uint64(v))}
}

// TimeInfoFlags mark which TimeInfo fields are valid.
type TimeInfoFlags int32

const (
	TimeInfoSystemTimeValid     TimeInfoFlags = 0x1
	TimeInfoSamplePositionValid TimeInfoFlags = 0x2
	TimeInfoSampleRateValid     TimeInfoFlags = 0x4
	TimeInfoSpeedValid          TimeInfoFlags = 0x8
	TimeInfoSampleRateChanged   TimeInfoFlags = 0x10
	TimeInfoClockSourceChanged  TimeInfoFlags = 0x20
)

// TimeInfo mirrors the ABI's time info block.
type TimeInfo struct {
	Speed          float64
	SystemTime     Samples // nanoseconds
	SamplePosition Samples
	SampleRate     float64
	Flags          TimeInfoFlags
	Reserved       [12]byte
}

// TimeCode mirrors the ABI's time code block. The ABI packs it to 4 bytes,
// so only read it through a pointer handed out by the driver.
type TimeCode struct {
	Speed           float64
	TimeCodeSamples Samples
	Flags           int32
	Future          [64]byte
}

// Time is the block passed to the time-info buffer switch.
type Time struct {
	Reserved [4]int32
	Info     TimeInfo
	Code     TimeCode
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
