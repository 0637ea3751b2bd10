// ABOUTME: Simulated loopback driver
// ABOUTME: Implements the full driver capability table over Go-owned double buffers
package simdriver

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

// Config describes the simulated device.
type Config struct {
	Name    string
	Version int32

	Inputs  int
	Outputs int
	// SampleType applies to every channel without an entry in ChannelTypes.
	SampleType asio.SampleType
	// ChannelTypes overrides the type of output channels by index.
	ChannelTypes map[int]asio.SampleType

	SampleRate     float64
	SupportedRates []float64
	Buffer         asio.BufferSizeRange
	InputLatency   int
	OutputLatency  int

	// TimeInfo makes the driver use the time-info buffer switch when the
	// host reports support for it.
	TimeInfo bool
	// OutputReady makes the driver accept the OutputReady optimisation.
	OutputReady bool
	// Realtime runs buffer switches from a goroutine once per period after
	// Start. Otherwise periods only advance through Pump.
	Realtime bool
	// FailInit makes Init fail, for exercising host error paths.
	FailInit bool
}

// DefaultConfig is a stereo 32-bit device at 48 kHz.
func DefaultConfig() Config {
	return Config{
		Name:           "Simulated Loopback",
		Version:        1,
		Inputs:         2,
		Outputs:        2,
		SampleType:     asio.SampleTypeInt32LSB,
		SampleRate:     48000,
		SupportedRates: []float64{44100, 48000, 88200, 96000},
		Buffer:         asio.BufferSizeRange{Min: 64, Max: 2048, Preferred: 256, Granularity: -1},
		InputLatency:   256,
		OutputLatency:  256,
		TimeInfo:       true,
		OutputReady:    true,
		Realtime:       true,
	}
}

type channel struct {
	info   asio.BufferInfo
	format asio.Format
	mem    [2][]byte
}

// Driver is the simulated device. It is safe for use from the host's
// control goroutine while periods run on its own goroutine.
type Driver struct {
	cfg  Config
	refs atomic.Int32

	mu          sync.Mutex
	initialized bool
	running     bool
	rate        float64
	clock       int
	errMsg      string

	// stream state, valid between CreateBuffers and DisposeBuffers
	channels   []channel
	bufferSize int
	slot       asio.CallbackSlot
	stream     *asio.Stream
	timeInfo   bool
	half       int
	position   int64
	time       asio.Time

	loop        [][]float64 // per input: last period of the matching output
	capture     [][]float64 // per output: everything played
	outputReady atomic.Int64

	stop chan struct{}
	done chan struct{}
}

// New creates a driver with one reference.
func New(cfg Config) *Driver {
	d := &Driver{cfg: cfg, rate: cfg.SampleRate}
	d.refs.Store(1)
	return d
}

func (d *Driver) AddRef() uint32 { return uint32(d.refs.Add(1)) }

// Release drops a reference. The last release stops the device and frees
// its buffers.
func (d *Driver) Release() uint32 {
	n := d.refs.Add(-1)
	if n == 0 {
		_ = d.Stop()
		_ = d.DisposeBuffers()
	}
	return uint32(max(n, 0))
}

func (d *Driver) Init(uintptr) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.FailInit {
		d.errMsg = "device not connected"
		return &asio.Error{Kind: asio.KindDriver, Op: "init", Subject: d.cfg.Name,
			Detail: d.errMsg, Cause: asio.StatusNotPresent}
	}
	d.initialized = true
	return nil
}

func (d *Driver) Name() string   { return truncate(d.cfg.Name, 31) }
func (d *Driver) Version() int32 { return d.cfg.Version }

func (d *Driver) ErrorMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

func (d *Driver) checkInit() error {
	if !d.initialized {
		return asio.StatusNotPresent
	}
	return nil
}

func (d *Driver) Channels() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkInit(); err != nil {
		return 0, 0, err
	}
	return d.cfg.Inputs, d.cfg.Outputs, nil
}

func (d *Driver) Latencies() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkInit(); err != nil {
		return 0, 0, err
	}
	return d.cfg.InputLatency, d.cfg.OutputLatency, nil
}

func (d *Driver) BufferSize() (asio.BufferSizeRange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkInit(); err != nil {
		return asio.BufferSizeRange{}, err
	}
	return d.cfg.Buffer, nil
}

func (d *Driver) CanSampleRate(rate float64) error {
	for _, r := range d.cfg.SupportedRates {
		if r == rate {
			return nil
		}
	}
	return asio.StatusNoClock
}

func (d *Driver) SampleRate() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate, nil
}

// SetSampleRate changes the clock. The host is notified through its
// sample-rate callback when a stream exists.
func (d *Driver) SetSampleRate(rate float64) error {
	if err := d.CanSampleRate(rate); err != nil {
		return err
	}
	d.mu.Lock()
	changed := d.rate != rate
	d.rate = rate
	notify := changed && d.stream != nil
	d.mu.Unlock()

	if notify {
		d.slot.SampleRateDidChange()
	}
	return nil
}

func (d *Driver) ClockSources(dst []asio.ClockSource) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	src := asio.ClockSource{Index: 0, AssociatedChannel: -1, AssociatedGroup: -1, IsCurrentSource: 1}
	copy(src.RawName[:], "Internal")
	dst[0] = src
	return 1, nil
}

func (d *Driver) SetClockSource(index int) error {
	if index != 0 {
		return asio.StatusInvalidParameter
	}
	d.mu.Lock()
	d.clock = index
	d.mu.Unlock()
	return nil
}

func (d *Driver) SamplePosition() (int64, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return 0, 0, asio.StatusSPNotAdvancing
	}
	return d.position, d.systemTime(), nil
}

// systemTime is derived from the sample position so runs are reproducible.
func (d *Driver) systemTime() int64 {
	if d.rate <= 0 {
		return 0
	}
	return int64(float64(d.position) / d.rate * float64(time.Second))
}

func (d *Driver) typeOf(channel int, input bool) asio.SampleType {
	if !input {
		if t, ok := d.cfg.ChannelTypes[channel]; ok {
			return t
		}
	}
	return d.cfg.SampleType
}

func (d *Driver) ChannelInfo(channel int, input bool) (asio.ChannelInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	count, prefix := d.cfg.Outputs, "Out "
	if input {
		count, prefix = d.cfg.Inputs, "In "
	}
	if channel < 0 || channel >= count {
		return asio.ChannelInfo{}, asio.StatusInvalidParameter
	}

	info := asio.ChannelInfo{
		Channel:    int32(channel),
		SampleType: d.typeOf(channel, input),
	}
	if input {
		info.IsInput = 1
	}
	for _, ch := range d.channels {
		if ch.info.ChannelIndex == int32(channel) && (ch.info.IsInput != 0) == input {
			info.IsActive = 1
		}
	}
	copy(info.RawName[:], prefix+strconv.Itoa(channel+1))
	return info, nil
}

// CreateBuffers allocates both halves for every requested channel and
// stores their addresses in slots.
func (d *Driver) CreateBuffers(slots []asio.BufferInfo, bufferSize int, cb asio.Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInit(); err != nil {
		return err
	}
	if d.stream != nil {
		return asio.StatusInvalidMode
	}
	if len(slots) == 0 || !d.cfg.Buffer.Accepts(bufferSize) {
		return asio.StatusInvalidParameter
	}

	channels := make([]channel, len(slots))
	for i, s := range slots {
		input := s.IsInput != 0
		limit := d.cfg.Outputs
		if input {
			limit = d.cfg.Inputs
		}
		if s.ChannelIndex < 0 || int(s.ChannelIndex) >= limit {
			return asio.StatusInvalidParameter
		}
		format := asio.Resolve(d.typeOf(int(s.ChannelIndex), input))
		size := bufferSize * int(format.BytesPerSample)
		if size == 0 {
			return asio.StatusInvalidMode
		}
		ch := channel{info: s, format: format}
		for half := range ch.mem {
			ch.mem[half] = make([]byte, size)
			ch.info.Buffers[half] = uintptr(unsafe.Pointer(&ch.mem[half][0]))
		}
		channels[i] = ch
	}

	stream := &asio.Stream{Callbacks: cb, Driver: d, BufferSize: bufferSize}
	if err := d.slot.Claim(stream); err != nil {
		return err
	}
	for i := range slots {
		slots[i].Buffers = channels[i].info.Buffers
	}

	d.channels = channels
	d.bufferSize = bufferSize
	d.stream = stream
	d.half = 0
	d.position = 0
	d.outputReady.Store(0)
	d.loop = make([][]float64, d.cfg.Inputs)
	d.capture = make([][]float64, d.cfg.Outputs)
	for i := range d.loop {
		d.loop[i] = make([]float64, bufferSize)
	}

	// Ask the host what it can handle, as real drivers do.
	d.timeInfo = d.cfg.TimeInfo &&
		cb.HostMessage(asio.SelectorSupported, int32(asio.SelectorSupportsTimeInfo), 0, nil) == 1 &&
		cb.HostMessage(asio.SelectorSupportsTimeInfo, 0, 0, nil) == 1
	return nil
}

func (d *Driver) DisposeBuffers() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return asio.StatusInvalidMode
	}
	if d.running {
		return asio.StatusInvalidMode
	}
	d.slot.Free(d.stream)
	d.stream = nil
	d.channels = nil
	return nil
}

func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil || d.running {
		return asio.StatusInvalidMode
	}
	d.running = true
	if d.cfg.Realtime {
		d.stop = make(chan struct{})
		d.done = make(chan struct{})
		period := time.Duration(float64(d.bufferSize) / d.rate * float64(time.Second))
		go d.run(period, d.stop, d.done)
	}
	return nil
}

func (d *Driver) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

func (d *Driver) run(period time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.period()
		case <-stop:
			return
		}
	}
}

// Pump runs n buffer switches synchronously on the calling goroutine. The
// driver must be started and not in realtime mode.
func (d *Driver) Pump(n int) error {
	d.mu.Lock()
	ok := d.running && !d.cfg.Realtime
	d.mu.Unlock()
	if !ok {
		return asio.StatusInvalidMode
	}
	for i := 0; i < n; i++ {
		d.period()
	}
	return nil
}

// period is one buffer switch: fill inputs, call the host, play outputs.
func (d *Driver) period() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	half := d.half
	d.fillInputs(half)
	useTimeInfo := d.timeInfo
	if useTimeInfo {
		d.time = asio.Time{}
		d.time.Info = asio.TimeInfo{
			Speed:          1,
			SamplePosition: asio.SamplesFromInt64(d.position),
			SystemTime:     asio.SamplesFromInt64(d.systemTime()),
			SampleRate:     d.rate,
			Flags: asio.TimeInfoSystemTimeValid | asio.TimeInfoSamplePositionValid |
				asio.TimeInfoSampleRateValid | asio.TimeInfoSpeedValid,
		}
	}
	d.mu.Unlock()

	// The host may call back into the driver, so no lock is held here.
	if useTimeInfo {
		d.slot.BufferSwitchTimeInfo(&d.time, half, true)
	} else {
		d.slot.BufferSwitch(half, true)
	}

	d.mu.Lock()
	d.playOutputs(half)
	d.position += int64(d.bufferSize)
	d.half ^= 1
	d.mu.Unlock()
}

func (d *Driver) fillInputs(half int) {
	for i := range d.channels {
		ch := &d.channels[i]
		if ch.info.IsInput == 0 {
			continue
		}
		src := d.loop[ch.info.ChannelIndex]
		_, _ = asio.WriteBlock(ch.mem[half], 0, src, ch.format)
	}
}

func (d *Driver) playOutputs(half int) {
	for i := range d.channels {
		ch := &d.channels[i]
		if ch.info.IsInput != 0 {
			continue
		}
		idx := int(ch.info.ChannelIndex)
		for frame := 0; frame < d.bufferSize; frame++ {
			v, err := asio.ReadSample(ch.mem[half], frame, ch.format)
			if err != nil {
				v = 0
			}
			d.capture[idx] = append(d.capture[idx], v)
			if idx < len(d.loop) {
				d.loop[idx][frame] = v
			}
		}
	}
}

// OutputReady records that the host finished writing the current half.
func (d *Driver) OutputReady() error {
	if !d.cfg.OutputReady {
		return asio.StatusNotPresent
	}
	d.outputReady.Add(1)
	return nil
}

// OutputReadyCount returns how often the host signalled OutputReady since
// buffers were created.
func (d *Driver) OutputReadyCount() int64 {
	return d.outputReady.Load()
}

func (d *Driver) ControlPanel() error {
	return asio.StatusNotPresent
}

func (d *Driver) Future(int32, unsafe.Pointer) error {
	return asio.StatusNotPresent
}

// Position returns the number of frames played.
func (d *Driver) Position() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// Captured returns a copy of everything the host wrote to output channel
// ch, decoded to float.
func (d *Driver) Captured(ch int) []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch < 0 || ch >= len(d.capture) {
		return nil
	}
	return append([]float64(nil), d.capture[ch]...)
}

// Running reports whether the driver is started.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
