// ABOUTME: Playback session over a loaded driver
// ABOUTME: Owns buffers, resolved formats and the buffer switch that writes samples
package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/internal/tone"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
)

// ErrResetRequested is returned by Play when the driver asks the host to
// tear the session down and open it again.
var ErrResetRequested = errors.New("driver requested a reset")

// SampleRateChanged is the Event selector for a clock change reported
// through the sample rate callback rather than a message.
const SampleRateChanged asio.MessageSelector = 0

// Event is a driver request surfaced to the host application.
type Event struct {
	Selector asio.MessageSelector
	Value    int32
	Rate     float64 // set for SampleRateChanged
}

// Info describes the negotiated session.
type Info struct {
	DriverName    string
	DriverVersion int32
	Inputs        int
	Outputs       int
	BufferSize    int
	SampleRate    float64
	InputLatency  int
	OutputLatency int
	OutputReady   bool
	Channels      []asio.ChannelInfo // in buffer order: inputs, then outputs
}

// Stats are counters updated from the driver's thread.
type Stats struct {
	Periods        int64
	ConvertErrors  int64
	SamplePosition int64
	SampleRate     float64
}

type output struct {
	format asio.Format
	half   [2][]byte
}

type state int

const (
	stateReady state = iota
	stateRunning
	stateStopped
	stateClosed
)

// Session is one configured stream on a driver.
type Session struct {
	cfg    Config
	log    *zap.Logger
	handle *asio.Handle
	driver asio.Driver
	info   Info

	slots   []asio.BufferInfo
	outputs []output
	frame   []float64
	source  Source

	mu    sync.Mutex
	state state

	periods  atomic.Int64
	errs     atomic.Int64
	position atomic.Int64
	rate     atomic.Uint64 // float64 bits

	events chan Event

	closeOnce sync.Once
	closeErr  error
}

// Open prepares a session on h. The session holds its own reference to h
// and drops it in Close.
func Open(h *asio.Handle, cfg Config) (*Session, error) {
	if err := h.Acquire(); err != nil {
		return nil, err
	}
	drv, err := h.Driver()
	if err != nil {
		_, _ = h.Release()
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		log:    cfg.Logger,
		handle: h,
		driver: drv,
		events: make(chan Event, 8),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	if err := s.open(); err != nil {
		_, _ = h.Release()
		return nil, err
	}
	return s, nil
}

func (s *Session) open() error {
	d := s.driver

	if err := d.Init(s.cfg.SysHandle); err != nil {
		return fmt.Errorf("failed to initialize driver: %w", err)
	}
	s.info.DriverName = d.Name()
	s.info.DriverVersion = d.Version()

	inputs, outputs, err := d.Channels()
	if err != nil {
		return fmt.Errorf("failed to get channel count: %w", err)
	}
	s.info.Inputs, s.info.Outputs = inputs, outputs

	driven := s.cfg.Outputs
	if driven <= 0 || driven > outputs {
		driven = outputs
	}
	if driven == 0 {
		return fmt.Errorf("driver %q has no outputs", s.info.DriverName)
	}

	size, err := s.negotiateBufferSize()
	if err != nil {
		return err
	}
	s.info.BufferSize = size

	rate, err := s.negotiateSampleRate()
	if err != nil {
		return err
	}
	s.info.SampleRate = rate
	s.rate.Store(math.Float64bits(rate))

	if in, out, err := d.Latencies(); err == nil {
		s.info.InputLatency, s.info.OutputLatency = in, out
	}

	s.info.OutputReady = d.OutputReady() == nil

	s.source = s.cfg.Source
	if s.source == nil {
		s.source = tone.NewBank(rate, s.cfg.Volume, s.cfg.Frequencies...)
	}
	s.source.SetSampleRate(rate)
	s.frame = make([]float64, max(driven, s.source.Channels()))

	// Inputs first, then outputs.
	s.slots = make([]asio.BufferInfo, 0, inputs+outputs)
	for i := 0; i < inputs; i++ {
		s.slots = append(s.slots, asio.BufferInfo{IsInput: 1, ChannelIndex: int32(i)})
	}
	for i := 0; i < outputs; i++ {
		s.slots = append(s.slots, asio.BufferInfo{ChannelIndex: int32(i)})
	}

	if err := d.CreateBuffers(s.slots, size, s.callbacks()); err != nil {
		return fmt.Errorf("failed to create buffers: %w", err)
	}

	if err := s.resolveChannels(driven); err != nil {
		if derr := d.DisposeBuffers(); derr != nil {
			s.log.Warn("failed to dispose buffers", zap.Error(derr))
		}
		return err
	}

	s.log.Info("session opened",
		zap.String("driver", s.info.DriverName),
		zap.Int32("version", s.info.DriverVersion),
		zap.Int("inputs", inputs),
		zap.Int("outputs", outputs),
		zap.Int("buffer_size", size),
		zap.Float64("sample_rate", rate),
		zap.Bool("output_ready", s.info.OutputReady))
	return nil
}

func (s *Session) negotiateBufferSize() (int, error) {
	r, err := s.driver.BufferSize()
	if err != nil {
		return 0, fmt.Errorf("failed to get buffer size: %w", err)
	}
	if s.cfg.BufferSize == 0 {
		return r.Preferred, nil
	}
	if !r.Accepts(s.cfg.BufferSize) {
		return 0, fmt.Errorf("buffer size %d not accepted (min %d, max %d, granularity %d)",
			s.cfg.BufferSize, r.Min, r.Max, r.Granularity)
	}
	return s.cfg.BufferSize, nil
}

func (s *Session) negotiateSampleRate() (float64, error) {
	d := s.driver
	if s.cfg.SampleRate > 0 {
		if err := d.CanSampleRate(s.cfg.SampleRate); err != nil {
			return 0, fmt.Errorf("sample rate %.0f not supported: %w", s.cfg.SampleRate, err)
		}
		if err := d.SetSampleRate(s.cfg.SampleRate); err != nil {
			return 0, fmt.Errorf("failed to set sample rate: %w", err)
		}
	}

	rate, err := d.SampleRate()
	if err != nil {
		return 0, fmt.Errorf("failed to get sample rate: %w", err)
	}
	if rate <= 0 {
		// Some drivers only know their rate once it has been set.
		s.log.Warn("driver reports no sample rate", zap.Float64("fallback", FallbackSampleRate))
		if err := d.SetSampleRate(FallbackSampleRate); err != nil {
			return 0, fmt.Errorf("failed to set sample rate: %w", err)
		}
		rate = FallbackSampleRate
	}
	return rate, nil
}

// resolveChannels queries every channel's type once, validates the driven
// outputs and clears every output buffer.
func (s *Session) resolveChannels(driven int) error {
	size := s.info.BufferSize
	s.info.Channels = make([]asio.ChannelInfo, len(s.slots))

	for i, slot := range s.slots {
		input := slot.IsInput != 0
		info, err := s.driver.ChannelInfo(int(slot.ChannelIndex), input)
		if err != nil {
			return fmt.Errorf("failed to get channel info: %w", err)
		}
		s.info.Channels[i] = info
		if input {
			continue
		}

		format := asio.Resolve(info.SampleType)
		n := size * int(format.BytesPerSample)
		for half := 0; half < 2; half++ {
			clear(s.slots[i].Bytes(half, n))
		}

		if int(slot.ChannelIndex) >= driven {
			continue
		}
		if err := format.Validate(); err != nil {
			return fmt.Errorf("output %q (%s): %w", info.Name(), info.SampleType, err)
		}
		s.outputs = append(s.outputs, output{
			format: format,
			half:   [2][]byte{s.slots[i].Bytes(0, n), s.slots[i].Bytes(1, n)},
		})

		s.log.Debug("output channel",
			zap.Int32("index", slot.ChannelIndex),
			zap.String("name", info.Name()),
			zap.Stringer("type", info.SampleType),
			zap.Stringer("format", format))
	}
	return nil
}

func (s *Session) callbacks() asio.Callbacks {
	cb := asio.Callbacks{
		OnSampleRateChanged: s.sampleRateChanged,
		OnHostMessage:       s.message,
	}
	if s.cfg.TimeInfo {
		cb.OnBufferReadyTimeInfo = s.bufferSwitchTimeInfo
	} else {
		cb.OnBufferReady = s.bufferSwitch
	}
	return cb
}

func (s *Session) bufferSwitchTimeInfo(info *asio.TimeInfo, half int, _ bool) {
	if info != nil && info.Flags&asio.TimeInfoSamplePositionValid != 0 {
		s.position.Store(info.SamplePosition.Int64())
	}
	s.process(half)
}

func (s *Session) bufferSwitch(half int, _ bool) {
	s.process(half)
}

// process runs on the driver's thread: no locks, no allocation.
func (s *Session) process(half int) {
	half &= 1
	for f := 0; f < s.info.BufferSize; f++ {
		s.source.Next(s.frame)
		for i := range s.outputs {
			out := &s.outputs[i]
			if err := asio.WriteSample(out.half[half], f, s.frame[i], out.format); err != nil {
				s.errs.Add(1)
			}
		}
	}
	if s.info.OutputReady {
		_ = s.driver.OutputReady()
	}
	s.periods.Add(1)
}

func (s *Session) sampleRateChanged(rate float64) {
	s.rate.Store(math.Float64bits(rate))
	s.source.SetSampleRate(rate)
	s.notify(Event{Selector: SampleRateChanged, Rate: rate})
}

func (s *Session) message(selector asio.MessageSelector, value int32, _ uintptr, _ *float64) int32 {
	switch selector {
	case asio.SelectorSupported:
		switch asio.MessageSelector(value) {
		case asio.SelectorEngineVersion, asio.SelectorResetRequest, asio.SelectorResyncRequest,
			asio.SelectorLatenciesChanged, asio.SelectorBufferSizeChange:
			return 1
		case asio.SelectorSupportsTimeInfo:
			return boolInt(s.cfg.TimeInfo)
		}
		return 0
	case asio.SelectorEngineVersion:
		return asio.HostEngineVersion
	case asio.SelectorSupportsTimeInfo:
		return boolInt(s.cfg.TimeInfo)
	case asio.SelectorResetRequest, asio.SelectorResyncRequest,
		asio.SelectorLatenciesChanged, asio.SelectorBufferSizeChange:
		s.notify(Event{Selector: selector, Value: value})
		return 1
	}
	return 0
}

func (s *Session) notify(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Info returns the negotiated session parameters.
func (s *Session) Info() Info {
	return s.info
}

// Events delivers driver requests (reset, resync, latency and buffer size
// changes) and sample rate changes. Events are dropped when nobody reads.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	return Stats{
		Periods:        s.periods.Load(),
		ConvertErrors:  s.errs.Load(),
		SamplePosition: s.position.Load(),
		SampleRate:     math.Float64frombits(s.rate.Load()),
	}
}

// Start starts the driver calling the buffer switch.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return nil
	case stateClosed:
		return asio.ErrReleased
	}
	if err := s.driver.Start(); err != nil {
		return fmt.Errorf("failed to start driver: %w", err)
	}
	s.state = stateRunning
	s.log.Debug("session started")
	return nil
}

// Stop stops the driver. Stopping a session that is not running does
// nothing.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

func (s *Session) stop() error {
	if s.state != stateRunning {
		return nil
	}
	s.state = stateStopped
	if err := s.driver.Stop(); err != nil {
		return fmt.Errorf("failed to stop driver: %w", err)
	}
	st := s.Stats()
	s.log.Debug("session stopped",
		zap.Int64("periods", st.Periods),
		zap.Int64("convert_errors", st.ConvertErrors))
	return nil
}

// Play runs the stream for d, until ctx is done, or until the driver asks
// for a reset. Other driver requests are logged and playback continues.
func (s *Session) Play(ctx context.Context, d time.Duration) error {
	if err := s.Start(); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	var result error
loop:
	for {
		select {
		case <-timer.C:
			break loop
		case <-ctx.Done():
			result = ctx.Err()
			break loop
		case e := <-s.events:
			if e.Selector == asio.SelectorResetRequest {
				result = ErrResetRequested
				break loop
			}
			s.logEvent(e)
		}
	}

	if err := s.Stop(); err != nil {
		return errors.Join(result, err)
	}
	if errs := s.errs.Load(); errs > 0 {
		s.log.Warn("samples could not be converted", zap.Int64("count", errs))
	}
	return result
}

func (s *Session) logEvent(e Event) {
	if e.Selector == SampleRateChanged {
		s.log.Info("sample rate changed", zap.Float64("rate", e.Rate))
		return
	}
	s.log.Info("driver request",
		zap.Int32("selector", int32(e.Selector)),
		zap.Int32("value", e.Value))
}

// Close stops the driver, disposes its buffers and drops the session's
// handle reference, in that order. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		var errs []error
		if err := s.stop(); err != nil {
			errs = append(errs, err)
		}
		if err := s.driver.DisposeBuffers(); err != nil {
			errs = append(errs, fmt.Errorf("failed to dispose buffers: %w", err))
		}
		s.state = stateClosed
		if _, err := s.handle.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release driver: %w", err))
		}
		s.closeErr = errors.Join(errs...)
		s.log.Debug("session closed")
	})
	return s.closeErr
}
