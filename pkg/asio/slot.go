// ABOUTME: Process-wide slot for the active stream's callbacks
// ABOUTME: Dispatches raw driver callbacks, which carry no context pointer, to Go handlers
package asio

import (
	"sync/atomic"
	"time"
)

// Stream is what the callback dispatchers need about the running stream.
type Stream struct {
	Callbacks Callbacks
	// Driver is queried for the new rate after a rate change. It is never
	// called from a buffer switch.
	Driver Driver
	// BufferSize is the period in frames. Synthesized time info advances the
	// sample position by this much per buffer switch.
	BufferSize int

	frames int64
	synth  TimeInfo
}

// CallbackSlot holds at most one active stream. Driver callbacks carry no
// user data, so a process can only route them to a single stream.
type CallbackSlot struct {
	active atomic.Pointer[Stream]
}

// Claim makes s the active stream, or returns ErrStreamActive.
func (c *CallbackSlot) Claim(s *Stream) error {
	if !c.active.CompareAndSwap(nil, s) {
		return ErrStreamActive
	}
	return nil
}

// Free clears the slot if s is the active stream.
func (c *CallbackSlot) Free(s *Stream) {
	c.active.CompareAndSwap(s, nil)
}

// Active returns the active stream or nil.
func (c *CallbackSlot) Active() *Stream {
	return c.active.Load()
}

// BufferSwitch handles the old-style buffer switch. When the host wants
// time info, it is built from a frame count kept on the stream and the
// host clock, so the driver is not called back from its own thread.
func (c *CallbackSlot) BufferSwitch(half int, directProcess bool) {
	s := c.active.Load()
	if s == nil {
		return
	}
	if s.Callbacks.OnBufferReadyTimeInfo == nil {
		s.Callbacks.BufferReady(nil, half, directProcess)
		return
	}

	s.synth = TimeInfo{
		SamplePosition: SamplesFromInt64(s.frames),
		SystemTime:     SamplesFromInt64(time.Now().UnixNano()),
		Flags:          TimeInfoSystemTimeValid | TimeInfoSamplePositionValid,
	}
	s.frames += int64(s.BufferSize)
	s.Callbacks.BufferReady(&s.synth, half, directProcess)
}

// BufferSwitchTimeInfo handles the time-info buffer switch and returns t
// as the ABI requires.
func (c *CallbackSlot) BufferSwitchTimeInfo(t *Time, half int, directProcess bool) *Time {
	s := c.active.Load()
	if s == nil {
		return t
	}
	var info *TimeInfo
	if t != nil {
		info = &t.Info
	}
	s.Callbacks.BufferReady(info, half, directProcess)
	return t
}

// SampleRateDidChange re-reads the rate from the driver and forwards it.
func (c *CallbackSlot) SampleRateDidChange() {
	s := c.active.Load()
	if s == nil || s.Driver == nil {
		return
	}
	rate, err := s.Driver.SampleRate()
	if err != nil {
		Logger().Warn("sample rate changed but could not be read")
		return
	}
	s.Callbacks.SampleRateChanged(rate)
}

// Message answers a driver-to-host message. Without an active stream every
// query is answered with 0.
func (c *CallbackSlot) Message(selector MessageSelector, value int32, message uintptr, opt *float64) int32 {
	s := c.active.Load()
	if s == nil {
		return 0
	}
	return s.Callbacks.HostMessage(selector, value, message, opt)
}
