// ABOUTME: Host callbacks registered with a driver
// ABOUTME: Buffer switch, sample rate and host message handlers plus default message answers
package asio

// MessageSelector identifies a driver-to-host message.
type MessageSelector int32

const (
	SelectorSupported MessageSelector = iota + 1
	SelectorEngineVersion
	SelectorResetRequest
	SelectorBufferSizeChange
	SelectorResyncRequest
	SelectorLatenciesChanged
	SelectorSupportsTimeInfo
	SelectorSupportsTimeCode
	SelectorMMCCommand
	SelectorSupportsInputMonitor
	SelectorSupportsInputGain
	SelectorSupportsInputMeter
	SelectorSupportsOutputGain
	SelectorSupportsOutputMeter
	SelectorOverload
)

// HostEngineVersion is the host interface version reported to drivers.
const HostEngineVersion = 2

// Callbacks are invoked by the driver from its own real-time thread, except
// OnHostMessage which may arrive on any thread. Handlers must not block or
// allocate on the buffer path.
type Callbacks struct {
	// OnBufferReady is called once per period with the half to fill.
	OnBufferReady func(half int, directProcess bool)

	// OnBufferReadyTimeInfo replaces OnBufferReady when set and the driver
	// supports time info. info may be synthesized by the host side.
	OnBufferReadyTimeInfo func(info *TimeInfo, half int, directProcess bool)

	// OnSampleRateChanged reports a hardware clock change.
	OnSampleRateChanged func(rate float64)

	// OnHostMessage answers driver queries. When nil, DefaultMessage is used.
	OnHostMessage func(selector MessageSelector, value int32, message uintptr, opt *float64) int32
}

// BufferReady dispatches a buffer switch to whichever handler is set.
func (c *Callbacks) BufferReady(info *TimeInfo, half int, directProcess bool) {
	if c.OnBufferReadyTimeInfo != nil {
		c.OnBufferReadyTimeInfo(info, half, directProcess)
		return
	}
	if c.OnBufferReady != nil {
		c.OnBufferReady(half, directProcess)
	}
}

// SampleRateChanged forwards a rate change if a handler is set.
func (c *Callbacks) SampleRateChanged(rate float64) {
	if c.OnSampleRateChanged != nil {
		c.OnSampleRateChanged(rate)
	}
}

// HostMessage answers a driver message using OnHostMessage or the defaults.
func (c *Callbacks) HostMessage(selector MessageSelector, value int32, message uintptr, opt *float64) int32 {
	if c.OnHostMessage != nil {
		return c.OnHostMessage(selector, value, message, opt)
	}
	return c.DefaultMessage(selector, value)
}

// DefaultMessage gives the answers a host without custom handling should
// give: it claims support for engine version and time info queries only.
func (c *Callbacks) DefaultMessage(selector MessageSelector, value int32) int32 {
	switch selector {
	case SelectorSupported:
		switch MessageSelector(value) {
		case SelectorEngineVersion, SelectorSupportsTimeInfo:
			return 1
		}
		return 0
	case SelectorEngineVersion:
		return HostEngineVersion
	case SelectorSupportsTimeInfo:
		if c.OnBufferReadyTimeInfo != nil {
			return 1
		}
		return 0
	}
	return 0
}
