// ABOUTME: Tests for host callback dispatch
// ABOUTME: Covers buffer switch routing and default host message answers
package asio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferReadyPrefersTimeInfo(t *testing.T) {
	var plain, timed int
	cb := Callbacks{
		OnBufferReady: func(half int, direct bool) { plain++ },
		OnBufferReadyTimeInfo: func(info *TimeInfo, half int, direct bool) {
			timed++
			assert.Equal(t, 1, half)
			assert.Equal(t, int64(512), info.SamplePosition.Int64())
		},
	}

	cb.BufferReady(&TimeInfo{SamplePosition: SamplesFromInt64(512)}, 1, true)
	assert.Equal(t, 0, plain)
	assert.Equal(t, 1, timed)

	cb.OnBufferReadyTimeInfo = nil
	cb.BufferReady(nil, 0, false)
	assert.Equal(t, 1, plain)
}

func TestBufferReadyWithoutHandlers(t *testing.T) {
	var cb Callbacks
	assert.NotPanics(t, func() {
		cb.BufferReady(nil, 0, false)
		cb.SampleRateChanged(44100)
	})
}

func TestDefaultMessage(t *testing.T) {
	plain := &Callbacks{OnBufferReady: func(int, bool) {}}
	timed := &Callbacks{OnBufferReadyTimeInfo: func(*TimeInfo, int, bool) {}}

	tests := []struct {
		name     string
		cb       *Callbacks
		selector MessageSelector
		value    int32
		want     int32
	}{
		{"supports engine version", plain, SelectorSupported, int32(SelectorEngineVersion), 1},
		{"supports time info query", plain, SelectorSupported, int32(SelectorSupportsTimeInfo), 1},
		{"does not support reset", plain, SelectorSupported, int32(SelectorResetRequest), 0},
		{"engine version", plain, SelectorEngineVersion, 0, HostEngineVersion},
		{"time info without handler", plain, SelectorSupportsTimeInfo, 0, 0},
		{"time info with handler", timed, SelectorSupportsTimeInfo, 0, 1},
		{"time code", timed, SelectorSupportsTimeCode, 0, 0},
		{"overload", plain, SelectorOverload, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cb.HostMessage(tt.selector, tt.value, 0, nil))
		})
	}
}

func TestHostMessageOverride(t *testing.T) {
	cb := Callbacks{
		OnHostMessage: func(sel MessageSelector, value int32, message uintptr, opt *float64) int32 {
			if sel == SelectorResetRequest {
				return 1
			}
			return 0
		},
	}
	assert.Equal(t, int32(1), cb.HostMessage(SelectorResetRequest, 0, 0, nil))
	assert.Equal(t, int32(0), cb.HostMessage(SelectorEngineVersion, 0, 0, nil))
}
