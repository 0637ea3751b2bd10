// ABOUTME: Tests for the process-wide callback slot
// ABOUTME: Covers exclusivity and dispatch of each driver callback
package asio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type positionDriver struct {
	stubDriver
	pos, ts int64
	err     error
	rate    float64
}

func (d *positionDriver) SamplePosition() (int64, int64, error) { return d.pos, d.ts, d.err }
func (d *positionDriver) SampleRate() (float64, error)          { return d.rate, d.err }

func TestCallbackSlotExclusive(t *testing.T) {
	var slot CallbackSlot
	a, b := &Stream{}, &Stream{}

	require.NoError(t, slot.Claim(a))
	assert.ErrorIs(t, slot.Claim(b), ErrStreamActive)
	assert.Same(t, a, slot.Active())

	slot.Free(b)
	assert.Same(t, a, slot.Active())

	slot.Free(a)
	assert.Nil(t, slot.Active())
	require.NoError(t, slot.Claim(b))
}

func TestCallbackSlotIdle(t *testing.T) {
	var slot CallbackSlot
	tm := &Time{}

	slot.BufferSwitch(0, true)
	slot.SampleRateDidChange()
	assert.Same(t, tm, slot.BufferSwitchTimeInfo(tm, 1, false))
	assert.Zero(t, slot.Message(SelectorEngineVersion, 0, 0, nil))
}

func TestCallbackSlotBufferSwitch(t *testing.T) {
	t.Run("plain handler", func(t *testing.T) {
		var slot CallbackSlot
		var got []int
		require.NoError(t, slot.Claim(&Stream{
			Callbacks: Callbacks{OnBufferReady: func(half int, _ bool) { got = append(got, half) }},
			Driver:    &positionDriver{},
		}))

		slot.BufferSwitch(0, true)
		slot.BufferSwitch(1, true)
		assert.Equal(t, []int{0, 1}, got)
	})

	t.Run("synthesized time info", func(t *testing.T) {
		var slot CallbackSlot
		var infos []TimeInfo
		require.NoError(t, slot.Claim(&Stream{
			Callbacks:  Callbacks{OnBufferReadyTimeInfo: func(ti *TimeInfo, _ int, _ bool) { infos = append(infos, *ti) }},
			Driver:     &positionDriver{pos: 4096, err: StatusSPNotAdvancing},
			BufferSize: 256,
		}))

		before := time.Now().UnixNano()
		for half := 0; half < 3; half++ {
			slot.BufferSwitch(half%2, false)
		}
		require.Len(t, infos, 3)
		for i, info := range infos {
			assert.Equal(t, int64(i*256), info.SamplePosition.Int64())
			assert.GreaterOrEqual(t, info.SystemTime.Int64(), before)
			assert.Equal(t, TimeInfoSystemTimeValid|TimeInfoSamplePositionValid, info.Flags)
		}
	})

	t.Run("no driver", func(t *testing.T) {
		var slot CallbackSlot
		var info TimeInfo
		require.NoError(t, slot.Claim(&Stream{
			Callbacks:  Callbacks{OnBufferReadyTimeInfo: func(ti *TimeInfo, _ int, _ bool) { info = *ti }},
			BufferSize: 64,
		}))

		slot.BufferSwitch(0, false)
		slot.BufferSwitch(1, false)
		assert.Equal(t, int64(64), info.SamplePosition.Int64())
	})
}

func TestCallbackSlotBufferSwitchDoesNotAllocate(t *testing.T) {
	var slot CallbackSlot
	var n int
	require.NoError(t, slot.Claim(&Stream{
		Callbacks:  Callbacks{OnBufferReadyTimeInfo: func(*TimeInfo, int, bool) { n++ }},
		Driver:     &positionDriver{},
		BufferSize: 128,
	}))

	allocs := testing.AllocsPerRun(100, func() {
		slot.BufferSwitch(n%2, true)
	})
	assert.Zero(t, allocs)
	assert.Positive(t, n)
}

func TestCallbackSlotBufferSwitchTimeInfo(t *testing.T) {
	var slot CallbackSlot
	var half int
	var pos int64
	require.NoError(t, slot.Claim(&Stream{
		Callbacks: Callbacks{OnBufferReadyTimeInfo: func(ti *TimeInfo, h int, _ bool) {
			half = h
			pos = ti.SamplePosition.Int64()
		}},
	}))

	tm := &Time{Info: TimeInfo{SamplePosition: SamplesFromInt64(256)}}
	assert.Same(t, tm, slot.BufferSwitchTimeInfo(tm, 1, true))
	assert.Equal(t, 1, half)
	assert.Equal(t, int64(256), pos)
}

func TestCallbackSlotSampleRateDidChange(t *testing.T) {
	var slot CallbackSlot
	var rate float64
	require.NoError(t, slot.Claim(&Stream{
		Callbacks: Callbacks{OnSampleRateChanged: func(r float64) { rate = r }},
		Driver:    &positionDriver{rate: 96000},
	}))

	slot.SampleRateDidChange()
	assert.Equal(t, 96000.0, rate)
}

func TestCallbackSlotMessage(t *testing.T) {
	var slot CallbackSlot
	require.NoError(t, slot.Claim(&Stream{}))

	assert.Equal(t, int32(HostEngineVersion), slot.Message(SelectorEngineVersion, 0, 0, nil))
	assert.Equal(t, int32(1), slot.Message(SelectorSupported, int32(SelectorSupportsTimeInfo), 0, nil))
	assert.Zero(t, slot.Message(SelectorSupportsTimeInfo, 0, 0, nil))
}
