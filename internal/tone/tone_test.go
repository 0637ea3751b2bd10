// ABOUTME: Tests for the test tone oscillators
// ABOUTME: Covers phase wrap, frequency accuracy and bank volume
package tone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOscillatorPhaseStaysInRange(t *testing.T) {
	o := NewOscillator(330, 44100)
	for i := 0; i < 100000; i++ {
		s := o.Next()
		require.GreaterOrEqual(t, o.Phase(), 0.0)
		require.Less(t, o.Phase(), 1.0)
		require.LessOrEqual(t, math.Abs(s), 1.0)
	}
}

func TestOscillatorFrequency(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		rate      float64
	}{
		{"220 at 48k", 220, 48000},
		{"330 at 44.1k", 330, 44100},
		{"1k at 96k", 1000, 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOscillator(tt.frequency, tt.rate)

			// Count upward zero crossings over one second.
			crossings := 0
			prev := 0.0
			for i := 0; i < int(tt.rate); i++ {
				s := o.Next()
				if prev < 0 && s >= 0 {
					crossings++
				}
				prev = s
			}
			assert.InDelta(t, tt.frequency, float64(crossings), 1)
		})
	}
}

func TestOscillatorFirstSample(t *testing.T) {
	o := NewOscillator(220, 48000)
	assert.InDelta(t, math.Sin(2*math.Pi*220/48000), o.Next(), 1e-12)
}

func TestOscillatorSetSampleRate(t *testing.T) {
	o := NewOscillator(1000, 48000)
	o.SetSampleRate(96000)
	o.Next()
	assert.InDelta(t, 1000.0/96000, o.Phase(), 1e-12)

	o.SetSampleRate(0)
	before := o.Phase()
	assert.InDelta(t, math.Sin(2*math.Pi*before), o.Next(), 1e-12)
	assert.Equal(t, before, o.Phase())
}

func TestBank(t *testing.T) {
	b := NewBank(48000, DefaultVolume, DefaultFrequencies...)
	require.Equal(t, 2, b.Channels())
	assert.Equal(t, DefaultVolume, b.Volume())

	frame := []float64{9, 9, 9}
	for i := 0; i < 1000; i++ {
		b.Next(frame)
		assert.LessOrEqual(t, math.Abs(frame[0]), DefaultVolume+1e-12)
		assert.LessOrEqual(t, math.Abs(frame[1]), DefaultVolume+1e-12)
		assert.Zero(t, frame[2])
	}

	short := make([]float64, 1)
	b.Next(short)
	assert.NotZero(t, short[0])
}
