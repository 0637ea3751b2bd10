// ABOUTME: Test tone generator for driver playback
// ABOUTME: Phase-accumulator sine oscillators, one per output channel
package tone

import (
	"math"
	"sync/atomic"
)

const (
	// DefaultVolume keeps the test tones quiet.
	DefaultVolume = 0.1
)

// DefaultFrequencies are the tones played on the first two outputs.
var DefaultFrequencies = []float64{220, 330}

// Oscillator is a sine oscillator. The phase is kept in [0, 1) and advanced
// by frequency/sampleRate per frame. The rate may be changed from another
// goroutine while Next is running.
type Oscillator struct {
	frequency float64
	phase     float64
	delta     atomic.Uint64 // float64 bits
}

// NewOscillator creates an oscillator at frequency Hz for sampleRate.
func NewOscillator(frequency, sampleRate float64) *Oscillator {
	o := &Oscillator{frequency: frequency}
	o.SetSampleRate(sampleRate)
	return o
}

// SetSampleRate changes the rate the oscillator is sampled at. A rate of
// zero or less silences the oscillator.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	var delta float64
	if sampleRate > 0 {
		delta = o.frequency / sampleRate
	}
	o.delta.Store(math.Float64bits(delta))
}

// Phase returns the current phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// Next advances one frame and returns the sample in [-1, 1].
func (o *Oscillator) Next() float64 {
	o.phase += math.Float64frombits(o.delta.Load())
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return math.Sin(2 * math.Pi * o.phase)
}

// Bank drives one oscillator per channel at a shared volume.
type Bank struct {
	oscillators []*Oscillator
	volume      float64
}

// NewBank creates one oscillator per frequency.
func NewBank(sampleRate, volume float64, frequencies ...float64) *Bank {
	b := &Bank{volume: volume}
	for _, f := range frequencies {
		b.oscillators = append(b.oscillators, NewOscillator(f, sampleRate))
	}
	return b
}

// Channels returns the number of oscillators.
func (b *Bank) Channels() int { return len(b.oscillators) }

// Volume returns the output gain.
func (b *Bank) Volume() float64 { return b.volume }

// SetSampleRate retunes every oscillator.
func (b *Bank) SetSampleRate(sampleRate float64) {
	for _, o := range b.oscillators {
		o.SetSampleRate(sampleRate)
	}
}

// Next advances every oscillator one frame and writes the scaled samples
// into frame. Extra entries in frame are set to zero; extra oscillators are
// still advanced.
func (b *Bank) Next(frame []float64) {
	for i, o := range b.oscillators {
		s := o.Next() * b.volume
		if i < len(frame) {
			frame[i] = s
		}
	}
	for i := len(b.oscillators); i < len(frame); i++ {
		frame[i] = 0
	}
}
