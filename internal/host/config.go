// ABOUTME: Session configuration
// ABOUTME: Buffer, rate and tone settings with defaults matching the tone player
package host

import (
	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/internal/tone"
)

// Source produces one frame per call, one sample per driven output.
type Source interface {
	Channels() int
	SetSampleRate(rate float64)
	Next(frame []float64)
}

// Config holds session configuration
type Config struct {
	// SysHandle is passed to the driver's Init (a window handle on Windows).
	SysHandle uintptr
	// BufferSize in frames; 0 uses the driver's preferred size.
	BufferSize int
	// SampleRate to switch the driver to; 0 keeps the current rate.
	SampleRate float64
	// Outputs is the number of outputs to drive, starting at the first.
	Outputs int
	// Source fills the driven outputs. Nil plays the default test tones.
	Source Source
	// Frequencies and Volume configure the default tones.
	Frequencies []float64
	Volume      float64
	// TimeInfo asks the driver for the time-info buffer switch.
	TimeInfo bool

	Logger *zap.Logger
}

// FallbackSampleRate is used when a driver reports no rate of its own.
const FallbackSampleRate = 44100

// DefaultConfig plays the two test tones on the first two outputs.
func DefaultConfig() Config {
	return Config{
		Outputs:     len(tone.DefaultFrequencies),
		Frequencies: tone.DefaultFrequencies,
		Volume:      tone.DefaultVolume,
		TimeInfo:    true,
	}
}
