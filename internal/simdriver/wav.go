// ABOUTME: WAV export of the simulated driver's captured output
// ABOUTME: Interleaves decoded output channels into PCM with go-audio/wav
package simdriver

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV saves every captured output channel, interleaved, as a PCM WAV
// file at the driver's current rate. bitDepth is 16, 24 or 32.
func (d *Driver) WriteWAV(path string, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	d.mu.Lock()
	channels := len(d.capture)
	rate := int(d.rate)
	buf := interleave(d.capture, bitDepth)
	d.mu.Unlock()

	if channels == 0 {
		return fmt.Errorf("nothing captured")
	}
	buf.Format = &audio.Format{NumChannels: channels, SampleRate: rate}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return f.Close()
}

// interleave converts per-channel float captures to integer PCM. Shorter
// channels are padded with silence.
func interleave(capture [][]float64, bitDepth int) *audio.IntBuffer {
	frames := 0
	for _, c := range capture {
		frames = max(frames, len(c))
	}
	scale := float64(int64(1)<<(bitDepth-1) - 1)

	data := make([]int, frames*len(capture))
	for ch, c := range capture {
		for i, v := range c {
			v = math.Max(-1, math.Min(1, v))
			data[i*len(capture)+ch] = int(v * scale)
		}
	}
	return &audio.IntBuffer{Data: data, SourceBitDepth: bitDepth}
}
