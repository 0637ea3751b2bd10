// ABOUTME: Float to hardware sample conversion
// ABOUTME: Writes and reads single samples or blocks in any supported driver byte layout
package asio

import (
	"encoding/binary"
	"math"
)

// maxSampleBytes is the widest sample slot the converter handles.
const maxSampleBytes = 8

// checkFormat is the allocation-free precondition check used on the
// real-time path. It returns sentinels only.
func checkFormat(f Format) error {
	if f.IsDSD || f.BitAlign != 0 || f.BytesPerSample == 0 || f.BytesPerSample > maxSampleBytes {
		return ErrUnsupportedFormat
	}
	if f.IsFloat && f.BytesPerSample != 4 && f.BytesPerSample != 8 {
		return ErrUnsupportedFormat
	}
	return nil
}

// WriteSample converts one float sample into the hardware layout described by
// f and stores it at frame*BytesPerSample in buf. Exactly BytesPerSample bytes
// are written; on error nothing is written.
//
// Integer formats are quantized by truncation toward zero against
// 2^(bits-1)-1, matching the reference driver host. It does not allocate.
func WriteSample(buf []byte, frame int, sample float64, f Format) error {
	if err := checkFormat(f); err != nil {
		return err
	}
	n := int(f.BytesPerSample)
	if !fits(len(buf), frame, 1, n) {
		return ErrBufferTooSmall
	}
	off := frame * n
	writeSample(buf[off:off+n], sample, f)
	return nil
}

// WriteBlock converts samples into consecutive frames starting at firstFrame.
// The format and bounds are checked once for the whole block.
func WriteBlock(buf []byte, firstFrame int, samples []float64, f Format) (int, error) {
	if err := checkFormat(f); err != nil {
		return 0, err
	}
	n := int(f.BytesPerSample)
	if !fits(len(buf), firstFrame, len(samples), n) {
		return 0, ErrBufferTooSmall
	}
	off := firstFrame * n
	for _, s := range samples {
		writeSample(buf[off:off+n], s, f)
		off += n
	}
	return len(samples), nil
}

// fits reports whether count frames of n bytes starting at first lie inside
// a buffer of size bytes. It divides rather than multiplies so huge frame
// indexes cannot overflow into a negative offset.
func fits(size, first, count, n int) bool {
	if first < 0 || count < 0 {
		return false
	}
	frames := size / n
	return first <= frames && count <= frames-first
}

// writeSample assumes dst is exactly BytesPerSample long and f was checked.
func writeSample(dst []byte, sample float64, f Format) {
	n := len(dst)
	var b [maxSampleBytes]byte

	if f.IsFloat {
		if n == 4 {
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(sample)))
		} else {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(sample))
		}
	} else {
		binary.LittleEndian.PutUint64(b[:], uint64(quantize(sample, n)))
	}

	if f.IsBigEndian {
		// Reverse the whole word; the significant bytes end up in the
		// trailing window with the most significant byte first.
		for i := 0; i < maxSampleBytes/2; i++ {
			b[i], b[maxSampleBytes-1-i] = b[maxSampleBytes-1-i], b[i]
		}
		copy(dst, b[maxSampleBytes-n:])
		return
	}
	copy(dst, b[:n])
}

// quantize maps a float sample onto a signed integer of n bytes.
// Out of range input saturates and NaN maps to silence.
func quantize(sample float64, n int) int64 {
	if math.IsNaN(sample) {
		return 0
	}
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}

	limit := fullScale(n)
	v := limit * sample
	if v >= math.MaxInt64 {
		// float64 cannot hold 2^63-1 exactly, it rounds up past the int64 range
		return math.MaxInt64
	}
	return int64(v)
}

// fullScale returns 2^(8n-1)-1 as a float64.
func fullScale(n int) float64 {
	return float64(uint64(1)<<(uint(n)*8-1) - 1)
}

// ReadSample decodes the sample at frame from buf and returns it as a float.
// Integer samples are scaled by the same full-scale value WriteSample uses.
func ReadSample(buf []byte, frame int, f Format) (float64, error) {
	if err := checkFormat(f); err != nil {
		return 0, err
	}
	n := int(f.BytesPerSample)
	if !fits(len(buf), frame, 1, n) {
		return 0, ErrBufferTooSmall
	}
	off := frame * n

	var b [maxSampleBytes]byte
	if f.IsBigEndian {
		for i := 0; i < n; i++ {
			b[i] = buf[off+n-1-i]
		}
	} else {
		copy(b[:], buf[off:off+n])
	}

	if f.IsFloat {
		if n == 4 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[:]))), nil
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
	}

	// Sign-extend from the sample width
	shift := uint(maxSampleBytes-n) * 8
	v := int64(binary.LittleEndian.Uint64(b[:])<<shift) >> shift
	return float64(v) / fullScale(n), nil
}
