// ABOUTME: Sample format descriptor resolution
// ABOUTME: Maps a driver sample type code to width, alignment, byte order and kind
package asio

import "fmt"

// Format is the normalized description of a hardware sample layout.
// The zero Format (BytesPerSample == 0) means the code was not recognised.
type Format struct {
	IsFloat        bool
	BitAlign       uint8 // significant low bits in a wider container, 0 if not packed
	BytesPerSample uint8
	IsBigEndian    bool
	IsDSD          bool // one-bit / bitstream formats
}

// Resolve returns the descriptor for a sample type. It is pure and total:
// undefined codes yield the zero Format.
//
// Width, alignment and byte order vary independently across the code space,
// so each is decided by its own pass.
func Resolve(t SampleType) Format {
	var f Format

	switch t {
	case SampleTypeDSDInt8LSB1, SampleTypeDSDInt8MSB1, SampleTypeDSDInt8NER8:
		f.BytesPerSample = 1
	case SampleTypeInt16LSB, SampleTypeInt16MSB:
		f.BytesPerSample = 2
	case SampleTypeInt24LSB, SampleTypeInt24MSB:
		f.BytesPerSample = 3
	case SampleTypeFloat32LSB, SampleTypeFloat32MSB,
		SampleTypeInt32LSB, SampleTypeInt32LSB16, SampleTypeInt32LSB18, SampleTypeInt32LSB20, SampleTypeInt32LSB24,
		SampleTypeInt32MSB, SampleTypeInt32MSB16, SampleTypeInt32MSB18, SampleTypeInt32MSB20, SampleTypeInt32MSB24:
		f.BytesPerSample = 4
	case SampleTypeFloat64LSB, SampleTypeFloat64MSB:
		f.BytesPerSample = 8
	}

	// Some PCIe devices pack narrower samples into 32-bit words.
	switch t {
	case SampleTypeDSDInt8LSB1, SampleTypeDSDInt8MSB1:
		f.BitAlign = 1
	case SampleTypeInt32LSB16, SampleTypeInt32MSB16:
		f.BitAlign = 16
	case SampleTypeInt32LSB18, SampleTypeInt32MSB18:
		f.BitAlign = 18
	case SampleTypeInt32LSB20, SampleTypeInt32MSB20:
		f.BitAlign = 20
	case SampleTypeInt32LSB24, SampleTypeInt32MSB24:
		f.BitAlign = 24
	}

	switch t {
	case SampleTypeInt16MSB, SampleTypeInt24MSB, SampleTypeInt32MSB,
		SampleTypeFloat32MSB, SampleTypeFloat64MSB,
		SampleTypeInt32MSB16, SampleTypeInt32MSB18, SampleTypeInt32MSB20, SampleTypeInt32MSB24,
		SampleTypeDSDInt8MSB1:
		f.IsBigEndian = true
	}

	f.IsFloat = t == SampleTypeFloat32LSB || t == SampleTypeFloat32MSB ||
		t == SampleTypeFloat64LSB || t == SampleTypeFloat64MSB

	f.IsDSD = t == SampleTypeDSDInt8LSB1 || t == SampleTypeDSDInt8MSB1 || t == SampleTypeDSDInt8NER8

	return f
}

// Validate reports whether the converter can write this format. Call it once
// when a stream is set up rather than on the real-time path.
func (f Format) Validate() error {
	switch {
	case f.BytesPerSample == 0:
		return &Error{Kind: KindUnsupportedFormat, Op: "validate", Detail: "unknown sample type"}
	case f.IsDSD:
		return &Error{Kind: KindUnsupportedFormat, Op: "validate", Detail: "DSD bitstream"}
	case f.BitAlign != 0:
		return &Error{Kind: KindUnsupportedFormat, Op: "validate", Detail: fmt.Sprintf("%d-bit packed in %d bytes", f.BitAlign, f.BytesPerSample)}
	case f.BytesPerSample > 8:
		return &Error{Kind: KindUnsupportedFormat, Op: "validate", Detail: fmt.Sprintf("%d bytes per sample", f.BytesPerSample)}
	case f.IsFloat && f.BytesPerSample != 4 && f.BytesPerSample != 8:
		return &Error{Kind: KindUnsupportedFormat, Op: "validate", Detail: fmt.Sprintf("%d-byte float", f.BytesPerSample)}
	}
	return nil
}

// Bits returns the number of significant bits per sample.
func (f Format) Bits() int {
	if f.BitAlign != 0 {
		return int(f.BitAlign)
	}
	return int(f.BytesPerSample) * 8
}

func (f Format) String() string {
	if f.BytesPerSample == 0 {
		return "unknown"
	}
	kind := "int"
	if f.IsFloat {
		kind = "float"
	}
	if f.IsDSD {
		kind = "dsd"
	}
	order := "LE"
	if f.IsBigEndian {
		order = "BE"
	}
	return fmt.Sprintf("%s%d/%dB %s", kind, f.Bits(), f.BytesPerSample, order)
}
