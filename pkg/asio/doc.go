// ABOUTME: ASIO driver host primitives package
// ABOUTME: Defines sample formats, conversion, driver interfaces and handles
// Package asio provides the host-side building blocks for talking to ASIO
// audio drivers without going through COM activation.
//
// The package covers:
//   - SampleType / Format: the driver's per-channel sample code and its
//     normalized descriptor (width, bit alignment, byte order, float, DSD)
//   - WriteSample / WriteBlock / ReadSample: bit-exact conversion between
//     float samples and the hardware byte layout
//   - Driver / ClassFactory: the capability table and class factory a loaded
//     driver exposes, expressed as Go interfaces
//   - Handle: the reference-counted owner of a loaded driver and its module
//
// Discovery lives in pkg/asio/discovery and module loading in pkg/asio/loader.
//
// Example:
//
//	format := asio.Resolve(info.SampleType)
//	if err := format.Validate(); err != nil {
//	    return err
//	}
//
//	// On the driver's buffer-switch callback
//	_ = asio.WriteSample(buf, frame, 0.1*math.Sin(phase), format)
package asio
