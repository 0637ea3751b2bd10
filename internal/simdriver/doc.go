// ABOUTME: Simulated loopback driver package
// ABOUTME: A pure Go asio.Driver for tests, demos and non-Windows hosts
// Package simdriver implements asio.Driver in Go.
//
// The driver owns real double buffers in whatever sample type it is
// configured with, runs the buffer switch either on demand (Pump) or from a
// ticker goroutine sized to the buffer period, decodes what the host wrote
// to its outputs, and loops the outputs back into its inputs one period
// later. The decoded output can be saved as a WAV file.
//
// Example:
//
//	drv := simdriver.New(simdriver.DefaultConfig())
//	h := asio.NewHandle(drv, nil)
//	defer h.Close()
//
//	// ... create buffers and start through the host session ...
//	_ = drv.Pump(10)
//	_ = drv.WriteWAV("out.wav", 16)
package simdriver
