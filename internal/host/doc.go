// ABOUTME: Driver session host package
// ABOUTME: Runs the init, query, buffers, start, stop, dispose, release lifecycle
// Package host drives one loaded driver through a playback session.
//
// Open initializes the driver, negotiates buffer size and sample rate,
// creates buffers for every channel (inputs first, then outputs), resolves
// each channel's sample format once and registers the buffer switch that
// fills the driven outputs from a Source. Close undoes it in the only safe
// order: stop, dispose buffers, release.
//
// Example:
//
//	sess, err := host.Open(handle, host.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	err = sess.Play(ctx, 3*time.Second)
package host
