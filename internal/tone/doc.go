// ABOUTME: Test tone package
// ABOUTME: Sine oscillators used by the tone player and the host tests
// Package tone generates the sine test tones the player writes to a driver.
//
// Example:
//
//	bank := tone.NewBank(48000, tone.DefaultVolume, tone.DefaultFrequencies...)
//	frame := make([]float64, bank.Channels())
//	bank.Next(frame)
package tone
