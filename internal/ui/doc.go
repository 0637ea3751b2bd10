// ABOUTME: Package documentation for the terminal UI
// ABOUTME: Describes the driver picker and the playback status screen
// Package ui holds the bubbletea screens of the test host: a picker that
// lists the installed drivers and a status screen shown while a session
// plays.
//
// Example:
//
//	plugin, err := ui.Pick(plugins, "")
//	if errors.Is(err, ui.ErrCancelled) {
//		return nil
//	}
package ui
