// ABOUTME: TUI entry points
// ABOUTME: Runs the picker and playback screens as bubbletea programs
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/asiodirect/internal/host"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
)

// Pick shows the driver list and returns the user's choice, or
// ErrCancelled.
func Pick(plugins []discovery.Plugin, notice string) (discovery.Plugin, error) {
	final, err := tea.NewProgram(NewPicker(plugins, notice), tea.WithAltScreen()).Run()
	if err != nil {
		return discovery.Plugin{}, err
	}
	p, ok := final.(Picker).Chosen()
	if !ok {
		return discovery.Plugin{}, ErrCancelled
	}
	return p, nil
}

// Playback shows the status screen until finished is closed or the user
// quits, in which case stop is called.
func Playback(info host.Info, volume float64, poll func() host.Stats, finished <-chan struct{}, stop func()) error {
	p := tea.NewProgram(NewModel(info, volume, poll, stop), tea.WithAltScreen())

	go func() {
		<-finished
		p.Send(FinishedMsg{})
	}()

	_, err := p.Run()
	return err
}
