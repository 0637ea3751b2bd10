// ABOUTME: Bubbletea model for the playback status screen
// ABOUTME: Shows the negotiated stream and live counters while a session plays
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/asiodirect/internal/host"
)

// refreshInterval is how often the counters are polled.
const refreshInterval = 250 * time.Millisecond

// Model represents the playback screen state
type Model struct {
	info   host.Info
	volume float64
	stats  host.Stats

	poll func() host.Stats
	stop func()

	showChannels bool
	stopping     bool
	finished     bool

	width int
}

// StatusMsg carries a fresh counter snapshot.
type StatusMsg struct {
	Stats host.Stats
}

// FinishedMsg tells the screen the session has ended on its own.
type FinishedMsg struct{}

type tickMsg time.Time

// NewModel creates the playback screen. poll and stop may be nil.
func NewModel(info host.Info, volume float64, poll func() host.Stats, stop func()) Model {
	return Model{
		info:   info,
		volume: volume,
		poll:   poll,
		stop:   stop,
		stats:  host.Stats{SampleRate: info.SampleRate},
	}
}

// Init starts the refresh tick
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if m.poll != nil {
			m.applyStatus(StatusMsg{Stats: m.poll()})
		}
		return m, tickEvery()
	case StatusMsg:
		m.applyStatus(msg)
	case FinishedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if !m.stopping && m.stop != nil {
			m.stop()
		}
		m.stopping = true
		return m, tea.Quit
	case "c":
		m.showChannels = !m.showChannels
	}
	return m, nil
}

func (m *Model) applyStatus(msg StatusMsg) {
	m.stats = msg.Stats
	if m.stats.SampleRate == 0 {
		m.stats.SampleRate = m.info.SampleRate
	}
}

// View renders the screen
func (m Model) View() string {
	if m.stopping {
		return "Stopping...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStream())
	b.WriteString(m.renderStats())
	if m.showChannels {
		b.WriteString(m.renderChannels())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	name := fmt.Sprintf("%s (v%d)", m.info.DriverName, m.info.DriverVersion)
	return fmt.Sprintf(`┌─ ASIO Direct ────────────────────────────────────────┐
│ Driver: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(name, 44))
}

func (m Model) renderStream() string {
	format := fmt.Sprintf("%.0f Hz, %d frames, %d in / %d out",
		m.stats.SampleRate, m.info.BufferSize, m.info.Inputs, m.info.Outputs)
	latency := fmt.Sprintf("%d in / %d out frames", m.info.InputLatency, m.info.OutputLatency)
	percent := int(m.volume*100 + 0.5)

	return fmt.Sprintf("│ Stream:  %-43s │\n"+
		"│ Latency: %-43s │\n"+
		"│ Volume:  [%s] %3d%%%-26s │\n",
		truncate(format, 43), truncate(latency, 43),
		renderBar(percent, 100, 10), percent, "")
}

func (m Model) renderStats() string {
	seconds := 0.0
	if m.stats.SampleRate > 0 {
		seconds = float64(m.stats.SamplePosition) / m.stats.SampleRate
	}
	line := fmt.Sprintf("Periods: %d  Position: %.1fs  Errors: %d",
		m.stats.Periods, seconds, m.stats.ConvertErrors)
	return fmt.Sprintf("├──────────────────────────────────────────────────────┤\n"+
		"│ %-52s │\n", truncate(line, 52))
}

func (m Model) renderChannels() string {
	var b strings.Builder
	b.WriteString("├──────────────────────────────────────────────────────┤\n")
	for _, ch := range m.info.Channels {
		dir := "out"
		if ch.IsInput != 0 {
			dir = "in "
		}
		line := fmt.Sprintf("%s %2d %-24s %s", dir, ch.Channel, truncate(ch.Name(), 24), ch.SampleType)
		b.WriteString(fmt.Sprintf("│ %-52s │\n", truncate(line, 52)))
	}
	return b.String()
}

func (m Model) renderHelp() string {
	return `│ c:Channels  q:Stop                                   │
└──────────────────────────────────────────────────────┘
`
}

func renderBar(value, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min(max(value*width/total, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
