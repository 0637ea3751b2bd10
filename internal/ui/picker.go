// ABOUTME: Bubbletea model for choosing a driver
// ABOUTME: Filterable list of discovered drivers with key help
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
)

// ErrCancelled is returned by Pick when the user quits without choosing.
var ErrCancelled = errors.New("no driver selected")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Filter key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

func (k pickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Filter, k.Quit}
}

func (k pickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Clear}}
}

func defaultPickerKeys() pickerKeys {
	return pickerKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load")),
		Filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Picker lists drivers and records the one the user selects.
type Picker struct {
	plugins   []discovery.Plugin
	visible   []int // indexes into plugins matching the filter
	cursor    int
	filter    textinput.Model
	filtering bool
	notice    string
	chosen    *discovery.Plugin
	keys      pickerKeys
	help      help.Model
	width     int
}

// NewPicker creates a picker over plugins. notice is shown above the list,
// typically the reason the previous choice failed to load.
func NewPicker(plugins []discovery.Plugin, notice string) Picker {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "driver name"

	m := Picker{
		plugins: plugins,
		filter:  filter,
		notice:  notice,
		keys:    defaultPickerKeys(),
		help:    help.New(),
	}
	m.refilter()
	return m
}

// Chosen returns the selected driver, if any.
func (m Picker) Chosen() (discovery.Plugin, bool) {
	if m.chosen == nil {
		return discovery.Plugin{}, false
	}
	return *m.chosen, true
}

func (m Picker) Init() tea.Cmd {
	return nil
}

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.filter.SetValue("")
		m.refilter()
	case key.Matches(msg, m.keys.Select):
		if len(m.visible) == 0 {
			return m, nil
		}
		p := m.plugins[m.visible[m.cursor]]
		m.chosen = &p
		return m, tea.Quit
	}
	return m, nil
}

func (m Picker) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.filter.SetValue("")
		fallthrough
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.refilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

func (m *Picker) refilter() {
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	visible := make([]int, 0, len(m.plugins))
	for i, p := range m.plugins {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m Picker) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ASIO drivers"))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	switch {
	case len(m.plugins) == 0:
		b.WriteString(detailStyle.Render("  No drivers installed"))
		b.WriteString("\n")
	case len(m.visible) == 0:
		b.WriteString(detailStyle.Render("  No drivers match"))
		b.WriteString("\n")
	}

	for row, i := range m.visible {
		p := m.plugins[i]
		line := fmt.Sprintf("  %s", p.Name)
		if row == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("> %s", p.Name))
		}
		b.WriteString(line)
		b.WriteString("\n")
		if row == m.cursor {
			b.WriteString(detailStyle.Render(fmt.Sprintf("    %s  %s", p.Identifier, truncate(p.ModulePath, 60))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render(m.help.View(m.keys)))
	return b.String()
}
