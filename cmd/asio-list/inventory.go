// ABOUTME: Driver inventory collection and rendering
// ABOUTME: Scans every directory slot, optionally queries each driver, and renders a table
package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/registry"
)

type entry struct {
	Name       string
	Identifier string
	ModulePath string
	Err        error
	Details    *details
}

type details struct {
	Inputs     int
	Outputs    int
	SampleRate float64
	Buffer     asio.BufferSizeRange
	Err        error
}

// scan lists every slot, including the ones that failed to resolve.
func scan(store registry.Store, maxCount int) []entry {
	s := discovery.NewScanner(store)
	records := discovery.NewPluginRecords(s.ListPlugins(maxCount),
		discovery.DefaultNameMax, discovery.DefaultIdentifierMax, discovery.DefaultModulePathMax)
	s.FillPluginInfo(records)

	entries := make([]entry, len(records))
	for i := range records {
		entries[i] = entry{
			Name:       records[i].NameString(),
			Identifier: records[i].IdentifierString(),
			ModulePath: records[i].ModulePathString(),
			Err:        records[i].Err,
		}
	}
	return entries
}

// queryDriver initializes the driver behind h and reads its basic
// configuration. It does not create buffers.
func queryDriver(h *asio.Handle) *details {
	p := &details{}
	drv, err := h.Driver()
	if err != nil {
		p.Err = err
		return p
	}
	if err := drv.Init(0); err != nil {
		p.Err = err
		return p
	}
	if p.Inputs, p.Outputs, err = drv.Channels(); err != nil {
		p.Err = err
		return p
	}
	if p.SampleRate, err = drv.SampleRate(); err != nil {
		p.Err = err
		return p
	}
	if p.Buffer, err = drv.BufferSize(); err != nil {
		p.Err = err
	}
	return p
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	var e *asio.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return err.Error()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Padding(0, 1)
)

func render(entries []entry) string {
	if len(entries) == 0 {
		return cellStyle.Render("No drivers installed") + "\n"
	}

	queried := false
	for _, e := range entries {
		if e.Details != nil {
			queried = true
		}
	}

	headers := []string{"#", "Name", "Class", "Module", "Status"}
	if queried {
		headers = append(headers, "I/O", "Rate", "Buffer")
	}

	failed := make(map[int]bool)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)

	for i, e := range entries {
		row := []string{fmt.Sprint(i), e.Name, e.Identifier, e.ModulePath, status(e.Err)}
		if e.Err != nil {
			failed[i] = true
		}
		if queried {
			row = append(row, detailColumns(e.Details)...)
			if e.Details != nil && e.Details.Err != nil {
				failed[i] = true
			}
		}
		t.Row(row...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case failed[row]:
			return errorStyle
		}
		return cellStyle
	})
	return t.Render() + "\n"
}

func detailColumns(p *details) []string {
	switch {
	case p == nil:
		return []string{"", "", ""}
	case p.Err != nil:
		return []string{status(p.Err), "", ""}
	}
	return []string{
		fmt.Sprintf("%d/%d", p.Inputs, p.Outputs),
		fmt.Sprintf("%.0f", p.SampleRate),
		fmt.Sprintf("%d-%d (%d)", p.Buffer.Min, p.Buffer.Max, p.Buffer.Preferred),
	}
}
