// ABOUTME: Tests for the inventory tool
// ABOUTME: Scans an in-memory registry and queries the simulated driver
package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/asiodirect/internal/simdriver"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/registry"
)

func TestScanIncludesOrphans(t *testing.T) {
	m := registry.NewMemory()
	m.SetString(registry.LocalMachine, discovery.InstalledRoot+`\Good`, "CLSID", "{A1B2C3D4-0000-1111-2222-333344445555}")
	m.SetString(registry.ClassesRoot, discovery.ClassRoot+`\{A1B2C3D4-0000-1111-2222-333344445555}\InprocServer32`, "", `C:\good.dll`)
	m.SetString(registry.LocalMachine, discovery.InstalledRoot+`\Orphan`, "CLSID", "{B1B2C3D4-0000-1111-2222-333344445555}")

	entries := scan(m, 10)
	require.Len(t, entries, 2)

	byName := map[string]entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.NoError(t, byName["Good"].Err)
	assert.Equal(t, `C:\good.dll`, byName["Good"].ModulePath)
	assert.ErrorIs(t, byName["Orphan"].Err, asio.ErrOrphanedEntry)
	assert.Equal(t, "orphaned_entry", status(byName["Orphan"].Err))
}

func TestScanEmpty(t *testing.T) {
	entries := scan(registry.NewMemory(), 10)
	assert.Empty(t, entries)
	assert.Contains(t, render(entries), "No drivers installed")
}

func TestQueryDriver(t *testing.T) {
	cfg := simdriver.DefaultConfig()
	cfg.Realtime = false
	h := asio.NewHandle(simdriver.New(cfg), nil)
	defer h.Close()

	p := queryDriver(h)
	require.NoError(t, p.Err)
	assert.Equal(t, 2, p.Inputs)
	assert.Equal(t, 2, p.Outputs)
	assert.Equal(t, 48000.0, p.SampleRate)
	assert.Equal(t, 256, p.Buffer.Preferred)
	assert.Equal(t, []string{"2/2", "48000", "64-2048 (256)"}, detailColumns(p))
}

func TestQueryDriverInitFailure(t *testing.T) {
	cfg := simdriver.DefaultConfig()
	cfg.FailInit = true
	h := asio.NewHandle(simdriver.New(cfg), nil)
	defer h.Close()

	p := queryDriver(h)
	assert.ErrorIs(t, p.Err, asio.StatusNotPresent)
	assert.Equal(t, "driver", detailColumns(p)[0])
}

func TestRender(t *testing.T) {
	entries := []entry{
		{Name: "Good", Identifier: "{A1B2C3D4-0000-1111-2222-333344445555}", ModulePath: `C:\good.dll`,
			Details: &details{Inputs: 2, Outputs: 8, SampleRate: 44100, Buffer: asio.BufferSizeRange{Min: 32, Max: 1024, Preferred: 128}}},
		{Name: "Broken", Err: errors.New("boom")},
	}

	out := render(entries)
	for _, want := range []string{"Name", "Good", "Broken", "boom", "2/8", "44100", "32-1024 (128)", "ok"} {
		assert.Contains(t, out, want)
	}
}
