// ABOUTME: Two-phase driver directory scanner
// ABOUTME: Counts installed drivers, then fills caller-allocated records slot by slot
package discovery

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/registry"
)

const (
	// InstalledRoot holds one sub-key per installed driver.
	InstalledRoot = `SOFTWARE\ASIO`
	// ClassRoot maps class identifiers to their server registration.
	ClassRoot = `CLSID`

	identifierValue = "CLSID"
	maxKeyName      = 256
	serverKey       = "InprocServer32"
)

// Default record bounds, in UTF-16 units including the terminator.
const (
	DefaultNameMax       = 128
	DefaultIdentifierMax = 128
	DefaultModulePathMax = 1024

	// DefaultMaxPlugins bounds Discover when the caller has no limit of its own.
	DefaultMaxPlugins = 64
)

// PluginRecord receives one driver's strings. The buffers belong to the
// caller; the scanner writes into them and never replaces them.
type PluginRecord struct {
	Name       []uint16
	Identifier []uint16
	ModulePath []uint16

	// Err is set when the slot could not be fully resolved. The buffers of
	// a failed slot may hold partial output.
	Err error
}

// NewPluginRecords allocates count records with the given buffer sizes.
func NewPluginRecords(count, nameMax, identifierMax, modulePathMax int) []PluginRecord {
	records := make([]PluginRecord, count)
	for i := range records {
		records[i] = PluginRecord{
			Name:       make([]uint16, nameMax),
			Identifier: make([]uint16, identifierMax),
			ModulePath: make([]uint16, modulePathMax),
		}
	}
	return records
}

func (r *PluginRecord) NameString() string       { return registry.String(r.Name) }
func (r *PluginRecord) IdentifierString() string { return registry.String(r.Identifier) }
func (r *PluginRecord) ModulePathString() string { return registry.String(r.ModulePath) }

// Scanner reads driver registrations from a store.
type Scanner struct {
	store registry.Store
}

// NewScanner creates a scanner over store.
func NewScanner(store registry.Store) *Scanner {
	return &Scanner{store: store}
}

// ListPlugins returns the number of installed drivers, at most maxCount.
// A missing installed-driver root means no drivers and returns 0.
func (s *Scanner) ListPlugins(maxCount int) int {
	root, err := s.store.OpenKey(registry.LocalMachine, InstalledRoot)
	if err != nil {
		s.logRootError(err)
		return 0
	}
	defer root.Close()

	count, err := root.SubKeyCount()
	if err != nil {
		Logger().Warn("failed to count installed drivers", zap.Error(err))
		return 0
	}
	if maxCount < 0 {
		maxCount = 0
	}
	return min(count, maxCount)
}

// FillPluginInfo fills records[i] from the i-th installed driver and
// returns the number of slots resolved without error. A slot that fails
// gets Err set and the scan moves on to the next one.
func (s *Scanner) FillPluginInfo(records []PluginRecord) int {
	if len(records) == 0 {
		return 0
	}
	root, err := s.store.OpenKey(registry.LocalMachine, InstalledRoot)
	if err != nil {
		s.logRootError(err)
		return 0
	}
	defer root.Close()

	classes, err := s.store.OpenKey(registry.ClassesRoot, ClassRoot)
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		Logger().Warn("failed to open class registry", zap.Error(err))
	}
	if classes != nil {
		defer classes.Close()
	}

	resolved := 0
	for i := range records {
		rec := &records[i]
		rec.Err = s.fill(root, classes, i, rec)
		if rec.Err != nil {
			Logger().Warn("skipping driver entry",
				zap.Int("index", i),
				zap.String("name", rec.NameString()),
				zap.Error(rec.Err))
			continue
		}
		resolved++
	}
	return resolved
}

func (s *Scanner) fill(root, classes registry.Key, index int, rec *PluginRecord) error {
	// The key is opened by its full name even when rec.Name truncates it.
	var full [maxKeyName]uint16
	n, err := root.SubKeyName(index, full[:])
	if err != nil {
		return fmt.Errorf("scan entry %d: %w", index, err)
	}
	registry.PutUTF16(rec.Name, full[:n])
	name := registry.String(full[:n])

	entry, err := root.OpenSubKey(name)
	if err != nil {
		return fmt.Errorf("scan %q: %w", name, err)
	}
	_, err = entry.StringValue(identifierValue, rec.Identifier)
	entry.Close()
	if err != nil {
		return &asio.Error{Kind: asio.KindOrphanedEntry, Op: "scan", Subject: name,
			Detail: "no CLSID value", Cause: err}
	}
	id := rec.IdentifierString()

	if classes == nil {
		return &asio.Error{Kind: asio.KindOrphanedEntry, Op: "scan", Subject: name,
			Detail: "class registry missing"}
	}
	server, err := classes.OpenSubKey(id + `\` + serverKey)
	if err != nil {
		return &asio.Error{Kind: asio.KindOrphanedEntry, Op: "scan", Subject: name,
			Detail: "no class entry for " + id, Cause: err}
	}
	defer server.Close()

	if _, err := server.StringValue("", rec.ModulePath); err != nil {
		return &asio.Error{Kind: asio.KindOrphanedEntry, Op: "scan", Subject: name,
			Detail: "no module path for " + id, Cause: err}
	}
	return nil
}

func (s *Scanner) logRootError(err error) {
	if errors.Is(err, registry.ErrNotExist) {
		Logger().Debug("no drivers installed", zap.String("root", InstalledRoot))
		return
	}
	Logger().Warn("failed to open installed driver root", zap.Error(err))
}

// Plugin is a resolved driver registration.
type Plugin struct {
	Name       string
	Identifier string
	ModulePath string
}

// Discover scans store with the default bounds and returns the drivers that
// resolved completely. A missing installed-driver root means no drivers are
// installed and yields an empty result; any other failure to open it is
// returned.
func Discover(store registry.Store, maxCount int) ([]Plugin, error) {
	root, err := store.OpenKey(registry.LocalMachine, InstalledRoot)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			Logger().Debug("no drivers installed", zap.String("root", InstalledRoot))
			return []Plugin{}, nil
		}
		return nil, fmt.Errorf("discover: %w", err)
	}
	root.Close()

	s := NewScanner(store)
	records := NewPluginRecords(s.ListPlugins(maxCount), DefaultNameMax, DefaultIdentifierMax, DefaultModulePathMax)
	s.FillPluginInfo(records)

	plugins := make([]Plugin, 0, len(records))
	for i := range records {
		if records[i].Err != nil {
			continue
		}
		plugins = append(plugins, Plugin{
			Name:       records[i].NameString(),
			Identifier: records[i].IdentifierString(),
			ModulePath: records[i].ModulePathString(),
		})
	}
	return plugins, nil
}
