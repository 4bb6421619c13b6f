// Package export renders databases and tables into portable formats. Each
// format is a small writer behind a registry; there is no plugin machinery
// beyond that.
package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

// Options selects what to export and how to encode it.
type Options struct {
	// Database to export from.
	Database string

	// Tables to include. Empty means every table of the database.
	Tables []string

	// Charset of the produced output: "utf-8" (default) or "latin1".
	Charset string
}

// Exporter renders one output format.
type Exporter interface {
	// Name is the format identifier used in requests ("sql", "csv", ...).
	Name() string

	// ContentType is the MIME type of the produced output.
	ContentType() string

	// Export writes the selected tables to w.
	Export(ctx context.Context, w io.Writer, a adapter.Adapter, opts Options) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Exporter)
)

// Register adds a format to the registry. Called from init() of each
// format file.
func Register(e Exporter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[e.Name()] = e
}

// Get retrieves a format by name.
func Get(name string) (Exporter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	return e, ok
}

// List returns all registered format names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveTables expands an empty table selection to every table of the
// database.
func resolveTables(ctx context.Context, a adapter.Adapter, opts Options) ([]string, error) {
	if len(opts.Tables) > 0 {
		return opts.Tables, nil
	}
	tables, err := a.ListTables(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tables: %w", err)
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if t.Type == "BASE TABLE" {
			names = append(names, t.Name)
		}
	}
	return names, nil
}
