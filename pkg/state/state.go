// pkg/state/state.go
package state

import (
	"fmt"
	"path/filepath"

	"github.com/arc-language/nouzen/pkg/core"
)

// Record is the install metadata kept for one package.
type Record struct {
	Name        string
	Version     string
	AutoInstall bool
	Entries     []string // paths relative to the prefix, files before directories
}

// Store persists install metadata.
type Store interface {
	// Lookup returns core.ErrNotInstalled when name has no record.
	Lookup(name string) (*Record, error)
	Save(rec *Record) error
	Delete(name string) error
	List() ([]string, error)
	Close() error
}

// Open returns the store selected by cfg.StateBackend.
func Open(cfg *core.Config) (Store, error) {
	switch cfg.StateBackend {
	case core.StateSQLite:
		return OpenSQLite(filepath.Join(cfg.StatePath(), "installed.db"))
	case core.StateFile, "":
		return NewFileStore(filepath.Join(cfg.StatePath(), "installed"))
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
}
