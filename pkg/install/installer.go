// pkg/install/installer.go
package install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/state"
	"github.com/arc-language/nouzen/pkg/store"
)

// Installer unpacks archives under a prefix and keeps install records.
type Installer struct {
	prefix string
	store  state.Store
	logger *log.Logger
}

// New creates an installer rooted at prefix. A nil logger discards output.
func New(prefix string, st state.Store, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{prefix: filepath.Clean(prefix), store: st, logger: logger}
}

// Install unpacks the archive of the package at ref and records it. Files a
// previous version installed that the new one no longer ships are removed.
func (i *Installer) Install(list *store.RepoList, ref store.Ref, archive string) error {
	pkg := list.Package(ref)
	repo := list.Repository(ref)
	if pkg == nil || repo == nil {
		return fmt.Errorf("install: unknown package %s", ref)
	}

	f, err := os.Open(archive)
	if err != nil {
		return &core.Error{Op: "install", Package: pkg.Name, Err: err}
	}
	defer f.Close()

	if err := os.MkdirAll(i.prefix, 0755); err != nil {
		return fmt.Errorf("creating prefix: %w", err)
	}

	i.logger.Infof("Unpacking %s (%s)", pkg.Name, pkg.Version)

	var ex *extraction
	if repo.Type == store.APK {
		ex, err = i.extractAPK(f)
	} else {
		ex, err = i.extractDeb(f)
	}
	if err != nil {
		return &core.Error{Op: "install", Package: pkg.Name, Err: err}
	}

	rec := &state.Record{
		Name:        pkg.Name,
		Version:     pkg.Version,
		AutoInstall: pkg.AutoInstall == store.Yes,
		Entries:     ex.entries(),
	}

	old, err := i.store.Lookup(pkg.Name)
	switch {
	case err == nil:
		i.removeEntries(stale(old.Entries, rec.Entries))
	case !errors.Is(err, core.ErrNotInstalled):
		return &core.Error{Op: "install", Package: pkg.Name, Err: err}
	}

	if err := i.store.Save(rec); err != nil {
		return &core.Error{Op: "install", Package: pkg.Name, Err: err}
	}

	pkg.Installed = true
	pkg.InstalledVersion = pkg.Version
	pkg.Upgradable = false
	list.Installed.Add(ref)

	i.logger.Infof("Setting up %s (%s)", pkg.Name, pkg.Version)
	return nil
}

// Remove deletes the recorded files of the package at ref and its record.
func (i *Installer) Remove(list *store.RepoList, ref store.Ref) error {
	pkg := list.Package(ref)
	if pkg == nil {
		return fmt.Errorf("remove: unknown package %s", ref)
	}

	rec, err := i.store.Lookup(pkg.Name)
	if err != nil {
		return &core.Error{Op: "remove", Package: pkg.Name, Err: err}
	}

	i.logger.Infof("Removing %s (%s)", pkg.Name, rec.Version)

	if left := i.removeEntries(rec.Entries); len(left) > 0 {
		i.logger.Debugf("Kept %d shared entries of %s", len(left), pkg.Name)
	}

	if err := i.store.Delete(pkg.Name); err != nil {
		return &core.Error{Op: "remove", Package: pkg.Name, Err: err}
	}

	pkg.Installed = false
	pkg.InstalledVersion = ""
	pkg.Upgradable = false
	list.Installed.Delete(ref)
	return nil
}

// removeEntries deletes entries until a pass makes no progress. Directories
// still holding other packages' files are returned.
func (i *Installer) removeEntries(entries []string) []string {
	pending := entries
	for len(pending) > 0 {
		var left []string
		for _, entry := range pending {
			err := os.Remove(filepath.Join(i.prefix, filepath.FromSlash(entry)))
			if err != nil && !os.IsNotExist(err) {
				left = append(left, entry)
			}
		}
		if len(left) == len(pending) {
			return left
		}
		pending = left
	}
	return nil
}

// stale returns the entries of old that are absent from current.
func stale(old, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, e := range current {
		keep[e] = true
	}
	var out []string
	for _, e := range old {
		if !keep[e] {
			out = append(out, e)
		}
	}
	return out
}
