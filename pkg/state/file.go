// pkg/state/file.go
package state

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arc-language/nouzen/pkg/control"
	"github.com/arc-language/nouzen/pkg/core"
)

// FileStore keeps one control file per installed package.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Lookup(name string) (*Record, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotInstalled
		}
		return nil, fmt.Errorf("opening metadata for %s: %w", name, err)
	}
	defer f.Close()

	paragraphs, err := control.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", name, err)
	}
	if len(paragraphs) == 0 {
		return nil, &core.Error{Op: "load metadata", Package: name, Err: fmt.Errorf("%w: Version", core.ErrMissingField)}
	}
	p := paragraphs[0]

	rec := &Record{Name: name, Version: p.Get("Version")}
	if rec.Version == "" {
		return nil, &core.Error{Op: "load metadata", Package: name, Err: fmt.Errorf("%w: Version", core.ErrMissingField)}
	}
	rec.AutoInstall, _ = p.Bool("Auto-Install")
	rec.Entries = splitEntries(p.Get("Entries"))

	return rec, nil
}

func (s *FileStore) Save(rec *Record) error {
	p := control.NewParagraph()
	p.Set("Version", rec.Version)
	if rec.AutoInstall {
		p.Set("Auto-Install", "1")
	} else {
		p.Set("Auto-Install", "0")
	}
	p.Set("Entries", strings.Join(rec.Entries, ","))

	var buf bytes.Buffer
	if err := p.Format(&buf); err != nil {
		return fmt.Errorf("formatting metadata: %w", err)
	}

	tmp := s.path(rec.Name) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing metadata for %s: %w", rec.Name, err)
	}
	if err := os.Rename(tmp, s.path(rec.Name)); err != nil {
		return fmt.Errorf("writing metadata for %s: %w", rec.Name, err)
	}
	return nil
}

func (s *FileStore) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting metadata for %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing state directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }

func splitEntries(value string) []string {
	var out []string
	for _, e := range strings.Split(value, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
