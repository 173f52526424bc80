// pkg/env/library.go
package env

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var libraryExts = []string{".so", ".a"}

// FindLibrary searches the library directories for lib<name>.so or
// lib<name>.a, versioned shared objects included. Shared libraries win.
func (e *Environment) FindLibrary(name string) *Library {
	for _, dir := range e.LibraryPaths() {
		for _, ext := range libraryExts {
			file := "lib" + name + ext
			if fileExists(filepath.Join(dir, file)) {
				return newLibrary(filepath.Join(dir, file))
			}
			if ext != ".so" {
				continue
			}
			matches, _ := filepath.Glob(filepath.Join(dir, file+".*"))
			if len(matches) > 0 {
				sort.Strings(matches)
				return newLibrary(matches[0])
			}
		}
	}
	return nil
}

// HasLibrary checks if a library exists in the environment
func (e *Environment) HasLibrary(name string) bool {
	return e.FindLibrary(name) != nil
}

// Libraries returns every library file in the library directories.
func (e *Environment) Libraries() []*Library {
	var libs []*Library
	seen := make(map[string]bool)

	for _, dir := range e.LibraryPaths() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), "lib") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			if lib := newLibrary(path); lib != nil {
				seen[path] = true
				libs = append(libs, lib)
			}
		}
	}
	return libs
}

// newLibrary parses libfoo.so, libfoo.so.1.2 and libfoo.a. Anything else is nil.
func newLibrary(path string) *Library {
	base := strings.TrimPrefix(filepath.Base(path), "lib")

	if name, ok := strings.CutSuffix(base, ".a"); ok {
		return &Library{Name: name, Path: path, Ext: ".a", IsStatic: true}
	}
	name, version, found := strings.Cut(base, ".so")
	if !found || (version != "" && version[0] != '.') {
		return nil
	}
	return &Library{Name: name, Path: path, Ext: ".so", Version: strings.TrimPrefix(version, ".")}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
