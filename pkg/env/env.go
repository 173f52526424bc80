// pkg/env/env.go
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/nouzen/pkg/platform"
	"github.com/arc-language/nouzen/pkg/store"
)

// New returns the environment of prefix.
func New(prefix string, t store.RepoType, arch platform.Architecture) *Environment {
	return &Environment{Prefix: prefix, Type: t, Arch: arch}
}

// Layout returns the relative directory layout of the environment.
func (e *Environment) Layout() Layout {
	return LayoutFor(e.Type, e.Arch)
}

// LibraryPaths returns the existing library directories, most specific first.
func (e *Environment) LibraryPaths() []string {
	return e.existing(e.Layout().Libraries)
}

// IncludePaths returns the existing header directories.
func (e *Environment) IncludePaths() []string {
	return e.existing(e.Layout().Includes)
}

// PkgConfigPaths returns the existing pkg-config directories.
func (e *Environment) PkgConfigPaths() []string {
	return e.existing(e.Layout().PkgConfig)
}

// BinaryPaths returns the existing executable directories.
func (e *Environment) BinaryPaths() []string {
	return e.existing(e.Layout().Binaries)
}

// Flags returns -I and -L flags for every existing directory.
func (e *Environment) Flags() CompilerFlags {
	var flags CompilerFlags
	for _, dir := range e.IncludePaths() {
		flags.IncludeFlags = append(flags.IncludeFlags, "-I"+dir)
	}
	for _, dir := range e.LibraryPaths() {
		flags.LibraryFlags = append(flags.LibraryFlags, "-L"+dir)
	}
	return flags
}

// Exports returns POSIX shell statements that prepend the environment's
// directories to the usual search path variables. Variables with no
// existing directory are left out.
func (e *Environment) Exports() []string {
	vars := []struct {
		name  string
		paths []string
	}{
		{"PATH", e.BinaryPaths()},
		{"LD_LIBRARY_PATH", e.LibraryPaths()},
		{"PKG_CONFIG_PATH", e.PkgConfigPaths()},
		{"C_INCLUDE_PATH", e.IncludePaths()},
		{"CPLUS_INCLUDE_PATH", e.IncludePaths()},
	}

	var out []string
	for _, v := range vars {
		if len(v.paths) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("export %s=\"%s${%s:+:$%s}\"",
			v.name, strings.Join(v.paths, ":"), v.name, v.name))
	}
	return out
}

func (e *Environment) existing(rel []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rel {
		dir := filepath.Join(e.Prefix, r)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		// usr/lib may be a symlink to lib; keep one of them.
		if real, err := filepath.EvalSymlinks(dir); err == nil && real != dir {
			if seen[real] {
				continue
			}
			seen[real] = true
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}
