// pkg/env/types.go
package env

import (
	"github.com/arc-language/nouzen/pkg/platform"
	"github.com/arc-language/nouzen/pkg/store"
)

// Layout lists directories relative to the prefix
type Layout struct {
	Libraries []string
	Includes  []string
	PkgConfig []string
	Binaries  []string
}

// Library is a library file found in the prefix
type Library struct {
	Name     string // "ssl" for libssl.so.3
	Path     string
	Ext      string // ".so" or ".a"
	Version  string // "3" for libssl.so.3
	IsStatic bool
}

// Environment is a prefix populated from repositories of one type
type Environment struct {
	Prefix string
	Type   store.RepoType
	Arch   platform.Architecture
}

// CompilerFlags holds compiler and linker flags
type CompilerFlags struct {
	IncludeFlags []string // -I flags
	LibraryFlags []string // -L flags
}
