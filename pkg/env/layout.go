// pkg/env/layout.go
package env

import (
	"path/filepath"

	"github.com/arc-language/nouzen/pkg/platform"
	"github.com/arc-language/nouzen/pkg/store"
)

// SystemLibraryDirs are searched after the layout specific directories.
var SystemLibraryDirs = []string{
	filepath.Join("usr", "local", "lib64"),
	filepath.Join("usr", "local", "lib"),
	"lib64",
	"lib",
	filepath.Join("usr", "lib64"),
	filepath.Join("usr", "lib"),
}

var triplets = map[platform.Architecture]string{
	platform.ArchAmd64:    "x86_64-linux-gnu",
	platform.ArchI386:     "i386-linux-gnu",
	platform.ArchArm64:    "aarch64-linux-gnu",
	platform.ArchArmhf:    "arm-linux-gnueabihf",
	platform.ArchArmel:    "arm-linux-gnueabi",
	platform.ArchPpc64el:  "powerpc64le-linux-gnu",
	platform.ArchS390x:    "s390x-linux-gnu",
	platform.ArchRiscv64:  "riscv64-linux-gnu",
	platform.ArchMips64el: "mips64el-linux-gnuabi64",
	platform.ArchMipsel:   "mipsel-linux-gnu",
	platform.ArchMips:     "mips-linux-gnu",
}

// Triplet returns the Debian multiarch tuple of arch, or "" when it has none.
func Triplet(arch platform.Architecture) string {
	return triplets[arch]
}

// LayoutFor returns where packages of repository type t put their files.
func LayoutFor(t store.RepoType, arch platform.Architecture) Layout {
	if t == store.APK {
		return alpineLayout()
	}
	return debianLayout(arch)
}

// Debian packages extract with a multiarch /usr hierarchy
func debianLayout(arch platform.Architecture) Layout {
	l := Layout{
		Includes: []string{filepath.Join("usr", "include")},
		Binaries: []string{
			filepath.Join("usr", "local", "bin"),
			filepath.Join("usr", "bin"),
			"bin",
			filepath.Join("usr", "sbin"),
			"sbin",
		},
	}

	if triplet := Triplet(arch); triplet != "" {
		l.Libraries = append(l.Libraries,
			filepath.Join("usr", "lib", triplet),
			filepath.Join("lib", triplet),
		)
		l.Includes = append(l.Includes, filepath.Join("usr", "include", triplet))
		l.PkgConfig = append(l.PkgConfig, filepath.Join("usr", "lib", triplet, "pkgconfig"))
	}
	l.Libraries = append(l.Libraries, SystemLibraryDirs...)
	l.PkgConfig = append(l.PkgConfig,
		filepath.Join("usr", "lib", "pkgconfig"),
		filepath.Join("usr", "share", "pkgconfig"),
	)
	return l
}

// Alpine uses a flat /usr structure
func alpineLayout() Layout {
	return Layout{
		Libraries: append([]string(nil), SystemLibraryDirs...),
		Includes:  []string{filepath.Join("usr", "include")},
		PkgConfig: []string{
			filepath.Join("usr", "lib", "pkgconfig"),
			filepath.Join("usr", "share", "pkgconfig"),
		},
		Binaries: []string{
			filepath.Join("usr", "local", "bin"),
			filepath.Join("usr", "bin"),
			"bin",
			filepath.Join("usr", "sbin"),
			"sbin",
		},
	}
}
