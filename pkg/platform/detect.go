// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"

	"github.com/arc-language/nouzen/pkg/store"
)

// Architecture is a canonical (Debian-style) architecture name.
type Architecture string

const (
	ArchAmd64    Architecture = "amd64"
	ArchI386     Architecture = "i386"
	ArchArm64    Architecture = "arm64"
	ArchArmhf    Architecture = "armhf"
	ArchArmel    Architecture = "armel"
	ArchPpc64el  Architecture = "ppc64el"
	ArchS390x    Architecture = "s390x"
	ArchRiscv64  Architecture = "riscv64"
	ArchMips64el Architecture = "mips64el"
	ArchMipsel   Architecture = "mipsel"
	ArchMips     Architecture = "mips"
	ArchAll      Architecture = "all"
)

var aliases = map[string]Architecture{
	"amd64":    ArchAmd64,
	"x86_64":   ArchAmd64,
	"i386":     ArchI386,
	"i686":     ArchI386,
	"x86":      ArchI386,
	"arm64":    ArchArm64,
	"aarch64":  ArchArm64,
	"armhf":    ArchArmhf,
	"armv7":    ArchArmhf,
	"armel":    ArchArmel,
	"arm":      ArchArmel,
	"ppc64el":  ArchPpc64el,
	"ppc64le":  ArchPpc64el,
	"s390x":    ArchS390x,
	"riscv64":  ArchRiscv64,
	"mips64el": ArchMips64el,
	"mipsel":   ArchMipsel,
	"mips":     ArchMips,
	"all":      ArchAll,
	"noarch":   ArchAll,
}

// apkNames maps canonical names to Alpine's.
var apkNames = map[Architecture]string{
	ArchAmd64:   "x86_64",
	ArchI386:    "x86",
	ArchArm64:   "aarch64",
	ArchArmhf:   "armv7",
	ArchArmel:   "armhf",
	ArchPpc64el: "ppc64le",
	ArchS390x:   "s390x",
	ArchRiscv64: "riscv64",
	ArchAll:     "noarch",
}

// Normalize maps any known spelling (x86_64, aarch64, i686, ...) to the
// canonical architecture.
func Normalize(name string) (Architecture, error) {
	if arch, ok := aliases[name]; ok {
		return arch, nil
	}
	return "", fmt.Errorf("unknown architecture: %s", name)
}

// Name returns the spelling a repository of type t uses for a.
func (a Architecture) Name(t store.RepoType) string {
	if t == store.APK {
		if name, ok := apkNames[a]; ok {
			return name
		}
	}
	return string(a)
}

func (a Architecture) String() string {
	return string(a)
}

// DetectArchitecture returns the architecture of the running system.
func DetectArchitecture() (Architecture, error) {
	if runtime.GOOS != "linux" {
		return "", fmt.Errorf("only Linux is supported, got: %s", runtime.GOOS)
	}

	switch runtime.GOARCH {
	case "amd64":
		return ArchAmd64, nil
	case "386":
		return ArchI386, nil
	case "arm64":
		return ArchArm64, nil
	case "arm":
		// Default to armhf for ARM 32-bit
		return ArchArmhf, nil
	case "ppc64le":
		return ArchPpc64el, nil
	case "s390x":
		return ArchS390x, nil
	case "riscv64":
		return ArchRiscv64, nil
	case "mips64le":
		return ArchMips64el, nil
	case "mipsle":
		return ArchMipsel, nil
	case "mips":
		return ArchMips, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}
}
