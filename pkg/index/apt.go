// pkg/index/apt.go
package index

import (
	"fmt"
	"io"

	"github.com/arc-language/nouzen/pkg/control"
	"github.com/arc-language/nouzen/pkg/relation"
	"github.com/arc-language/nouzen/pkg/store"
)

var aptRelations = []struct {
	field string
	kind  store.Kind
}{
	{"Depends", store.Depends},
	{"Breaks", store.Breaks},
	{"Suggests", store.Suggests},
	{"Recommends", store.Recommends},
	{"Replaces", store.Replaces},
}

// ParseAPT reads a Debian Packages file into repo.
func ParseAPT(r io.Reader, repo *store.Repository) error {
	return control.Walk(r, func(p *control.Paragraph) error {
		pkg, err := aptPackage(p)
		if err != nil {
			return err
		}
		repo.Add(pkg)
		return nil
	})
}

func aptPackage(p *control.Paragraph) (*store.Package, error) {
	pkg := store.NewPackage(p.Get("Package"), p.Get("Version"))
	pkg.Description = p.Get("Description")
	pkg.Homepage = p.Get("Homepage")
	pkg.Bugs = p.Get("Bugs")
	pkg.Architecture = p.Get("Architecture")
	pkg.Filename = p.Get("Filename")
	pkg.Provides = relation.ParseTokens(p.Get("Provides"))

	if p.Has("Maintainer") {
		pkg.SetMaintainerText(p.Get("Maintainer"))
	}

	for _, rel := range aptRelations {
		if err := pkg.SetTokens(rel.kind, relation.ParseTokens(p.Get(rel.field))); err != nil {
			return nil, err
		}
	}

	size, err := p.Uint("Size")
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
	}
	pkg.Size = size

	// Installed-Size is in kilobytes.
	installed, err := p.Uint("Installed-Size")
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
	}
	pkg.InstalledSize = installed * 1000

	return pkg, nil
}
