// pkg/sources/sources.go
package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/nouzen/pkg/platform"
	"github.com/arc-language/nouzen/pkg/store"
)

// Source is one [[repository]] entry of the sources file.
type Source struct {
	Name      string   `toml:"name"`
	Type      string   `toml:"type"`
	URI       string   `toml:"uri"`
	Release   string   `toml:"release"`
	Resources []string `toml:"resources"`
	Platform  string   `toml:"platform"`
}

// File is a parsed sources file.
type File struct {
	Repository []Source `toml:"repository"`
}

// Load reads and validates the sources file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sources: %s not found", path)
		}
		return nil, fmt.Errorf("sources: reading %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes a sources document.
func Parse(data string) (*File, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("sources: failed to parse: %w", err)
	}
	for i, src := range f.Repository {
		if err := src.validate(); err != nil {
			return nil, fmt.Errorf("sources: repository %d: %w", i+1, err)
		}
	}
	return &f, nil
}

func (s Source) validate() error {
	switch {
	case s.URI == "":
		return fmt.Errorf("missing uri")
	case s.Release == "":
		return fmt.Errorf("missing release")
	case len(s.Resources) == 0:
		return fmt.Errorf("missing resources")
	}
	if _, err := store.ParseRepoType(s.Type); err != nil {
		return err
	}
	if s.Platform != "" {
		if _, err := platform.Normalize(s.Platform); err != nil {
			return err
		}
	}
	return nil
}

// Repositories expands every source into one empty repository per resource.
// Sources without a platform use the detected architecture.
func (f *File) Repositories() ([]*store.Repository, error) {
	var repos []*store.Repository
	for _, src := range f.Repository {
		typ, err := store.ParseRepoType(src.Type)
		if err != nil {
			return nil, err
		}

		plat := src.Platform
		if plat == "" {
			arch, err := platform.DetectArchitecture()
			if err != nil {
				return nil, fmt.Errorf("sources: %w", err)
			}
			plat = arch.Name(typ)
		}

		for _, resource := range src.Resources {
			resource = strings.TrimSpace(resource)
			if resource == "" {
				continue
			}
			repos = append(repos, &store.Repository{
				Type:     typ,
				Name:     src.Release + "-" + resource + "-" + plat,
				Release:  src.Release,
				Resource: resource,
				Platform: plat,
				BaseURI:  strings.TrimSuffix(src.URI, "/"),
			})
		}
	}
	return repos, nil
}
