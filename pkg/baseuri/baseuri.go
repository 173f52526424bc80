// pkg/baseuri/baseuri.go
package baseuri

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind describes where a repository lives.
type Kind int

const (
	URL Kind = iota + 1
	LocalFile
	LocalDirectory
)

func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case LocalFile:
		return "file"
	case LocalDirectory:
		return "directory"
	}
	return "unknown"
}

// BaseURI is the location package filenames are resolved against.
type BaseURI struct {
	Kind  Kind
	Value string
}

// Parse classifies value. Anything with a scheme other than file:// is a URL;
// local paths are a directory when they exist as one or end in a separator.
func Parse(value string) (BaseURI, error) {
	if value == "" {
		return BaseURI{}, fmt.Errorf("empty base URI")
	}

	if strings.HasPrefix(value, "file://") {
		value = strings.TrimPrefix(value, "file://")
	} else if u, err := url.Parse(value); err == nil && u.Scheme != "" && u.Host != "" {
		return BaseURI{Kind: URL, Value: value}, nil
	}

	if !filepath.IsAbs(value) {
		abs, err := filepath.Abs(value)
		if err != nil {
			return BaseURI{}, fmt.Errorf("resolving %s: %w", value, err)
		}
		value = abs
	}

	if strings.HasSuffix(value, string(os.PathSeparator)) {
		return BaseURI{Kind: LocalDirectory, Value: value}, nil
	}
	if info, err := os.Stat(value); err == nil && info.IsDir() {
		return BaseURI{Kind: LocalDirectory, Value: value}, nil
	}
	return BaseURI{Kind: LocalFile, Value: value}, nil
}

// Resolve returns the absolute location of filename relative to b.
func (b BaseURI) Resolve(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty filename")
	}

	switch b.Kind {
	case URL:
		base, err := url.Parse(b.Value)
		if err != nil {
			return "", fmt.Errorf("parsing base URI %s: %w", b.Value, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		rel, err := url.Parse(filename)
		if err != nil {
			return "", fmt.Errorf("parsing filename %s: %w", filename, err)
		}
		return base.ResolveReference(rel).String(), nil

	case LocalFile:
		if filepath.IsAbs(filename) {
			return filepath.Clean(filename), nil
		}
		return filepath.Join(filepath.Dir(b.Value), filename), nil

	case LocalDirectory:
		if filepath.IsAbs(filename) {
			return filepath.Clean(filename), nil
		}
		return filepath.Join(b.Value, filename), nil
	}

	return "", fmt.Errorf("unsupported base URI kind %s", b.Kind)
}

// Resolve parses base and resolves filename against it.
func Resolve(base, filename string) (string, error) {
	b, err := Parse(base)
	if err != nil {
		return "", err
	}
	return b.Resolve(filename)
}
