// pkg/index/apk.go
package index

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/arc-language/nouzen/pkg/relation"
	"github.com/arc-language/nouzen/pkg/store"
)

// ParseAPKINDEX reads an APKINDEX.tar.gz into repo. Package filenames are
// built relative to the repository base URI.
func ParseAPKINDEX(r io.Reader, repo *store.Repository) error {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzReader.Close()

	// The signature and the index are separate gzip members of one tar stream.
	tarReader := tar.NewReader(gzReader)
	for {
		hdr, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("APKINDEX not found in archive")
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}
		if hdr.Name == "APKINDEX" {
			return parseAPKINDEXContent(tarReader, repo)
		}
	}
}

func parseAPKINDEXContent(r io.Reader, repo *store.Repository) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *store.Package
	flush := func() {
		if current == nil {
			return
		}
		if current.Name != "" && current.Version != "" {
			current.Filename = path.Join(repo.Release, repo.Resource, repo.Platform,
				current.Name+"-"+current.Version+".apk")
		}
		repo.Add(current)
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			flush()
			continue
		}

		// Each line is "X:value" where X is a single character field code.
		if len(line) < 2 || line[1] != ':' {
			continue
		}
		if current == nil {
			current = store.NewPackage("", "")
		}

		value := strings.TrimSpace(line[2:])
		switch line[0] {
		case 'P':
			current.Name = value
		case 'V':
			current.Version = value
		case 'T':
			current.Description = value
		case 'U':
			current.Homepage = value
		case 'A':
			current.Architecture = value
		case 'm':
			current.SetMaintainerText(value)
		case 'p':
			current.Provides = relation.ParseAPKList(value)
		case 'D':
			depends, breaks := relation.ParseAPKDepends(value)
			if err := current.SetTokens(store.Depends, depends); err != nil {
				return err
			}
			if err := current.SetTokens(store.Breaks, breaks); err != nil {
				return err
			}
		case 'S':
			size, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("package %s: field S: %w", current.Name, err)
			}
			current.Size = size
		case 'I':
			size, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("package %s: field I: %w", current.Name, err)
			}
			current.InstalledSize = size
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning APKINDEX: %w", err)
	}
	return nil
}
