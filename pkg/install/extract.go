// pkg/install/extract.go
package install

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"

	"github.com/arc-language/nouzen/pkg/index"
)

// ErrUnsafePath is returned for archive members that would land outside the prefix.
var ErrUnsafePath = errors.New("archive member escapes install prefix")

// extraction collects what an archive put on disk.
type extraction struct {
	files []string
	dirs  []string
}

// entries lists files first, then directories deepest first.
func (e *extraction) entries() []string {
	out := make([]string, 0, len(e.files)+len(e.dirs))
	out = append(out, e.files...)
	for i := len(e.dirs) - 1; i >= 0; i-- {
		out = append(out, e.dirs[i])
	}
	return out
}

// extractDeb unpacks the data member of a .deb archive.
func (i *Installer) extractDeb(r io.Reader) (*extraction, error) {
	arReader := ar.NewReader(r)
	for {
		header, err := arReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ar entry: %w", err)
		}

		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		i.logger.Debugf("Found ar member: %s (%d bytes)", name, header.Size)

		if !strings.HasPrefix(name, "data.tar") {
			continue
		}

		dr, err := index.Decompress(strings.TrimPrefix(name, "data.tar"), arReader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defer dr.Close()
		return i.extractTar(tar.NewReader(dr), nil)
	}

	return nil, fmt.Errorf("no data.tar.* found in .deb package")
}

// extractAPK unpacks an .apk archive, skipping its metadata members.
func (i *Installer) extractAPK(r io.Reader) (*extraction, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzReader.Close()

	return i.extractTar(tar.NewReader(gzReader), func(name string) bool {
		return strings.HasPrefix(path.Base(name), ".")
	})
}

func (i *Installer) extractTar(tarReader *tar.Reader, skip func(string) bool) (*extraction, error) {
	ex := &extraction{}
	seenDir := make(map[string]bool)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		cleanPath := strings.Trim(path.Clean("/"+strings.TrimPrefix(header.Name, "./")), "/")
		if cleanPath == "" || cleanPath == "." {
			continue
		}
		if skip != nil && skip(header.Name) {
			i.logger.Debugf("Skipping metadata %s", header.Name)
			continue
		}
		if strings.Contains(header.Name, "..") && !i.inside(filepath.Join(i.prefix, filepath.FromSlash(header.Name))) {
			return nil, fmt.Errorf("%w: %s", ErrUnsafePath, header.Name)
		}

		targetPath := filepath.Join(i.prefix, filepath.FromSlash(cleanPath))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := i.confined(targetPath); err != nil {
				return nil, err
			}
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
			if !seenDir[cleanPath] {
				seenDir[cleanPath] = true
				ex.dirs = append(ex.dirs, cleanPath)
			}

		case tar.TypeSymlink:
			if err := i.confined(filepath.Dir(targetPath)); err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return nil, fmt.Errorf("creating parent directory for symlink: %w", err)
			}
			os.Remove(targetPath)
			if err := os.Symlink(header.Linkname, targetPath); err != nil {
				return nil, fmt.Errorf("creating symlink %s -> %s: %w", targetPath, header.Linkname, err)
			}
			ex.files = append(ex.files, cleanPath)

		case tar.TypeLink:
			source := filepath.Join(i.prefix, filepath.FromSlash(strings.TrimPrefix(header.Linkname, "./")))
			if !i.inside(source) {
				return nil, fmt.Errorf("%w: %s", ErrUnsafePath, header.Linkname)
			}
			if err := i.confined(source); err != nil {
				return nil, err
			}
			if err := i.confined(filepath.Dir(targetPath)); err != nil {
				return nil, err
			}
			os.Remove(targetPath)
			if err := os.Link(source, targetPath); err != nil {
				return nil, fmt.Errorf("creating hard link %s: %w", targetPath, err)
			}
			ex.files = append(ex.files, cleanPath)

		case tar.TypeReg:
			// Never write through a link an earlier member or package left here.
			if info, err := os.Lstat(targetPath); err == nil && info.Mode()&fs.ModeSymlink != 0 {
				os.Remove(targetPath)
			}
			if err := i.confined(filepath.Dir(targetPath)); err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return nil, fmt.Errorf("creating parent directory: %w", err)
			}

			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return nil, fmt.Errorf("creating file %s: %w", targetPath, err)
			}

			written, err := io.Copy(outFile, tarReader)
			outFile.Close()
			if err != nil {
				return nil, fmt.Errorf("writing file %s: %w", targetPath, err)
			}
			if written != header.Size {
				return nil, fmt.Errorf("file size mismatch for %s: expected %d, got %d", targetPath, header.Size, written)
			}
			ex.files = append(ex.files, cleanPath)

		default:
			i.logger.Debugf("Skipping unsupported file type %v for %s", header.Typeflag, cleanPath)
		}
	}

	return ex, nil
}

func (i *Installer) inside(target string) bool {
	return within(i.prefix, target)
}

// confined follows symlinks left by earlier members and fails when target,
// or its nearest existing ancestor, really lives outside the prefix.
func (i *Installer) confined(target string) error {
	root, err := filepath.EvalSymlinks(i.prefix)
	if err != nil {
		root = i.prefix
	}

	for dir := target; ; {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if !within(root, real) {
				return fmt.Errorf("%w: %s resolves to %s", ErrUnsafePath, target, real)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("resolving %s: %w", dir, err)
		}
		// A dangling link cannot be checked.
		if info, lerr := os.Lstat(dir); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s is a dangling symlink", ErrUnsafePath, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir || !within(i.prefix, parent) {
			return nil
		}
		dir = parent
	}
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
