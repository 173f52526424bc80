// pkg/index/loader.go
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/arc-language/nouzen/pkg/baseuri"
	"github.com/arc-language/nouzen/pkg/download"
	"github.com/arc-language/nouzen/pkg/store"
)

// ErrIndexNotFound is returned when no index variant exists for a repository.
var ErrIndexNotFound = errors.New("index not found")

// Lister names the installed packages.
type Lister interface {
	List() ([]string, error)
}

// Options configures a Loader.
type Options struct {
	CacheDir    string
	TTL         time.Duration // cached indexes younger than this are reused
	Concurrency int
}

// Loader fetches, caches and parses repository indexes.
type Loader struct {
	transport download.Transport
	opts      Options
	logger    *log.Logger
	now       func() time.Time
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(transport download.Transport, opts Options, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Loader{transport: transport, opts: opts, logger: logger, now: time.Now}
}

// Load fills every repository from its index and returns them as a list
// whose installed set holds the packages named by installed. Repositories
// are fetched concurrently; the first failure cancels the rest.
func (l *Loader) Load(ctx context.Context, repos []*store.Repository, installed Lister, refresh bool) (*store.RepoList, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			if err := l.loadRepo(gctx, repo, refresh); err != nil {
				return fmt.Errorf("loading %s: %w", repo.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := store.NewRepoList()
	for _, repo := range repos {
		list.Add(repo)
		l.logger.Debugf("Loaded %d packages from %s", len(repo.Packages), repo.Name)
	}

	if installed != nil {
		names, err := installed.List()
		if err != nil {
			return nil, fmt.Errorf("listing installed packages: %w", err)
		}
		for _, name := range MarkInstalled(list, names) {
			l.logger.Warnf("Installed package '%s' is not in any repository", name)
		}
	}

	return list, nil
}

// MarkInstalled adds the packages named by names to list.Installed and
// returns the names no repository carries.
func MarkInstalled(list *store.RepoList, names []string) []string {
	var unknown []string
	for _, name := range names {
		ref, ok := list.Exact(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		list.Installed.Add(ref)
		list.Package(ref).Installed = true
	}
	return unknown
}

func (l *Loader) loadRepo(ctx context.Context, repo *store.Repository, refresh bool) error {
	repo.Packages = nil

	path, ext, ok := l.cached(repo, refresh)
	if !ok {
		var err error
		if path, ext, err = l.fetch(ctx, repo); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening cached index: %w", err)
	}
	defer f.Close()

	if repo.Type == store.APK {
		return ParseAPKINDEX(f, repo)
	}

	r, err := Decompress(ext, f)
	if err != nil {
		return err
	}
	defer r.Close()
	return ParseAPT(r, repo)
}

// variants returns the compression extensions to try for repo.
func variants(repo *store.Repository) []string {
	if repo.Type == store.APK {
		return []string{""}
	}
	return Extensions
}

// IndexPath is the index location relative to the repository base URI.
func IndexPath(repo *store.Repository, ext string) string {
	if repo.Type == store.APK {
		return repo.Release + "/" + repo.Resource + "/" + repo.Platform + "/APKINDEX.tar.gz"
	}
	return "dists/" + repo.Release + "/" + repo.Resource + "/binary-" + repo.Platform + "/Packages" + ext
}

func (l *Loader) cachePath(repo *store.Repository, ext string) string {
	name := repo.Type.String() + "_" + repo.Name + "_" + filepath.Base(IndexPath(repo, ext))
	name = strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(name)
	return filepath.Join(l.opts.CacheDir, "lists", name)
}

func (l *Loader) cached(repo *store.Repository, refresh bool) (string, string, bool) {
	if refresh || l.opts.TTL <= 0 {
		return "", "", false
	}
	for _, ext := range variants(repo) {
		path := l.cachePath(repo, ext)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if l.now().Sub(info.ModTime()) < l.opts.TTL {
			l.logger.Debugf("Using cached index for %s (age: %v)", repo.Name, l.now().Sub(info.ModTime()).Round(time.Second))
			return path, ext, true
		}
	}
	return "", "", false
}

func (l *Loader) fetch(ctx context.Context, repo *store.Repository) (string, string, error) {
	dir := filepath.Join(l.opts.CacheDir, "lists")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("creating cache directory: %w", err)
	}

	for _, ext := range variants(repo) {
		uri, err := baseuri.Resolve(repo.BaseURI, IndexPath(repo, ext))
		if err != nil {
			return "", "", err
		}

		l.logger.Infof("Get: %s", uri)

		tmp, err := os.CreateTemp(dir, ".index-*")
		if err != nil {
			return "", "", fmt.Errorf("creating temp file: %w", err)
		}

		err = l.transport.Fetch(ctx, uri, tmp)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmp.Name())
			if download.IsNotFound(err) {
				l.logger.Debugf("No index at %s", uri)
				continue
			}
			return "", "", err
		}

		path := l.cachePath(repo, ext)
		if err := os.Rename(tmp.Name(), path); err != nil {
			os.Remove(tmp.Name())
			return "", "", fmt.Errorf("storing index: %w", err)
		}
		return path, ext, nil
	}

	return "", "", fmt.Errorf("%w for %s at %s", ErrIndexNotFound, repo.Name, repo.BaseURI)
}
