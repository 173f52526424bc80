// nouzen.go
package nouzen

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/download"
	"github.com/arc-language/nouzen/pkg/index"
	"github.com/arc-language/nouzen/pkg/install"
	"github.com/arc-language/nouzen/pkg/resolver"
	"github.com/arc-language/nouzen/pkg/sources"
	"github.com/arc-language/nouzen/pkg/state"
	"github.com/arc-language/nouzen/pkg/store"
)

// Re-export store types for convenience
type (
	Config  = core.Config
	Package = store.Package
	Ref     = store.Ref
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTransport replaces the HTTP/file transport used for indexes and archives.
func WithTransport(t download.Transport) Option {
	return func(m *Manager) { m.transport = t }
}

// WithStore replaces the install metadata store selected by the config.
func WithStore(st state.Store) Option {
	return func(m *Manager) { m.state = st }
}

// Manager ties repository loading, resolution, downloads and installs together.
type Manager struct {
	config    *core.Config
	logger    *log.Logger
	state     state.Store
	transport download.Transport
	installer *install.Installer

	list     *store.RepoList
	resolver *resolver.Resolver
}

// NewManager creates a manager for config. A nil logger discards output.
func NewManager(config *core.Config, logger *log.Logger, opts ...Option) (*Manager, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Manager{config: config, logger: logger}
	for _, opt := range opts {
		opt(m)
	}

	if m.transport == nil {
		m.transport = download.NewRouter(download.NewHTTPTransport(config.Timeout, config.PerHost))
	}
	if m.state == nil {
		st, err := state.Open(config)
		if err != nil {
			return nil, fmt.Errorf("opening install metadata: %w", err)
		}
		m.state = st
	}
	m.installer = install.New(config.Prefix, m.state, logger)

	return m, nil
}

// Load reads the sources file and loads every repository index. Cached
// indexes younger than the configured TTL are reused unless refresh is set.
func (m *Manager) Load(ctx context.Context, refresh bool) error {
	src, err := sources.Load(m.config.SourcesFile)
	if err != nil {
		return err
	}
	repos, err := src.Repositories()
	if err != nil {
		return err
	}
	return m.LoadRepositories(ctx, repos, refresh)
}

// LoadRepositories loads the indexes of repos, replacing anything loaded before.
func (m *Manager) LoadRepositories(ctx context.Context, repos []*store.Repository, refresh bool) error {
	loader := index.NewLoader(m.transport, index.Options{
		CacheDir:    m.config.CachePath,
		TTL:         m.config.IndexTTL,
		Concurrency: m.config.Concurrency,
	}, m.logger)

	list, err := loader.Load(ctx, repos, m.state, refresh)
	if err != nil {
		return err
	}

	m.list = list
	m.resolver = resolver.New(list, m.state, m.logger)
	return nil
}

// List returns the loaded repositories, or nil before Load.
func (m *Manager) List() *store.RepoList {
	return m.list
}

// Search returns the packages whose name or provides contain query.
func (m *Manager) Search(query string) ([]*store.Package, error) {
	if m.list == nil {
		return nil, ErrNotLoaded
	}
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	var out []*store.Package
	for _, ref := range m.list.Search(query) {
		out = append(out, m.list.Package(ref))
	}
	return out, nil
}

// Show resolves the package selected by name.
func (m *Manager) Show(ctx context.Context, name string) (*store.Package, error) {
	if m.list == nil {
		return nil, ErrNotLoaded
	}

	ref, virtual, ok := m.list.Find(name)
	if !ok {
		return nil, &core.Error{Op: "show", Package: name, Err: core.ErrPackageNotFound}
	}
	if virtual {
		m.logger.Infof("Note, selecting '%s' instead of '%s'", m.list.Package(ref).Name, name)
	}
	if err := m.resolver.Resolve(ctx, ref); err != nil {
		return nil, err
	}
	return m.list.Package(ref), nil
}

// Close releases the install metadata store.
func (m *Manager) Close() error {
	return m.state.Close()
}
