package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/relation"
	"github.com/arc-language/nouzen/pkg/state"
	"github.com/arc-language/nouzen/pkg/store"
)

type memMeta map[string]*state.Record

func (m memMeta) Lookup(name string) (*state.Record, error) {
	rec, ok := m[name]
	if !ok {
		return nil, core.ErrNotInstalled
	}
	return rec, nil
}

type def struct {
	name     string
	depends  string
	provides string
	suggests string
}

type fixture struct {
	list *store.RepoList
	refs map[string]store.Ref
}

func newFixture(t *testing.T, defs ...def) *fixture {
	t.Helper()
	repo := &store.Repository{Type: store.APT, Name: "main", BaseURI: "http://mirror.test/debian"}
	f := &fixture{refs: make(map[string]store.Ref)}
	for _, s := range defs {
		pkg := store.NewPackage(s.name, "1.0")
		pkg.Filename = "pool/" + s.name + "_1.0.deb"
		pkg.Provides = relation.ParseTokens(s.provides)
		require.NoError(t, pkg.SetTokens(store.Depends, relation.ParseTokens(s.depends)))
		require.NoError(t, pkg.SetTokens(store.Suggests, relation.ParseTokens(s.suggests)))
		f.refs[s.name] = repo.Add(pkg)
	}
	f.list = store.NewRepoList()
	f.list.Add(repo)
	return f
}

func (f *fixture) pkg(name string) *store.Package {
	return f.list.Package(f.refs[name])
}

func (f *fixture) names(refs []store.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, f.list.Package(ref).Name)
	}
	return out
}

func TestResolveLinksClosure(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b (>= 1), c", suggests: "d, ghost"},
		def{name: "b", depends: "c"},
		def{name: "c"},
		def{name: "d"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))

	a := f.pkg("a")
	assert.True(t, a.Resolved())
	assert.Equal(t, []string{"b", "c"}, f.names(a.Refs(store.Depends)))
	assert.Equal(t, []string{"d"}, f.names(a.Refs(store.Suggests)))
	assert.Equal(t, "http://mirror.test/debian/pool/a_1.0.deb", a.URI)

	for _, name := range []string{"a", "b", "c"} {
		pkg := f.pkg(name)
		require.True(t, pkg.Resolved(), name)
		for _, kind := range store.Kinds {
			_, err := pkg.Tokens(kind)
			assert.ErrorIs(t, err, store.ErrRelationResolved, "%s %s", name, kind)
		}
	}
	// d is only suggested, so it is not part of the dependency walk.
	assert.False(t, f.pkg("d").Resolved())
}

func TestResolveIsIdempotent(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b"},
		def{name: "b", depends: "a"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))
	before := [2]store.Resolved{f.pkg("a").Refs(store.Depends), f.pkg("b").Refs(store.Depends)}

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))
	require.NoError(t, r.Resolve(context.Background(), f.refs["b"]))
	after := [2]store.Resolved{f.pkg("a").Refs(store.Depends), f.pkg("b").Refs(store.Depends)}

	assert.Equal(t, before, after)
}

func TestResolveBreaksPairCycle(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b"},
		def{name: "b", depends: "a"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))

	assert.Equal(t, []string{"b"}, f.names(f.pkg("a").Refs(store.Depends)))
	assert.Empty(t, f.pkg("b").Refs(store.Depends))
	assert.False(t, f.pkg("a").Obsolete)
	assert.False(t, f.pkg("b").Obsolete)
}

func TestResolveLongCycleTerminates(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b"},
		def{name: "b", depends: "c"},
		def{name: "c", depends: "a"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))

	// Only direct pairs are broken; the c -> a edge stays.
	assert.Equal(t, []string{"a"}, f.names(f.pkg("c").Refs(store.Depends)))

	closure := store.NewSet()
	r.Closure(f.refs["a"], closure)
	assert.Equal(t, []string{"a", "b", "c"}, f.names(closure.Refs()))
}

func TestResolveVirtualSubstitution(t *testing.T) {
	f := newFixture(t,
		def{name: "app", depends: "awk"},
		def{name: "mawk", provides: "awk"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["app"]))

	assert.Equal(t, []string{"mawk"}, f.names(f.pkg("app").Refs(store.Depends)))
	assert.True(t, f.pkg("mawk").Resolved())
}

func TestResolveMarksObsolete(t *testing.T) {
	f := newFixture(t,
		def{name: "top", depends: "mid"},
		def{name: "mid", depends: "gone, leaf"},
		def{name: "leaf"},
	)
	r := New(f.list, memMeta{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["top"]))

	mid := f.pkg("mid")
	assert.True(t, mid.Obsolete)
	assert.True(t, mid.Resolved())
	assert.Empty(t, mid.Refs(store.Depends))
	assert.False(t, f.pkg("leaf").Resolved())

	assert.False(t, f.pkg("top").Obsolete)
	assert.Equal(t, []string{"mid"}, f.names(f.pkg("top").Refs(store.Depends)))
}

func TestResolveInstallStatus(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b, c"},
		def{name: "b"},
		def{name: "c"},
	)
	f.list.Installed.Add(f.refs["b"])
	f.list.Installed.Add(f.refs["c"])
	meta := memMeta{
		"b": {Name: "b", Version: "0.9", AutoInstall: true},
		"c": {Name: "c", Version: "1.0"},
	}
	r := New(f.list, meta, nil)

	require.NoError(t, r.Resolve(context.Background(), f.refs["a"]))

	a, b, c := f.pkg("a"), f.pkg("b"), f.pkg("c")
	assert.False(t, a.Installed)
	assert.Equal(t, store.Unknown, a.AutoInstall)

	assert.True(t, b.Installed)
	assert.True(t, b.Upgradable)
	assert.Equal(t, "0.9", b.InstalledVersion)
	assert.Equal(t, store.Yes, b.AutoInstall)

	assert.True(t, c.Installed)
	assert.False(t, c.Upgradable)
	assert.Equal(t, store.No, c.AutoInstall)
}

func TestResolveErrors(t *testing.T) {
	t.Run("missing filename", func(t *testing.T) {
		f := newFixture(t, def{name: "a"})
		f.pkg("a").Filename = ""
		err := New(f.list, memMeta{}, nil).Resolve(context.Background(), f.refs["a"])
		assert.ErrorIs(t, err, core.ErrMissingField)
		assert.False(t, f.pkg("a").Resolved())
	})

	t.Run("missing metadata", func(t *testing.T) {
		f := newFixture(t, def{name: "a"})
		f.list.Installed.Add(f.refs["a"])
		err := New(f.list, memMeta{}, nil).Resolve(context.Background(), f.refs["a"])
		assert.ErrorIs(t, err, core.ErrNotInstalled)
	})

	t.Run("metadata without version", func(t *testing.T) {
		f := newFixture(t, def{name: "a"})
		f.list.Installed.Add(f.refs["a"])
		err := New(f.list, memMeta{"a": {Name: "a"}}, nil).Resolve(context.Background(), f.refs["a"])
		assert.ErrorIs(t, err, core.ErrMissingField)
	})

	t.Run("malformed maintainer", func(t *testing.T) {
		f := newFixture(t, def{name: "a"})
		f.pkg("a").SetMaintainerText("Jane<jane@example.org>")
		err := New(f.list, memMeta{}, nil).Resolve(context.Background(), f.refs["a"])
		assert.ErrorIs(t, err, core.ErrMalformedMaintainer)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t, def{name: "a"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := New(f.list, memMeta{}, nil).Resolve(ctx, f.refs["a"])
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetch(t *testing.T) {
	f := newFixture(t,
		def{name: "a", depends: "b, c"},
		def{name: "b", depends: "c"},
		def{name: "c"},
		def{name: "x", depends: "b"},
		def{name: "mawk", provides: "awk"},
	)
	r := New(f.list, memMeta{}, nil)

	direct, indirect, err := r.Fetch(context.Background(), []string{"a", "x", "awk", "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "x", "mawk"}, f.names(direct.Refs()))
	assert.Equal(t, []string{"a", "b", "c", "x", "mawk"}, f.names(indirect.Refs()))

	_, _, err = r.Fetch(context.Background(), []string{"ghost"})
	assert.ErrorIs(t, err, core.ErrPackageNotFound)
}
