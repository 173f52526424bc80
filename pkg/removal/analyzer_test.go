package removal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/relation"
	"github.com/arc-language/nouzen/pkg/resolver"
	"github.com/arc-language/nouzen/pkg/state"
	"github.com/arc-language/nouzen/pkg/store"
)

type memMeta map[string]*state.Record

func (m memMeta) Lookup(name string) (*state.Record, error) {
	if rec, ok := m[name]; ok {
		return rec, nil
	}
	return nil, core.ErrNotInstalled
}

type world struct {
	list *store.RepoList
	refs map[string]store.Ref
	meta memMeta
}

// newWorld builds a repository from name -> depends pairs. Names listed in
// installed get install records and an installed size of 1000 bytes.
func newWorld(t *testing.T, pkgs [][2]string, installed ...string) *world {
	t.Helper()
	repo := &store.Repository{Type: store.APT, BaseURI: "http://mirror.test/debian"}
	w := &world{refs: make(map[string]store.Ref), meta: memMeta{}}
	for _, p := range pkgs {
		pkg := store.NewPackage(p[0], "1.0")
		pkg.Filename = "pool/" + p[0] + ".deb"
		pkg.InstalledSize = 1000
		require.NoError(t, pkg.SetTokens(store.Depends, relation.ParseTokens(p[1])))
		w.refs[p[0]] = repo.Add(pkg)
	}
	w.list = store.NewRepoList()
	w.list.Add(repo)
	for _, name := range installed {
		w.list.Installed.Add(w.refs[name])
		w.meta[name] = &state.Record{Name: name, Version: "1.0"}
	}
	return w
}

func (w *world) names(s *store.Set) []string {
	var out []string
	for _, ref := range s.Refs() {
		out = append(out, w.list.Package(ref).Name)
	}
	return out
}

func (w *world) plan(t *testing.T, names ...string) *Plan {
	t.Helper()
	res := resolver.New(w.list, w.meta, nil)
	plan, err := New(res, nil).Plan(context.Background(), names)
	require.NoError(t, err)
	return plan
}

func TestPlanKeepsSharedDependency(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"app", "lib"},
		{"lib", "base"},
		{"base", ""},
		{"other", "base"},
	}, "app", "lib", "base", "other")

	plan := w.plan(t, "app")

	assert.Equal(t, []string{"app"}, w.names(plan.Direct))
	assert.Equal(t, []string{"app", "lib"}, w.names(plan.Removables))
	assert.Equal(t, uint64(2000), plan.FreedSpace)
	assert.Equal(t, store.No, w.list.Package(w.refs["base"]).Removable)
}

func TestPlanRetentionOverridesEarlierDecision(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"app", "leaf, mid"},
		{"mid", "leaf"},
		{"leaf", ""},
		{"keeper", "mid"},
	}, "app", "mid", "leaf", "keeper")

	plan := w.plan(t, "app")

	assert.Equal(t, []string{"app"}, w.names(plan.Removables))
	assert.Equal(t, store.No, w.list.Package(w.refs["leaf"]).Removable)
	assert.Equal(t, store.No, w.list.Package(w.refs["mid"]).Removable)
}

func TestPlanCascadesToDependants(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"lib", ""},
		{"app", "lib"},
		{"tool", "app"},
	}, "lib", "app", "tool")

	plan := w.plan(t, "lib")

	assert.Equal(t, []string{"lib", "app", "tool"}, w.names(plan.Direct))
	assert.ElementsMatch(t, []string{"lib", "app", "tool"}, w.names(plan.Removables))
	assert.Equal(t, uint64(3000), plan.FreedSpace)
}

func TestPlanSkipsPackagesNotInstalled(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"app", "lib"},
		{"lib", ""},
		{"tool", ""},
	}, "app")

	plan := w.plan(t, "app", "tool")

	assert.Equal(t, []string{"app"}, w.names(plan.Direct))
	// lib is in the closure but was never installed.
	assert.Equal(t, []string{"app"}, w.names(plan.Removables))
	assert.Equal(t, uint64(1000), plan.FreedSpace)
}

func TestPlanContainment(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"a", "b, c"},
		{"b", "d"},
		{"c", "d, e"},
		{"d", ""},
		{"e", ""},
		{"f", "e"},
		{"g", "b"},
	}, "a", "b", "c", "d", "e", "f", "g")

	plan := w.plan(t, "a")

	removable := plan.Removables
	for _, ref := range removable.Refs() {
		for _, dependant := range w.list.Dependants(ref) {
			assert.True(t, removable.Has(dependant),
				"%s is removed while %s still needs it",
				w.list.Package(ref).Name, w.list.Package(dependant).Name)
		}
	}
	assert.Equal(t, []string{"a", "c"}, w.names(removable))
}

func TestPlanTwiceStartsFresh(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"app", "libc"},
		{"tool", "libc"},
		{"libc", ""},
	}, "app", "tool", "libc")

	first := w.plan(t, "app", "tool")
	assert.ElementsMatch(t, []string{"app", "tool", "libc"}, w.names(first.Removables))

	// tool stays installed this time, so libc must stay too.
	second := w.plan(t, "app")
	assert.Equal(t, []string{"app"}, w.names(second.Removables))
	assert.Equal(t, uint64(1000), second.FreedSpace)
}

func TestPlanCascadesThroughProvides(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"mawk", ""},
		{"app", "awk"},
	}, "mawk", "app")
	w.list.Package(w.refs["mawk"]).Provides = relation.ParseTokens("awk")

	plan := w.plan(t, "mawk")

	assert.Equal(t, []string{"mawk", "app"}, w.names(plan.Direct))
	assert.ElementsMatch(t, []string{"mawk", "app"}, w.names(plan.Removables))
}

func TestPlanKeepsProviderStillNeeded(t *testing.T) {
	w := newWorld(t, [][2]string{
		{"app", "awk"},
		{"mawk", ""},
		{"keeper", "awk"},
	}, "app", "mawk", "keeper")
	w.list.Package(w.refs["mawk"]).Provides = relation.ParseTokens("awk")

	plan := w.plan(t, "app")

	assert.Equal(t, []string{"app"}, w.names(plan.Removables))
	assert.Equal(t, store.No, w.list.Package(w.refs["mawk"]).Removable)
}

func TestPlanUnknownName(t *testing.T) {
	w := newWorld(t, [][2]string{{"a", ""}}, "a")
	res := resolver.New(w.list, w.meta, nil)
	_, err := New(res, nil).Plan(context.Background(), []string{"ghost"})
	assert.ErrorIs(t, err, core.ErrPackageNotFound)
}
