// pkg/store/repository.go
package store

import (
	"fmt"
	"strings"
)

// RepoType is the index format of a repository.
type RepoType int

const (
	APT RepoType = iota + 1
	APK
)

// ParseRepoType maps "apt" and "apk" to their RepoType.
func ParseRepoType(s string) (RepoType, error) {
	switch strings.ToLower(s) {
	case "apt", "deb":
		return APT, nil
	case "apk":
		return APK, nil
	}
	return 0, fmt.Errorf("unknown repository format %q", s)
}

func (t RepoType) String() string {
	switch t {
	case APT:
		return "apt"
	case APK:
		return "apk"
	}
	return "unknown"
}

// ArchiveExt is the file extension of package archives of this type.
func (t RepoType) ArchiveExt() string {
	if t == APK {
		return ".apk"
	}
	return ".deb"
}

// Repository owns the packages loaded from one index.
type Repository struct {
	Type     RepoType
	Name     string
	Release  string
	Resource string
	Platform string
	BaseURI  string

	Packages []*Package

	index int
}

// Add appends pkg to the repository and assigns its identity.
func (r *Repository) Add(pkg *Package) Ref {
	pkg.ref = Ref{Repo: r.index, Index: len(r.Packages)}
	r.Packages = append(r.Packages, pkg)
	return pkg.ref
}

// RepoList is the ordered set of loaded repositories plus the installed set.
type RepoList struct {
	Repos     []*Repository
	Installed *Set

	byName    map[string]Ref
	providers map[string]Ref
	replacers map[string]Ref
}

// NewRepoList returns an empty list.
func NewRepoList() *RepoList {
	return &RepoList{Installed: NewSet()}
}

// Add appends a repository and renumbers its packages.
func (l *RepoList) Add(repo *Repository) {
	repo.index = len(l.Repos)
	for i, pkg := range repo.Packages {
		pkg.ref = Ref{Repo: repo.index, Index: i}
	}
	l.Repos = append(l.Repos, repo)
	l.byName = nil
}

// Reindex drops the lookup tables after packages were added to a repository
// that already belongs to the list.
func (l *RepoList) Reindex() {
	l.byName = nil
}

// Package returns the package behind ref, or nil when ref is out of range.
func (l *RepoList) Package(ref Ref) *Package {
	if ref.Repo < 0 || ref.Repo >= len(l.Repos) {
		return nil
	}
	pkgs := l.Repos[ref.Repo].Packages
	if ref.Index < 0 || ref.Index >= len(pkgs) {
		return nil
	}
	return pkgs[ref.Index]
}

// Repository returns the repository that owns ref.
func (l *RepoList) Repository(ref Ref) *Repository {
	if ref.Repo < 0 || ref.Repo >= len(l.Repos) {
		return nil
	}
	return l.Repos[ref.Repo]
}

// Each calls fn for every package in repository order.
func (l *RepoList) Each(fn func(*Package)) {
	for _, repo := range l.Repos {
		for _, pkg := range repo.Packages {
			fn(pkg)
		}
	}
}

// Exact returns the first package named name.
func (l *RepoList) Exact(name string) (Ref, bool) {
	l.buildIndex()
	ref, ok := l.byName[name]
	return ref, ok
}

// Find returns the package satisfying name: an exact name match first, then
// the first package that provides it, then the first package that replaces
// it. virtual is true when the match came from provides or replaces.
func (l *RepoList) Find(name string) (ref Ref, virtual bool, ok bool) {
	l.buildIndex()
	if ref, ok := l.byName[name]; ok {
		return ref, false, true
	}
	if ref, ok := l.providers[name]; ok {
		return ref, true, true
	}
	if ref, ok := l.replacers[name]; ok {
		return ref, true, true
	}
	return Ref{}, false, false
}

// Dependants returns the installed packages whose depends name ref.
func (l *RepoList) Dependants(ref Ref) []Ref {
	target := l.Package(ref)
	if target == nil {
		return nil
	}

	var out []Ref
	for _, candidate := range l.Installed.Refs() {
		if candidate == ref {
			continue
		}
		pkg := l.Package(candidate)
		if pkg == nil {
			continue
		}
		switch rel := pkg.Relation(Depends).(type) {
		case Resolved:
			if rel.Contains(ref) {
				out = append(out, candidate)
			}
		case Unresolved:
			if l.names(rel, target.Name, ref) {
				out = append(out, candidate)
			}
		}
	}
	return out
}

// names reports whether a token of u is name or finds ref through
// provides or replaces.
func (l *RepoList) names(u Unresolved, name string, ref Ref) bool {
	for _, tok := range u {
		if tok.Name == name {
			return true
		}
		if found, _, ok := l.Find(tok.Name); ok && found == ref {
			return true
		}
	}
	return false
}

// Search returns packages whose name, provides or replaces contain query.
func (l *RepoList) Search(query string) []Ref {
	var out []Ref
	l.Each(func(pkg *Package) {
		if strings.Contains(pkg.Name, query) {
			out = append(out, pkg.ref)
			return
		}
		for _, tok := range pkg.Provides {
			if strings.Contains(tok.Name, query) {
				out = append(out, pkg.ref)
				return
			}
		}
		for _, name := range pkg.replaces {
			if strings.Contains(name, query) {
				out = append(out, pkg.ref)
				return
			}
		}
	})
	return out
}

func (l *RepoList) buildIndex() {
	if l.byName != nil {
		return
	}
	l.byName = make(map[string]Ref)
	l.providers = make(map[string]Ref)
	l.replacers = make(map[string]Ref)

	l.Each(func(pkg *Package) {
		if _, ok := l.byName[pkg.Name]; !ok {
			l.byName[pkg.Name] = pkg.ref
		}
		for _, tok := range pkg.Provides {
			if _, ok := l.providers[tok.Name]; !ok {
				l.providers[tok.Name] = pkg.ref
			}
		}
		for _, name := range pkg.replaces {
			if _, ok := l.replacers[name]; !ok {
				l.replacers[name] = pkg.ref
			}
		}
	})
}
