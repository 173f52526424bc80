// pkg/store/package.go
package store

import (
	"errors"
	"fmt"
)

// ErrAlreadyResolved is returned by MarkResolved on a resolved package.
var ErrAlreadyResolved = errors.New("package already resolved")

// Tristate is a lazily computed boolean.
type Tristate int8

const (
	Unknown Tristate = -1
	No      Tristate = 0
	Yes     Tristate = 1
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unknown"
}

// Ref is the stable identity of a package: the owning repository's position
// in the RepoList and the package's slot in that repository.
type Ref struct {
	Repo  int
	Index int
}

func (r Ref) String() string {
	return fmt.Sprintf("%d:%d", r.Repo, r.Index)
}

// Maintainer is one entry of a package's maintainer list.
type Maintainer struct {
	Name  string
	Email string
}

func (m Maintainer) String() string {
	if m.Email == "" {
		return m.Name
	}
	return m.Name + " <" + m.Email + ">"
}

// Package is a single entry of a repository index.
type Package struct {
	Name          string
	Version       string
	Description   string
	Homepage      string
	Bugs          string
	Architecture  string
	Size          uint64 // archive size in bytes
	InstalledSize uint64 // bytes on disk once installed
	Filename      string // repository-relative location
	URI           string // absolute location, set during resolution

	// Provides lists the virtual names this package satisfies.
	Provides []Token

	Installed        bool
	InstalledVersion string
	Upgradable       bool
	AutoInstall      Tristate
	Removable        Tristate
	Obsolete         bool

	ref         Ref
	relations   [kindCount]Relation
	replaces    []string // token names of Replaces, kept past linking
	maintainer  string
	maintainers []Maintainer
	resolved    bool
}

// NewPackage returns a package with every relation unresolved and empty.
func NewPackage(name, version string) *Package {
	p := &Package{
		Name:        name,
		Version:     version,
		AutoInstall: Unknown,
		Removable:   Unknown,
	}
	for i := range p.relations {
		p.relations[i] = Unresolved(nil)
	}
	return p
}

// Ref returns the package identity assigned when it was added to a repository.
func (p *Package) Ref() Ref { return p.ref }

// Resolved reports whether resolution has linked this package.
func (p *Package) Resolved() bool { return p.resolved }

// MarkResolved flags the package as resolved. It may only happen once.
func (p *Package) MarkResolved() error {
	if p.resolved {
		return ErrAlreadyResolved
	}
	p.resolved = true
	return nil
}

// Relation returns the current form of a relation.
func (p *Package) Relation(kind Kind) Relation {
	return p.relations[kind]
}

// Tokens returns the unresolved tokens of a relation.
func (p *Package) Tokens(kind Kind) (Unresolved, error) {
	u, ok := p.relations[kind].(Unresolved)
	if !ok {
		return nil, ErrRelationResolved
	}
	return u, nil
}

// SetTokens replaces the unresolved tokens of a relation.
func (p *Package) SetTokens(kind Kind, tokens []Token) error {
	if _, ok := p.relations[kind].(Resolved); ok {
		return ErrRelationResolved
	}
	p.relations[kind] = Unresolved(tokens)
	if kind == Replaces {
		p.replaces = Unresolved(tokens).Names()
	}
	return nil
}

// Link turns a relation into its resolved form.
func (p *Package) Link(kind Kind, refs []Ref) error {
	if _, ok := p.relations[kind].(Resolved); ok {
		return ErrRelationResolved
	}
	p.relations[kind] = Resolved(refs)
	return nil
}

// Refs returns the linked references of a relation, or nil while unresolved.
func (p *Package) Refs(kind Kind) Resolved {
	r, _ := p.relations[kind].(Resolved)
	return r
}

// SetMaintainerText stores the raw maintainer list.
func (p *Package) SetMaintainerText(text string) {
	p.maintainer = text
	p.maintainers = nil
}

// MaintainerText returns the raw maintainer list while it is unparsed.
func (p *Package) MaintainerText() (string, bool) {
	if p.maintainers != nil {
		return "", false
	}
	return p.maintainer, true
}

// SetMaintainers replaces the raw maintainer text with parsed entries.
func (p *Package) SetMaintainers(m []Maintainer) {
	if m == nil {
		m = []Maintainer{}
	}
	p.maintainer = ""
	p.maintainers = m
}

// Maintainers returns the parsed maintainer list.
func (p *Package) Maintainers() []Maintainer {
	return p.maintainers
}

func (p *Package) String() string {
	return p.Name + " (" + p.Version + ")"
}
