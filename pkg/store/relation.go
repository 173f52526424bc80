// pkg/store/relation.go
package store

import "errors"

// ErrRelationResolved is returned when text is requested from, or refs are
// written to, a relation that has already been linked.
var ErrRelationResolved = errors.New("relation already resolved")

// Kind identifies one of the linkable relation fields of a package.
type Kind int

const (
	Depends Kind = iota
	Breaks
	Suggests
	Recommends
	Replaces

	kindCount
)

// Kinds lists every linkable relation kind.
var Kinds = []Kind{Depends, Breaks, Suggests, Recommends, Replaces}

func (k Kind) String() string {
	switch k {
	case Depends:
		return "depends"
	case Breaks:
		return "breaks"
	case Suggests:
		return "suggests"
	case Recommends:
		return "recommends"
	case Replaces:
		return "replaces"
	}
	return "unknown"
}

// Token is one entry of a relation list. Name is what lookups use;
// Constraint keeps the version expression, which is never enforced.
type Token struct {
	Name       string
	Constraint string
}

func (t Token) String() string {
	if t.Constraint == "" {
		return t.Name
	}
	return t.Name + " " + t.Constraint
}

// Relation is either Unresolved or Resolved.
type Relation interface {
	isRelation()
}

// Unresolved holds the tokens of a relation that has not been linked yet.
type Unresolved []Token

// Resolved holds the linked, duplicate-free references of a relation.
type Resolved []Ref

func (Unresolved) isRelation() {}
func (Resolved) isRelation()   {}

// Names returns the token names in order.
func (u Unresolved) Names() []string {
	names := make([]string, len(u))
	for i, tok := range u {
		names[i] = tok.Name
	}
	return names
}

// Contains reports whether a token with the given name is present.
func (u Unresolved) Contains(name string) bool {
	for _, tok := range u {
		if tok.Name == name {
			return true
		}
	}
	return false
}

// Without returns a copy with every token named name removed.
func (u Unresolved) Without(name string) Unresolved {
	out := make(Unresolved, 0, len(u))
	for _, tok := range u {
		if tok.Name != name {
			out = append(out, tok)
		}
	}
	return out
}

// Contains reports whether ref is linked.
func (r Resolved) Contains(ref Ref) bool {
	for _, x := range r {
		if x == ref {
			return true
		}
	}
	return false
}
