// pkg/relation/linker.go
package relation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/store"
)

// UnsatisfiedError lists the depends entries of a package that match nothing.
type UnsatisfiedError struct {
	Package string
	Missing []string
}

func (e *UnsatisfiedError) Error() string {
	return fmt.Sprintf("%s depends on %s, which cannot be satisfied", e.Package, strings.Join(e.Missing, ", "))
}

func (e *UnsatisfiedError) Unwrap() error {
	return core.ErrUnsatisfied
}

// Linker turns relation tokens into package references.
type Linker struct {
	list   *store.RepoList
	logger *log.Logger
}

// NewLinker creates a linker over list. A nil logger discards output.
func NewLinker(list *store.RepoList, logger *log.Logger) *Linker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Linker{list: list, logger: logger}
}

// BreakCycles removes direct dependency loops around the package at ref and
// returns how many tokens were dropped. A self-dependency is removed from the
// package itself. For a pair A<->B where B is not resolved yet, the entry
// naming A is removed from B. Longer cycles are left alone.
func (l *Linker) BreakCycles(ref store.Ref) int {
	pkg := l.list.Package(ref)
	if pkg == nil {
		return 0
	}

	removed := 0
	for {
		tokens, err := pkg.Tokens(store.Depends)
		if err != nil {
			return removed
		}

		changed := false
		for _, tok := range tokens {
			target, _, ok := l.list.Find(tok.Name)
			if !ok {
				continue
			}

			if target == ref {
				l.logger.Debug("Dropping self dependency", "package", pkg.Name, "entry", tok.Name)
				_ = pkg.SetTokens(store.Depends, tokens.Without(tok.Name))
				removed++
				changed = true
				break
			}

			dep := l.list.Package(target)
			if dep.Resolved() {
				continue
			}
			depTokens, err := dep.Tokens(store.Depends)
			if err != nil || !depTokens.Contains(pkg.Name) {
				continue
			}

			l.logger.Debugf("Breaking dependency loop between '%s' and '%s'", pkg.Name, dep.Name)
			_ = dep.SetTokens(store.Depends, depTokens.Without(pkg.Name))
			removed++
			changed = true
		}

		if !changed {
			return removed
		}
	}
}

// Link resolves the tokens of one relation of the package at ref.
// Duplicates and self references are dropped. Entries that match nothing are
// dropped for every kind except Depends, where they are reported as an
// *UnsatisfiedError and the relation is left untouched.
func (l *Linker) Link(ref store.Ref, kind store.Kind) error {
	pkg := l.list.Package(ref)
	if pkg == nil {
		return fmt.Errorf("no package at %s", ref)
	}

	tokens, err := pkg.Tokens(kind)
	if err != nil {
		// already linked
		return nil
	}

	refs := make([]store.Ref, 0, len(tokens))
	seen := make(map[store.Ref]bool, len(tokens))
	var missing []string

	for _, tok := range tokens {
		target, virtual, ok := l.list.Find(tok.Name)
		if !ok {
			if kind == store.Depends {
				missing = append(missing, tok.Name)
			} else {
				l.logger.Debug("Ignoring unknown relation entry", "package", pkg.Name, "relation", kind, "entry", tok.Name)
			}
			continue
		}
		if target == ref || seen[target] {
			continue
		}
		if virtual && kind == store.Depends {
			l.logger.Infof("Dependency on virtual package '%s' will be satisfied by '%s'", tok.Name, l.list.Package(target).Name)
		}
		seen[target] = true
		refs = append(refs, target)
	}

	if len(missing) > 0 {
		return &UnsatisfiedError{Package: pkg.Name, Missing: missing}
	}

	return pkg.Link(kind, refs)
}

// LinkMaintainers parses the maintainer text of the package at ref.
func (l *Linker) LinkMaintainers(ref store.Ref) error {
	pkg := l.list.Package(ref)
	if pkg == nil {
		return fmt.Errorf("no package at %s", ref)
	}

	text, ok := pkg.MaintainerText()
	if !ok {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		pkg.SetMaintainers(nil)
		return nil
	}

	maintainers, err := ParseMaintainers(text)
	if err != nil {
		return &core.Error{Op: "resolve", Package: pkg.Name, Relation: "maintainer", Err: err}
	}
	pkg.SetMaintainers(maintainers)
	return nil
}
