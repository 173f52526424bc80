// pkg/resolver/resolver.go
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/baseuri"
	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/relation"
	"github.com/arc-language/nouzen/pkg/state"
	"github.com/arc-language/nouzen/pkg/store"
)

// Metadata looks up install records of installed packages.
type Metadata interface {
	Lookup(name string) (*state.Record, error)
}

// Resolver links packages and fills in their install status.
type Resolver struct {
	list   *store.RepoList
	linker *relation.Linker
	meta   Metadata
	logger *log.Logger
}

// New creates a resolver over list. A nil logger discards output.
func New(list *store.RepoList, meta Metadata, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		list:   list,
		linker: relation.NewLinker(list, logger),
		meta:   meta,
		logger: logger,
	}
}

// List returns the repository list the resolver works on.
func (r *Resolver) List() *store.RepoList {
	return r.list
}

// Resolve resolves the package at ref and everything it depends on.
// Packages that are already resolved are skipped, so calling it again is a
// no-op. A package is marked resolved before its dependencies are visited.
func (r *Resolver) Resolve(ctx context.Context, ref store.Ref) error {
	stack := []store.Ref{ref}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pkg := r.list.Package(cur)
		if pkg == nil {
			return fmt.Errorf("no package at %s", cur)
		}
		if pkg.Resolved() {
			continue
		}

		deps, err := r.resolveOne(cur, pkg)
		if err != nil {
			return err
		}

		// reverse so the first dependency is visited first
		for i := len(deps) - 1; i >= 0; i-- {
			if dep := r.list.Package(deps[i]); dep != nil && !dep.Resolved() {
				stack = append(stack, deps[i])
			}
		}
	}

	return nil
}

func (r *Resolver) resolveOne(ref store.Ref, pkg *store.Package) (store.Resolved, error) {
	r.logger.Debug("Resolving package", "package", pkg.Name, "version", pkg.Version)

	required := []struct{ field, value string }{
		{"Package", pkg.Name},
		{"Version", pkg.Version},
		{"Filename", pkg.Filename},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, &core.Error{Op: "resolve", Package: pkg.Name, Err: fmt.Errorf("%w: %s", core.ErrMissingField, f.field)}
		}
	}

	r.linker.BreakCycles(ref)

	repo := r.list.Repository(ref)
	uri, err := baseuri.Resolve(repo.BaseURI, pkg.Filename)
	if err != nil {
		return nil, &core.Error{Op: "resolve", Package: pkg.Name, Err: err}
	}
	pkg.URI = uri

	if err := r.loadStatus(ref, pkg); err != nil {
		return nil, err
	}

	for _, kind := range []store.Kind{store.Breaks, store.Suggests, store.Recommends, store.Replaces} {
		if err := r.linker.Link(ref, kind); err != nil {
			return nil, &core.Error{Op: "resolve", Package: pkg.Name, Relation: kind.String(), Err: err}
		}
	}
	if err := r.linker.LinkMaintainers(ref); err != nil {
		return nil, err
	}

	if err := pkg.MarkResolved(); err != nil {
		return nil, err
	}

	err = r.linker.Link(ref, store.Depends)
	var unsatisfied *relation.UnsatisfiedError
	switch {
	case errors.As(err, &unsatisfied):
		r.logger.Warnf("Package '%s' is obsolete: %v", pkg.Name, unsatisfied)
		pkg.Obsolete = true
		if err := pkg.Link(store.Depends, nil); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, &core.Error{Op: "resolve", Package: pkg.Name, Relation: store.Depends.String(), Err: err}
	}

	return pkg.Refs(store.Depends), nil
}

func (r *Resolver) loadStatus(ref store.Ref, pkg *store.Package) error {
	pkg.Installed = r.list.Installed.Has(ref)
	if !pkg.Installed || r.meta == nil {
		return nil
	}

	rec, err := r.meta.Lookup(pkg.Name)
	if err != nil {
		return &core.Error{Op: "load metadata", Package: pkg.Name, Err: err}
	}
	if rec.Version == "" {
		return &core.Error{Op: "load metadata", Package: pkg.Name, Err: fmt.Errorf("%w: Version", core.ErrMissingField)}
	}

	pkg.InstalledVersion = rec.Version
	pkg.Upgradable = rec.Version != pkg.Version
	if pkg.AutoInstall == store.Unknown {
		if rec.AutoInstall {
			pkg.AutoInstall = store.Yes
		} else {
			pkg.AutoInstall = store.No
		}
	}
	return nil
}

// Closure adds ref and every package reachable through resolved depends
// links to into, in depth-first pre-order.
func (r *Resolver) Closure(ref store.Ref, into *store.Set) {
	stack := []store.Ref{ref}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !into.Add(cur) {
			continue
		}
		pkg := r.list.Package(cur)
		if pkg == nil {
			continue
		}
		deps := pkg.Refs(store.Depends)
		for i := len(deps) - 1; i >= 0; i-- {
			if !into.Has(deps[i]) {
				stack = append(stack, deps[i])
			}
		}
	}
}

// Fetch looks up names, resolves them and collects their dependency closure.
// direct holds the requested packages in order; indirect holds the closure
// of all of them, direct packages included.
func (r *Resolver) Fetch(ctx context.Context, names []string) (direct, indirect *store.Set, err error) {
	direct = store.NewSet()
	for _, name := range names {
		ref, virtual, ok := r.list.Find(name)
		if !ok {
			return nil, nil, &core.Error{Op: "fetch", Package: name, Err: core.ErrPackageNotFound}
		}
		if virtual {
			r.logger.Infof("Note, selecting '%s' instead of '%s'", r.list.Package(ref).Name, name)
		}
		direct.Add(ref)
	}

	indirect = store.NewSet()
	for _, ref := range direct.Refs() {
		if err := r.Resolve(ctx, ref); err != nil {
			return nil, nil, err
		}
		r.Closure(ref, indirect)
	}

	return direct, indirect, nil
}
