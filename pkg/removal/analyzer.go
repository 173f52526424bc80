// pkg/removal/analyzer.go
package removal

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/resolver"
	"github.com/arc-language/nouzen/pkg/store"
)

// Plan is the outcome of a removal analysis.
type Plan struct {
	// Direct holds the installed packages named by the user plus every
	// installed package that depends on them.
	Direct *store.Set
	// Removables holds the installed packages that go away with Direct.
	Removables *store.Set
	// FreedSpace is the sum of the installed sizes of Removables.
	FreedSpace uint64
}

// Analyzer decides which packages can be removed together.
type Analyzer struct {
	res    *resolver.Resolver
	list   *store.RepoList
	logger *log.Logger
}

// New creates an analyzer. A nil logger discards output.
func New(res *resolver.Resolver, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Analyzer{res: res, list: res.List(), logger: logger}
}

// Plan computes what removing names entails.
//
// A package in the dependency closure of the batch is removable when every
// installed package that depends on it is itself part of the closure. When a
// package must be retained, its own closure is retained with it, even if
// some of those packages were judged removable earlier.
func (a *Analyzer) Plan(ctx context.Context, names []string) (*Plan, error) {
	fetched, _, err := a.res.Fetch(ctx, names)
	if err != nil {
		return nil, err
	}

	direct := store.NewSet()
	for _, ref := range fetched.Refs() {
		pkg := a.list.Package(ref)
		if !a.list.Installed.Has(ref) {
			a.logger.Warnf("Package '%s' is not installed, so not removed", pkg.Name)
			continue
		}
		direct.Add(ref)
	}

	// Installed dependants go too; direct grows while it is walked.
	for i := 0; i < direct.Len(); i++ {
		for _, dependant := range a.list.Dependants(direct.At(i)) {
			if direct.Add(dependant) {
				a.logger.Debugf("Package '%s' depends on '%s' and will be removed as well",
					a.list.Package(dependant).Name, a.list.Package(direct.At(i)).Name)
			}
		}
	}

	indirect := store.NewSet()
	for _, ref := range direct.Refs() {
		if err := a.res.Resolve(ctx, ref); err != nil {
			return nil, err
		}
		a.res.Closure(ref, indirect)
	}

	// Marks only hold within one pass; an earlier plan saw a different batch.
	for _, ref := range indirect.Refs() {
		a.list.Package(ref).Removable = store.Unknown
	}

	retained := store.NewSet()
	for _, ref := range indirect.Refs() {
		pkg := a.list.Package(ref)
		if pkg.Removable != store.Unknown {
			continue
		}

		removable := true
		for _, dependant := range a.list.Dependants(ref) {
			dep := a.list.Package(dependant)
			removable = !a.list.Installed.Has(dependant) || indirect.Has(dependant)
			if !removable {
				a.logger.Debugf("Keeping '%s' because '%s' still needs it", pkg.Name, dep.Name)
				break
			}
		}

		if removable {
			pkg.Removable = store.Yes
			continue
		}

		if err := a.res.Resolve(ctx, ref); err != nil {
			return nil, err
		}
		a.res.Closure(ref, retained)
		for _, kept := range retained.Refs() {
			if indirect.Has(kept) {
				a.list.Package(kept).Removable = store.No
			}
		}
	}

	plan := &Plan{Direct: direct, Removables: store.NewSet()}
	for _, ref := range indirect.Refs() {
		pkg := a.list.Package(ref)
		if pkg.Removable != store.Yes || !a.list.Installed.Has(ref) {
			continue
		}
		plan.Removables.Add(ref)
		plan.FreedSpace += pkg.InstalledSize
	}

	return plan, nil
}
