// plan.go
package nouzen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/download"
	"github.com/arc-language/nouzen/pkg/removal"
	"github.com/arc-language/nouzen/pkg/store"
)

// InstallPlan describes what an install or upgrade will do.
type InstallPlan struct {
	// Direct holds the requested packages, Indirect their whole closure.
	Direct   *store.Set
	Indirect *store.Set

	// Additional holds the new packages pulled in only as dependencies.
	Additional *store.Set
	Installs   *store.Set
	Upgrades   *store.Set

	Suggests   *store.Set
	Recommends *store.Set

	// NotUpgraded holds installed packages with a newer version outside the plan.
	NotUpgraded *store.Set

	// AlreadyNewest names requested packages that are installed and current.
	AlreadyNewest []string

	DownloadSize  uint64
	RequiredSpace uint64
}

// Empty reports whether the plan changes nothing.
func (p *InstallPlan) Empty() bool {
	return p.Installs.Len() == 0 && p.Upgrades.Len() == 0
}

// RemovePlan describes what a removal will do.
type RemovePlan = removal.Plan

// PlanInstall resolves names and everything they depend on.
func (m *Manager) PlanInstall(ctx context.Context, names []string) (*InstallPlan, error) {
	return m.plan(ctx, names, true)
}

// PlanUpgrade plans bringing every installed package to its repository version.
func (m *Manager) PlanUpgrade(ctx context.Context) (*InstallPlan, error) {
	if m.list == nil {
		return nil, ErrNotLoaded
	}
	var names []string
	for _, ref := range m.list.Installed.Refs() {
		names = append(names, m.list.Package(ref).Name)
	}
	return m.plan(ctx, names, false)
}

func (m *Manager) plan(ctx context.Context, names []string, explicit bool) (*InstallPlan, error) {
	if m.list == nil {
		return nil, ErrNotLoaded
	}

	direct, indirect, err := m.resolver.Fetch(ctx, names)
	if err != nil {
		return nil, err
	}

	plan := &InstallPlan{
		Direct:      direct,
		Indirect:    indirect,
		Additional:  store.NewSet(),
		Installs:    store.NewSet(),
		Upgrades:    store.NewSet(),
		Suggests:    store.NewSet(),
		Recommends:  store.NewSet(),
		NotUpgraded: store.NewSet(),
	}

	for _, ref := range direct.Refs() {
		pkg := m.list.Package(ref)
		if pkg.Obsolete {
			return nil, &core.Error{Op: "install", Package: pkg.Name, Err: core.ErrObsolete}
		}
		if explicit {
			pkg.AutoInstall = store.No
		}
	}

	for _, ref := range indirect.Refs() {
		pkg := m.list.Package(ref)
		if pkg.AutoInstall == store.Unknown {
			pkg.AutoInstall = store.Yes
		}
		if pkg.Obsolete {
			m.logger.Warnf("Package '%s' is obsolete and will not be installed", pkg.Name)
			continue
		}

		switch {
		case !pkg.Installed:
			plan.Installs.Add(ref)
			if !direct.Has(ref) {
				plan.Additional.Add(ref)
			}
			plan.DownloadSize += pkg.Size
			plan.RequiredSpace += pkg.InstalledSize
		case pkg.Upgradable:
			plan.Upgrades.Add(ref)
			plan.DownloadSize += pkg.Size
		case explicit && direct.Has(ref):
			plan.AlreadyNewest = append(plan.AlreadyNewest, pkg.Name)
		}

		for _, s := range pkg.Refs(store.Suggests) {
			if !indirect.Has(s) && !m.list.Installed.Has(s) {
				plan.Suggests.Add(s)
			}
		}
		for _, r := range pkg.Refs(store.Recommends) {
			if !indirect.Has(r) && !m.list.Installed.Has(r) {
				plan.Recommends.Add(r)
			}
		}
	}

	if err := m.notUpgraded(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// notUpgraded collects installed packages outside the plan whose recorded
// version differs from the repository one.
func (m *Manager) notUpgraded(plan *InstallPlan) error {
	for _, ref := range m.list.Installed.Refs() {
		if plan.Indirect.Has(ref) {
			continue
		}
		pkg := m.list.Package(ref)
		rec, err := m.state.Lookup(pkg.Name)
		if errors.Is(err, core.ErrNotInstalled) {
			continue
		}
		if err != nil {
			return &core.Error{Op: "load metadata", Package: pkg.Name, Err: err}
		}
		if rec.Version != pkg.Version {
			plan.NotUpgraded.Add(ref)
		}
	}
	return nil
}

// ApplyInstall downloads and installs what plan needs. progress receives
// the download batch size and the number of finished downloads.
func (m *Manager) ApplyInstall(ctx context.Context, plan *InstallPlan, progress func(total, completed int)) error {
	if m.list == nil {
		return ErrNotLoaded
	}

	order := installOrder(m.list, plan.Indirect, func(ref store.Ref) bool {
		return plan.Installs.Has(ref) || plan.Upgrades.Has(ref)
	})
	if len(order) == 0 {
		return nil
	}

	dir := filepath.Join(m.config.CachePath, "archives", uuid.NewString())
	if !m.config.KeepArchives {
		defer os.RemoveAll(dir)
	}

	sched := download.New(m.transport, download.Options{
		Concurrency: m.config.Concurrency,
		PerHost:     m.config.PerHost,
		Retries:     m.config.Retries,
		Dir:         dir,
		Progress:    progress,
	}, m.logger)

	jobs, err := sched.Schedule(ctx, m.list, store.NewSet(order...))
	if err != nil {
		return err
	}

	archives := make(map[store.Ref]string, len(jobs))
	for _, job := range jobs {
		archives[job.Ref] = job.Path
	}

	for _, ref := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, ok := archives[ref]
		if !ok {
			return fmt.Errorf("no archive downloaded for %s", m.list.Package(ref).Name)
		}
		if err := m.installer.Install(m.list, ref, path); err != nil {
			return err
		}
	}

	if m.config.KeepArchives {
		m.logger.Infof("Archives kept in %s", dir)
	}
	return nil
}

// PlanRemove computes which installed packages go away with names.
func (m *Manager) PlanRemove(ctx context.Context, names []string) (*RemovePlan, error) {
	if m.list == nil {
		return nil, ErrNotLoaded
	}
	return removal.New(m.resolver, m.logger).Plan(ctx, names)
}

// ApplyRemove removes every removable package of plan.
func (m *Manager) ApplyRemove(ctx context.Context, plan *RemovePlan) error {
	if m.list == nil {
		return ErrNotLoaded
	}
	for _, ref := range plan.Removables.Refs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.installer.Remove(m.list, ref); err != nil {
			return err
		}
	}
	return nil
}

// installOrder lists the refs of set accepted by want with dependencies
// before their dependants.
func installOrder(list *store.RepoList, set *store.Set, want func(store.Ref) bool) []store.Ref {
	var order []store.Ref
	visited := store.NewSet()

	var visit func(ref store.Ref)
	visit = func(ref store.Ref) {
		if !visited.Add(ref) {
			return
		}
		for _, dep := range list.Package(ref).Refs(store.Depends) {
			if set.Has(dep) {
				visit(dep)
			}
		}
		if want(ref) {
			order = append(order, ref)
		}
	}

	for _, ref := range set.Refs() {
		visit(ref)
	}
	return order
}
