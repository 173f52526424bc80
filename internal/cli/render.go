// internal/cli/render.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arc-language/nouzen"
	"github.com/arc-language/nouzen/pkg/store"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")

	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleNew     = lipgloss.NewStyle().Foreground(colorGreen)
	styleUpgrade = lipgloss.NewStyle().Foreground(colorCyan)
	styleRemove  = lipgloss.NewStyle().Foreground(colorRed)
	styleKept    = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)

	// Package lists wrap at 80 columns with a two space indent.
	styleList = lipgloss.NewStyle().Width(80).PaddingLeft(2)
)

// formatSize renders bytes the way apt does, in powers of 1000.
func formatSize(n uint64) string {
	units := []string{"B", "kB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1000 && i < len(units)-1 {
		v /= 1000
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", n, units[0])
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}

func packageNames(list *store.RepoList, set *store.Set) []string {
	names := make([]string, 0, set.Len())
	for _, ref := range set.Refs() {
		names = append(names, list.Package(ref).Name)
	}
	return names
}

func renderSection(w io.Writer, header string, style lipgloss.Style, names []string) {
	if len(names) == 0 {
		return
	}
	styled := make([]string, len(names))
	for i, n := range names {
		styled[i] = style.Render(n)
	}
	fmt.Fprintln(w, styleHeader.Render(header))
	fmt.Fprintln(w, styleList.Render(strings.Join(styled, " ")))
}

func renderInstallPlan(w io.Writer, list *store.RepoList, plan *nouzen.InstallPlan) {
	for _, name := range plan.AlreadyNewest {
		ref, _ := list.Exact(name)
		fmt.Fprintf(w, "%s is already the newest version (%s).\n", name, list.Package(ref).Version)
	}

	renderSection(w, "The following additional packages will be installed:", styleNew, packageNames(list, plan.Additional))
	renderSection(w, "Suggested packages:", styleDim, packageNames(list, plan.Suggests))
	renderSection(w, "Recommended packages:", styleDim, packageNames(list, plan.Recommends))
	renderSection(w, "The following NEW packages will be installed:", styleNew, packageNames(list, plan.Installs))
	renderSection(w, "The following packages will be upgraded:", styleUpgrade, packageNames(list, plan.Upgrades))
	renderSection(w, "The following packages have been kept back:", styleKept, packageNames(list, plan.NotUpgraded))

	fmt.Fprintf(w, "%d upgraded, %d newly installed, 0 to remove and %d not upgraded.\n",
		plan.Upgrades.Len(), plan.Installs.Len(), plan.NotUpgraded.Len())

	if plan.Empty() {
		return
	}
	fmt.Fprintf(w, "Need to get %s of archives.\n", formatSize(plan.DownloadSize))
	fmt.Fprintf(w, "After this operation, %s of additional disk space will be used.\n", formatSize(plan.RequiredSpace))
}

func renderRemovePlan(w io.Writer, list *store.RepoList, plan *nouzen.RemovePlan) {
	renderSection(w, "The following packages will be REMOVED:", styleRemove, packageNames(list, plan.Removables))

	fmt.Fprintf(w, "0 upgraded, 0 newly installed, %d to remove and 0 not upgraded.\n", plan.Removables.Len())
	if plan.Removables.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "After this operation, %s disk space will be freed.\n", formatSize(plan.FreedSpace))
}

func renderPackage(w io.Writer, list *store.RepoList, pkg *store.Package) {
	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s %s\n", styleHeader.Render(key+":"), value)
		}
	}

	field("Package", pkg.Name)
	field("Version", pkg.Version)
	if pkg.Installed {
		status := "installed"
		if pkg.Upgradable {
			status = "upgradable from " + pkg.InstalledVersion
		}
		field("Status", status)
	}
	field("Architecture", pkg.Architecture)

	var maintainers []string
	for _, m := range pkg.Maintainers() {
		maintainers = append(maintainers, m.String())
	}
	field("Maintainer", strings.Join(maintainers, ", "))

	field("Installed-Size", formatSize(pkg.InstalledSize))
	field("Download-Size", formatSize(pkg.Size))
	for _, kind := range store.Kinds {
		refs := pkg.Refs(kind)
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			names = append(names, list.Package(ref).Name)
		}
		key := kind.String()
		field(strings.ToUpper(key[:1])+key[1:], strings.Join(names, ", "))
	}
	field("Homepage", pkg.Homepage)
	field("Bugs", pkg.Bugs)
	field("Source", pkg.URI)
	field("Description", pkg.Description)
}

// confirm asks a yes/no question defaulting to yes.
func confirm(in io.Reader, out io.Writer) error {
	fmt.Fprint(out, "Do you want to continue? [Y/n] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return nouzen.ErrUserInterrupted
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return nil
	}
	fmt.Fprintln(out, "Abort.")
	return nouzen.ErrUserInterrupted
}
