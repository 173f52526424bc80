// internal/cli/install.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/nouzen"
)

var installCmd = &cobra.Command{
	Use:   "install [package...]",
	Short: "Install one or more packages",
	Long: `Install packages and everything they depend on from the configured repositories.

Examples:
  nouzen install hello
  nouzen install --prefix=/opt/tools curl jq
  nouzen install -y busybox`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := openManager(ctx, false)
	if err != nil {
		return err
	}
	defer m.Close()

	plan, err := m.PlanInstall(ctx, args)
	if err != nil {
		return err
	}
	return applyInstall(cmd, m, plan)
}

// applyInstall shows plan, asks for confirmation and carries it out.
func applyInstall(cmd *cobra.Command, m *nouzen.Manager, plan *nouzen.InstallPlan) error {
	out := cmd.OutOrStdout()
	renderInstallPlan(out, m.List(), plan)
	if plan.Empty() {
		return nil
	}

	if !config.AssumeYes {
		if err := confirm(cmd.InOrStdin(), out); err != nil {
			return err
		}
	}

	p := newProgress(loggerFromContext(cmd.Context()))
	err := m.ApplyInstall(cmd.Context(), plan, func(total, completed int) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rFetched %d of %d archives", completed, total)
		if completed == total {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	})
	if err != nil {
		return err
	}
	p.done("Installed packages")
	return nil
}
