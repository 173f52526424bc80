// internal/cli/remove.go
package cli

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [package...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove installed packages",
	Long: `Remove packages, every installed package that depends on them, and the
dependencies nothing else needs anymore.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := openManager(ctx, false)
	if err != nil {
		return err
	}
	defer m.Close()

	plan, err := m.PlanRemove(ctx, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderRemovePlan(out, m.List(), plan)
	if plan.Removables.Len() == 0 {
		return nil
	}

	if !config.AssumeYes {
		if err := confirm(cmd.InOrStdin(), out); err != nil {
			return err
		}
	}
	return m.ApplyRemove(ctx, plan)
}
