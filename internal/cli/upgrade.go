// internal/cli/upgrade.go
package cli

import (
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade every installed package",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := openManager(ctx, false)
		if err != nil {
			return err
		}
		defer m.Close()

		plan, err := m.PlanUpgrade(ctx)
		if err != nil {
			return err
		}
		return applyInstall(cmd, m, plan)
	},
}
