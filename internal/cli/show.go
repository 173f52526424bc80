// internal/cli/show.go
package cli

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show [package]",
	Aliases: []string{"info"},
	Short:   "Show information about a package",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := openManager(ctx, false)
		if err != nil {
			return err
		}
		defer m.Close()

		pkg, err := m.Show(ctx, args[0])
		if err != nil {
			return err
		}
		renderPackage(cmd.OutOrStdout(), m.List(), pkg)
		return nil
	},
}
