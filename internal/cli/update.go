// internal/cli/update.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the repository indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer m.Close()

		total := 0
		for _, repo := range m.List().Repos {
			total += len(repo.Packages)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Read %d packages from %d repositories.\n", total, len(m.List().Repos))
		return nil
	},
}
