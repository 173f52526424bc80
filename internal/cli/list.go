// internal/cli/list.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer m.Close()

		out := cmd.OutOrStdout()
		list := m.List()
		for _, ref := range list.Installed.Refs() {
			pkg := list.Package(ref)
			fmt.Fprintf(out, "%s/%s %s %s [installed]\n",
				styleNew.Render(pkg.Name), list.Repository(ref).Name, pkg.Version, pkg.Architecture)
		}
		return nil
	},
}
