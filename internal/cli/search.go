// internal/cli/search.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search packages by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer m.Close()

		found, err := m.Search(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, pkg := range found {
			repo := m.List().Repository(pkg.Ref())
			line := fmt.Sprintf("%s/%s %s %s", styleNew.Render(pkg.Name), repo.Name, pkg.Version, pkg.Architecture)
			if pkg.Installed {
				line += " [installed]"
			}
			fmt.Fprintln(out, line)
			if pkg.Description != "" {
				fmt.Fprintln(out, styleList.Render(firstLine(pkg.Description)))
			}
		}
		return nil
	},
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
