// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nouzen version %s\n", rootCmd.Version)
		fmt.Fprintln(cmd.OutOrStdout(), "APT and APK package manager")
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/arc-language/nouzen")
	},
}
