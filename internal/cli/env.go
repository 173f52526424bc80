// internal/cli/env.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/nouzen/pkg/env"
	"github.com/arc-language/nouzen/pkg/platform"
	"github.com/arc-language/nouzen/pkg/sources"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print shell exports for using the install prefix",
	Long: `Print shell statements that add the prefix's executable, library,
pkg-config and header directories to the environment.

  eval "$(nouzen env)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := prefixEnv()
		if err != nil {
			return err
		}
		for _, line := range e.Exports() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

// prefixEnv takes the repository type and platform from the first
// configured repository.
func prefixEnv() (*env.Environment, error) {
	src, err := sources.Load(config.SourcesFile)
	if err != nil {
		return nil, err
	}
	repos, err := src.Repositories()
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories in %s", config.SourcesFile)
	}

	arch, err := platform.Normalize(repos[0].Platform)
	if err != nil {
		return nil, err
	}
	return env.New(config.Prefix, repos[0].Type, arch), nil
}

