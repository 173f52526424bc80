// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arc-language/nouzen"
	"github.com/arc-language/nouzen/pkg/core"
)

var (
	cfgFile     string
	prefix      string
	concurrency int
	assumeYes   bool
	debug       bool
	refresh     bool
	config      *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nouzen",
	Short: "APT and APK package manager",
	Long: `nouzen - install packages from Debian and Alpine repositories

Resolves dependencies, downloads archives in parallel and installs them
under a prefix of your choice, without touching the system package database.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nouzen/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "install prefix")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "parallel downloads")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&refresh, "refresh", false, "fetch repository indexes even if cached")

	// Add commands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	level := log.WarnLevel
	if config.Debug {
		level = log.DebugLevel
	}
	cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	return nil
}

func initConfig() error {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with flags
	if prefix != "" {
		config.Prefix = prefix
	}
	if concurrency > 0 {
		config.Concurrency = concurrency
	}
	if assumeYes {
		config.AssumeYes = true
	}
	if debug {
		config.Debug = true
	}
	return config.Validate()
}

// openManager creates a manager and loads the repository indexes.
func openManager(ctx context.Context, forceRefresh bool) (*nouzen.Manager, error) {
	logger := loggerFromContext(ctx)

	m, err := nouzen.NewManager(config, logger)
	if err != nil {
		return nil, err
	}

	p := newProgress(logger)
	if err := m.Load(ctx, refresh || forceRefresh); err != nil {
		m.Close()
		return nil, fmt.Errorf("reading package lists: %w", err)
	}
	p.done("Reading package lists... Done")

	return m, nil
}
