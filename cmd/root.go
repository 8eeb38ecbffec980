// Package cmd holds the civicsetu command line: the API server, the
// department seeder and the dashboard watcher.
package cmd

import (
	"os"

	"civicsetu-be/config"
	"civicsetu-be/logger"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "civicsetu",
		Short:        "Civic Setu backend",
		Long:         `Civic Setu backend: the reports API server and its operational commands.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(),
		newSeedCommand(),
		newWatchCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	return cfg, nil
}
