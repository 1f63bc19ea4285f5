// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/config"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/gateway"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/store"
)

// newLogger builds the command logger: silent by default, standard error
// under --verbose.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadConfig reads the configuration file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.InheritedFlags().GetString("config")
	return config.Load(path)
}

// newGateway builds the authenticated GitHub client from configuration.
func newGateway(cfg *config.Config, logger *log.Logger) (*gateway.Client, error) {
	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("no GitHub token configured (set GITHUB_TOKEN or github.token in the config file)")
	}
	return gateway.NewClient(cfg.GitHub.Token, cfg.RequestTimeout(), logger)
}

// newSnapshotStore returns the store snapshots are fetched from and reports
// uploaded to. Commands only see the Store interface, so a cloud-backed
// implementation can replace the local tree without touching them.
func newSnapshotStore(cfg *config.Config) store.Store {
	return store.LocalStore{Root: cfg.SnapshotRoot}
}

// ensureDirs creates the working directories a command writes into.
func ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
