// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ghverify",
	Short: "A CLI tool to verify warehouse GitHub activity data against the live API.",
	Long: `ghverify audits the repository activity data replicated into the batch
warehouse against the live GitHub API. It compares cumulative commit, issue
and pull request counts as of a date, reconciles the repository inventories
of the two sources, and writes CSV discrepancy reports.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Flags shared by every subcommand.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "ghverify.yaml", "Configuration file path")
}
