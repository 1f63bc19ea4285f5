// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/config"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/report"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/usecase"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/warehouse"
)

var repodiffCmd = &cobra.Command{
	Use:   "repodiff",
	Short: "Reconcile the warehouse repository inventory against the live API",
	Long: `Repodiff compares the repository inventory replicated into the warehouse
against the repositories reported by the live API, and classifies every
difference as missing (live but not warehouse), extra (warehouse but not
live), or mismatch (differing creation dates).

When --live is not given, the live inventory is fetched from the API for the
configured organizations and archived as a CSV snapshot next to the report.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Default to yesterday: repositories created on the run date may not
		// be replicated yet and would show up as false discrepancies.
		asOf, err := domain.ParseDay(time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"))
		if err != nil {
			return err
		}
		if asOfStr, _ := cmd.Flags().GetString("as-of"); asOfStr != "" {
			if asOf, err = domain.ParseDay(asOfStr); err != nil {
				return fmt.Errorf("invalid --as-of date (expected YYYY-MM-DD): %w", err)
			}
		}

		if err := ensureDirs(cfg.DataDir, cfg.ReportDir); err != nil {
			return err
		}
		warehouseFile, _ := cmd.Flags().GetString("warehouse")
		if warehouseFile == "" {
			warehouseFile = filepath.Join(cfg.DataDir, "Repo.csv")
			if cfg.SnapshotRoot != "" {
				logger.Println("[1/3] Downloading Repo.csv from the snapshot store...")
				snapshots := newSnapshotStore(cfg)
				if err := snapshots.Fetch(ctx, remoteRepoFile, warehouseFile); err != nil {
					return err
				}
			}
		}

		liveFile, _ := cmd.Flags().GetString("live")
		if liveFile == "" {
			logger.Println("[2/3] Fetching live repository data from the API...")
			liveFile, err = fetchLiveSnapshot(cmd, cfg, asOf)
			if err != nil {
				return err
			}
		}

		liveRecords, err := warehouse.LoadRepoRecords(liveFile, warehouse.LayoutLive, asOf, logger)
		if err != nil {
			return err
		}
		warehouseRecords, err := warehouse.LoadRepoRecords(warehouseFile, warehouse.LayoutWarehouse, asOf, logger)
		if err != nil {
			return err
		}

		logger.Println("[3/3] Reconciling and writing report...")
		diff := usecase.Reconcile(liveRecords, warehouseRecords)

		outFile, _ := cmd.Flags().GetString("out")
		if outFile == "" {
			outFile = filepath.Join(cfg.ReportDir,
				fmt.Sprintf("repodiff-%s.csv", domain.FormatDay(asOf)))
		}
		if err := report.WriteFile(outFile, func(w io.Writer) error {
			return report.WriteDiff(w, diff)
		}); err != nil {
			return err
		}
		if cfg.SnapshotRoot != "" {
			snapshots := newSnapshotStore(cfg)
			if err := snapshots.Put(ctx, outFile, "users/ghverify/repodiff.csv"); err != nil {
				return err
			}
		}

		fmt.Fprintf(os.Stdout, "repodiff as of %s: missing=%d extra=%d mismatch=%d\n",
			domain.FormatDay(asOf), len(diff.Missing), len(diff.Extra), len(diff.Mismatch))
		fmt.Fprintf(os.Stdout, "report written: %s\n", outFile)
		return nil
	},
}

// fetchLiveSnapshot pulls the current repository inventory from the API for
// the configured organizations (or every org the user belongs to) and
// archives it as a CSV snapshot in the data directory.
func fetchLiveSnapshot(cmd *cobra.Command, cfg *config.Config, asOf time.Time) (string, error) {
	ctx := cmd.Context()
	logger := newLogger(cmd)
	client, err := newGateway(cfg, logger)
	if err != nil {
		return "", err
	}
	orgs := cfg.Orgs
	if len(orgs) == 0 {
		if orgs, err = client.FetchUserOrgs(ctx); err != nil {
			return "", err
		}
	}
	var records []domain.RepoRecord
	for _, org := range orgs {
		logger.Printf("  Listing repositories for %s...", org)
		repos, err := client.ListOrgRepos(ctx, org)
		if err != nil {
			return "", err
		}
		records = append(records, repos...)
	}
	liveFile := filepath.Join(cfg.DataDir,
		fmt.Sprintf("repo-github-%s.csv", domain.FormatDay(asOf)))
	if err := report.WriteFile(liveFile, func(w io.Writer) error {
		return report.WriteRepoSnapshot(w, records)
	}); err != nil {
		return "", err
	}
	return liveFile, nil
}

func init() {
	rootCmd.AddCommand(repodiffCmd)
	repodiffCmd.Flags().String("warehouse", "", "Warehouse Repo.csv path (default <data_dir>/Repo.csv)")
	repodiffCmd.Flags().String("live", "", "Live repo CSV path (default: fetch from the API)")
	repodiffCmd.Flags().String("as-of", "", "Comparison cutoff date (YYYY-MM-DD, default yesterday)")
	repodiffCmd.Flags().String("out", "", "Report file path (default <report_dir>/repodiff-<date>.csv)")
}
