// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/report"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/usecase"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/warehouse"
)

const (
	remoteRepoFile     = "TabularSource2/Repo.csv"
	remoteActivityFile = "TabularSource2/verification_activities_repo.csv"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit warehouse activity counts against live API counts",
	Long: `Audit compares the cumulative per-repository count of commits, issues or
pull requests recorded in the warehouse daily activity log against the count
computed from the live API, as of a given date, and writes a CSV report with
one row per repository.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		asOfStr, _ := cmd.Flags().GetString("as-of")
		asOf, err := domain.ParseDay(asOfStr)
		if err != nil {
			return fmt.Errorf("invalid --as-of date (expected YYYY-MM-DD): %w", err)
		}
		kindStr, _ := cmd.Flags().GetString("kind")
		kind, err := domain.ParseEntityKind(kindStr)
		if err != nil {
			return err
		}
		orgFilter, _ := cmd.Flags().GetStringSlice("org")

		if err := ensureDirs(cfg.DataDir, cfg.ReportDir); err != nil {
			return err
		}
		repoFile := filepath.Join(cfg.DataDir, "Repo.csv")
		activityFile := filepath.Join(cfg.DataDir, "verification_activities_repo.csv")
		if cfg.SnapshotRoot != "" {
			logger.Println("[1/4] Downloading warehouse snapshots...")
			snapshots := newSnapshotStore(cfg)
			if err := snapshots.Fetch(ctx, remoteRepoFile, repoFile); err != nil {
				return err
			}
			if err := snapshots.Fetch(ctx, remoteActivityFile, activityFile); err != nil {
				return err
			}
		}

		logger.Println("[2/4] Loading warehouse data...")
		repos, err := warehouse.LoadRepoRecords(repoFile, warehouse.LayoutWarehouse, asOf, logger)
		if err != nil {
			return err
		}
		totals, err := warehouse.BuildTotals(activityFile, asOf, logger)
		if err != nil {
			return err
		}
		logger.Printf("  Loaded %d repositories, activity totals for %d as of %s",
			len(repos), len(totals.Slugs()), domain.FormatDay(totals.AsOf()))

		logger.Println("[3/4] Auditing repositories against the live API...")
		client, err := newGateway(cfg, logger)
		if err != nil {
			return err
		}
		counter := usecase.NewCounter(client, logger)
		auditor := usecase.NewAuditor(counter, totals, cfg.Workers, logger)
		rows, err := auditor.Run(ctx, kind, repos, asOf, orgFilter)
		if err != nil {
			return err
		}

		logger.Println("[4/4] Writing report...")
		outFile, _ := cmd.Flags().GetString("out")
		if outFile == "" {
			outFile = filepath.Join(cfg.ReportDir,
				fmt.Sprintf("audit_%s_%s.csv", kind, domain.FormatDay(asOf)))
		}
		if err := report.WriteFile(outFile, func(w io.Writer) error {
			return report.WriteAudit(w, rows)
		}); err != nil {
			return err
		}

		summary := report.SummarizeAudit(rows)
		fmt.Fprintf(os.Stdout, "%s audit as of %s: %s\n", kind, domain.FormatDay(asOf), summary)
		fmt.Fprintf(os.Stdout, "report written: %s\n", outFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().String("as-of", "", "Cutoff date for cumulative counts (YYYY-MM-DD, required)")
	auditCmd.Flags().StringP("kind", "k", "commits", "Entity kind to audit (commits, issues, pulls)")
	auditCmd.Flags().StringSlice("org", nil, "Only audit these organizations")
	auditCmd.Flags().String("out", "", "Report file path (default <report_dir>/audit_<kind>_<date>.csv)")
	auditCmd.MarkFlagRequired("as-of")
}
