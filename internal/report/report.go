// Package report writes the CSV outputs of a verification run and summarizes
// the discrepancies found.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/usecase"
)

// diffHeader is the reconciliation report header. The id column reflects the
// id-based matching strategy; rows matched by name leave it empty.
const diffHeader = "org,repo_name,repo_id,created_at,issue"

// WriteDiff writes a reconciliation report: all missing rows, then all extra,
// then all mismatched, each group already sorted by (org, name).
func WriteDiff(w io.Writer, report domain.DiffReport) error {
	if _, err := fmt.Fprintln(w, diffHeader); err != nil {
		return err
	}
	for _, row := range report.Rows() {
		line := strings.Join([]string{
			row.Org,
			row.Name,
			row.ID,
			domain.FormatDay(row.CreatedAt),
			row.Issue.String(),
		}, ",")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteAudit writes the per-repository count comparison for one entity kind.
// Failed repositories keep their row, flagged in the status column, so the
// report is an explicit best-effort differential.
func WriteAudit(w io.Writer, rows []usecase.AuditRow) error {
	if _, err := fmt.Fprintln(w, "org,repo,warehouse,live,status"); err != nil {
		return err
	}
	for _, row := range rows {
		status := "ok"
		if row.Err != nil {
			status = "error"
		}
		line := strings.Join([]string{
			row.Org,
			row.Repo,
			strconv.Itoa(row.Warehouse),
			strconv.Itoa(row.Live),
			status,
		}, ",")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteRepoSnapshot writes live repository records in the layout the loaders
// accept back (owner_login,name,id,created_at), sorted for reproducibility.
func WriteRepoSnapshot(w io.Writer, records []domain.RepoRecord) error {
	sorted := make([]domain.RepoRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		oi, oj := strings.ToLower(sorted[i].Org), strings.ToLower(sorted[j].Org)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	if _, err := fmt.Fprintln(w, "owner_login,name,id,created_at"); err != nil {
		return err
	}
	for _, rec := range sorted {
		line := strings.Join([]string{
			rec.Org,
			rec.Name,
			rec.ID,
			domain.FormatDay(rec.CreatedAt),
		}, ",")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes a report to a file through the given writer function.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// AuditSummary condenses an audit run: how many repositories were checked,
// how many failed or disagreed, and the shape of the disagreement.
type AuditSummary struct {
	Repos       int
	Failed      int
	Mismatched  int
	MeanDelta   float64
	MedianDelta float64
	MaxDelta    float64
}

// SummarizeAudit computes delta statistics over the absolute differences
// between warehouse and live counts, ignoring failed rows.
func SummarizeAudit(rows []usecase.AuditRow) AuditSummary {
	summary := AuditSummary{Repos: len(rows)}
	var deltas []float64
	for _, row := range rows {
		if row.Err != nil {
			summary.Failed++
			continue
		}
		delta := math.Abs(float64(row.Live - row.Warehouse))
		if delta > 0 {
			summary.Mismatched++
		}
		deltas = append(deltas, delta)
	}
	if len(deltas) == 0 {
		return summary
	}
	// These only error on empty input, which is excluded above.
	summary.MeanDelta, _ = stats.Mean(deltas)
	summary.MedianDelta, _ = stats.Median(deltas)
	summary.MaxDelta, _ = stats.Max(deltas)
	return summary
}

func (s AuditSummary) String() string {
	return fmt.Sprintf("repos=%d mismatched=%d failed=%d mean_delta=%.1f median_delta=%.1f max_delta=%.0f",
		s.Repos, s.Mismatched, s.Failed, s.MeanDelta, s.MedianDelta, s.MaxDelta)
}
