package usecase

import (
	"sort"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
)

// Reconcile compares the live repository set against the warehouse set and
// classifies every discrepancy. A live record with no warehouse counterpart
// is missing; a warehouse record with no live counterpart is extra; a pair
// with differing creation dates is a mismatch.
//
// Records match on (org, id) when every record on both sides carries a stable
// identifier, since ids survive repository renames; otherwise matching falls
// back to the case-insensitive (org, name) pair. Exclusion filtering
// (documentation repos, repos created after the as-of date) is the loaders'
// responsibility and has already happened by the time sets reach here.
func Reconcile(live, warehouse []domain.RepoRecord) domain.DiffReport {
	useID := allHaveIDs(live) && allHaveIDs(warehouse)

	warehouseByKey := make(map[string]domain.RepoRecord, len(warehouse))
	for _, rec := range warehouse {
		warehouseByKey[rec.Key(useID)] = rec
	}
	liveByKey := make(map[string]domain.RepoRecord, len(live))
	for _, rec := range live {
		liveByKey[rec.Key(useID)] = rec
	}

	var report domain.DiffReport
	for _, rec := range live {
		counterpart, ok := warehouseByKey[rec.Key(useID)]
		switch {
		case !ok:
			report.Missing = append(report.Missing, diffRow(rec, domain.IssueMissing))
		case !counterpart.CreatedAt.Equal(rec.CreatedAt):
			report.Mismatch = append(report.Mismatch, diffRow(rec, domain.IssueMismatch))
		}
	}
	for _, rec := range warehouse {
		if _, ok := liveByKey[rec.Key(useID)]; !ok {
			report.Extra = append(report.Extra, diffRow(rec, domain.IssueExtra))
		}
	}

	sortRows(report.Missing)
	sortRows(report.Extra)
	sortRows(report.Mismatch)
	return report
}

func allHaveIDs(records []domain.RepoRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if rec.ID == "" {
			return false
		}
	}
	return true
}

func diffRow(rec domain.RepoRecord, issue domain.DiffIssue) domain.DiffRow {
	return domain.DiffRow{
		Org:       rec.Org,
		Name:      rec.Name,
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Issue:     issue,
	}
}

func sortRows(rows []domain.DiffRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Org != rows[j].Org {
			return rows[i].Org < rows[j].Org
		}
		return rows[i].Name < rows[j].Name
	})
}
