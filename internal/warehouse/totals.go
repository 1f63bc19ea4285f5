package warehouse

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
)

// TotalsTable holds per-repository cumulative activity totals as of a date,
// keyed by lowercased org/repo slug. It is built once per run and read-only
// afterwards, so the audit workers can share it freely.
type TotalsTable struct {
	asOf   time.Time
	totals map[string]domain.Totals
}

// AsOf returns the cutoff date the totals were summed to.
func (t *TotalsTable) AsOf() time.Time { return t.asOf }

// TotalsFor returns the totals for an org/repo, zero totals when the
// repository never appears in the activity log.
func (t *TotalsTable) TotalsFor(org, repo string) domain.Totals {
	return t.totals[strings.ToLower(org)+"/"+strings.ToLower(repo)]
}

// Slugs returns the known org/repo slugs in sorted order.
func (t *TotalsTable) Slugs() []string {
	slugs := make([]string, 0, len(t.totals))
	for slug := range t.totals {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// BuildTotals streams the daily activity log (date, org/repo, issues,
// pullrequests, commits per row) and sums every row dated on or before asOf
// into per-repository totals. Summation is per-key and order-independent.
// A malformed row is logged with its line number and skipped.
func BuildTotals(path string, asOf time.Time, logger *log.Logger) (*TotalsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1

	table := &TotalsTable{
		asOf:   asOf,
		totals: make(map[string]domain.Totals),
	}
	line := 0
	for {
		values, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Printf("%s line %d: skipping malformed row: %v", path, line, err)
			continue
		}
		row, err := parseActivityRow(values)
		if err != nil {
			logger.Printf("%s line %d: skipping row: %v", path, line, err)
			continue
		}
		if row.date.After(asOf) {
			continue
		}
		tot := table.totals[row.slug]
		tot.Issues += row.issues
		tot.PullRequests += row.pullRequests
		tot.Commits += row.commits
		table.totals[row.slug] = tot
	}
	return table, nil
}

type activityRow struct {
	date         time.Time
	slug         string
	issues       int
	pullRequests int
	commits      int
}

func parseActivityRow(values []string) (activityRow, error) {
	if len(values) < 5 {
		return activityRow{}, fmt.Errorf("expected 5 columns, got %d", len(values))
	}
	date, err := domain.ParseDay(values[0])
	if err != nil {
		return activityRow{}, err
	}
	row := activityRow{date: date, slug: strings.ToLower(values[1])}
	for i, dst := range []*int{&row.issues, &row.pullRequests, &row.commits} {
		n, err := strconv.Atoi(strings.TrimSpace(values[i+2]))
		if err != nil {
			return activityRow{}, fmt.Errorf("column %d: %w", i+3, err)
		}
		*dst = n
	}
	return row, nil
}
