package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
)

// TotalsProvider looks up warehouse activity totals for a repository.
// Unknown repositories yield zero totals.
type TotalsProvider interface {
	TotalsFor(org, repo string) domain.Totals
}

// AuditRow is the outcome of auditing one repository: the warehouse total and
// the live count for the audited entity kind. Err records a failed live
// count; failed repositories stay in the results so the report can flag them
// instead of silently dropping them.
type AuditRow struct {
	Org       string
	Repo      string
	Warehouse int
	Live      int
	Err       error
}

// Auditor runs the as-of count audit across a fleet of repositories.
type Auditor struct {
	counter *Counter
	totals  TotalsProvider
	workers int
	logger  *log.Logger
}

// NewAuditor creates an Auditor. workers bounds how many repositories are
// audited concurrently; each repository's own page walk stays sequential.
func NewAuditor(counter *Counter, totals TotalsProvider, workers int, logger *log.Logger) *Auditor {
	if workers < 1 {
		workers = 1
	}
	return &Auditor{
		counter: counter,
		totals:  totals,
		workers: workers,
		logger:  logger,
	}
}

// Run audits every repository in repos for one entity kind, comparing the
// warehouse total as of asOf against the live count. Documentation
// repositories are excluded, as are orgs outside the filter when one is
// given. A repository's failure is recorded on its row; only context
// cancellation aborts the batch.
func (a *Auditor) Run(ctx context.Context, kind domain.EntityKind, repos []domain.RepoRecord, asOf time.Time, orgFilter []string) ([]AuditRow, error) {
	included := make([]domain.RepoRecord, 0, len(repos))
	for _, repo := range repos {
		if domain.IsDocumentationRepo(repo.Name) {
			continue
		}
		if !orgIncluded(repo.Org, orgFilter) {
			continue
		}
		included = append(included, repo)
	}
	a.logger.Printf("Auditing %s for %d repositories as of %s...", kind, len(included), domain.FormatDay(asOf))

	rows := make([]AuditRow, len(included))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for i, repo := range included {
		i, repo := i, repo
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row := AuditRow{
				Org:       repo.Org,
				Repo:      repo.Name,
				Warehouse: a.totals.TotalsFor(repo.Org, repo.Name).For(kind),
			}
			endpoint := kind.ListingPath(repo.Org, repo.Name)
			live, err := a.counter.CountAsOf(egCtx, kind, endpoint, asOf)
			if err != nil {
				a.logger.Printf("  %s/%s: %v", repo.Org, repo.Name, err)
				row.Err = err
			} else {
				row.Live = live
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return rows, err
	}
	return rows, nil
}

func orgIncluded(org string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if strings.EqualFold(org, f) {
			return true
		}
	}
	return false
}
