package usecase

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/gateway"
)

// fleetListing routes listing fetches to a per-repository fakeListing keyed
// by "org/repo", mirroring a fleet of repositories behind one API.
type fleetListing struct {
	repos map[string]*fakeListing
}

func (f *fleetListing) FetchItemDates(ctx context.Context, kind domain.EntityKind, endpoint string) (gateway.Page, error) {
	parts := strings.Split(strings.TrimPrefix(endpoint, "/repos/"), "/")
	slug := parts[0] + "/" + parts[1]
	listing, ok := f.repos[slug]
	if !ok {
		return gateway.Page{}, gateway.ErrRepoUnavailable
	}
	return listing.FetchItemDates(ctx, kind, endpoint)
}

type fakeTotals map[string]domain.Totals

func (f fakeTotals) TotalsFor(org, repo string) domain.Totals {
	return f[strings.ToLower(org)+"/"+strings.ToLower(repo)]
}

func TestAuditor_Run(t *testing.T) {
	asOf := day("2021-12-31")
	fleet := &fleetListing{repos: map[string]*fakeListing{
		"acme/widgets": {dates: syntheticDates(237, 3, 1)},
		"acme/gadgets": {dates: syntheticDates(40, 2, 1)},
		"acme/broken":  {fetchErr: assert.AnError},
	}}
	totals := fakeTotals{
		"acme/widgets": {Commits: 237},
		"acme/gadgets": {Commits: 38}, // stale warehouse total
		"acme/broken":  {Commits: 7},
	}
	repos := []domain.RepoRecord{
		{Org: "acme", Name: "widgets"},
		{Org: "acme", Name: "gadgets"},
		{Org: "acme", Name: "broken"},
		{Org: "acme", Name: "widgets-pr.ja-jp"}, // localization repo, excluded
	}

	auditor := NewAuditor(NewCounter(fleet, log.New(io.Discard, "", 0)), totals, 4, log.New(io.Discard, "", 0))
	rows, err := auditor.Run(context.Background(), domain.Commits, repos, asOf, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byRepo := make(map[string]AuditRow, len(rows))
	for _, row := range rows {
		byRepo[row.Repo] = row
	}
	assert.Equal(t, AuditRow{Org: "acme", Repo: "widgets", Warehouse: 237, Live: 237}, byRepo["widgets"])
	assert.Equal(t, AuditRow{Org: "acme", Repo: "gadgets", Warehouse: 38, Live: 40}, byRepo["gadgets"])
	assert.Equal(t, 7, byRepo["broken"].Warehouse)
	assert.Error(t, byRepo["broken"].Err)
}

func TestAuditor_Run_OrgFilter(t *testing.T) {
	fleet := &fleetListing{repos: map[string]*fakeListing{
		"acme/widgets": {dates: syntheticDates(10, 1, 1)},
		"initech/tps":  {dates: syntheticDates(10, 1, 1)},
	}}
	repos := []domain.RepoRecord{
		{Org: "acme", Name: "widgets"},
		{Org: "initech", Name: "tps"},
	}

	auditor := NewAuditor(NewCounter(fleet, log.New(io.Discard, "", 0)), fakeTotals{}, 2, log.New(io.Discard, "", 0))
	rows, err := auditor.Run(context.Background(), domain.Commits, repos, day("2021-12-31"), []string{"ACME"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "widgets", rows[0].Repo)
}

// TestAuditor_Run_UnknownRepoCountsZero covers the audit of a repository that
// the live API no longer serves: the row reports a zero live count, not an
// error, so the report shows it as a real discrepancy.
func TestAuditor_Run_UnknownRepoCountsZero(t *testing.T) {
	fleet := &fleetListing{repos: map[string]*fakeListing{}}
	repos := []domain.RepoRecord{{Org: "acme", Name: "vanished"}}
	totals := fakeTotals{"acme/vanished": {Commits: 12}}

	auditor := NewAuditor(NewCounter(fleet, log.New(io.Discard, "", 0)), totals, 1, log.New(io.Discard, "", 0))
	rows, err := auditor.Run(context.Background(), domain.Commits, repos, day("2021-12-31"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, 12, rows[0].Warehouse)
	assert.Zero(t, rows[0].Live)
}

func TestAuditor_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fleet := &fleetListing{repos: map[string]*fakeListing{
		"acme/widgets": {dates: syntheticDates(10, 1, 1)},
	}}
	repos := []domain.RepoRecord{{Org: "acme", Name: "widgets"}}

	auditor := NewAuditor(NewCounter(fleet, log.New(io.Discard, "", 0)), fakeTotals{}, 1, log.New(io.Discard, "", 0))
	_, err := auditor.Run(ctx, domain.Commits, repos, day("2021-12-31"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
