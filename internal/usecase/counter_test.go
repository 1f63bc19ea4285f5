package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/gateway"
)

func day(s string) time.Time {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeListing serves a synthetic reverse-chronological item list as
// 100-item pages, with the same Link relations the live API emits.
type fakeListing struct {
	dates       []time.Time
	fetchCount  int
	unavailable bool
	fetchErr    error
}

func (f *fakeListing) FetchItemDates(ctx context.Context, kind domain.EntityKind, endpoint string) (gateway.Page, error) {
	f.fetchCount++
	if f.unavailable {
		return gateway.Page{}, gateway.ErrRepoUnavailable
	}
	if f.fetchErr != nil {
		return gateway.Page{}, f.fetchErr
	}
	pageNo := gateway.PageNumber(endpoint)
	total := (len(f.dates) + domain.PageSize - 1) / domain.PageSize
	if total == 0 {
		return gateway.Page{}, nil
	}
	if pageNo > total {
		return gateway.Page{}, fmt.Errorf("page %d beyond last page %d", pageNo, total)
	}
	start := (pageNo - 1) * domain.PageSize
	end := start + domain.PageSize
	if end > len(f.dates) {
		end = len(f.dates)
	}
	page := gateway.Page{Dates: f.dates[start:end]}
	if pageNo < total {
		nextURL, _ := gateway.PageEndpoint(endpoint, pageNo+1)
		lastURL, _ := gateway.PageEndpoint(endpoint, total)
		page.Links.Next = gateway.PageLink{URL: nextURL, Page: pageNo + 1}
		page.Links.Last = gateway.PageLink{URL: lastURL, Page: total}
	}
	if pageNo > 1 {
		firstURL, _ := gateway.PageEndpoint(endpoint, 1)
		prevURL, _ := gateway.PageEndpoint(endpoint, pageNo-1)
		page.Links.First = gateway.PageLink{URL: firstURL, Page: 1}
		page.Links.Prev = gateway.PageLink{URL: prevURL, Page: pageNo - 1}
	}
	return page, nil
}

// syntheticDates builds n reverse-chronological dates with perDay items per
// day and dayStep days between consecutive days (dayStep > 1 leaves gaps).
func syntheticDates(n, perDay, dayStep int) []time.Time {
	base := day("2021-12-31")
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = base.AddDate(0, 0, -dayStep*(i/perDay))
	}
	return dates
}

// candidateDays returns every distinct day in the list plus one day on each
// side of the full range and, for gapped data, days between the used ones.
func candidateDays(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	newest, oldest := dates[0], dates[len(dates)-1]
	var days []time.Time
	for d := oldest.AddDate(0, 0, -1); !d.After(newest.AddDate(0, 0, 1)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func bruteCountAsOf(dates []time.Time, asOf time.Time) int {
	n := 0
	for _, d := range dates {
		if !d.After(asOf) {
			n++
		}
	}
	return n
}

func bruteCountOn(dates []time.Time, target time.Time) int {
	n := 0
	for _, d := range dates {
		if d.Equal(target) {
			n++
		}
	}
	return n
}

func newTestCounter(listing *fakeListing) *Counter {
	return NewCounter(listing, log.New(io.Discard, "", 0))
}

// TestCounter_CountAsOf_AgreesWithBruteForce exercises the optimized counter
// against a naive full scan at every boundary date: before all items, after
// all items, on each item's day, and in the gaps between days.
func TestCounter_CountAsOf_AgreesWithBruteForce(t *testing.T) {
	testCases := []struct {
		name    string
		n       int
		perDay  int
		dayStep int
	}{
		{name: "single page", n: 50, perDay: 2, dayStep: 1},
		{name: "three pages with ties across boundaries", n: 237, perDay: 3, dayStep: 1},
		{name: "exact page multiple", n: 300, perDay: 7, dayStep: 1},
		{name: "gapped days", n: 250, perDay: 4, dayStep: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dates := syntheticDates(tc.n, tc.perDay, tc.dayStep)
			endpoint := domain.Commits.ListingPath("acme", "widgets")
			for _, asOf := range candidateDays(dates) {
				listing := &fakeListing{dates: dates}
				counter := newTestCounter(listing)
				got, err := counter.CountAsOf(context.Background(), domain.Commits, endpoint, asOf)
				require.NoError(t, err, "asOf=%s", domain.FormatDay(asOf))
				assert.Equal(t, bruteCountAsOf(dates, asOf), got, "asOf=%s", domain.FormatDay(asOf))
			}
		})
	}
}

// TestCounter_CountAsOf_SkipsMiddlePages checks the optimization claim: for a
// recent cutoff only page 1 and the last page are fetched, regardless of how
// many pages sit between them.
func TestCounter_CountAsOf_SkipsMiddlePages(t *testing.T) {
	dates := syntheticDates(1000, 1, 1) // ten pages, one item per day
	listing := &fakeListing{dates: dates}
	counter := newTestCounter(listing)
	endpoint := domain.Commits.ListingPath("acme", "widgets")

	got, err := counter.CountAsOf(context.Background(), domain.Commits, endpoint, dates[0])
	require.NoError(t, err)
	assert.Equal(t, 1000, got)
	assert.LessOrEqual(t, listing.fetchCount, 2)
}

func TestCounter_CountAsOf_TerminalAndErrorStates(t *testing.T) {
	endpoint := domain.Commits.ListingPath("acme", "widgets")
	asOf := day("2021-12-31")

	t.Run("unavailable repository counts zero", func(t *testing.T) {
		counter := newTestCounter(&fakeListing{unavailable: true})
		got, err := counter.CountAsOf(context.Background(), domain.Commits, endpoint, asOf)
		require.NoError(t, err)
		assert.Zero(t, got)
	})
	t.Run("empty listing counts zero", func(t *testing.T) {
		counter := newTestCounter(&fakeListing{})
		got, err := counter.CountAsOf(context.Background(), domain.Commits, endpoint, asOf)
		require.NoError(t, err)
		assert.Zero(t, got)
	})
	t.Run("fetch failure fails the count", func(t *testing.T) {
		counter := newTestCounter(&fakeListing{fetchErr: errors.New("unexpected status 502")})
		_, err := counter.CountAsOf(context.Background(), domain.Commits, endpoint, asOf)
		assert.Error(t, err)
	})
	t.Run("cancelled context fails the count", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		counter := newTestCounter(&fakeListing{dates: syntheticDates(10, 1, 1)})
		_, err := counter.CountAsOf(ctx, domain.Commits, endpoint, asOf)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestCounter_CountOnDate_AgreesWithBruteForce exercises the binary search
// against a naive scan, including dates that match nothing (which must
// return zero rather than loop).
func TestCounter_CountOnDate_AgreesWithBruteForce(t *testing.T) {
	testCases := []struct {
		name    string
		n       int
		perDay  int
		dayStep int
	}{
		{name: "single page", n: 50, perDay: 2, dayStep: 1},
		{name: "three pages with ties across boundaries", n: 237, perDay: 3, dayStep: 1},
		{name: "slice spanning multiple pages", n: 500, perDay: 150, dayStep: 1},
		{name: "gapped days with zero-match targets", n: 250, perDay: 4, dayStep: 3},
		{name: "deep listing", n: 1000, perDay: 9, dayStep: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dates := syntheticDates(tc.n, tc.perDay, tc.dayStep)
			endpoint := domain.Issues.ListingPath("acme", "widgets")
			for _, target := range candidateDays(dates) {
				listing := &fakeListing{dates: dates}
				counter := newTestCounter(listing)
				got, err := counter.CountOnDate(context.Background(), domain.Issues, endpoint, target)
				require.NoError(t, err, "target=%s", domain.FormatDay(target))
				assert.Equal(t, bruteCountOn(dates, target), got, "target=%s", domain.FormatDay(target))
			}
		})
	}
}

func TestCounter_CountOnDate_TerminalStates(t *testing.T) {
	endpoint := domain.Issues.ListingPath("acme", "widgets")

	t.Run("unavailable repository counts zero", func(t *testing.T) {
		counter := newTestCounter(&fakeListing{unavailable: true})
		got, err := counter.CountOnDate(context.Background(), domain.Issues, endpoint, day("2021-06-01"))
		require.NoError(t, err)
		assert.Zero(t, got)
	})
	t.Run("fetch failure fails the count", func(t *testing.T) {
		counter := newTestCounter(&fakeListing{fetchErr: errors.New("unexpected status 502")})
		_, err := counter.CountOnDate(context.Background(), domain.Issues, endpoint, day("2021-06-01"))
		assert.Error(t, err)
	})
}
