// Package usecase contains the business logic of the application: the
// date-bounded counters, the two-dataset reconciler, and the audit runner.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
	"github.com/microsoft/ghcrawler-datalake-etl/internal/gateway"
)

// ErrCountUndetermined is returned when the exact-date search revisits a page.
// That only happens when the listing violates the reverse-chronological
// ordering the search depends on, so the query is abandoned rather than
// risking an endless narrowing loop.
var ErrCountUndetermined = errors.New("could not determine count")

// Counter computes cumulative and exact-date item counts over a paginated,
// reverse-chronological listing without fetching every page.
type Counter struct {
	fetcher  gateway.PageFetcher
	pageSize int
	logger   *log.Logger
}

// NewCounter creates a Counter on top of a page fetcher.
func NewCounter(fetcher gateway.PageFetcher, logger *log.Logger) *Counter {
	return &Counter{
		fetcher:  fetcher,
		pageSize: domain.PageSize,
		logger:   logger,
	}
}

// countOnOrBefore counts the dates on a page that fall on or before the cutoff.
func countOnOrBefore(dates []time.Time, asOf time.Time) int {
	n := 0
	for _, d := range dates {
		if !d.After(asOf) {
			n++
		}
	}
	return n
}

// countEqual counts the dates on a page equal to the target day.
func countEqual(dates []time.Time, target time.Time) int {
	n := 0
	for _, d := range dates {
		if d.Equal(target) {
			n++
		}
	}
	return n
}

// CountAsOf returns the cumulative number of items with a date on or before
// asOf. It assumes most items are older than asOf (true when auditing near
// the present), so it inspects page 1, the last page, and walks forward from
// page 1 only until it crosses the cutoff. Every page strictly between the
// crossing page and the last page is entirely older than asOf and contributes
// a full page of items without being fetched. For an asOf far in the past the
// walk degrades to visiting every page.
func (c *Counter) CountAsOf(ctx context.Context, kind domain.EntityKind, endpoint string, asOf time.Time) (int, error) {
	first, err := c.fetchPage(ctx, kind, endpoint)
	if errors.Is(err, gateway.ErrRepoUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(first.Dates) == 0 {
		return 0, nil
	}

	countFirst := countOnOrBefore(first.Dates, asOf)
	total := first.Links.Last.Page
	if total == 0 {
		// Single page of results.
		return countFirst, nil
	}

	last, err := c.fetchPage(ctx, kind, first.Links.Last.URL)
	if err != nil {
		return 0, err
	}
	countLast := countOnOrBefore(last.Dates, asOf)
	if countLast == 0 {
		// The oldest items are already newer than asOf.
		return 0, nil
	}

	// Walk forward from page 1 until the oldest item on the page crosses
	// the cutoff.
	pageNo := 1
	dates := first.Dates
	for pageNo < total && dates[len(dates)-1].After(asOf) {
		pageNo++
		pageURL, err := gateway.PageEndpoint(endpoint, pageNo)
		if err != nil {
			return 0, err
		}
		page, err := c.fetchPage(ctx, kind, pageURL)
		if err != nil {
			return 0, err
		}
		if len(page.Dates) == 0 {
			return 0, fmt.Errorf("empty page %d in %d-page listing %s", pageNo, total, endpoint)
		}
		dates = page.Dates
		countFirst = countOnOrBefore(dates, asOf)
	}
	if pageNo == total {
		// The walk reached the last page: the crossing page and the last
		// page are the same, so its count stands alone.
		return countLast, nil
	}
	return (total-pageNo-1)*c.pageSize + countFirst + countLast, nil
}

// CountOnDate returns the number of items dated exactly on target. Unlike
// CountAsOf the matching slice can sit anywhere in the listing, so the search
// binary-searches page numbers, keeping pageBefore (known entirely newer than
// target) and pageAfter (known entirely older) as a shrinking bracket. When a
// page intersecting the target is found, its matches are counted and the scan
// extends onto adjacent pages only when the slice runs exactly to a page edge.
func (c *Counter) CountOnDate(ctx context.Context, kind domain.EntityKind, endpoint string, target time.Time) (int, error) {
	first, err := c.fetchPage(ctx, kind, endpoint)
	if errors.Is(err, gateway.ErrRepoUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(first.Dates) == 0 {
		return 0, nil
	}
	total := first.Links.Last.Page
	if total == 0 {
		return countEqual(first.Dates, target), nil
	}

	pageBefore := 0         // highest page known to be entirely newer than target
	pageAfter := total + 1  // lowest page known to be entirely older than target
	visited := map[int]bool{}
	pageNo := 1
	page := first

	for {
		if visited[pageNo] {
			return 0, fmt.Errorf("%w: revisited page %d of %s", ErrCountUndetermined, pageNo, endpoint)
		}
		visited[pageNo] = true
		if len(page.Dates) == 0 {
			return 0, fmt.Errorf("empty page %d in %d-page listing %s", pageNo, total, endpoint)
		}

		highest := page.Dates[0]                 // newest item on the page
		lowest := page.Dates[len(page.Dates)-1]  // oldest item on the page

		switch {
		case highest.Before(target):
			// Entire page is older than target; look toward page 1.
			pageAfter = pageNo
			pageNo = (pageBefore + pageNo) / 2
		case lowest.After(target):
			// Entire page is newer than target; look toward the last page.
			pageBefore = pageNo
			pageNo = (pageNo + pageAfter) / 2
		default:
			return c.countAcrossEdges(ctx, kind, endpoint, target, pageNo, total, page)
		}

		if pageNo <= pageBefore || pageNo >= pageAfter {
			// Bracket collapsed without finding an intersecting page:
			// no item carries the target date.
			return 0, nil
		}
		pageURL, err := gateway.PageEndpoint(endpoint, pageNo)
		if err != nil {
			return 0, err
		}
		page, err = c.fetchPage(ctx, kind, pageURL)
		if err != nil {
			return 0, err
		}
	}
}

// countAcrossEdges counts target-dated items on an intersecting page and on
// any adjacent pages the slice spills onto. The slice continues past a page
// only when the date on that page's edge equals the target exactly.
func (c *Counter) countAcrossEdges(ctx context.Context, kind domain.EntityKind, endpoint string, target time.Time, pageNo, total int, page gateway.Page) (int, error) {
	count := countEqual(page.Dates, target)

	// Newer items live on lower page numbers.
	if page.Dates[0].Equal(target) {
		for p := pageNo - 1; p >= 1; p-- {
			prev, err := c.fetchNumberedPage(ctx, kind, endpoint, p)
			if err != nil {
				return 0, err
			}
			count += countEqual(prev.Dates, target)
			if len(prev.Dates) == 0 || !prev.Dates[0].Equal(target) {
				break
			}
		}
	}
	// Older items live on higher page numbers.
	if page.Dates[len(page.Dates)-1].Equal(target) {
		for p := pageNo + 1; p <= total; p++ {
			next, err := c.fetchNumberedPage(ctx, kind, endpoint, p)
			if err != nil {
				return 0, err
			}
			count += countEqual(next.Dates, target)
			if len(next.Dates) == 0 || !next.Dates[len(next.Dates)-1].Equal(target) {
				break
			}
		}
	}
	return count, nil
}

func (c *Counter) fetchNumberedPage(ctx context.Context, kind domain.EntityKind, endpoint string, pageNo int) (gateway.Page, error) {
	pageURL, err := gateway.PageEndpoint(endpoint, pageNo)
	if err != nil {
		return gateway.Page{}, err
	}
	return c.fetchPage(ctx, kind, pageURL)
}

func (c *Counter) fetchPage(ctx context.Context, kind domain.EntityKind, endpoint string) (gateway.Page, error) {
	if err := ctx.Err(); err != nil {
		return gateway.Page{}, err
	}
	return c.fetcher.FetchItemDates(ctx, kind, endpoint)
}
