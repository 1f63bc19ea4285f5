// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityKind identifies one of the paginated GitHub listings that can be
// counted against the warehouse. It is a closed enumeration so that adding a
// kind forces every switch over it to be revisited.
type EntityKind int

const (
	Commits EntityKind = iota
	Issues
	PullRequests
)

// ParseEntityKind maps a CLI/config string onto an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "commits":
		return Commits, nil
	case "issues":
		return Issues, nil
	case "pulls", "pullrequests":
		return PullRequests, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q (expected commits, issues, or pulls)", s)
}

func (k EntityKind) String() string {
	switch k {
	case Commits:
		return "commits"
	case Issues:
		return "issues"
	case PullRequests:
		return "pulls"
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

// PageSize is the fixed page size used for all counted listings. The counting
// algorithms rely on every page except the last holding exactly this many items.
const PageSize = 100

// ListingPath returns the page-1 API path for this kind of listing on an
// org/repo. Issues use filter=all&state=all so closed items are included,
// matching what the warehouse replicates.
func (k EntityKind) ListingPath(org, repo string) string {
	base := fmt.Sprintf("/repos/%s/%s", org, repo)
	switch k {
	case Commits:
		return fmt.Sprintf("%s/commits?per_page=%d&page=1", base, PageSize)
	case Issues:
		return fmt.Sprintf("%s/issues?filter=all&state=all&per_page=%d&page=1", base, PageSize)
	case PullRequests:
		return fmt.Sprintf("%s/pulls?state=all&per_page=%d&page=1", base, PageSize)
	}
	return base
}

// commitItem and createdItem are the minimal shapes needed to pull a
// timestamp out of a listing payload. Commits carry their date under
// commit.committer; issues and pull requests under created_at.
type commitItem struct {
	Commit struct {
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type createdItem struct {
	CreatedAt string `json:"created_at"`
}

// ItemDates parses a listing page body into the per-item calendar dates,
// truncated to day granularity, preserving the server's ordering.
func (k EntityKind) ItemDates(body []byte) ([]time.Time, error) {
	switch k {
	case Commits:
		var items []commitItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to parse commits page: %w", err)
		}
		dates := make([]time.Time, 0, len(items))
		for _, item := range items {
			d, err := ParseDay(item.Commit.Committer.Date)
			if err != nil {
				return nil, err
			}
			dates = append(dates, d)
		}
		return dates, nil
	case Issues, PullRequests:
		var items []createdItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to parse %s page: %w", k, err)
		}
		dates := make([]time.Time, 0, len(items))
		for _, item := range items {
			d, err := ParseDay(item.CreatedAt)
			if err != nil {
				return nil, err
			}
			dates = append(dates, d)
		}
		return dates, nil
	}
	return nil, fmt.Errorf("no date extractor for %s", k)
}

const dayLayout = "2006-01-02"

// ParseDay parses the leading YYYY-MM-DD of a timestamp string into a
// day-granularity UTC time. API timestamps are RFC3339; warehouse timestamps
// vary in their time-of-day suffix, so only the date portion is read.
func ParseDay(s string) (time.Time, error) {
	if len(s) < len(dayLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	d, err := time.ParseInLocation(dayLayout, s[:len(dayLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDay renders a day-granularity time back to YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}
