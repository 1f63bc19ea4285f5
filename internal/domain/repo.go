package domain

import (
	"strings"
	"time"
)

// RepoRecord is one repository as described by either data source: the
// warehouse snapshot or the live API. Org and Name compare case-insensitively;
// ID is the stable repository identifier when the source provides one.
type RepoRecord struct {
	Org       string
	Name      string
	ID        string
	CreatedAt time.Time
}

// Key returns the identity key used to match records across sources.
// When useID is true the stable identifier is used, which survives repository
// renames; otherwise matching falls back to the (org, name) pair.
func (r RepoRecord) Key(useID bool) string {
	org := strings.ToUpper(r.Org)
	if useID && r.ID != "" {
		return org + "\x00" + r.ID
	}
	return org + "\x00" + strings.ToLower(r.Name)
}

// Slug returns the lowercased org/name form used to key warehouse totals.
func (r RepoRecord) Slug() string {
	return strings.ToLower(r.Org) + "/" + strings.ToLower(r.Name)
}

// Totals holds the cumulative activity counts for one repository as of some
// date, as derived from the warehouse daily activity log.
type Totals struct {
	Issues       int
	PullRequests int
	Commits      int
}

// For returns the total for one entity kind.
func (t Totals) For(kind EntityKind) int {
	switch kind {
	case Commits:
		return t.Commits
	case Issues:
		return t.Issues
	case PullRequests:
		return t.PullRequests
	}
	return 0
}

// DiffIssue classifies one reconciliation discrepancy.
type DiffIssue int

const (
	// IssueMissing means the repository exists live but not in the warehouse.
	IssueMissing DiffIssue = iota
	// IssueExtra means the repository exists in the warehouse but not live.
	IssueExtra
	// IssueMismatch means both sources have the repository with differing
	// creation dates.
	IssueMismatch
)

func (i DiffIssue) String() string {
	switch i {
	case IssueMissing:
		return "missing"
	case IssueExtra:
		return "extra"
	case IssueMismatch:
		return "mismatch"
	}
	return "unknown"
}

// DiffRow is one row of the reconciliation report.
type DiffRow struct {
	Org       string
	Name      string
	ID        string
	CreatedAt time.Time
	Issue     DiffIssue
}

// DiffReport is the classified outcome of reconciling two repository sets.
// Rows returns them in the fixed report order: all missing, then all extra,
// then all mismatched, each group sorted by (org, name).
type DiffReport struct {
	Missing  []DiffRow
	Extra    []DiffRow
	Mismatch []DiffRow
}

// Rows flattens the report into its deterministic output order.
func (r DiffReport) Rows() []DiffRow {
	rows := make([]DiffRow, 0, len(r.Missing)+len(r.Extra)+len(r.Mismatch))
	rows = append(rows, r.Missing...)
	rows = append(rows, r.Extra...)
	rows = append(rows, r.Mismatch...)
	return rows
}
