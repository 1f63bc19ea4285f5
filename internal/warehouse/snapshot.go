// Package warehouse loads the batch-replicated snapshot files: the repository
// inventory and the daily activity log the audit totals are derived from.
package warehouse

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
)

// Layout identifies which of the two repository CSV shapes a file uses.
type Layout int

const (
	// LayoutWarehouse is the replicated Repo.csv: ISO-8859-2 encoded, quoted,
	// with the repository URN in column 0, name in column 3, org in column 4
	// and creation timestamp in column 5.
	LayoutWarehouse Layout = iota
	// LayoutLive is the CSV written from API data, UTF-8 with a
	// "owner_login,name,id,created_at" header.
	LayoutLive
)

// liveHeader is the header row of LayoutLive files.
const liveHeader = "owner_login,name,id,created_at"

// LoadRepoRecords reads a repository CSV in either layout and returns
// normalized records: org uppercased, name lowercased, creation timestamp
// trimmed to a day. Documentation repositories and repositories created after
// asOf are excluded here, before any comparison sees them. A malformed row is
// logged and skipped; it never fails the whole file.
func LoadRepoRecords(path string, layout Layout, asOf time.Time, logger *log.Logger) ([]domain.RepoRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repo file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if layout == LayoutWarehouse {
		reader = charmap.ISO8859_2.NewDecoder().Reader(f)
	}
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	var records []domain.RepoRecord
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
		if line == 1 && layout == LayoutLive && strings.EqualFold(strings.Join(values, ","), liveHeader) {
			continue
		}
		rec, err := parseRepoRow(values, layout)
		if err != nil {
			logger.Printf("%s line %d: skipping row: %v", path, line, err)
			continue
		}
		if domain.IsDocumentationRepo(rec.Name) {
			continue
		}
		if rec.CreatedAt.After(asOf) {
			// Creation may not be replicated yet; comparing would produce
			// a false missing/extra result.
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRepoRow(values []string, layout Layout) (domain.RepoRecord, error) {
	switch layout {
	case LayoutWarehouse:
		if len(values) < 6 {
			return domain.RepoRecord{}, fmt.Errorf("expected at least 6 columns, got %d", len(values))
		}
		created, err := domain.ParseDay(values[5])
		if err != nil {
			return domain.RepoRecord{}, err
		}
		return domain.RepoRecord{
			Org:       strings.ToUpper(values[4]),
			Name:      strings.ToLower(values[3]),
			ID:        repoIDFromURN(values[0]),
			CreatedAt: created,
		}, nil
	case LayoutLive:
		if len(values) < 4 {
			return domain.RepoRecord{}, fmt.Errorf("expected at least 4 columns, got %d", len(values))
		}
		created, err := domain.ParseDay(values[3])
		if err != nil {
			return domain.RepoRecord{}, err
		}
		return domain.RepoRecord{
			Org:       strings.ToUpper(values[0]),
			Name:      strings.ToLower(values[1]),
			ID:        values[2],
			CreatedAt: created,
		}, nil
	}
	return domain.RepoRecord{}, fmt.Errorf("unknown layout %d", layout)
}

// repoIDFromURN extracts the numeric repository id from the warehouse URN
// form ("urn:repo:<id>"). Anything else passes through unchanged.
func repoIDFromURN(field string) string {
	parts := strings.Split(field, ":")
	if len(parts) >= 3 {
		return parts[2]
	}
	return field
}
