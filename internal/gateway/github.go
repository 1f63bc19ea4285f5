// Package gateway provides authenticated access to the GitHub REST API,
// including the raw page-level fetches the counting algorithms are built on.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/microsoft/ghcrawler-datalake-etl/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	acceptV3       = "application/vnd.github.v3+json"

	// Written to the rate-limit gauges on the rare responses that omit the
	// rate-limit headers, so monitoring shows it happened without failing
	// a long-running batch.
	rateLimitUnknown = 999999
)

// ErrRepoUnavailable marks the recognized terminal listing states: the
// repository is empty, archived without content, or gone. Counters treat it
// as a valid zero-count result rather than a failure.
var ErrRepoUnavailable = errors.New("repository is empty or does not exist")

// Page is one fetched page of a counted listing: the per-item dates in the
// server's reverse-chronological order, plus the pagination relations.
type Page struct {
	Dates []time.Time
	Links PageLinks
}

// PageFetcher is the page-level primitive the counters consume.
type PageFetcher interface {
	FetchItemDates(ctx context.Context, kind domain.EntityKind, endpoint string) (Page, error)
}

// Client is the concrete GitHub gateway. It combines a raw authenticated
// HTTP client (for page-addressed listing fetches) with a typed go-github
// client (for repository listings), both sharing one transport.
type Client struct {
	http    *http.Client
	rest    *github.Client
	baseURL string
	logger  *log.Logger

	mu            sync.Mutex
	lastRateLimit int
	lastRemaining int
}

// NewClient builds a Client whose transport layers token authentication over
// the secondary-rate-limit waiter, with a per-request timeout.
func NewClient(token string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   waiter,
			Source: ts,
		},
		Timeout: timeout,
	}
	return &Client{
		http:    httpClient,
		rest:    github.NewClient(httpClient),
		baseURL: defaultBaseURL,
		logger:  logger,
	}, nil
}

// RateLimit returns the limit and remaining quota seen on the most recent
// API response.
func (c *Client) RateLimit() (limit, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRateLimit, c.lastRemaining
}

func (c *Client) trackRateLimit(h http.Header) {
	limit, errL := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	remaining, errR := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if errL != nil || errR != nil {
		limit, remaining = rateLimitUnknown, rateLimitUnknown
	}
	c.mu.Lock()
	c.lastRateLimit = limit
	c.lastRemaining = remaining
	c.mu.Unlock()
	if remaining == 0 {
		c.logger.Println("WARNING: API rate limit exhausted")
	}
}

// get issues one authenticated GET. Endpoints starting with / are resolved
// against the API base URL; full URLs (e.g. from Link headers) pass through.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, []byte, error) {
	full := endpoint
	if strings.HasPrefix(endpoint, "/") {
		full = c.baseURL + endpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", acceptV3)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}
	c.trackRateLimit(resp.Header)
	return resp, body, nil
}

// unavailablePayload reports whether an error payload describes an empty or
// deleted repository. GitHub signals these with a message object rather than
// the expected item array.
func unavailablePayload(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	lower := strings.ToLower(string(trimmed))
	return strings.Contains(lower, "git repository is empty") ||
		strings.Contains(lower, "not found")
}

// FetchItemDates fetches a single page of a counted listing and parses the
// item dates for the given entity kind. An empty or missing repository yields
// ErrRepoUnavailable; any other non-OK status is a hard error so a failed
// fetch can never masquerade as a zero count.
func (c *Client) FetchItemDates(ctx context.Context, kind domain.EntityKind, endpoint string) (Page, error) {
	resp, body, err := c.get(ctx, endpoint)
	if err != nil {
		return Page{}, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusConflict:
		// 409 is GitHub's "Git Repository is empty" on commit listings.
		return Page{}, ErrRepoUnavailable
	default:
		return Page{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		// Rarely the API returns an empty body for a valid repository.
		return Page{}, nil
	}
	if unavailablePayload(body) {
		return Page{}, ErrRepoUnavailable
	}
	dates, err := kind.ItemDates(body)
	if err != nil {
		return Page{}, fmt.Errorf("page %s: %w", endpoint, err)
	}
	return Page{
		Dates: dates,
		Links: ParseLinkHeader(resp.Header.Get("Link")),
	}, nil
}

// FetchAllPages retrieves every page of a listing by following rel=next
// links and concatenates the raw items in server order. Empty and missing
// repositories yield an empty result.
func (c *Client) FetchAllPages(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	pageEndpoint := endpoint
	for {
		resp, body, err := c.get(ctx, pageEndpoint)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict {
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageEndpoint)
		}
		if len(bytes.TrimSpace(body)) == 0 || unavailablePayload(body) {
			return items, nil
		}
		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", pageEndpoint, err)
		}
		items = append(items, page...)

		links := ParseLinkHeader(resp.Header.Get("Link"))
		if links.Next.URL == "" {
			return items, nil
		}
		pageEndpoint = links.Next.URL
		c.logger.Printf("  Fetching next page (%d items so far)...", len(items))
	}
}

// FetchUserOrgs lists the organizations the authenticated user belongs to,
// lowercased and sorted. The contoso* demo organizations are skipped.
func (c *Client) FetchUserOrgs(ctx context.Context) ([]string, error) {
	items, err := c.FetchAllPages(ctx, "/user/orgs?per_page=100")
	if err != nil {
		return nil, fmt.Errorf("failed to list user orgs: %w", err)
	}
	var orgs []string
	for _, item := range items {
		var org struct {
			Login string `json:"login"`
		}
		if err := json.Unmarshal(item, &org); err != nil {
			return nil, fmt.Errorf("failed to parse org entry: %w", err)
		}
		login := strings.ToLower(org.Login)
		if login == "" || strings.HasPrefix(login, "contoso") {
			continue
		}
		orgs = append(orgs, login)
	}
	sort.Strings(orgs)
	return orgs, nil
}

// ListOrgRepos lists an organization's repositories through the typed client
// and normalizes them into RepoRecords.
func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]domain.RepoRecord, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: domain.PageSize},
	}
	var records []domain.RepoRecord
	for {
		repos, resp, err := c.rest.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for org %s: %w", org, err)
		}
		for _, r := range repos {
			created, err := domain.ParseDay(r.GetCreatedAt().Format(time.RFC3339))
			if err != nil {
				return nil, fmt.Errorf("repo %s/%s: %w", org, r.GetName(), err)
			}
			records = append(records, domain.RepoRecord{
				Org:       r.GetOwner().GetLogin(),
				Name:      r.GetName(),
				ID:        strconv.FormatInt(r.GetID(), 10),
				CreatedAt: created,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		c.logger.Printf("  Fetching next page of repos for %s...", org)
	}
	return records, nil
}
