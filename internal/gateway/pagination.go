package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PageLink is one pagination relation from a Link response header: the URL of
// the related page and its page number, parsed from the page= query parameter.
type PageLink struct {
	URL  string
	Page int
}

// PageLinks holds the four pagination relations GitHub emits. A zero value
// for a relation means the header did not include it; in particular Last.Page
// of zero means the listing fits on a single page.
type PageLinks struct {
	First PageLink
	Prev  PageLink
	Next  PageLink
	Last  PageLink
}

// ParseLinkHeader parses a Link response header of the form
//
//	<url>; rel="next", <url>; rel="last"
//
// into PageLinks. An empty header yields the zero value, not an error.
func ParseLinkHeader(header string) PageLinks {
	var links PageLinks
	if header == "" {
		return links
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		rawURL := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		link := PageLink{URL: rawURL, Page: PageNumber(rawURL)}
		rel := strings.TrimSpace(segments[1])
		rel = strings.TrimPrefix(rel, `rel="`)
		rel = strings.TrimSuffix(rel, `"`)
		switch rel {
		case "first":
			links.First = link
		case "prev":
			links.Prev = link
		case "next":
			links.Next = link
		case "last":
			links.Last = link
		}
	}
	return links
}

// PageEndpoint rewrites the page query parameter of an endpoint so that it
// addresses an arbitrary page of the same listing. This is what allows the
// counters to jump straight to page N without walking there.
func PageEndpoint(endpoint string, page int) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PageNumber reads the page number back out of an endpoint's page query
// parameter. Endpoints without one address page 1.
func PageNumber(endpoint string) int {
	u, err := url.Parse(endpoint)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
