package domain

import (
	"regexp"
	"strings"
)

// docRepoPatterns is the single authoritative list of name patterns for
// localization/documentation repositories, which are excluded from every
// report. Each pattern notes what it is meant to catch.
var docRepoPatterns = []*regexp.Regexp{
	// localized docs fork, e.g. azure-docs-pr.hu-hu
	regexp.MustCompile(`.*-pr\..{2}-.{2}.*`),
	// locale-suffixed repo, e.g. foo.en-us
	regexp.MustCompile(`.*\..{2}-.{2}.*`),
	// private review fork, e.g. azure-docs-pr
	regexp.MustCompile(`.*-pr$`),
	// localization handoff/handback repos
	regexp.MustCompile(`.*\.handoff.*`),
	regexp.MustCompile(`.*\.handback`),
}

// IsDocumentationRepo reports whether a repository name matches one of the
// documentation-repo patterns. The "-pr_" / "-pr." substring check predates
// the pattern list and catches review forks with arbitrary suffixes.
func IsDocumentationRepo(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "-pr_") || strings.Contains(lower, "-pr.") {
		return true
	}
	for _, re := range docRepoPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
