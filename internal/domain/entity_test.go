package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected EntityKind
		ok       bool
	}{
		{input: "commits", expected: Commits, ok: true},
		{input: "issues", expected: Issues, ok: true},
		{input: "pulls", expected: PullRequests, ok: true},
		{input: "pullrequests", expected: PullRequests, ok: true},
		{input: "Commits", ok: false},
		{input: "releases", ok: false},
		{input: "", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			kind, err := ParseEntityKind(tc.input)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kind)
		})
	}
}

func TestEntityKind_ListingPath(t *testing.T) {
	assert.Equal(t, "/repos/acme/widgets/commits?per_page=100&page=1",
		Commits.ListingPath("acme", "widgets"))
	assert.Equal(t, "/repos/acme/widgets/issues?filter=all&state=all&per_page=100&page=1",
		Issues.ListingPath("acme", "widgets"))
	assert.Equal(t, "/repos/acme/widgets/pulls?state=all&per_page=100&page=1",
		PullRequests.ListingPath("acme", "widgets"))
}

func TestEntityKind_ItemDates(t *testing.T) {
	testCases := []struct {
		name        string
		kind        EntityKind
		body        string
		expected    []string
		expectError bool
	}{
		{
			name: "commit dates come from the committer",
			kind: Commits,
			body: `[
				{"commit": {"committer": {"date": "2021-06-02T10:00:00Z"}}},
				{"commit": {"committer": {"date": "2021-06-01T23:59:59Z"}}}
			]`,
			expected: []string{"2021-06-02", "2021-06-01"},
		},
		{
			name:     "issue dates come from created_at",
			kind:     Issues,
			body:     `[{"created_at": "2020-12-31T00:00:00Z"}]`,
			expected: []string{"2020-12-31"},
		},
		{
			name:     "pull request dates come from created_at",
			kind:     PullRequests,
			body:     `[{"created_at": "2019-07-07T12:00:00Z"}]`,
			expected: []string{"2019-07-07"},
		},
		{
			name:     "empty page yields no dates",
			kind:     Commits,
			body:     `[]`,
			expected: []string{},
		},
		{
			name:        "non-array body is an error",
			kind:        Commits,
			body:        `{"message": "moved"}`,
			expectError: true,
		},
		{
			name:        "missing timestamp is an error",
			kind:        Commits,
			body:        `[{"commit": {}}]`,
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dates, err := tc.kind.ItemDates([]byte(tc.body))
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			rendered := make([]string, 0, len(dates))
			for _, d := range dates {
				rendered = append(rendered, FormatDay(d))
			}
			assert.Equal(t, tc.expected, rendered)
		})
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2021-06-02T10:20:30Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDay("2021-06-02 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2021-06-02", FormatDay(d))

	_, err = ParseDay("junk")
	assert.Error(t, err)
	_, err = ParseDay("2021-6-2")
	assert.Error(t, err)
}
