package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDocumentationRepo(t *testing.T) {
	testCases := []struct {
		name     string
		excluded bool
	}{
		{name: "azure-docs-pr.hu-hu", excluded: true},
		{name: "sql-docs.fr-fr", excluded: true},
		{name: "azure-docs-pr", excluded: true},
		{name: "IntuneDocs-pr_Archived", excluded: true},
		{name: "wpf.handoff", excluded: true},
		{name: "wpf.handback", excluded: true},
		{name: "widgets", excluded: false},
		{name: "pr-dashboard", excluded: false},
		{name: "print-service", excluded: false},
		{name: "docs", excluded: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.excluded, IsDocumentationRepo(tc.name))
		})
	}
}
