package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

func TestCountBySeverity(t *testing.T) {
	issues := []domain.IssueRecord{
		{Level: domain.SeverityError},
		{Level: domain.SeverityError},
		{Level: domain.SeverityWarning},
		{Level: domain.SeverityInfo},
		{Level: domain.Severity("Unknown")},
	}

	summary := CountBySeverity(issues)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Count(domain.SeverityError))
	assert.Equal(t, 1, summary.Count(domain.SeverityWarning))
	assert.Equal(t, 1, summary.Count(domain.SeverityInfo))
}

func TestCountBySeverity_Empty(t *testing.T) {
	summary := CountBySeverity(nil)

	assert.Equal(t, 0, summary.Total)
	assert.NotNil(t, summary.Counts)
}

func TestSummarizeOutcomes(t *testing.T) {
	outcomes := []domain.RepositoryOutcome{
		{Standard: "default", Repository: "repo-a", Status: domain.OutcomeOK, TotalIssues: 10},
		{Standard: "backend", Repository: "No repositories", Status: domain.OutcomeNoRepositories},
		{Standard: "default", Repository: "repo-b", Status: domain.OutcomeError},
		{Standard: "default", Repository: "repo-c", Status: domain.OutcomeNotAnalyzed},
		{Standard: "default", Repository: "repo-d", Status: domain.OutcomeOK, TotalIssues: 5},
	}

	totals := SummarizeOutcomes(outcomes)

	require.Len(t, totals.Standards, 2)
	assert.Equal(t, StandardTotals{Standard: "default", Repositories: 4, Issues: 15, Errors: 1, NotAnalyzed: 1}, totals.Standards[0])
	assert.Equal(t, StandardTotals{Standard: "backend"}, totals.Standards[1])
	assert.Equal(t, 4, totals.Repositories)
	assert.Equal(t, int64(15), totals.Issues)
	assert.Equal(t, 1, totals.Errors)
	assert.Equal(t, 1, totals.NotAnalyzed)
}
