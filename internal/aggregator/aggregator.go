package aggregator

import (
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

// StandardTotals represents aggregated outcomes for one coding standard of a run
type StandardTotals struct {
	Standard     string
	Repositories int
	Issues       int64
	Errors       int
	NotAnalyzed  int
}

// RunTotals represents aggregated outcomes across a whole run
type RunTotals struct {
	Standards    []StandardTotals
	Repositories int
	Issues       int64
	Errors       int
	NotAnalyzed  int
}

// CountBySeverity tallies issues per known severity.
// Issues with an unknown level are ignored and Total is the sum of the known counts.
func CountBySeverity(issues []domain.IssueRecord) domain.IssueCountSummary {
	summary := domain.NewIssueCountSummary()
	for _, issue := range issues {
		sev, ok := domain.ParseSeverity(string(issue.Level))
		if !ok {
			continue
		}
		summary.Counts[sev]++
		summary.Total++
	}
	return summary
}

// SummarizeOutcomes groups repository outcomes by coding standard, keeping first-seen order
func SummarizeOutcomes(outcomes []domain.RepositoryOutcome) RunTotals {
	var totals RunTotals
	index := make(map[string]int)

	for _, o := range outcomes {
		i, ok := index[o.Standard]
		if !ok {
			i = len(totals.Standards)
			index[o.Standard] = i
			totals.Standards = append(totals.Standards, StandardTotals{Standard: o.Standard})
		}
		st := &totals.Standards[i]

		// Placeholder rows for standards without repositories carry no repository
		if o.Status == domain.OutcomeNoRepositories {
			continue
		}

		st.Repositories++
		totals.Repositories++
		st.Issues += int64(o.TotalIssues)
		totals.Issues += int64(o.TotalIssues)

		switch o.Status {
		case domain.OutcomeError:
			st.Errors++
			totals.Errors++
		case domain.OutcomeNotAnalyzed:
			st.NotAnalyzed++
			totals.NotAnalyzed++
		}
	}

	return totals
}
