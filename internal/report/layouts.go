package report

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

const (
	SummaryPrefix        = "coding_standards_report_"
	AnalysisPrefix       = "repository_analysis_report_"
	IssuesSummaryPrefix  = "issues_summary_report_"
	DetailedIssuesPrefix = "detailed_issues_report_"

	errorCell      = "Error"
	notAvailable   = "N/A"
	notAnalyzedMsg = "Repository not analyzed"
	noRepositories = "No repositories"
)

var (
	summaryHeader = []string{
		"Coding Standard", "Repository", "Error Issues", "Warning Issues", "Info Issues", "Total Issues",
	}
	analysisHeader = []string{
		"Coding Standard", "Repository", "Grade", "Grade %", "Total Issues", "Coverage %",
		"Complex Files", "Duplication %", "Lines of Code", "Error",
	}
	issuesSummaryHeader = []string{
		"Coding Standard", "Repository", "Total Issues", "Error", "Warning", "Info",
	}
	detailedIssuesHeader = []string{
		"Coding Standard", "Repository", "File", "Line", "Issue ID", "Pattern", "Category",
		"Level", "Message", "Author", "Created At",
	}
)

// rowsFunc renders the rows of one repository and the outcome recorded for it
type rowsFunc func(ctx context.Context, std domain.CodingStandard, repo domain.RepositoryRef) ([][]string, domain.RepositoryOutcome)

// layout is everything that differs between report kinds
type layout struct {
	prefix string
	header []string
	// placeholder renders the row for a standard with no repositories; nil skips the standard
	placeholder func(std domain.CodingStandard) []string
	skipUnnamed bool
	rows        rowsFunc
}

func (g *Generator) layoutFor(kind domain.ReportKind) (layout, error) {
	switch kind {
	case domain.ReportKindSummary:
		return layout{
			prefix:      SummaryPrefix,
			header:      summaryHeader,
			placeholder: summaryPlaceholder,
			rows:        g.summaryRows,
		}, nil
	case domain.ReportKindAnalysis:
		return layout{
			prefix:      AnalysisPrefix,
			header:      analysisHeader,
			placeholder: analysisPlaceholder,
			rows:        g.analysisRows,
		}, nil
	case domain.ReportKindIssues:
		if g.opts.Quick {
			return layout{
				prefix:      IssuesSummaryPrefix,
				header:      issuesSummaryHeader,
				skipUnnamed: true,
				rows:        g.issuesSummaryRows,
			}, nil
		}
		return layout{
			prefix:      DetailedIssuesPrefix,
			header:      detailedIssuesHeader,
			skipUnnamed: true,
			rows:        g.detailedIssuesRows,
		}, nil
	default:
		return layout{}, fmt.Errorf("unknown report kind: %q", kind)
	}
}

func outcome(std domain.CodingStandard, repo domain.RepositoryRef, status domain.OutcomeStatus) domain.RepositoryOutcome {
	return domain.RepositoryOutcome{
		Standard:   std.Name,
		Repository: repo.Name,
		Status:     status,
	}
}

func failed(std domain.CodingStandard, repo domain.RepositoryRef, err error) domain.RepositoryOutcome {
	o := outcome(std, repo, domain.OutcomeError)
	o.Message = err.Error()
	return o
}

// issueSummary picks the server-side counts in quick mode and the full walk otherwise
func (g *Generator) issueSummary(ctx context.Context, repo string) (domain.IssueCountSummary, error) {
	if g.opts.Quick {
		return g.api.SearchIssueSummary(ctx, repo, g.opts.Filter)
	}
	return g.api.CountIssuesBySeverity(ctx, repo)
}

func summaryPlaceholder(std domain.CodingStandard) []string {
	return []string{std.Name, noRepositories, "0", "0", "0", "0"}
}

func (g *Generator) summaryRows(ctx context.Context, std domain.CodingStandard, repo domain.RepositoryRef) ([][]string, domain.RepositoryOutcome) {
	summary, err := g.issueSummary(ctx, repo.Name)
	if err != nil {
		return [][]string{{std.Name, repo.Name, errorCell, errorCell, errorCell, errorCell}}, failed(std, repo, err)
	}

	o := outcome(std, repo, domain.OutcomeOK)
	o.TotalIssues = summary.Total
	return [][]string{{
		std.Name,
		repo.Name,
		strconv.Itoa(summary.Count(domain.SeverityError)),
		strconv.Itoa(summary.Count(domain.SeverityWarning)),
		strconv.Itoa(summary.Count(domain.SeverityInfo)),
		strconv.Itoa(summary.Total),
	}}, o
}

func analysisPlaceholder(std domain.CodingStandard) []string {
	return []string{std.Name, noRepositories, notAvailable, "0", "0", "0", "0", "0", "0", ""}
}

func (g *Generator) analysisRows(ctx context.Context, std domain.CodingStandard, repo domain.RepositoryRef) ([][]string, domain.RepositoryOutcome) {
	result, err := g.api.GetRepositoryAnalysis(ctx, repo.Name)
	if err != nil {
		return [][]string{{std.Name, repo.Name, errorCell, "", "", "", "", "", "", err.Error()}}, failed(std, repo, err)
	}

	if result.NotAnalyzed() || result.Snapshot == nil {
		o := outcome(std, repo, domain.OutcomeNotAnalyzed)
		o.Message = notAnalyzedMsg
		return [][]string{{
			std.Name, repo.Name,
			notAvailable, notAvailable, notAvailable, notAvailable, notAvailable, notAvailable, notAvailable,
			notAnalyzedMsg,
		}}, o
	}

	s := result.Snapshot
	o := outcome(std, repo, domain.OutcomeOK)
	o.TotalIssues = s.IssuesCount
	return [][]string{{
		std.Name,
		repo.Name,
		s.GradeLetter,
		strconv.Itoa(s.Grade),
		strconv.Itoa(s.IssuesCount),
		strconv.FormatFloat(s.CoveragePercentage, 'f', 2, 64),
		strconv.Itoa(s.ComplexFilesCount),
		strconv.FormatFloat(s.DuplicationPercentage, 'f', 2, 64),
		strconv.Itoa(s.LinesOfCode),
		"",
	}}, o
}

func (g *Generator) issuesSummaryRows(ctx context.Context, std domain.CodingStandard, repo domain.RepositoryRef) ([][]string, domain.RepositoryOutcome) {
	summary, err := g.api.SearchIssueSummary(ctx, repo.Name, g.opts.Filter)
	if err != nil {
		return [][]string{{std.Name, repo.Name, errorCell, err.Error(), "", ""}}, failed(std, repo, err)
	}

	o := outcome(std, repo, domain.OutcomeOK)
	o.TotalIssues = summary.Total
	return [][]string{{
		std.Name,
		repo.Name,
		strconv.Itoa(summary.Total),
		strconv.Itoa(summary.Count(domain.SeverityError)),
		strconv.Itoa(summary.Count(domain.SeverityWarning)),
		strconv.Itoa(summary.Count(domain.SeverityInfo)),
	}}, o
}

func (g *Generator) detailedIssuesRows(ctx context.Context, std domain.CodingStandard, repo domain.RepositoryRef) ([][]string, domain.RepositoryOutcome) {
	issues, err := g.api.SearchIssues(ctx, repo.Name, g.opts.Filter)
	if err != nil {
		return [][]string{{std.Name, repo.Name, errorCell, "", "", "", "", "", err.Error(), "", ""}}, failed(std, repo, err)
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{
			std.Name,
			repo.Name,
			issue.FilePath,
			strconv.Itoa(issue.LineNumber),
			issue.IssueID,
			issue.PatternID,
			issue.Category,
			string(issue.Level),
			issue.Message,
			issue.AuthorName,
			issue.CreatedAt,
		})
	}

	o := outcome(std, repo, domain.OutcomeOK)
	o.TotalIssues = len(issues)
	return rows, o
}
