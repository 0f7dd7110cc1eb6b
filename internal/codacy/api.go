package codacy

import (
	"context"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

// API defines the Codacy queries the reports are built from
type API interface {
	// GetCodingStandards retrieves the non-draft coding standards of the organization
	GetCodingStandards(ctx context.Context) ([]domain.CodingStandard, error)

	// GetRepositoriesForStandard retrieves the repositories bound to a coding standard
	GetRepositoriesForStandard(ctx context.Context, standardID int64) ([]domain.RepositoryRef, error)

	// CountIssuesBySeverity walks every issue of a repository and counts them per severity
	CountIssuesBySeverity(ctx context.Context, repo string) (domain.IssueCountSummary, error)

	// SearchIssueSummary reads server-side issue counts for a repository in a single request
	SearchIssueSummary(ctx context.Context, repo string, filter domain.Filter) (domain.IssueCountSummary, error)

	// SearchIssues retrieves every issue of a repository matching filter
	SearchIssues(ctx context.Context, repo string, filter domain.Filter) ([]domain.IssueRecord, error)

	// GetRepositoryAnalysis retrieves the latest analysis snapshot of a repository
	GetRepositoryAnalysis(ctx context.Context, repo string) (domain.AnalysisResult, error)
}
