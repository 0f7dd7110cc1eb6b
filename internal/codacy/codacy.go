package codacy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kurihiro0119/codacy-standards-report/internal/aggregator"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
)

// quickLimit is the page size used when only pagination metadata is needed
const quickLimit = 1

// codacyAPI implements API on top of Client
type codacyAPI struct {
	client   *Client
	provider string
	org      string
	pageSize int
}

// NewAPI creates the query layer for one provider/organization pair
func NewAPI(client *Client, provider, org string, pageSize int) API {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &codacyAPI{
		client:   client,
		provider: provider,
		org:      org,
		pageSize: pageSize,
	}
}

func (a *codacyAPI) orgPath() string {
	return fmt.Sprintf("/organizations/%s/%s", url.PathEscape(a.provider), url.PathEscape(a.org))
}

func (a *codacyAPI) repoPath(repo string) string {
	return fmt.Sprintf("/analysis/organizations/%s/%s/repositories/%s",
		url.PathEscape(a.provider), url.PathEscape(a.org), url.PathEscape(repo))
}

// GetCodingStandards retrieves the non-draft coding standards of the organization
func (a *codacyAPI) GetCodingStandards(ctx context.Context) ([]domain.CodingStandard, error) {
	var resp codingStandardsResponse
	if err := a.client.Get(ctx, a.orgPath()+"/coding-standards", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list coding standards: %w", err)
	}

	standards := make([]domain.CodingStandard, 0, len(resp.Data))
	for _, s := range resp.Data {
		if s.IsDraft {
			continue
		}
		standards = append(standards, s.toDomain())
	}
	return standards, nil
}

// GetRepositoriesForStandard retrieves the repositories bound to a coding standard
func (a *codacyAPI) GetRepositoriesForStandard(ctx context.Context, standardID int64) ([]domain.RepositoryRef, error) {
	path := fmt.Sprintf("%s/coding-standards/%d/repositories", a.orgPath(), standardID)

	var resp repositoriesResponse
	if err := a.client.Get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list repositories for coding standard %d: %w", standardID, err)
	}

	repos := make([]domain.RepositoryRef, 0, len(resp.Data))
	for _, r := range resp.Data {
		repos = append(repos, domain.RepositoryRef{
			RepositoryID: r.RepositoryID,
			Name:         r.Name,
		})
	}
	return repos, nil
}

// CountIssuesBySeverity walks every issue of a repository and counts them per severity
func (a *codacyAPI) CountIssuesBySeverity(ctx context.Context, repo string) (domain.IssueCountSummary, error) {
	path := a.repoPath(repo) + "/issues"

	issues, err := PageThrough(ctx, func(ctx context.Context, cursor string) ([]domain.IssueRecord, string, error) {
		var resp issuesResponse
		if err := a.client.Get(ctx, path, a.pageParams(a.pageSize, cursor), &resp); err != nil {
			return nil, "", err
		}
		return toIssueRecords(resp.Data), resp.Pagination.Cursor, nil
	})
	if err != nil {
		return domain.IssueCountSummary{}, fmt.Errorf("failed to list issues for %s: %w", repo, err)
	}

	return aggregator.CountBySeverity(issues), nil
}

// SearchIssueSummary reads server-side issue counts for a repository in a single request
func (a *codacyAPI) SearchIssueSummary(ctx context.Context, repo string, filter domain.Filter) (domain.IssueCountSummary, error) {
	var resp issuesResponse
	if err := a.client.Post(ctx, a.repoPath(repo)+"/issues/search", a.pageParams(quickLimit, ""), filter, &resp); err != nil {
		return domain.IssueCountSummary{}, fmt.Errorf("failed to search issues for %s: %w", repo, err)
	}

	summary := domain.NewIssueCountSummary()
	summary.Total = resp.Pagination.Total
	for level, count := range resp.Counts {
		if sev, ok := domain.ParseSeverity(level); ok {
			summary.Counts[sev] += count
		}
	}
	return summary, nil
}

// SearchIssues retrieves every issue of a repository matching filter
func (a *codacyAPI) SearchIssues(ctx context.Context, repo string, filter domain.Filter) ([]domain.IssueRecord, error) {
	path := a.repoPath(repo) + "/issues/search"

	issues, err := PageThrough(ctx, func(ctx context.Context, cursor string) ([]domain.IssueRecord, string, error) {
		var resp issuesResponse
		if err := a.client.Post(ctx, path, a.pageParams(a.pageSize, cursor), filter, &resp); err != nil {
			return nil, "", err
		}
		return toIssueRecords(resp.Data), resp.Pagination.Cursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues for %s: %w", repo, err)
	}
	return issues, nil
}

// GetRepositoryAnalysis retrieves the latest analysis snapshot of a repository.
// A repository the API does not know yields AnalysisNotFound and no error.
func (a *codacyAPI) GetRepositoryAnalysis(ctx context.Context, repo string) (domain.AnalysisResult, error) {
	var resp repositoryAnalysisResponse
	if err := a.client.Get(ctx, a.repoPath(repo), nil, &resp); err != nil {
		if apperrors.IsNotFound(err) {
			return domain.AnalysisResult{Status: domain.AnalysisNotFound}, nil
		}
		return domain.AnalysisResult{}, &apperrors.AnalysisFetchError{Repository: repo, Err: err}
	}

	return domain.AnalysisResult{
		Status:   domain.AnalysisAvailable,
		Snapshot: resp.toDomain(),
	}, nil
}

func (a *codacyAPI) pageParams(limit int, cursor string) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

func toIssueRecords(data []issueDTO) []domain.IssueRecord {
	records := make([]domain.IssueRecord, 0, len(data))
	for _, d := range data {
		records = append(records, d.toDomain())
	}
	return records
}
