package codacy

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

// pagination is the cursor metadata attached to list responses
type pagination struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
	Total  int    `json:"total"`
}

type codingStandardsResponse struct {
	Data []codingStandardDTO `json:"data"`
}

type codingStandardDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDraft   bool   `json:"isDraft"`
	IsDefault bool   `json:"isDefault"`
	Meta      struct {
		EnabledToolsCount    int `json:"enabledToolsCount"`
		EnabledPatternsCount int `json:"enabledPatternsCount"`
	} `json:"meta"`
}

func (d codingStandardDTO) toDomain() domain.CodingStandard {
	return domain.CodingStandard{
		ID:                   d.ID,
		Name:                 d.Name,
		IsDefault:            d.IsDefault,
		IsDraft:              d.IsDraft,
		EnabledToolsCount:    d.Meta.EnabledToolsCount,
		EnabledPatternsCount: d.Meta.EnabledPatternsCount,
	}
}

type repositoriesResponse struct {
	Data []struct {
		RepositoryID int64  `json:"repositoryId"`
		Name         string `json:"name"`
	} `json:"data"`
}

type issuesResponse struct {
	Data       []issueDTO     `json:"data"`
	Pagination pagination     `json:"pagination"`
	Counts     map[string]int `json:"counts"`
}

type issueDTO struct {
	ID          flexString `json:"id"`
	IssueID     flexString `json:"issueId"`
	FilePath    string     `json:"filePath"`
	LineNumber  int        `json:"lineNumber"`
	Message     string     `json:"message"`
	AuthorName  string     `json:"authorName"`
	CreatedAt   string     `json:"createdAt"`
	PatternInfo struct {
		ID            string `json:"id"`
		Category      string `json:"category"`
		SeverityLevel string `json:"severityLevel"`
	} `json:"patternInfo"`
	CommitInfo struct {
		AuthorName string `json:"authorName"`
		Timestamp  string `json:"timestamp"`
	} `json:"commitInfo"`
}

func (d issueDTO) toDomain() domain.IssueRecord {
	id := string(d.ID)
	if id == "" {
		id = string(d.IssueID)
	}
	author := d.AuthorName
	if author == "" {
		author = d.CommitInfo.AuthorName
	}
	created := d.CreatedAt
	if created == "" {
		created = d.CommitInfo.Timestamp
	}

	level, ok := domain.ParseSeverity(d.PatternInfo.SeverityLevel)
	if !ok {
		level = domain.Severity(d.PatternInfo.SeverityLevel)
	}

	return domain.IssueRecord{
		FilePath:   d.FilePath,
		LineNumber: d.LineNumber,
		IssueID:    id,
		PatternID:  d.PatternInfo.ID,
		Category:   d.PatternInfo.Category,
		Level:      level,
		Message:    d.Message,
		AuthorName: author,
		CreatedAt:  created,
	}
}

type repositoryAnalysisResponse struct {
	Data struct {
		GradeLetter           string  `json:"gradeLetter"`
		Grade                 int     `json:"grade"`
		IssuesCount           int     `json:"issuesCount"`
		LOC                   int     `json:"loc"`
		ComplexFilesCount     int     `json:"complexFilesCount"`
		DuplicationPercentage float64 `json:"duplicationPercentage"`
		Coverage              struct {
			FilesUncovered       int `json:"filesUncovered"`
			FilesWithLowCoverage int `json:"filesWithLowCoverage"`
			NumberTotalFiles     int `json:"numberTotalFiles"`
		} `json:"coverage"`
	} `json:"data"`
}

func (r repositoryAnalysisResponse) toDomain() *domain.RepositoryAnalysisSnapshot {
	d := r.Data
	return &domain.RepositoryAnalysisSnapshot{
		GradeLetter:           d.GradeLetter,
		Grade:                 d.Grade,
		IssuesCount:           d.IssuesCount,
		CoveragePercentage:    domain.CoveragePercentage(d.Coverage.NumberTotalFiles, d.Coverage.FilesUncovered, d.Coverage.FilesWithLowCoverage),
		ComplexFilesCount:     d.ComplexFilesCount,
		DuplicationPercentage: d.DuplicationPercentage,
		LinesOfCode:           d.LOC,
	}
}

// flexString accepts identifiers sent either as JSON strings or numbers
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}
