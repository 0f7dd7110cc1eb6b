package domain

import "strings"

// Severity represents the severity level reported for an issue pattern
type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
	SeverityInfo    Severity = "Info"
)

// Severities lists the known severity levels in report column order
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo}

// ParseSeverity maps a raw level to a known severity.
// The second return value is false for unknown levels.
func ParseSeverity(level string) (Severity, bool) {
	for _, s := range Severities {
		if strings.EqualFold(level, string(s)) {
			return s, true
		}
	}
	return "", false
}

// IssueRecord represents a single quality issue found in a repository
type IssueRecord struct {
	FilePath   string
	LineNumber int
	IssueID    string
	PatternID  string
	Category   string
	Level      Severity
	Message    string
	AuthorName string
	CreatedAt  string
}

// IssueCountSummary holds the total number of issues and a per-severity breakdown
type IssueCountSummary struct {
	Total  int
	Counts map[Severity]int
}

// NewIssueCountSummary creates an empty summary
func NewIssueCountSummary() IssueCountSummary {
	return IssueCountSummary{Counts: make(map[Severity]int)}
}

// Count returns the number of issues for a severity, 0 when absent
func (s IssueCountSummary) Count(sev Severity) int {
	if s.Counts == nil {
		return 0
	}
	return s.Counts[sev]
}

// Filter narrows an issue search. Empty fields are not sent.
type Filter struct {
	Levels       []string `json:"levels,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	AuthorEmails []string `json:"authorEmails,omitempty"`
	BranchName   string   `json:"branchName,omitempty"`
}

// IsEmpty reports whether no criteria are set
func (f Filter) IsEmpty() bool {
	return len(f.Levels) == 0 &&
		len(f.Categories) == 0 &&
		len(f.Languages) == 0 &&
		len(f.AuthorEmails) == 0 &&
		f.BranchName == ""
}
