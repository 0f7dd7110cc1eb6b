package domain

import "time"

// ReportKind identifies one of the report shapes the tool can generate
type ReportKind string

const (
	ReportKindSummary  ReportKind = "summary"
	ReportKindAnalysis ReportKind = "analysis"
	ReportKindIssues   ReportKind = "issues"
)

// RunStatus represents the lifecycle state of a report run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// ReportRun records one report generation
type ReportRun struct {
	ID           string
	Kind         ReportKind
	Provider     string
	Organization string
	Quick        bool
	File         string
	Status       RunStatus
	Standards    int
	Repositories int
	Rows         int
	ErrorRows    int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// OutcomeStatus represents how a single repository was handled during a run
type OutcomeStatus string

const (
	OutcomeOK             OutcomeStatus = "ok"
	OutcomeNoRepositories OutcomeStatus = "no_repositories"
	OutcomeNotAnalyzed    OutcomeStatus = "not_analyzed"
	OutcomeError          OutcomeStatus = "error"
)

// RepositoryOutcome records the result for one (standard, repository) pair of a run
type RepositoryOutcome struct {
	RunID       string
	Standard    string
	Repository  string
	Status      OutcomeStatus
	TotalIssues int
	Message     string
}
