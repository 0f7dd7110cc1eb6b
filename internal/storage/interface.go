package storage

import (
	"context"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

// Storage is the abstract interface for the run history persistence layer
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *domain.ReportRun) error
	GetRun(ctx context.Context, id string) (*domain.ReportRun, error)
	ListRuns(ctx context.Context, org string, limit int) ([]*domain.ReportRun, error)

	// Repository outcome operations
	SaveOutcomes(ctx context.Context, runID string, outcomes []domain.RepositoryOutcome) error
	GetOutcomes(ctx context.Context, runID string) ([]domain.RepositoryOutcome, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}

// DefaultListLimit is used when a caller asks for a non-positive number of runs
const DefaultListLimit = 20

// NormalizeLimit clamps a requested list size to a sane range
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
