package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		provider TEXT NOT NULL,
		organization TEXT NOT NULL,
		quick BOOLEAN NOT NULL DEFAULT FALSE,
		file TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		standards INTEGER NOT NULL DEFAULT 0,
		repositories INTEGER NOT NULL DEFAULT 0,
		rows_written INTEGER NOT NULL DEFAULT 0,
		error_rows INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_report_runs_org_started ON report_runs(organization, started_at DESC);

	CREATE TABLE IF NOT EXISTS repository_outcomes (
		run_id TEXT NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		standard TEXT NOT NULL,
		repository TEXT NOT NULL,
		status TEXT NOT NULL,
		total_issues INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts a report run or updates the existing one
func (s *postgresStorage) SaveRun(ctx context.Context, run *domain.ReportRun) error {
	query := `
		INSERT INTO report_runs (id, kind, provider, organization, quick, file, status,
			standards, repositories, rows_written, error_rows, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			file = EXCLUDED.file,
			status = EXCLUDED.status,
			standards = EXCLUDED.standards,
			repositories = EXCLUDED.repositories,
			rows_written = EXCLUDED.rows_written,
			error_rows = EXCLUDED.error_rows,
			finished_at = EXCLUDED.finished_at
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Kind),
		run.Provider,
		run.Organization,
		run.Quick,
		run.File,
		string(run.Status),
		run.Standards,
		run.Repositories,
		run.Rows,
		run.ErrorRows,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

const selectRun = `
	SELECT id, kind, provider, organization, quick, file, status,
		standards, repositories, rows_written, error_rows, started_at, finished_at
	FROM report_runs
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*domain.ReportRun, error) {
	var r domain.ReportRun
	var kind, status string
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &kind, &r.Provider, &r.Organization, &r.Quick, &r.File, &status,
		&r.Standards, &r.Repositories, &r.Rows, &r.ErrorRows, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.ReportKind(kind)
	r.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	return &r, nil
}

// GetRun retrieves a single run by ID
func (s *postgresStorage) GetRun(ctx context.Context, id string) (*domain.ReportRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("run")
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns retrieves the most recent runs for an organization
func (s *postgresStorage) ListRuns(ctx context.Context, org string, limit int) ([]*domain.ReportRun, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+" WHERE organization = $1 ORDER BY started_at DESC LIMIT $2",
		org, storage.NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveOutcomes replaces the repository outcomes of a run
func (s *postgresStorage) SaveOutcomes(ctx context.Context, runID string, outcomes []domain.RepositoryOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repository_outcomes WHERE run_id = $1`, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repository_outcomes (run_id, position, standard, repository, status, total_issues, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range outcomes {
		_, err = stmt.ExecContext(ctx,
			runID,
			i,
			o.Standard,
			o.Repository,
			string(o.Status),
			o.TotalIssues,
			o.Message,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetOutcomes retrieves the repository outcomes of a run in the order they were saved
func (s *postgresStorage) GetOutcomes(ctx context.Context, runID string) ([]domain.RepositoryOutcome, error) {
	query := `
		SELECT run_id, standard, repository, status, total_issues, message
		FROM repository_outcomes
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []domain.RepositoryOutcome
	for rows.Next() {
		var o domain.RepositoryOutcome
		var status string
		if err := rows.Scan(&o.RunID, &o.Standard, &o.Repository, &status, &o.TotalIssues, &o.Message); err != nil {
			return nil, err
		}
		o.Status = domain.OutcomeStatus(status)
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
