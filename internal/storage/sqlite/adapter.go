package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		provider TEXT NOT NULL,
		organization TEXT NOT NULL,
		quick INTEGER NOT NULL DEFAULT 0,
		file TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		standards INTEGER NOT NULL DEFAULT 0,
		repositories INTEGER NOT NULL DEFAULT 0,
		rows_written INTEGER NOT NULL DEFAULT 0,
		error_rows INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_report_runs_org_started ON report_runs(organization, started_at);

	CREATE TABLE IF NOT EXISTS repository_outcomes (
		run_id TEXT NOT NULL,
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

// SaveRun inserts or replaces a report run
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.ReportRun) error {
	query := `
		INSERT OR REPLACE INTO report_runs (id, kind, provider, organization, quick, file, status,
			standards, repositories, rows_written, error_rows, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	quick := 0
	if run.Quick {
		quick = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Kind),
		run.Provider,
		run.Organization,
		quick,
		run.File,
		string(run.Status),
		run.Standards,
		run.Repositories,
		run.Rows,
		run.ErrorRows,
		run.StartedAt.UTC(),
		utc(run.FinishedAt),
	)
	return err
}

// utc normalizes stored timestamps so started_at sorts chronologically as text
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
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
	var quick int
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &kind, &r.Provider, &r.Organization, &quick, &r.File, &status,
		&r.Standards, &r.Repositories, &r.Rows, &r.ErrorRows, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.ReportKind(kind)
	r.Status = domain.RunStatus(status)
	r.Quick = quick == 1
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	return &r, nil
}

// GetRun retrieves a single run by ID
func (s *sqliteStorage) GetRun(ctx context.Context, id string) (*domain.ReportRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("run")
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns retrieves the most recent runs for an organization
func (s *sqliteStorage) ListRuns(ctx context.Context, org string, limit int) ([]*domain.ReportRun, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+" WHERE organization = ? ORDER BY started_at DESC LIMIT ?",
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
func (s *sqliteStorage) SaveOutcomes(ctx context.Context, runID string, outcomes []domain.RepositoryOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repository_outcomes WHERE run_id = ?`, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repository_outcomes (run_id, position, standard, repository, status, total_issues, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
func (s *sqliteStorage) GetOutcomes(ctx context.Context, runID string) ([]domain.RepositoryOutcome, error) {
	query := `
		SELECT run_id, standard, repository, status, total_issues, message
		FROM repository_outcomes
		WHERE run_id = ?
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
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
