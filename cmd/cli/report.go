package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/codacy-standards-report/internal/aggregator"
	"github.com/kurihiro0119/codacy-standards-report/internal/codacy"
	"github.com/kurihiro0119/codacy-standards-report/internal/config"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
	"github.com/kurihiro0119/codacy-standards-report/internal/report"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
)

func runReport(cmd *cobra.Command, kind domain.ReportKind) error {
	if err := requireOrganization(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigurationError("invalid config", err)
	}

	client := codacy.NewClient(cfg.BaseURL, cfg.CodacyToken,
		codacy.WithMaxRetries(cfg.MaxRetries),
		codacy.WithTimeout(cfg.RequestTimeout),
		codacy.WithLogger(logger),
	)
	api := codacy.NewAPI(client, cfg.Provider, organization, cfg.PageSize)

	ctx := context.Background()

	var rec *recorder
	if record {
		rec, err = startRecording(ctx, cfg, kind)
		if err != nil {
			color.Yellow("Warning: run will not be recorded: %v", err)
		} else {
			defer rec.Close()
		}
	}

	filter := buildFilter()
	logger.Debug("Generating report",
		zap.String("kind", string(kind)),
		zap.String("provider", cfg.Provider),
		zap.String("organization", organization),
		zap.Bool("quick", quick),
		zap.Any("filter", filter))

	gen := report.NewGenerator(api, report.Options{
		OutputDir: cfg.OutputDir,
		Quick:     quick,
		Filter:    filter,
		OnProgress: func(standard, repo string, progress float64) {
			fmt.Printf("Progress: %.1f%% (%s / %s)\n", progress*100, standard, repo)
		},
	})

	fmt.Printf("Generating %s report for organization: %s/%s\n", kind, cfg.Provider, organization)
	result, genErr := gen.Generate(ctx, kind)

	if rec != nil {
		rec.finish(ctx, result, genErr)
	}
	if genErr != nil {
		return fmt.Errorf("failed to generate report: %w", genErr)
	}

	printResult(result)
	return nil
}

func printResult(result *report.Result) {
	if result.File == "" {
		return
	}

	color.Green("Report generated: %s", result.File)

	totals := aggregator.SummarizeOutcomes(result.Outcomes)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Coding Standard", "Repositories", "Issues", "Errors", "Not Analyzed"})
	for _, st := range totals.Standards {
		table.Append([]string{
			st.Standard,
			fmt.Sprintf("%d", st.Repositories),
			fmt.Sprintf("%d", st.Issues),
			fmt.Sprintf("%d", st.Errors),
			fmt.Sprintf("%d", st.NotAnalyzed),
		})
	}
	table.SetFooter([]string{
		"Total",
		fmt.Sprintf("%d", totals.Repositories),
		fmt.Sprintf("%d", totals.Issues),
		fmt.Sprintf("%d", totals.Errors),
		fmt.Sprintf("%d", totals.NotAnalyzed),
	})
	table.Render()

	if result.ErrorRows > 0 {
		color.Yellow("Warning: %d repositories could not be processed, see the error rows in the report", result.ErrorRows)
	}
}

// recorder keeps the history entry of a run up to date
type recorder struct {
	store storage.Storage
	run   *domain.ReportRun
}

func startRecording(ctx context.Context, cfg *config.Config, kind domain.ReportKind) (*recorder, error) {
	store, err := getStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	run := &domain.ReportRun{
		ID:           uuid.NewString(),
		Kind:         kind,
		Provider:     cfg.Provider,
		Organization: organization,
		Quick:        quick,
		Status:       domain.RunStatusInProgress,
		StartedAt:    time.Now(),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	logger.Debug("Recording run", zap.String("run_id", run.ID))

	return &recorder{store: store, run: run}, nil
}

// finish stores the final state of the run. Failures only produce warnings.
func (r *recorder) finish(ctx context.Context, result *report.Result, runErr error) {
	now := time.Now()
	r.run.FinishedAt = &now

	if runErr != nil {
		r.run.Status = domain.RunStatusFailed
	} else {
		r.run.Status = domain.RunStatusCompleted
		r.run.File = result.File
		r.run.Standards = result.Standards
		r.run.Repositories = result.Repositories
		r.run.Rows = result.Rows
		r.run.ErrorRows = result.ErrorRows

		if err := r.store.SaveOutcomes(ctx, r.run.ID, result.Outcomes); err != nil {
			color.Yellow("Warning: failed to save repository outcomes: %v", err)
		}
	}

	if err := r.store.SaveRun(ctx, r.run); err != nil {
		color.Yellow("Warning: failed to save run %s: %v", r.run.ID, err)
		return
	}
	fmt.Printf("Run recorded: %s\n", r.run.ID)
}

func (r *recorder) Close() error {
	return r.store.Close()
}
