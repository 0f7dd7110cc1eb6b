package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kurihiro0119/codacy-standards-report/internal/codacy"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
)

// ProgressCallback is called after each repository is processed
type ProgressCallback func(standard, repo string, progress float64)

// Options configures a report run
type Options struct {
	// OutputDir is where the CSV file is created (default ".")
	OutputDir string
	// Quick selects server-side issue counts instead of walking every issue
	Quick bool
	// Filter narrows issue searches
	Filter domain.Filter
	// Out receives human readable progress messages (default os.Stdout)
	Out io.Writer
	// OnProgress is optional
	OnProgress ProgressCallback
	// Now is used for the file timestamp (default time.Now)
	Now func() time.Time
}

// Result describes a finished report
type Result struct {
	Kind         domain.ReportKind
	Quick        bool
	File         string
	Standards    int
	Repositories int
	Rows         int
	ErrorRows    int
	Outcomes     []domain.RepositoryOutcome
}

// Generator walks coding standards and their repositories and writes a CSV report
type Generator struct {
	api  codacy.API
	opts Options
}

// NewGenerator creates a new report generator
func NewGenerator(api codacy.API, opts Options) *Generator {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{api: api, opts: opts}
}

// Generate produces one report of the given kind.
//
// Failing to list coding standards or a standard's repositories aborts the run.
// Failures for a single repository are written as error rows and the run continues.
func (g *Generator) Generate(ctx context.Context, kind domain.ReportKind) (*Result, error) {
	l, err := g.layoutFor(kind)
	if err != nil {
		return nil, err
	}

	result := &Result{Kind: kind, Quick: g.opts.Quick}

	fmt.Fprintln(g.opts.Out, "Fetching coding standards...")
	standards, err := g.api.GetCodingStandards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get coding standards: %w", err)
	}
	if len(standards) == 0 {
		fmt.Fprintln(g.opts.Out, "No coding standards found.")
		return result, nil
	}
	result.Standards = len(standards)

	if err := os.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s%s.csv", l.prefix, g.opts.Now().Format("20060102_150405"))
	path := filepath.Join(g.opts.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	result.File = path

	w := csv.NewWriter(f)
	if err := writeRows(w, [][]string{l.header}); err != nil {
		return nil, err
	}

	for i, std := range standards {
		fmt.Fprintf(g.opts.Out, "Analyzing coding standard: %s\n", std.Name)

		repos, err := g.api.GetRepositoriesForStandard(ctx, std.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get repositories for coding standard %s: %w", std.Name, err)
		}

		if len(repos) == 0 {
			if l.placeholder == nil {
				continue
			}
			if err := writeRows(w, [][]string{l.placeholder(std)}); err != nil {
				return nil, err
			}
			result.Rows++
			result.Outcomes = append(result.Outcomes, domain.RepositoryOutcome{
				Standard:   std.Name,
				Repository: noRepositories,
				Status:     domain.OutcomeNoRepositories,
			})
			continue
		}

		for j, repo := range repos {
			if repo.Name == "" && l.skipUnnamed {
				continue
			}

			rows, o := l.rows(ctx, std, repo)
			if o.Status == domain.OutcomeError {
				fmt.Fprintf(g.opts.Out, "Error processing repository %s: %s\n", repo.Name, o.Message)
				result.ErrorRows++
			}
			if err := writeRows(w, rows); err != nil {
				return nil, err
			}
			result.Rows += len(rows)
			result.Repositories++
			result.Outcomes = append(result.Outcomes, o)

			if g.opts.OnProgress != nil {
				progress := (float64(i) + float64(j+1)/float64(len(repos))) / float64(len(standards))
				g.opts.OnProgress(std.Name, repo.Name, progress)
			}
		}
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync report file: %w", err)
	}
	return result, nil
}

// writeRows writes and flushes so every row on disk is complete
func writeRows(w *csv.Writer, rows [][]string) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write report row: %w", err)
	}
	return nil
}
