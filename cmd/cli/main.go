package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/codacy-standards-report/internal/config"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage/postgres"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage/sqlite"
)

var version = "dev"

var (
	cfgFile      string
	token        string
	provider     string
	organization string
	outputDir    string
	record       bool
	verbose      bool

	quick      bool
	levels     string
	categories string
	languages  string
	authors    string
	branch     string

	historyLimit  int
	historyRemote bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "codacy-report",
	Short: "Codacy coding standards report tool",
	Long: `A CLI tool for reporting on Codacy coding standards.

This tool walks every coding standard of an organization, visits the
repositories bound to each one and writes issue counts, analysis snapshots
or individual issues to a timestamped CSV file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Report issue counts per severity",
	Long: `Write one row per repository with Error, Warning and Info issue counts.

By default every issue is walked and counted locally. --quick reads the
server-side counts in a single request per repository.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, domain.ReportKindSummary)
	},
}

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Report repository analysis snapshots",
	Long:  `Write grade, coverage, complexity, duplication and size figures for every repository.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, domain.ReportKindAnalysis)
	},
}

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Report individual issues",
	Long: `Write one row per issue matching the filters, or with --quick one
row of server-side counts per repository.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, domain.ReportKindIssues)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "codacy-report %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .codacy-report.yaml)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Codacy API token (default $CODACY_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", config.DefaultProvider, "git provider (gh, gl, bb)")
	rootCmd.PersistentFlags().StringVar(&organization, "organization", "", "organization name")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", ".", "directory the CSV report is written to")
	rootCmd.PersistentFlags().BoolVar(&record, "record", false, "record the run in the history store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	summaryCmd.Flags().BoolVar(&quick, "quick", false, "use server-side issue counts")

	issuesCmd.Flags().BoolVar(&quick, "quick", false, "write per-repository counts instead of every issue")
	issuesCmd.Flags().StringVar(&levels, "levels", "", "comma-separated severity levels (Error,Warning,Info)")
	issuesCmd.Flags().StringVar(&categories, "categories", "", "comma-separated issue categories")
	issuesCmd.Flags().StringVar(&languages, "languages", "", "comma-separated languages")
	issuesCmd.Flags().StringVar(&authors, "authors", "", "comma-separated author emails")
	issuesCmd.Flags().StringVar(&branch, "branch", "", "branch name")

	historyCmd.PersistentFlags().BoolVar(&historyRemote, "remote", false, "query the history API instead of the local store")
	historyCmd.Flags().IntVar(&historyLimit, "limit", storage.DefaultListLimit, "maximum number of runs to list")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig loads the configuration and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if token != "" {
		cfg.CodacyToken = token
	}
	if cmd.Flags().Changed("provider") {
		cfg.Provider = provider
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = outputDir
	}

	return cfg, nil
}

func requireOrganization() error {
	if strings.TrimSpace(organization) == "" {
		return fmt.Errorf("required flag \"organization\" not set")
	}
	return nil
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

// parseList splits a comma-separated flag value, trimming entries and dropping empty ones
func parseList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// buildFilter turns the issue flags into a search filter.
// Known severity levels are normalized to their canonical spelling.
func buildFilter() domain.Filter {
	filter := domain.Filter{
		Categories:   parseList(categories),
		Languages:    parseList(languages),
		AuthorEmails: parseList(authors),
		BranchName:   strings.TrimSpace(branch),
	}
	for _, level := range parseList(levels) {
		if sev, ok := domain.ParseSeverity(level); ok {
			level = string(sev)
		}
		filter.Levels = append(filter.Levels, level)
	}
	return filter
}
