package main

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/codacy-standards-report/internal/config"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage/sqlite"
)

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList(""))
	assert.Nil(t, parseList(" , ,"))
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Equal(t, []string{"Security", "Code Style"}, parseList(" Security ,,Code Style "))
}

func TestBuildFilter(t *testing.T) {
	resetFlags(t)
	levels = "error, WARNING,Critical"
	categories = "Security"
	authors = "dev@example.com"
	branch = " main "

	filter := buildFilter()

	assert.Equal(t, []string{"Error", "Warning", "Critical"}, filter.Levels)
	assert.Equal(t, []string{"Security"}, filter.Categories)
	assert.Nil(t, filter.Languages)
	assert.Equal(t, []string{"dev@example.com"}, filter.AuthorEmails)
	assert.Equal(t, "main", filter.BranchName)
}

func TestBuildFilter_EmptyFlags(t *testing.T) {
	resetFlags(t)

	assert.True(t, buildFilter().IsEmpty())
}

// resetFlags restores flag variables and isolates the environment the config is read from
func resetFlags(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	t.Setenv("CODACY_API_TOKEN", "")
	t.Setenv("CODACY_BASE_URL", "")
	t.Setenv("STORAGE_TYPE", "")

	cfgFile, token, organization = "", "", ""
	provider, outputDir = config.DefaultProvider, "."
	record, verbose, quick = false, false, false
	levels, categories, languages, authors, branch = "", "", "", "", ""
	historyLimit, historyRemote = storage.DefaultListLimit, false

	return dir
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestExecute_RequiresOrganization(t *testing.T) {
	resetFlags(t)

	err := execute("summary", "--token", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization")
}

func TestExecute_RequiresToken(t *testing.T) {
	resetFlags(t)

	err := execute("analysis", "--organization", "acme")
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "CODACY_API_TOKEN", cfgErr.Field)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.AsAppError(err).Code)
}

// newCodacyServer serves one standard with one repository and no issues
func newCodacyServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/gh/acme/coding-standards", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-token"))
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"default"},{"id":2,"name":"wip","isDraft":true}]}`)
	})
	mux.HandleFunc("/organizations/gh/acme/coding-standards/1/repositories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"repositoryId":10,"name":"repo-a"}]}`)
	})
	mux.HandleFunc("/analysis/organizations/gh/acme/repositories/repo-a/issues/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"data":[],"pagination":{"total":0},"counts":{}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestExecute_QuickSummaryIsRecorded(t *testing.T) {
	dir := resetFlags(t)
	server := newCodacyServer(t)

	dbPath := filepath.Join(dir, "reports.db")
	outDir := filepath.Join(dir, "out")
	t.Setenv("CODACY_BASE_URL", server.URL)
	t.Setenv("SQLITE_PATH", dbPath)

	err := execute("summary", "--quick", "--record",
		"--organization", "acme", "--token", "secret", "--output-dir", outDir)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(outDir, "coding_standards_report_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"default", "repo-a", "0", "0", "0", "0"}, records[1])

	store, err := sqlite.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, domain.ReportKindSummary, runs[0].Kind)
	assert.True(t, runs[0].Quick)
	assert.Equal(t, files[0], runs[0].File)
	assert.Equal(t, 1, runs[0].Repositories)

	outcomes, err := store.GetOutcomes(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "repo-a", outcomes[0].Repository)
}

func TestExecute_RecordingFailureKeepsReport(t *testing.T) {
	dir := resetFlags(t)
	server := newCodacyServer(t)

	outDir := filepath.Join(dir, "out")
	t.Setenv("CODACY_BASE_URL", server.URL)
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "missing", "reports.db"))

	err := execute("summary", "--quick", "--record",
		"--organization", "acme", "--token", "secret", "--output-dir", outDir)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(outDir, "coding_standards_report_*.csv"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
