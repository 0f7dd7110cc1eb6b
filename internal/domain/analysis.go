package domain

// RepositoryAnalysisSnapshot represents the latest analysis figures of a repository
type RepositoryAnalysisSnapshot struct {
	GradeLetter           string
	Grade                 int
	IssuesCount           int
	CoveragePercentage    float64
	ComplexFilesCount     int
	DuplicationPercentage float64
	LinesOfCode           int
}

// CoveragePercentage returns the share of files that are neither uncovered nor poorly covered.
// It is 0 when there are no files and never negative when the counts overlap.
func CoveragePercentage(totalFiles, uncoveredFiles, lowCoverageFiles int) float64 {
	if totalFiles <= 0 {
		return 0
	}
	covered := totalFiles - uncoveredFiles - lowCoverageFiles
	if covered < 0 {
		return 0
	}
	return float64(covered) / float64(totalFiles) * 100
}

// AnalysisStatus tells whether an analysis snapshot exists for a repository
type AnalysisStatus string

const (
	AnalysisAvailable AnalysisStatus = "available"
	AnalysisNotFound  AnalysisStatus = "not_analyzed"
)

// AnalysisResult is the outcome of an analysis lookup.
// Snapshot is nil unless Status is AnalysisAvailable.
type AnalysisResult struct {
	Status   AnalysisStatus
	Snapshot *RepositoryAnalysisSnapshot
}

// NotAnalyzed reports whether the repository has never been analyzed
func (r AnalysisResult) NotAnalyzed() bool {
	return r.Status == AnalysisNotFound
}
