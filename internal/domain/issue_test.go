package domain

import "testing"

func TestParseSeverity(t *testing.T) {
	for _, level := range []string{"Error", "error", "WARNING", "Info"} {
		if _, ok := ParseSeverity(level); !ok {
			t.Errorf("ParseSeverity(%q) should be known", level)
		}
	}
	if sev, _ := ParseSeverity("warning"); sev != SeverityWarning {
		t.Errorf("ParseSeverity(warning) = %q, want %q", sev, SeverityWarning)
	}
	if _, ok := ParseSeverity("Critical"); ok {
		t.Error("ParseSeverity(Critical) should be unknown")
	}
}

func TestIssueCountSummary_Count(t *testing.T) {
	var zero IssueCountSummary
	if got := zero.Count(SeverityError); got != 0 {
		t.Errorf("zero summary Count = %d, want 0", got)
	}

	s := NewIssueCountSummary()
	s.Counts[SeverityInfo] = 3
	if got := s.Count(SeverityInfo); got != 3 {
		t.Errorf("Count(Info) = %d, want 3", got)
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if (Filter{BranchName: "main"}).IsEmpty() {
		t.Error("filter with branch should not be empty")
	}
	if (Filter{AuthorEmails: []string{"a@b.c"}}).IsEmpty() {
		t.Error("filter with authors should not be empty")
	}
}
