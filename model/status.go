package model

import (
	"slices"
	"strings"
)

// RunStatus is the lifecycle status of a test run.
type RunStatus string

const (
	RunStatusCreated       RunStatus = "CREATED"
	RunStatusRunning       RunStatus = "RUNNING"
	RunStatusScoring       RunStatus = "SCORING"
	RunStatusCompleted     RunStatus = "COMPLETED"
	RunStatusFinished      RunStatus = "FINISHED"
	RunStatusFailed        RunStatus = "FAILED"
	RunStatusCanceled      RunStatus = "CANCELED"
	RunStatusScoringFailed RunStatus = "SCORING_FAILED"

	// RunStatusTimeout and RunStatusNotFound never come from the API; the poller
	// reports them when it gives up waiting or the run id does not resolve.
	RunStatusTimeout  RunStatus = "TIMEOUT"
	RunStatusNotFound RunStatus = "NOT_FOUND"
)

var vendorTerminalStatuses = []RunStatus{
	RunStatusCompleted,
	RunStatusFinished,
	RunStatusFailed,
	RunStatusCanceled,
	RunStatusScoringFailed,
}

// NormalizeRunStatus maps the spellings seen across API versions onto one vocabulary,
// e.g. "ended", "Scoring-Failed" and " canceled " become ENDED, SCORING_FAILED and CANCELED.
func NormalizeRunStatus(s string) RunStatus {
	return RunStatus(normalize(s))
}

// IsVendorTerminal reports whether the API will never move the run out of s.
func (s RunStatus) IsVendorTerminal() bool {
	return slices.Contains(vendorTerminalStatuses, s)
}

// IsSynthetic reports whether s was produced locally by the poller.
func (s RunStatus) IsSynthetic() bool {
	return s == RunStatusTimeout || s == RunStatusNotFound
}

// TestCaseStatus is the status of a single test case inside a run.
type TestCaseStatus string

const (
	TestCaseStatusPending TestCaseStatus = "PENDING"
	TestCaseStatusPassed  TestCaseStatus = "PASSED"
	TestCaseStatusFailed  TestCaseStatus = "FAILED"
	TestCaseStatusError   TestCaseStatus = "ERROR"
)

func NormalizeTestCaseStatus(s string) TestCaseStatus {
	return TestCaseStatus(normalize(s))
}

// AssertionStatus is the outcome of one assertion. Anything but PASSED counts as not passed.
type AssertionStatus string

const (
	AssertionStatusPassed AssertionStatus = "PASSED"
	AssertionStatusFailed AssertionStatus = "FAILED"
	AssertionStatusError  AssertionStatus = "ERROR"
)

func NormalizeAssertionStatus(s string) AssertionStatus {
	return AssertionStatus(normalize(s))
}

func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// StatusSet is a set of run statuses, e.g. the statuses accepted as a successful run.
type StatusSet map[RunStatus]struct{}

// ParseStatusSet normalizes every item and drops empty ones.
func ParseStatusSet(items []string) StatusSet {
	set := make(StatusSet, len(items))
	for _, item := range items {
		if st := NormalizeRunStatus(item); st != "" {
			set[st] = struct{}{}
		}
	}
	return set
}

// DefaultSuccessStatuses returns {COMPLETED, FINISHED}.
func DefaultSuccessStatuses() StatusSet {
	return StatusSet{RunStatusCompleted: {}, RunStatusFinished: {}}
}

func (s StatusSet) Contains(st RunStatus) bool {
	_, ok := s[st]
	return ok
}

// Slice returns the members sorted, for stable logs and reports.
func (s StatusSet) Slice() []string {
	out := make([]string, 0, len(s))
	for st := range s {
		out = append(out, string(st))
	}
	slices.Sort(out)
	return out
}

func (s StatusSet) String() string {
	return strings.Join(s.Slice(), ",")
}
