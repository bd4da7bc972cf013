package model

// AssertionResult is the outcome of one assertion evaluated on a test case call.
type AssertionResult struct {
	Name   string          `json:"assertionName"`
	Status AssertionStatus `json:"status"`
	Reason string          `json:"reason,omitempty"`
}

func (a AssertionResult) Passed() bool {
	return a.Status == AssertionStatusPassed
}

// TestCaseResult is the outcome of one test case in a run.
type TestCaseResult struct {
	ID               string            `json:"id"`
	TestCaseID       string            `json:"testCaseId"`
	Status           TestCaseStatus    `json:"status"`
	AssertionResults []AssertionResult `json:"assertionResults,omitempty"`
	Metrics          map[string]any    `json:"metrics,omitempty"`
	TranscriptURL    string            `json:"transcriptUrl,omitempty"`
	RecordingURL     string            `json:"recordingUrl,omitempty"`
}

func (r TestCaseResult) Passed() bool {
	return r.Status == TestCaseStatusPassed
}

// Summary is the run level part of the results payload.
type Summary struct {
	ID            string    `json:"id"`
	Status        RunStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	TestCaseCount int       `json:"testCaseCount,omitempty"`
	PassedCount   int       `json:"passedCount,omitempty"`
	FailedCount   int       `json:"failedCount,omitempty"`
	// OverallScore is the pre-aggregated assertion score in [0, 100], when the API reports one.
	OverallScore *float64 `json:"overallScore,omitempty"`
}

// TestRunResults is the canonical results payload every wire shape decodes into.
type TestRunResults struct {
	Summary Summary          `json:"summary"`
	Results []TestCaseResult `json:"results"`
}

// SyntheticResults builds the payload reported for a run the poller gave up on.
func SyntheticResults(runID string, status RunStatus, message string) *TestRunResults {
	return &TestRunResults{
		Summary: Summary{
			ID:     runID,
			Status: status,
			Error:  message,
		},
		Results: []TestCaseResult{},
	}
}

// CountByStatus tallies test cases per status.
func (r *TestRunResults) CountByStatus() map[TestCaseStatus]int {
	counts := make(map[TestCaseStatus]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// AssertionCounts returns the passed and total number of assertions across all test cases.
func (r *TestRunResults) AssertionCounts() (passed, total int) {
	for _, res := range r.Results {
		for _, a := range res.AssertionResults {
			total++
			if a.Passed() {
				passed++
			}
		}
	}
	return passed, total
}
