package stub

import (
	"strings"
	"sync"

	"github.com/songquanpeng/hamming-ci/model"
)

// run is the server side state of one test run.
type run struct {
	mu sync.Mutex

	id       string
	request  model.CreateTestRunRequest
	cases    []model.TestCaseResult
	statuses []model.RunStatus
	polls    int
}

// nextStatus advances the run one step and returns the status for this poll.
func (r *run) nextStatus() model.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.statuses[min(r.polls, len(r.statuses)-1)]
	r.polls++
	return st
}

// snapshot returns the current status and the test cases as far as they got.
// Before the run turns terminal, only the first polls cases carry their final status.
func (r *run) snapshot() (model.RunStatus, []model.TestCaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.statuses[min(max(r.polls-1, 0), len(r.statuses)-1)]
	cases := make([]model.TestCaseResult, len(r.cases))
	copy(cases, r.cases)
	if !st.IsVendorTerminal() {
		for i := range cases {
			if i >= r.polls {
				cases[i].Status = model.TestCaseStatusPending
				cases[i].AssertionResults = nil
			}
		}
	}
	return st, cases
}

// expandCases turns the run configuration into test case outcomes. A tag expands to two
// cases, "empty" selects nothing, and ids containing "fail" or "error" produce that outcome.
func expandCases(runID string, req *model.CreateTestRunRequest) []model.TestCaseResult {
	var ids []string
	for _, tc := range req.TestConfigurations {
		switch {
		case tc.TestCaseID != "":
			ids = append(ids, tc.TestCaseID)
		case tc.TagID == "empty":
		default:
			ids = append(ids, tc.TagID+"-1", tc.TagID+"-2")
		}
	}

	cases := make([]model.TestCaseResult, 0, len(ids))
	for i, id := range ids {
		res := model.TestCaseResult{
			ID:            runID + "-" + string(rune('a'+i%26)),
			TestCaseID:    id,
			TranscriptURL: "https://storage.example.com/transcripts/" + runID + "/" + id + ".json",
			RecordingURL:  "https://storage.example.com/recordings/" + runID + "/" + id + ".wav",
			Metrics:       map[string]any{"latencyMs": 800 + 10*i},
		}
		switch {
		case strings.Contains(id, "fail"):
			res.Status = model.TestCaseStatusFailed
			res.AssertionResults = []model.AssertionResult{
				{Name: "greets caller", Status: model.AssertionStatusPassed},
				{Name: "verifies identity", Status: model.AssertionStatusFailed,
					Reason: "agent skipped identity verification"},
			}
		case strings.Contains(id, "error"):
			res.Status = model.TestCaseStatusError
			res.AssertionResults = []model.AssertionResult{
				{Name: "call connected", Status: model.AssertionStatusError, Reason: "call dropped after 2s"},
			}
		default:
			res.Status = model.TestCaseStatusPassed
			res.AssertionResults = []model.AssertionResult{
				{Name: "greets caller", Status: model.AssertionStatusPassed},
				{Name: "verifies identity", Status: model.AssertionStatusPassed},
			}
		}
		cases = append(cases, res)
	}
	return cases
}
