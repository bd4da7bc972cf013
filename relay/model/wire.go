package model

import (
	"github.com/songquanpeng/hamming-ci/model"
)

// QueuedRun is a scheduled test case as reported by the run creation call.
// Older revisions used id instead of testCaseRunId.
type QueuedRun struct {
	ID            string `json:"id"`
	TestCaseRunID string `json:"testCaseRunId"`
	TestCaseID    string `json:"testCaseId"`
	Status        string `json:"status"`
}

// CreateResponse accepts every known spelling of the run creation answer.
type CreateResponse struct {
	ID           string      `json:"id"`
	TestRunID    string      `json:"testRunId"`
	ResultsURL   string      `json:"resultsUrl"`
	TestCaseRuns []QueuedRun `json:"testCaseRuns"`
	TestCases    []QueuedRun `json:"testCases"`
}

func (r *CreateResponse) ToCanonical() *model.TestRunResponse {
	out := &model.TestRunResponse{
		TestRunID:  r.TestRunID,
		ResultsURL: r.ResultsURL,
	}
	if out.TestRunID == "" {
		out.TestRunID = r.ID
	}

	queued := r.TestCaseRuns
	if len(queued) == 0 {
		queued = r.TestCases
	}
	for _, q := range queued {
		id := q.TestCaseRunID
		if id == "" {
			id = q.ID
		}
		out.TestCaseRuns = append(out.TestCaseRuns, model.QueuedTestCaseRun{
			TestCaseRunID: id,
			TestCaseID:    q.TestCaseID,
			Status:        model.NormalizeTestCaseStatus(q.Status),
		})
	}
	return out
}

// StatusResponse is the answer of the status endpoint, flat or wrapped in testRun.
type StatusResponse struct {
	Status  string `json:"status"`
	TestRun *struct {
		Status string `json:"status"`
	} `json:"testRun"`
}

func (r *StatusResponse) RunStatus() model.RunStatus {
	if r.Status == "" && r.TestRun != nil {
		return model.NormalizeRunStatus(r.TestRun.Status)
	}
	return model.NormalizeRunStatus(r.Status)
}

// ErrorResponse is the error envelope the API sends with non-2xx answers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
