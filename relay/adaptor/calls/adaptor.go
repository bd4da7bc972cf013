package calls

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/adaptor"
)

type Adaptor struct{}

func (a *Adaptor) GetSchemaName() string {
	return "calls"
}

func (a *Adaptor) Match(probe adaptor.Probe) bool {
	return probe.Has("calls")
}

func (a *Adaptor) ConvertResults(raw []byte) (*model.TestRunResults, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal calls payload")
	}

	id := resp.ID
	if id == "" {
		id = resp.TestRunID
	}
	out := &model.TestRunResults{
		Summary: model.Summary{
			ID:            id,
			Status:        model.NormalizeRunStatus(resp.Status),
			Error:         resp.Error,
			TestCaseCount: resp.TotalCount,
			PassedCount:   resp.PassedCount,
			FailedCount:   resp.FailedCount,
			OverallScore:  resp.OverallScore,
		},
		Results: make([]model.TestCaseResult, 0, len(resp.Calls)),
	}
	for _, c := range resp.Calls {
		out.Results = append(out.Results, model.TestCaseResult{
			ID:               c.ID,
			TestCaseID:       c.TestCaseID,
			Status:           model.NormalizeTestCaseStatus(c.Status),
			AssertionResults: convertScores(c.Scores),
			Metrics:          c.Metrics,
			TranscriptURL:    c.TranscriptURL,
			RecordingURL:     c.RecordingURL,
		})
	}

	return out, nil
}

func convertScores(scores []Score) []model.AssertionResult {
	if len(scores) == 0 {
		return nil
	}
	out := make([]model.AssertionResult, 0, len(scores))
	for _, s := range scores {
		status := adaptor.PassedFromBool(s.Passed)
		if s.Status != "" {
			status = model.NormalizeAssertionStatus(s.Status)
		}
		out = append(out, model.AssertionResult{Name: s.Name, Status: status, Reason: s.Reason})
	}
	return out
}
