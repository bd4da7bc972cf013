package nested

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/adaptor"
)

type Adaptor struct{}

func (a *Adaptor) GetSchemaName() string {
	return "nested"
}

func (a *Adaptor) Match(probe adaptor.Probe) bool {
	return probe.Has("testRun")
}

func (a *Adaptor) ConvertResults(raw []byte) (*model.TestRunResults, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal nested payload")
	}
	if resp.TestRun == nil {
		return nil, errors.New("nested payload has no testRun")
	}

	run := resp.TestRun
	out := &model.TestRunResults{
		Summary: model.Summary{
			ID:            run.ID,
			Status:        model.NormalizeRunStatus(run.Status),
			Error:         run.Error,
			TestCaseCount: run.Summary.Counts.Total,
			PassedCount:   run.Summary.Counts.Passed,
			FailedCount:   run.Summary.Counts.Failed,
			OverallScore:  run.Summary.OverallScore,
		},
		Results: make([]model.TestCaseResult, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, model.TestCaseResult{
			ID:               r.ID,
			TestCaseID:       r.TestCase.ID,
			Status:           model.NormalizeTestCaseStatus(r.Status),
			AssertionResults: adaptor.ConvertAssertions(r.AssertionResults),
			Metrics:          r.Metrics,
			TranscriptURL:    r.TranscriptURL,
			RecordingURL:     r.RecordingURL,
		})
	}

	return out, nil
}
