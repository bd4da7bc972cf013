package scored

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/adaptor"
)

type Adaptor struct{}

func (a *Adaptor) GetSchemaName() string {
	return "scored"
}

func (a *Adaptor) Match(probe adaptor.Probe) bool {
	return probe.HasNested("summary", "scores")
}

func (a *Adaptor) ConvertResults(raw []byte) (*model.TestRunResults, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal scored payload")
	}
	if resp.Summary == nil {
		return nil, errors.New("scored payload has no summary")
	}

	s := resp.Summary
	out := &model.TestRunResults{
		Summary: model.Summary{
			ID:            s.ID,
			Status:        model.NormalizeRunStatus(s.Status),
			Error:         s.Error,
			TestCaseCount: s.Total,
			PassedCount:   s.Passed,
			FailedCount:   s.Failed,
			OverallScore:  s.Scores.Overall,
		},
		Results: make([]model.TestCaseResult, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, model.TestCaseResult{
			ID:               r.ID,
			TestCaseID:       r.TestCaseID,
			Status:           model.NormalizeTestCaseStatus(r.Status),
			AssertionResults: adaptor.ConvertAssertions(r.AssertionResults),
			Metrics:          r.Metrics,
			TranscriptURL:    r.TranscriptURL,
			RecordingURL:     r.RecordingURL,
		})
	}

	return out, nil
}
