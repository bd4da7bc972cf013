package results

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/adaptor"
)

type Adaptor struct{}

func (a *Adaptor) GetSchemaName() string {
	return "results"
}

func (a *Adaptor) Match(probe adaptor.Probe) bool {
	return probe.Has("summary") || probe.Has("results")
}

func (a *Adaptor) ConvertResults(raw []byte) (*model.TestRunResults, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal results payload")
	}
	if resp.Summary == nil {
		return nil, errors.New("results payload has no summary")
	}

	out := &model.TestRunResults{
		Summary: model.Summary{
			ID:            resp.Summary.ID,
			Status:        model.NormalizeRunStatus(resp.Summary.Status),
			Error:         resp.Summary.Error,
			TestCaseCount: resp.Summary.TestCaseCount,
			PassedCount:   resp.Summary.PassedCount,
			FailedCount:   resp.Summary.FailedCount,
			OverallScore:  resp.Summary.OverallScore,
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
