package results

import "github.com/songquanpeng/hamming-ci/relay/adaptor"

type Summary struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Error         string   `json:"error"`
	TestCaseCount int      `json:"testCaseCount"`
	PassedCount   int      `json:"passedCount"`
	FailedCount   int      `json:"failedCount"`
	OverallScore  *float64 `json:"overallScore"`
}

type Result struct {
	ID               string              `json:"id"`
	TestCaseID       string              `json:"testCaseId"`
	Status           string              `json:"status"`
	AssertionResults []adaptor.Assertion `json:"assertionResults"`
	Metrics          map[string]any      `json:"metrics"`
	TranscriptURL    string              `json:"transcriptUrl"`
	RecordingURL     string              `json:"recordingUrl"`
}

type Response struct {
	Summary *Summary `json:"summary"`
	Results []Result `json:"results"`
}
