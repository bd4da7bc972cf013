package nested

import "github.com/songquanpeng/hamming-ci/relay/adaptor"

type Counts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type Summary struct {
	Counts       Counts   `json:"counts"`
	OverallScore *float64 `json:"overallScore"`
}

type TestRun struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Error   string  `json:"error"`
	Summary Summary `json:"summary"`
}

type TestCaseRef struct {
	ID    string `json:"id"`
	TagID string `json:"tagId"`
	Name  string `json:"name"`
}

type Result struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	TestCase         TestCaseRef         `json:"testCase"`
	AssertionResults []adaptor.Assertion `json:"assertionResults"`
	Metrics          map[string]any      `json:"metrics"`
	TranscriptURL    string              `json:"transcriptUrl"`
	RecordingURL     string              `json:"recordingUrl"`
}

type Response struct {
	TestRun *TestRun `json:"testRun"`
	Results []Result `json:"results"`
}
