package scored

import "github.com/songquanpeng/hamming-ci/relay/adaptor"

type Scores struct {
	// Overall is the aggregated assertion score in [0, 100].
	Overall *float64 `json:"overall"`
}

type Summary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Total  int    `json:"total"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Scores Scores `json:"scores"`
}

type Result struct {
	ID            string         `json:"id"`
	TestCaseID    string         `json:"testCaseId"`
	Status        string         `json:"status"`
	Metrics       map[string]any `json:"metrics"`
	TranscriptURL string         `json:"transcriptUrl"`
	RecordingURL  string         `json:"recordingUrl"`

	// AssertionResults is usually absent; some payloads carry both the score and the assertions.
	AssertionResults []adaptor.Assertion `json:"assertionResults"`
}

type Response struct {
	Summary *Summary `json:"summary"`
	Results []Result `json:"results"`
}
