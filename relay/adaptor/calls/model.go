package calls

// Score is one assertion verdict. Some revisions send a status string, others a boolean.
type Score struct {
	Name   string `json:"name"`
	Passed *bool  `json:"passed"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type Call struct {
	ID            string         `json:"id"`
	TestCaseID    string         `json:"testCaseId"`
	Status        string         `json:"status"`
	Scores        []Score        `json:"scores"`
	Metrics       map[string]any `json:"metrics"`
	TranscriptURL string         `json:"transcriptUrl"`
	RecordingURL  string         `json:"recordingUrl"`
}

// Response keeps the run summary on the root object.
type Response struct {
	ID           string   `json:"id"`
	TestRunID    string   `json:"testRunId"`
	Status       string   `json:"status"`
	Error        string   `json:"error"`
	TotalCount   int      `json:"totalCount"`
	PassedCount  int      `json:"passedCount"`
	FailedCount  int      `json:"failedCount"`
	OverallScore *float64 `json:"overallScore"`
	Calls        []Call   `json:"calls"`
}
