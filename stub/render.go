package stub

import (
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/schema"
)

// renderResults serializes a run in the given wire shape.
func renderResults(schemaType int, runID string, status model.RunStatus, cases []model.TestCaseResult) gin.H {
	passed, failed := 0, 0
	for _, c := range cases {
		switch c.Status {
		case model.TestCaseStatusPassed:
			passed++
		case model.TestCaseStatusFailed, model.TestCaseStatusError:
			failed++
		}
	}

	switch schemaType {
	case schema.Calls:
		calls := make([]gin.H, 0, len(cases))
		for _, c := range cases {
			scores := make([]gin.H, 0, len(c.AssertionResults))
			for _, a := range c.AssertionResults {
				scores = append(scores, gin.H{"name": a.Name, "passed": a.Passed(), "reason": a.Reason})
			}
			calls = append(calls, gin.H{
				"id": c.ID, "testCaseId": c.TestCaseID, "status": c.Status, "scores": scores,
				"transcriptUrl": c.TranscriptURL, "recordingUrl": c.RecordingURL, "metrics": c.Metrics,
			})
		}
		return gin.H{
			"id": runID, "status": status, "totalCount": len(cases),
			"passedCount": passed, "failedCount": failed, "calls": calls,
		}

	case schema.Nested:
		results := make([]gin.H, 0, len(cases))
		for _, c := range cases {
			results = append(results, gin.H{
				"id": c.ID, "status": c.Status, "testCase": gin.H{"id": c.TestCaseID},
				"assertionResults": renderAssertions(c.AssertionResults),
				"transcriptUrl":    c.TranscriptURL, "recordingUrl": c.RecordingURL, "metrics": c.Metrics,
			})
		}
		return gin.H{
			"testRun": gin.H{
				"id": runID, "status": status,
				"summary": gin.H{"counts": gin.H{"total": len(cases), "passed": passed, "failed": failed}},
			},
			"results": results,
		}

	case schema.Scored:
		results := make([]gin.H, 0, len(cases))
		for _, c := range cases {
			results = append(results, gin.H{
				"id": c.ID, "testCaseId": c.TestCaseID, "status": c.Status,
				"transcriptUrl": c.TranscriptURL, "recordingUrl": c.RecordingURL, "metrics": c.Metrics,
			})
		}
		summary := gin.H{"id": runID, "status": status, "total": len(cases), "passed": passed, "failed": failed}
		if p, total := assertionCounts(cases); total > 0 {
			summary["scores"] = gin.H{"overall": float64(p) * 100 / float64(total)}
		} else {
			summary["scores"] = gin.H{}
		}
		return gin.H{"summary": summary, "results": results}

	default:
		results := make([]gin.H, 0, len(cases))
		for _, c := range cases {
			results = append(results, gin.H{
				"id": c.ID, "testCaseId": c.TestCaseID, "status": c.Status,
				"assertionResults": renderAssertions(c.AssertionResults),
				"transcriptUrl":    c.TranscriptURL, "recordingUrl": c.RecordingURL, "metrics": c.Metrics,
			})
		}
		return gin.H{
			"summary": gin.H{
				"id": runID, "status": status, "testCaseCount": len(cases),
				"passedCount": passed, "failedCount": failed,
			},
			"results": results,
		}
	}
}

func renderAssertions(items []model.AssertionResult) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, a := range items {
		out = append(out, gin.H{"assertionName": a.Name, "status": a.Status, "reason": a.Reason})
	}
	return out
}

func assertionCounts(cases []model.TestCaseResult) (passed, total int) {
	res := model.TestRunResults{Results: cases}
	return res.AssertionCounts()
}
