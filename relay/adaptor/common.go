package adaptor

import (
	"github.com/songquanpeng/hamming-ci/model"
)

// Assertion is the assertion item shared by the results and nested shapes.
type Assertion struct {
	AssertionName string `json:"assertionName"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
}

// ConvertAssertions normalizes assertion items. Older payloads used "name" instead of "assertionName".
func ConvertAssertions(items []Assertion) []model.AssertionResult {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.AssertionResult, 0, len(items))
	for _, a := range items {
		name := a.AssertionName
		if name == "" {
			name = a.Name
		}
		out = append(out, model.AssertionResult{
			Name:   name,
			Status: model.NormalizeAssertionStatus(a.Status),
			Reason: a.Reason,
		})
	}
	return out
}

// PassedFromBool maps a boolean verdict onto an assertion status. A missing verdict is an error.
func PassedFromBool(passed *bool) model.AssertionStatus {
	switch {
	case passed == nil:
		return model.AssertionStatusError
	case *passed:
		return model.AssertionStatusPassed
	default:
		return model.AssertionStatusFailed
	}
}
