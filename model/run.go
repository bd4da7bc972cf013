package model

import (
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/common"
)

var (
	ErrNoPhoneNumbers       = errors.New("no phone numbers provided")
	ErrNoSelection          = errors.New("must specify either tag ids or test case ids for test selection")
	ErrConflictingSelection = errors.New("cannot specify both tag ids and test case ids, choose one selection method")
)

// TestOverrides replaces parts of the stored test case for this run only.
type TestOverrides struct {
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Persona  string `json:"persona,omitempty" yaml:"persona,omitempty"`
}

func (o *TestOverrides) IsZero() bool {
	return o == nil || (o.Scenario == "" && o.Persona == "")
}

// TestConfiguration selects the test cases of a run, either by tag or by id.
type TestConfiguration struct {
	TagID      string         `json:"tagId,omitempty" validate:"required_without=TestCaseID,excluded_with=TestCaseID"`
	TestCaseID string         `json:"testCaseId,omitempty" validate:"required_without=TagID,excluded_with=TagID"`
	Overrides  *TestOverrides `json:"overrides,omitempty"`
}

// CreateTestRunRequest is the body of the run creation call. Build it with
// NewCreateTestRunRequest; it is not modified afterwards.
type CreateTestRunRequest struct {
	AgentID            string              `json:"agentId" validate:"required"`
	PhoneNumbers       []string            `json:"phoneNumbers" validate:"required,min=1,dive,startswith=+"`
	TestConfigurations []TestConfiguration `json:"testConfigurations" validate:"required,min=1,dive"`
}

// QueuedTestCaseRun is one test case scheduled by the run creation call.
type QueuedTestCaseRun struct {
	TestCaseRunID string         `json:"testCaseRunId"`
	TestCaseID    string         `json:"testCaseId"`
	Status        TestCaseStatus `json:"status"`
}

// TestRunResponse is the answer to the run creation call.
type TestRunResponse struct {
	TestRunID    string              `json:"testRunId"`
	ResultsURL   string              `json:"resultsUrl,omitempty"`
	TestCaseRuns []QueuedTestCaseRun `json:"testCaseRuns,omitempty"`
}

// ValidatePhoneNumbers trims every number and requires the E.164 leading "+".
func ValidatePhoneNumbers(numbers []string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, ErrNoPhoneNumbers
	}

	formatted := make([]string, 0, len(numbers))
	for _, number := range numbers {
		number = strings.TrimSpace(number)
		if !strings.HasPrefix(number, "+") {
			return nil, errors.Errorf("phone number must start with '+': %s", number)
		}
		formatted = append(formatted, number)
	}
	return formatted, nil
}

// ValidateSelection requires exactly one of tagIDs and testCaseIDs to be non-empty.
func ValidateSelection(tagIDs, testCaseIDs []string) error {
	switch {
	case len(tagIDs) > 0 && len(testCaseIDs) > 0:
		return ErrConflictingSelection
	case len(tagIDs) == 0 && len(testCaseIDs) == 0:
		return ErrNoSelection
	}
	return nil
}

// NewCreateTestRunRequest builds one TestConfiguration per selected tag or test case.
// overrides may be nil.
func NewCreateTestRunRequest(agentID string, phoneNumbers, tagIDs, testCaseIDs []string,
	overrides *TestOverrides) (*CreateTestRunRequest, error) {
	phones, err := ValidatePhoneNumbers(phoneNumbers)
	if err != nil {
		return nil, err
	}
	if err = ValidateSelection(tagIDs, testCaseIDs); err != nil {
		return nil, err
	}
	if overrides.IsZero() {
		overrides = nil
	}

	req := &CreateTestRunRequest{
		AgentID:      strings.TrimSpace(agentID),
		PhoneNumbers: phones,
	}
	for _, id := range tagIDs {
		req.TestConfigurations = append(req.TestConfigurations,
			TestConfiguration{TagID: id, Overrides: overrides})
	}
	for _, id := range testCaseIDs {
		req.TestConfigurations = append(req.TestConfigurations,
			TestConfiguration{TestCaseID: id, Overrides: overrides})
	}

	if err = common.Validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "invalid test run request")
	}
	return req, nil
}
