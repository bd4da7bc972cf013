package gate

import (
	"fmt"

	"github.com/songquanpeng/hamming-ci/model"
)

// AssertionStrategy is how the assertion pass rate was obtained.
type AssertionStrategy string

const (
	// StrategyFlattened counts every per test case assertion.
	StrategyFlattened AssertionStrategy = "flattened"
	// StrategySummaryScore scales the summary's overall score from [0, 100] to [0, 1].
	StrategySummaryScore AssertionStrategy = "summary-score"
	// StrategyNone means the payload carries no assertions at all.
	StrategyNone AssertionStrategy = "none"
)

// Options holds the thresholds and the statuses accepted as a successful run.
type Options struct {
	MinTestPassRate      float64
	MinAssertionPassRate float64
	SuccessStatuses      model.StatusSet
	// TestCaseURL renders a link to a test case; optional.
	TestCaseURL func(testCaseID string) string
}

// DefaultOptions requires every test and every assertion to pass.
func DefaultOptions() Options {
	return Options{
		MinTestPassRate:      1,
		MinAssertionPassRate: 1,
		SuccessStatuses:      model.DefaultSuccessStatuses(),
	}
}

// RateCheck is one threshold comparison. Passed and Total are zero for the summary-score strategy.
type RateCheck struct {
	Passed    int
	Total     int
	Rate      float64
	Threshold float64
	OK        bool
	Skipped   bool
	Strategy  AssertionStrategy
}

// FailedAssertion is a FAILED or ERROR assertion of a test case.
type FailedAssertion struct {
	Name   string
	Status model.AssertionStatus
	Reason string
}

// CaseOutcome is one test case line of the report.
type CaseOutcome struct {
	ID               string
	TestCaseID       string
	Status           model.TestCaseStatus
	URL              string
	FailedAssertions []FailedAssertion
}

func (c CaseOutcome) Passed() bool {
	return c.Status == model.TestCaseStatusPassed
}

// Result is the gate decision with everything the report shows.
type Result struct {
	RunID          string
	Status         model.RunStatus
	StatusAccepted bool
	// Reason explains an early failure: unaccepted status or an empty run.
	Reason     string
	Tests      RateCheck
	Assertions RateCheck
	Cases      []CaseOutcome
	Passed     bool
}

// FailingCases returns the cases that did not pass.
func (r *Result) FailingCases() []CaseOutcome {
	var out []CaseOutcome
	for _, c := range r.Cases {
		if !c.Passed() {
			out = append(out, c)
		}
	}
	return out
}

// Evaluate decides whether a terminal run passes the gate.
func Evaluate(results *model.TestRunResults, opts Options) *Result {
	if opts.SuccessStatuses == nil {
		opts.SuccessStatuses = model.DefaultSuccessStatuses()
	}

	r := &Result{
		RunID:  results.Summary.ID,
		Status: results.Summary.Status,
	}

	r.StatusAccepted = opts.SuccessStatuses.Contains(results.Summary.Status)
	if !r.StatusAccepted {
		r.Reason = fmt.Sprintf("test run did not complete successfully, status %s not in %s",
			results.Summary.Status, opts.SuccessStatuses)
		if results.Summary.Error != "" {
			r.Reason += ": " + results.Summary.Error
		}
		return r
	}

	total := len(results.Results)
	if total == 0 {
		r.Reason = "no test cases found in results"
		return r
	}

	passedTests := 0
	for _, res := range results.Results {
		if res.Passed() {
			passedTests++
		}
		r.Cases = append(r.Cases, caseOutcome(res, opts))
	}
	r.Tests = RateCheck{
		Passed:    passedTests,
		Total:     total,
		Rate:      float64(passedTests) / float64(total),
		Threshold: opts.MinTestPassRate,
	}
	r.Tests.OK = r.Tests.Rate >= r.Tests.Threshold

	r.Assertions = assertionCheck(results, opts.MinAssertionPassRate)

	r.Passed = r.Tests.OK && r.Assertions.OK
	return r
}

func assertionCheck(results *model.TestRunResults, threshold float64) RateCheck {
	check := RateCheck{Threshold: threshold}

	if passed, total := results.AssertionCounts(); total > 0 {
		check.Strategy = StrategyFlattened
		check.Passed, check.Total = passed, total
		check.Rate = float64(passed) / float64(total)
	} else if score := results.Summary.OverallScore; score != nil {
		check.Strategy = StrategySummaryScore
		check.Rate = *score / 100
	} else {
		check.Strategy = StrategyNone
		check.Skipped = true
		check.OK = true
		return check
	}

	check.OK = check.Rate >= check.Threshold
	return check
}

func caseOutcome(res model.TestCaseResult, opts Options) CaseOutcome {
	out := CaseOutcome{
		ID:         res.ID,
		TestCaseID: res.TestCaseID,
		Status:     res.Status,
	}
	if opts.TestCaseURL != nil && res.TestCaseID != "" {
		out.URL = opts.TestCaseURL(res.TestCaseID)
	}
	if res.Passed() {
		return out
	}
	for _, a := range res.AssertionResults {
		if a.Status == model.AssertionStatusFailed || a.Status == model.AssertionStatusError {
			out.FailedAssertions = append(out.FailedAssertions, FailedAssertion{
				Name:   a.Name,
				Status: a.Status,
				Reason: a.Reason,
			})
		}
	}
	return out
}
