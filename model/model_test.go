package model

import (
	"encoding/json"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhoneNumbers(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr string
	}{
		{name: "trimmed", in: []string{" +15550001111 ", "+442071234567"}, want: []string{"+15550001111", "+442071234567"}},
		{name: "missing plus", in: []string{"+15550001111", "15550002222"}, wantErr: "phone number must start with '+': 15550002222"},
		{name: "blank", in: []string{"   "}, wantErr: "phone number must start with '+': "},
		{name: "empty list", in: nil, wantErr: ErrNoPhoneNumbers.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePhoneNumbers(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		cases   []string
		wantErr error
	}{
		{name: "tags only", tags: []string{"t1"}},
		{name: "cases only", cases: []string{"c1", "c2"}},
		{name: "both", tags: []string{"t1"}, cases: []string{"c1"}, wantErr: ErrConflictingSelection},
		{name: "neither", wantErr: ErrNoSelection},
		{name: "empty slices", tags: []string{}, cases: []string{}, wantErr: ErrNoSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelection(tt.tags, tt.cases)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestNewCreateTestRunRequest(t *testing.T) {
	t.Run("by tag with overrides", func(t *testing.T) {
		req, err := NewCreateTestRunRequest(" agent-1 ", []string{"+15550001111"},
			[]string{"smoke", "billing"}, nil, &TestOverrides{Persona: "impatient caller"})
		require.NoError(t, err)

		assert.Equal(t, "agent-1", req.AgentID)
		require.Len(t, req.TestConfigurations, 2)
		assert.Equal(t, "smoke", req.TestConfigurations[0].TagID)
		assert.Empty(t, req.TestConfigurations[0].TestCaseID)
		assert.Equal(t, "impatient caller", req.TestConfigurations[1].Overrides.Persona)

		body, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"agentId": "agent-1",
			"phoneNumbers": ["+15550001111"],
			"testConfigurations": [
				{"tagId": "smoke", "overrides": {"persona": "impatient caller"}},
				{"tagId": "billing", "overrides": {"persona": "impatient caller"}}
			]
		}`, string(body))
	})

	t.Run("by test case without overrides", func(t *testing.T) {
		req, err := NewCreateTestRunRequest("agent-1", []string{"+15550001111"},
			nil, []string{"tc_1"}, &TestOverrides{})
		require.NoError(t, err)

		body, err := json.Marshal(req.TestConfigurations)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"testCaseId": "tc_1"}]`, string(body))
	})

	t.Run("missing agent", func(t *testing.T) {
		_, err := NewCreateTestRunRequest("", []string{"+15550001111"}, []string{"smoke"}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AgentID")
	})

	t.Run("bad phone", func(t *testing.T) {
		_, err := NewCreateTestRunRequest("agent", []string{"0044"}, []string{"smoke"}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0044")
	})

	t.Run("conflicting selection", func(t *testing.T) {
		_, err := NewCreateTestRunRequest("agent", []string{"+1"}, []string{"smoke"}, []string{"tc"}, nil)
		assert.True(t, errors.Is(err, ErrConflictingSelection))
	})
}

func TestNormalizeRunStatus(t *testing.T) {
	tests := map[string]RunStatus{
		"COMPLETED":      RunStatusCompleted,
		" finished ":     RunStatusFinished,
		"ended":          RunStatus("ENDED"),
		"Scoring-Failed": RunStatusScoringFailed,
		"scoring failed": RunStatusScoringFailed,
		"":               RunStatus(""),
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRunStatus(in), in)
	}

	assert.True(t, RunStatusCanceled.IsVendorTerminal())
	assert.False(t, RunStatusScoring.IsVendorTerminal())
	assert.False(t, RunStatusTimeout.IsVendorTerminal())
	assert.True(t, RunStatusTimeout.IsSynthetic())
	assert.True(t, RunStatusNotFound.IsSynthetic())
}

func TestStatusSet(t *testing.T) {
	set := ParseStatusSet([]string{"finished", " ended ", ""})
	assert.True(t, set.Contains(RunStatusFinished))
	assert.True(t, set.Contains("ENDED"))
	assert.False(t, set.Contains(RunStatusCompleted))
	assert.Equal(t, "ENDED,FINISHED", set.String())

	assert.Equal(t, []string{"COMPLETED", "FINISHED"}, DefaultSuccessStatuses().Slice())
}

func TestSyntheticResults(t *testing.T) {
	body, err := json.Marshal(SyntheticResults("tr_1", RunStatusTimeout, "timed out after 600s"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"summary": {"id": "tr_1", "status": "TIMEOUT", "error": "timed out after 600s"},
		"results": []
	}`, string(body))
}

func TestCounts(t *testing.T) {
	res := &TestRunResults{Results: []TestCaseResult{
		{Status: TestCaseStatusPassed, AssertionResults: []AssertionResult{
			{Status: AssertionStatusPassed}, {Status: AssertionStatusPassed},
		}},
		{Status: TestCaseStatusFailed, AssertionResults: []AssertionResult{
			{Status: AssertionStatusFailed}, {Status: AssertionStatusError},
		}},
		{Status: TestCaseStatusPassed},
	}}

	assert.Equal(t, map[TestCaseStatus]int{TestCaseStatusPassed: 2, TestCaseStatusFailed: 1}, res.CountByStatus())
	passed, total := res.AssertionCounts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 4, total)
}
