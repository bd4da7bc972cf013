package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songquanpeng/hamming-ci/common/config"
	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay"
	"github.com/songquanpeng/hamming-ci/stub"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		APIKey:               "test-key",
		APIBaseURL:           baseURL,
		UIBaseURL:            "https://app.example.com",
		AgentID:              "agent-1",
		PhoneNumbers:         "+15550001111",
		PollIntervalSeconds:  1,
		TimeoutSeconds:       30,
		HTTPTimeoutSeconds:   5,
		MinTestPassRate:      1,
		MinAssertionPassRate: 1,
		SuccessStatuses:      config.DefaultSuccessStatuses,
	}
}

// newStubDeps serves a stub whose runs are terminal on the first status poll.
func newStubDeps(t *testing.T, final model.RunStatus) (*Deps, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(stub.NewRouter(stub.New(stub.Options{
		APIKey:   "test-key",
		Statuses: []model.RunStatus{final},
	}), logger.Logger, "info"))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL + "/api/rest")
	out := new(bytes.Buffer)
	return &Deps{Config: cfg, API: relay.NewClient(cfg), Out: out, Logger: logger.Logger}, out
}

func TestLaunchRejectsInvalidConfigWithoutRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "no api key", mutate: func(c *config.Config) { c.APIKey = "" }, want: "HAMMING_API_KEY"},
		{name: "no selection", mutate: func(c *config.Config) {}, want: "either TAG_IDS or TEST_CASE_IDS"},
		{name: "both selections", mutate: func(c *config.Config) { c.TagIDs, c.TestCaseIDs = "smoke", "tc_1" }, want: "mutually exclusive"},
		{name: "phone without plus", mutate: func(c *config.Config) { c.TagIDs, c.PhoneNumbers = "smoke", "15550001111" }, want: "15550001111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(srv.URL)
			tt.mutate(cfg)
			_, err := Launch(context.Background(), &Deps{Config: cfg, API: relay.NewClient(cfg), Out: new(bytes.Buffer)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Zero(t, calls.Load())
}

func TestLaunch(t *testing.T) {
	d, out := newStubDeps(t, model.RunStatusCompleted)
	d.Config.TagIDs = "smoke"
	d.Config.ScenarioOverride = "caller is in a hurry"

	runID, err := Launch(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "tr_"), runID)
	assert.Empty(t, out.String())
}

func TestLaunchNoQueuedCasesIsNotFatal(t *testing.T) {
	d, _ := newStubDeps(t, model.RunStatusCompleted)
	d.Config.TagIDs = "empty"

	runID, err := Launch(context.Background(), d)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
}

func TestLaunchSurfacesAPIError(t *testing.T) {
	d, _ := newStubDeps(t, model.RunStatusCompleted)
	d.Config.TagIDs = "smoke"
	d.Config.APIKey = "wrong-key"
	d.API = relay.NewClient(d.Config)

	_, err := Launch(context.Background(), d)
	require.Error(t, err)
	var statusErr *relay.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
}

func TestWaitPrintsIndentedPayload(t *testing.T) {
	d, out := newStubDeps(t, model.RunStatusFinished)
	d.Config.TagIDs = "smoke"
	runID, err := Launch(context.Background(), d)
	require.NoError(t, err)

	res, err := Wait(context.Background(), d, runID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFinished, res.Status)

	printed := out.String()
	assert.True(t, strings.HasPrefix(printed, "{\n  "), printed)
	assert.True(t, json.Valid([]byte(printed)))
	assert.Contains(t, printed, runID)
}

func TestWaitUnacceptedStatus(t *testing.T) {
	d, out := newStubDeps(t, model.RunStatusScoringFailed)
	d.Config.TagIDs = "smoke"
	runID, err := Launch(context.Background(), d)
	require.NoError(t, err)

	res, err := Wait(context.Background(), d, runID, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotSuccessful))
	require.NotNil(t, res)
	assert.Equal(t, model.RunStatusScoringFailed, res.Status)
	assert.Contains(t, out.String(), "SCORING_FAILED")
}

func TestWaitUnknownRun(t *testing.T) {
	d, out := newStubDeps(t, model.RunStatusCompleted)

	res, err := Wait(context.Background(), d, "tr_missing", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotSuccessful))
	assert.Equal(t, model.RunStatusNotFound, res.Status)
	assert.Contains(t, out.String(), `"NOT_FOUND"`)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "all passed",
			payload:    `{"summary":{"id":"tr_1","status":"COMPLETED"},"results":[{"id":"a","testCaseId":"tc_1","status":"PASSED","assertionResults":[{"assertionName":"x","status":"PASSED"}]}]}`,
			wantOutput: []string{"PASSED: all quality gates met", "https://app.example.com/test-cases/tc_1"},
		},
		{
			name:       "failing assertion",
			payload:    `{"summary":{"id":"tr_1","status":"COMPLETED"},"results":[{"id":"a","testCaseId":"tc_1","status":"FAILED","assertionResults":[{"assertionName":"verifies identity","status":"FAILED","reason":"skipped"}]}]}`,
			wantErr:    ErrGateFailed,
			wantOutput: []string{"tc_1", "verifies identity", "skipped"},
		},
		{
			name:       "empty run",
			payload:    `{"summary":{"id":"tr_1","status":"COMPLETED"},"results":[]}`,
			wantErr:    ErrGateFailed,
			wantOutput: []string{"no test cases found in results"},
		},
		{
			name:       "timeout",
			payload:    `{"summary":{"id":"tr_1","status":"TIMEOUT","error":"did not finish"},"results":[]}`,
			wantErr:    ErrGateFailed,
			wantOutput: []string{"TIMEOUT", "did not finish"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			d := &Deps{Config: testConfig("http://unused"), Out: out}

			_, err := Check(context.Background(), d, []byte(tt.payload))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "%v", err)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.wantOutput {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestCheckRejectsUnknownPayload(t *testing.T) {
	d := &Deps{Config: testConfig("http://unused"), Out: new(bytes.Buffer)}

	_, err := Check(context.Background(), d, []byte(`{"foo":1}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrGateFailed))
	assert.True(t, errors.Is(err, relay.ErrUnknownSchema))
}

func TestCheckNotifiesOnFailure(t *testing.T) {
	var body atomic.Value
	pusher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg map[string]any
		_ = json.NewDecoder(r.Body).Decode(&msg)
		body.Store(msg)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer pusher.Close()

	cfg := testConfig("http://unused")
	cfg.MessagePusherAddress = pusher.URL
	d := &Deps{Config: cfg, Out: new(bytes.Buffer)}

	_, err := Check(context.Background(), d, []byte(`{"summary":{"id":"tr_9","status":"FAILED"},"results":[]}`))
	require.True(t, errors.Is(err, ErrGateFailed))

	msg, ok := body.Load().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hamming quality gate failed", msg["title"])
	assert.Equal(t, "https://app.example.com/test-runs/tr_9", msg["url"])
}

func TestCheckRun(t *testing.T) {
	d, out := newStubDeps(t, model.RunStatusCompleted)
	d.Config.TestCaseIDs = "tc_greeting,tc_fail_identity"
	runID, err := Launch(context.Background(), d)
	require.NoError(t, err)

	// the stub only reveals results once the run was polled
	_, err = d.API.GetStatus(context.Background(), runID)
	require.NoError(t, err)

	res, err := CheckRun(context.Background(), d, runID)
	require.True(t, errors.Is(err, ErrGateFailed))
	assert.Equal(t, 1, res.Tests.Passed)
	assert.Contains(t, out.String(), "agent skipped identity verification")
}

func TestPipeline(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		d, out := newStubDeps(t, model.RunStatusCompleted)
		d.Config.TagIDs = "smoke"

		res, err := Pipeline(context.Background(), d)
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Len(t, res.Cases, 2)
		assert.Contains(t, out.String(), "PASSED: all quality gates met")
	})

	t.Run("fails on failing case", func(t *testing.T) {
		d, out := newStubDeps(t, model.RunStatusCompleted)
		d.Config.TestCaseIDs = "tc_greeting,tc_fail_identity"

		res, err := Pipeline(context.Background(), d)
		require.True(t, errors.Is(err, ErrGateFailed))
		require.Len(t, res.FailingCases(), 1)
		assert.Equal(t, "tc_fail_identity", res.FailingCases()[0].TestCaseID)
		assert.Contains(t, out.String(), "verifies identity")
	})

	t.Run("fails on empty selection", func(t *testing.T) {
		d, _ := newStubDeps(t, model.RunStatusCompleted)
		d.Config.TagIDs = "empty"

		res, err := Pipeline(context.Background(), d)
		require.True(t, errors.Is(err, ErrGateFailed))
		assert.Equal(t, "no test cases found in results", res.Reason)
	})
}
