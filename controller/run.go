package controller

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/hamming-ci/common/ctxkey"
	"github.com/songquanpeng/hamming-ci/model"
)

// Launch validates the launch configuration, creates a test run and returns its id.
// Nothing is sent when the configuration is invalid.
func Launch(ctx context.Context, d *Deps) (string, error) {
	cfg := d.Config
	lg := d.logger().Named("launch")

	if err := cfg.ValidateLaunch(); err != nil {
		return "", err
	}

	var overrides *model.TestOverrides
	if cfg.ScenarioOverride != "" || cfg.PersonaOverride != "" {
		overrides = &model.TestOverrides{Scenario: cfg.ScenarioOverride, Persona: cfg.PersonaOverride}
	}
	req, err := model.NewCreateTestRunRequest(cfg.AgentID, cfg.PhoneNumberList(),
		cfg.TagIDList(), cfg.TestCaseIDList(), overrides)
	if err != nil {
		return "", err
	}

	lg.Info("creating test run",
		zap.String("agent_id", req.AgentID),
		zap.Strings("phone_numbers", req.PhoneNumbers),
		zap.Strings("tag_ids", cfg.TagIDList()),
		zap.Strings("test_case_ids", cfg.TestCaseIDList()),
		zap.Bool("overrides", overrides != nil))

	resp, err := d.API.CreateTestRun(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "create test run")
	}

	lg = lg.With(zap.String(ctxkey.RunId, resp.TestRunID))
	if len(resp.TestCaseRuns) == 0 {
		lg.Warn("test run created but no test cases were queued, check the tag or test case ids")
	}
	lg.Info("test run created",
		zap.Int("test_cases", len(resp.TestCaseRuns)),
		zap.String("url", runURL(d, resp)))
	return resp.TestRunID, nil
}

func runURL(d *Deps, resp *model.TestRunResponse) string {
	if resp.ResultsURL != "" {
		return resp.ResultsURL
	}
	return d.Config.TestRunURL(resp.TestRunID)
}
