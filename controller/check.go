package controller

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/hamming-ci/common/message"
	"github.com/songquanpeng/hamming-ci/gate"
	"github.com/songquanpeng/hamming-ci/relay"
	"github.com/songquanpeng/hamming-ci/relay/schema"
)

// Check evaluates a results payload, prints the report and returns ErrGateFailed
// when any gate is not met. A payload in no known shape is a parse error.
func Check(ctx context.Context, d *Deps, raw []byte) (*gate.Result, error) {
	lg := d.logger().Named("check")
	if err := d.Config.ValidateGate(); err != nil {
		return nil, err
	}

	results, schemaType, err := relay.DecodeResults(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse results")
	}
	lg.Debug("results decoded",
		zap.String("schema", schema.Name(schemaType)),
		zap.Int("test_cases", len(results.Results)))

	result := gate.Evaluate(results, gateOptions(d))
	gate.RenderReport(d.Out, result)

	if err = gate.RecordMetrics(ctx, metricsOptions(d), result); err != nil {
		lg.Warn("record metrics", zap.Error(err))
	}

	if !result.Passed {
		notifyFailure(ctx, d, result)
		return result, ErrGateFailed
	}
	lg.Info("quality gates passed",
		zap.String("run_id", result.RunID),
		zap.Float64("test_pass_rate", result.Tests.Rate))
	return result, nil
}

// CheckRun fetches the results of runID from the API and checks them.
func CheckRun(ctx context.Context, d *Deps, runID string) (*gate.Result, error) {
	if err := d.Config.ValidatePoll(); err != nil {
		return nil, err
	}
	raw, err := d.API.GetResults(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch results of %s", runID)
	}
	return Check(ctx, d, raw)
}

func gateOptions(d *Deps) gate.Options {
	return gate.Options{
		MinTestPassRate:      d.Config.MinTestPassRate,
		MinAssertionPassRate: d.Config.MinAssertionPassRate,
		SuccessStatuses:      successStatuses(d),
		TestCaseURL:          d.Config.TestCaseURL,
	}
}

func metricsOptions(d *Deps) gate.MetricsOptions {
	return gate.MetricsOptions{
		Textfile:       d.Config.MetricsTextfile,
		PushgatewayURL: d.Config.PushgatewayURL,
		Job:            d.Config.MetricsJob,
	}
}

func notifyFailure(ctx context.Context, d *Deps, r *gate.Result) {
	if d.Config.MessagePusherAddress == "" {
		return
	}

	description := r.Reason
	if description == "" {
		description = fmt.Sprintf("test pass rate %.1f%%, assertion pass rate %.1f%%, %d failing test cases",
			r.Tests.Rate*100, r.Assertions.Rate*100, len(r.FailingCases()))
	}
	var url string
	if r.RunID != "" {
		url = d.Config.TestRunURL(r.RunID)
	}
	if err := message.SendMessage(ctx, d.Config,
		"Hamming quality gate failed", description,
		fmt.Sprintf("run %s ended with status %s", r.RunID, r.Status), url); err != nil {
		d.logger().Warn("send failure notification", zap.Error(err))
	}
}
