package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/monitor"
)

// Wait polls runID until it is terminal and prints the results payload as indented JSON.
// timeout overrides the configured one when positive. The outcome is returned even when
// the status is not accepted, together with ErrRunNotSuccessful.
func Wait(ctx context.Context, d *Deps, runID string, timeout time.Duration) (*monitor.Outcome, error) {
	if runID == "" {
		return nil, errors.New("run id is empty")
	}
	out, err := poll(ctx, d, runID, timeout)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = json.Indent(&buf, out.Payload, "", "  "); err != nil {
		return nil, errors.Wrap(err, "indent results payload")
	}
	buf.WriteByte('\n')
	if _, err = buf.WriteTo(d.Out); err != nil {
		return nil, errors.Wrap(err, "write results payload")
	}

	if !successStatuses(d).Contains(out.Status) {
		return out, errors.Wrapf(ErrRunNotSuccessful, "status %s", out.Status)
	}
	return out, nil
}

func poll(ctx context.Context, d *Deps, runID string, timeout time.Duration) (*monitor.Outcome, error) {
	cfg := d.Config
	if err := cfg.ValidatePoll(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = cfg.Timeout()
	}

	p := monitor.NewPoller(d.API,
		monitor.WithInterval(cfg.PollInterval()),
		monitor.WithTimeout(timeout),
		monitor.WithSuccessStatuses(successStatuses(d)),
		monitor.WithLogger(d.logger().Named("wait")),
	)
	out, err := p.Wait(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for test run %s", runID)
	}

	d.logger().Named("wait").Info("wait finished",
		zap.String("run_id", runID),
		zap.String("status", string(out.Status)),
		zap.String("url", cfg.TestRunURL(runID)))
	return out, nil
}

func successStatuses(d *Deps) model.StatusSet {
	return model.ParseStatusSet(d.Config.SuccessStatusList())
}
