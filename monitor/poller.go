package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/hamming-ci/common/helper"
	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 600 * time.Second
)

// StatusSource is the part of the API client the poller needs.
type StatusSource interface {
	GetStatus(ctx context.Context, runID string) (model.RunStatus, error)
	GetResults(ctx context.Context, runID string) (json.RawMessage, error)
}

// Outcome is how a wait ended. Payload is the raw results payload for vendor
// terminal statuses and a synthetic one for TIMEOUT and NOT_FOUND.
type Outcome struct {
	RunID   string
	Status  model.RunStatus
	Payload json.RawMessage
	Polls   int
	Elapsed time.Duration
}

// Poller waits for a test run to reach a terminal status.
type Poller struct {
	source   StatusSource
	interval time.Duration
	timeout  time.Duration
	success  model.StatusSet
	logger   glog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithSuccessStatuses adds statuses that end the wait besides the vendor terminal ones,
// e.g. ENDED on API revisions that report it.
func WithSuccessStatuses(set model.StatusSet) Option {
	return func(p *Poller) { p.success = set }
}

func WithLogger(lg glog.Logger) Option {
	return func(p *Poller) { p.logger = lg }
}

func NewPoller(source StatusSource, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		success:  model.DefaultSuccessStatuses(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Logger
	}
	return p
}

func (p *Poller) isTerminal(st model.RunStatus) bool {
	return st.IsVendorTerminal() || p.success.Contains(st)
}

// Wait polls the run until it reaches a terminal status, the run turns out not to exist,
// or the timeout expires. The timeout is checked before every request, so Wait returns
// no earlier than the timeout and at most one interval (plus request latency) after it.
// Request errors are logged and retried on the next tick; only ctx cancellation
// makes Wait return an error.
func (p *Poller) Wait(ctx context.Context, runID string) (*Outcome, error) {
	lg := p.logger.With(zap.String("run_id", runID))
	lg.Info("waiting for test run",
		zap.Duration("interval", p.interval),
		zap.Duration("timeout", p.timeout))

	var (
		start        = p.now()
		last         model.RunStatus
		lastProgress map[model.TestCaseStatus]int
		polls        int
	)
	for {
		elapsed := p.now().Sub(start)
		if elapsed >= p.timeout {
			lg.Warn("timed out waiting for test run",
				zap.Duration("timeout", p.timeout),
				zap.String("last_status", string(last)),
				zap.Int("polls", polls))
			msg := fmt.Sprintf("test run did not finish within %s, last status %q", p.timeout, last)
			return p.synthetic(runID, model.RunStatusTimeout, msg, polls, elapsed)
		}

		st, err := p.source.GetStatus(ctx, runID)
		polls++
		switch {
		case errors.Is(err, relay.ErrNotFound):
			lg.Error("test run not found", zap.Error(err))
			return p.synthetic(runID, model.RunStatusNotFound,
				fmt.Sprintf("test run %s not found", runID), polls, p.now().Sub(start))
		case err != nil:
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "wait for test run")
			}
			lg.Warn("status request failed, retrying on next tick", zap.Error(err), zap.Int("polls", polls))
		default:
			if st != last {
				lg.Info("test run status changed",
					zap.String("from", string(last)),
					zap.String("to", string(st)),
					zap.Int64("elapsed_seconds", helper.CalcElapsedSeconds(start, p.now())))
				last = st
			}

			if p.isTerminal(st) {
				raw, err := p.source.GetResults(ctx, runID)
				if err == nil {
					elapsed = p.now().Sub(start)
					lg.Info("test run reached terminal status",
						zap.String("status", string(st)),
						zap.Int("polls", polls),
						zap.Duration("elapsed", elapsed))
					return &Outcome{RunID: runID, Status: st, Payload: raw, Polls: polls, Elapsed: elapsed}, nil
				}
				if ctx.Err() != nil {
					return nil, errors.Wrap(ctx.Err(), "wait for test run")
				}
				lg.Warn("results request failed, retrying on next tick", zap.Error(err))
			} else if st == model.RunStatusRunning {
				lastProgress = p.logProgress(ctx, lg, runID, lastProgress)
			}
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, errors.Wrap(err, "wait for test run")
		}
	}
}

// logProgress fetches partial results and logs per-status counts when they changed.
// Every failure is ignored: progress is informational and must never end the wait.
func (p *Poller) logProgress(ctx context.Context, lg glog.Logger, runID string,
	prev map[model.TestCaseStatus]int) map[model.TestCaseStatus]int {
	raw, err := p.source.GetResults(ctx, runID)
	if err != nil {
		lg.Debug("progress unavailable", zap.Error(err))
		return prev
	}
	res, _, err := relay.DecodeResults(raw)
	if err != nil {
		lg.Debug("progress unavailable", zap.Error(err))
		return prev
	}

	counts := res.CountByStatus()
	if maps.Equal(counts, prev) {
		return prev
	}
	fields := []zap.Field{zap.Int("total", len(res.Results))}
	for st, n := range counts {
		fields = append(fields, zap.Int(string(st), n))
	}
	lg.Info("test run progress", fields...)
	return counts
}

func (p *Poller) synthetic(runID string, status model.RunStatus, msg string,
	polls int, elapsed time.Duration) (*Outcome, error) {
	raw, err := json.Marshal(model.SyntheticResults(runID, status, msg))
	if err != nil {
		return nil, errors.Wrap(err, "marshal synthetic results")
	}
	return &Outcome{RunID: runID, Status: status, Payload: raw, Polls: polls, Elapsed: elapsed}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
