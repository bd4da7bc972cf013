package gate

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricsOptions selects where gate metrics are exported. Both targets are optional.
type MetricsOptions struct {
	Textfile       string
	PushgatewayURL string
	Job            string
}

func (o MetricsOptions) Enabled() bool {
	return o.Textfile != "" || o.PushgatewayURL != ""
}

// NewRegistry returns a registry holding the gauges that describe r.
func NewRegistry(r *Result) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	passed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hamming_ci_gate_passed",
		Help: "1 when the last test run met every quality gate.",
	})
	testRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hamming_ci_test_pass_rate",
		Help: "Share of passed test cases in the last test run.",
	})
	assertionRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hamming_ci_assertion_pass_rate",
		Help: "Share of passed assertions in the last test run.",
	})
	cases := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hamming_ci_test_cases",
		Help: "Test cases of the last test run by status.",
	}, []string{"status"})
	reg.MustRegister(passed, testRate, assertionRate, cases)

	if r.Passed {
		passed.Set(1)
	}
	testRate.Set(r.Tests.Rate)
	if !r.Assertions.Skipped {
		assertionRate.Set(r.Assertions.Rate)
	}
	for _, c := range r.Cases {
		cases.WithLabelValues(string(c.Status)).Inc()
	}
	return reg
}

// RecordMetrics writes the textfile and pushes to the Pushgateway, whichever are configured.
func RecordMetrics(ctx context.Context, opts MetricsOptions, r *Result) error {
	if !opts.Enabled() {
		return nil
	}
	reg := NewRegistry(r)

	if opts.Textfile != "" {
		if err := prometheus.WriteToTextfile(opts.Textfile, reg); err != nil {
			return errors.Wrapf(err, "write metrics textfile %q", opts.Textfile)
		}
	}

	if opts.PushgatewayURL != "" {
		job := opts.Job
		if job == "" {
			job = "hamming_ci"
		}
		pusher := push.New(opts.PushgatewayURL, job).Gatherer(reg)
		if r.RunID != "" {
			pusher = pusher.Grouping("run_id", r.RunID)
		}
		if err := pusher.PushContext(ctx); err != nil {
			return errors.Wrapf(err, "push metrics to %s", opts.PushgatewayURL)
		}
	}
	return nil
}
