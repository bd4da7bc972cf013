package controller

import (
	"context"

	"github.com/songquanpeng/hamming-ci/gate"
)

// Pipeline runs launch, wait and check in one process. The run id goes to the log
// instead of Out, so Out only carries the report.
func Pipeline(ctx context.Context, d *Deps) (*gate.Result, error) {
	runID, err := Launch(ctx, d)
	if err != nil {
		return nil, err
	}

	out, err := poll(ctx, d, runID, 0)
	if err != nil {
		return nil, err
	}
	return Check(ctx, d, out.Payload)
}
