package controller

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"

	"github.com/songquanpeng/hamming-ci/common/config"
	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/model"
)

var (
	// ErrRunNotSuccessful is returned by Wait when the run ended outside the accepted-success set.
	ErrRunNotSuccessful = errors.New("test run did not complete successfully")
	// ErrGateFailed is returned by Check and Pipeline when a quality gate is not met.
	ErrGateFailed = errors.New("quality gate failed")
)

// API is the part of the Hamming client the stages use.
type API interface {
	CreateTestRun(ctx context.Context, req *model.CreateTestRunRequest) (*model.TestRunResponse, error)
	GetStatus(ctx context.Context, runID string) (model.RunStatus, error)
	GetResults(ctx context.Context, runID string) (json.RawMessage, error)
}

// Deps carries what every stage needs. Out receives the stage output; logs never go there.
type Deps struct {
	Config *config.Config
	API    API
	Out    io.Writer
	Logger glog.Logger
}

func (d *Deps) logger() glog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logger.Logger
}
