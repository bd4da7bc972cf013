package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v5"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/Laisky/zap/zapcore"

	"github.com/songquanpeng/hamming-ci/common/config"
)

// Logger is the process logger. It writes to stderr so stdout stays reserved
// for the output each stage hands to the next one.
var Logger glog.Logger

// logFile is the LOG_FILE descriptor opened by Setup, if any.
var logFile *os.File

func init() {
	var err error
	if Logger, err = New("hamming-ci", os.Stderr); err != nil {
		panic(fmt.Sprintf("failed to create logger: %+v", err))
	}
}

// New creates a console logger named name that writes to w.
func New(name string, w io.Writer) (glog.Logger, error) {
	lg, err := glog.NewConsoleWithName(name, glog.LevelInfo)
	if err != nil {
		return nil, errors.Wrap(err, "new console logger")
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return lg.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		// the original core still decides which levels are enabled, so ChangeLevel keeps working
		return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), core)
	})), nil
}

// Setup applies the invocation configuration to Logger: level, optional log file,
// optional alert pusher and the invocation id field.
func Setup(ctx context.Context, cfg *config.Config, invocationID string) error {
	var (
		out  io.Writer = os.Stderr
		fd   *os.File
		opts []zap.Option
	)
	if cfg.LogFile != "" {
		var err error
		fd, err = os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrapf(err, "open log file %q", cfg.LogFile)
		}
		out = io.MultiWriter(os.Stderr, fd)
	}

	lg, err := New("hamming-ci", out)
	if err != nil {
		return err
	}

	if cfg.LogPushAPI != "" {
		ratelimiter, err := gutils.NewRateLimiter(ctx, gutils.RateLimiterArgs{
			Max:     1,
			NPerSec: 1,
		})
		if err != nil {
			return errors.Wrap(err, "create ratelimiter")
		}

		alertPusher, err := glog.NewAlert(
			ctx,
			cfg.LogPushAPI,
			glog.WithAlertType(cfg.LogPushType),
			glog.WithAlertToken(cfg.LogPushToken),
			glog.WithAlertHookLevel(zap.ErrorLevel),
			glog.WithRateLimiter(ratelimiter),
		)
		if err != nil {
			return errors.Wrap(err, "create AlertPusher")
		}

		opts = append(opts, zap.HooksWithFields(alertPusher.GetZapHook()))
	}

	lg = lg.WithOptions(opts...).With(zap.String("invocation", invocationID))
	if cfg.Debug {
		_ = lg.ChangeLevel("debug")
	}

	if err := Close(); err != nil {
		lg.Warn("close previous log file", zap.Error(err))
	}
	Logger = lg
	logFile = fd
	Logger.Debug("logger configured",
		zap.Bool("debug", cfg.Debug),
		zap.Bool("alert_pusher", cfg.LogPushAPI != ""),
		zap.String("log_file", cfg.LogFile),
	)
	return nil
}

// Close flushes Logger and closes the log file opened by Setup. It is safe to call twice.
func Close() error {
	_ = Logger.Sync()
	if logFile == nil {
		return nil
	}
	fd := logFile
	logFile = nil
	if err := fd.Close(); err != nil {
		return errors.Wrap(err, "close log file")
	}
	return nil
}
