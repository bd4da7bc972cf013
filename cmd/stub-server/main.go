// Command stub-server serves an in-memory Hamming test run API for local runs and CI dry runs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/songquanpeng/hamming-ci/common/graceful"
	"github.com/songquanpeng/hamming-ci/common/helper"
	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/schema"
	"github.com/songquanpeng/hamming-ci/stub"
)

type serverConfig struct {
	Addr            string `env:"STUB_ADDR" env-default:":8089"`
	APIKey          string `env:"STUB_API_KEY"`
	Schema          string `env:"STUB_SCHEMA" env-default:"results"`
	Statuses        string `env:"STUB_STATUSES"`
	RunTTLMinutes   int    `env:"STUB_RUN_TTL_MINUTES" env-default:"60"`
	UIBaseURL       string `env:"STUB_UI_BASE_URL"`
	LogLevel        string `env:"STUB_LOG_LEVEL" env-default:"info"`
	ShutdownTimeout int    `env:"STUB_SHUTDOWN_TIMEOUT_SECONDS" env-default:"10"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Logger.Error("stub server failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg serverConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return errors.Wrap(err, "read env")
	}

	schemaType := schema.Parse(cfg.Schema)
	if schemaType == schema.Dummy {
		return errors.Errorf("unknown STUB_SCHEMA %q", cfg.Schema)
	}
	var statuses []model.RunStatus
	for _, s := range helper.ParseCommaSeparated(cfg.Statuses) {
		statuses = append(statuses, model.NormalizeRunStatus(s))
	}

	if os.Getenv("GIN_MODE") != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.LogLevel == "debug" {
		_ = logger.Logger.ChangeLevel("debug")
	}

	s := stub.New(stub.Options{
		APIKey:    cfg.APIKey,
		Schema:    schemaType,
		Statuses:  statuses,
		RunTTL:    time.Duration(cfg.RunTTLMinutes) * time.Minute,
		UIBaseURL: cfg.UIBaseURL,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           stub.NewRouter(s, logger.Logger, cfg.LogLevel),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		logger.Logger.Info("stub server listening",
			zap.String("addr", cfg.Addr),
			zap.String("schema", schema.Name(schemaType)),
			zap.Bool("auth", cfg.APIKey != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen and serve")
		}
		return nil
	})
	grp.Go(func() error {
		<-grpCtx.Done()
		logger.Logger.Info("shutting down stub server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := graceful.Drain(shutdownCtx); err != nil {
			logger.Logger.Warn("drain in-flight requests", zap.Error(err))
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	return grp.Wait()
}
