package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"

	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/controller"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(newApp(os.Stdin, os.Stdout)).ExecuteContext(ctx)
	if err == nil {
		_ = logger.Close()
		return
	}

	switch {
	case errors.Is(err, controller.ErrGateFailed), errors.Is(err, controller.ErrRunNotSuccessful):
		// the report or the payload on stdout already explains the failure
		logger.Logger.Error("hamming-ci failed", zap.String("reason", err.Error()))
	default:
		logger.Logger.Error("hamming-ci failed", zap.Error(err))
	}
	_ = logger.Close()
	stop()
	os.Exit(1)
}
