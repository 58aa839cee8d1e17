// Package main запускает консольный клиент сервиса транскрипции Rev.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mmeshcher/transcribe-tool/internal/config"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		zap.NewExample().Sugar().Fatalw("configuration error", "error", err.Error())
	}

	logger := newLogger(cfg.Verbose)
	defer logger.Sync()

	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		sugar.Fatalw("command failed", "error", err)
	}
}

func newLogger(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
