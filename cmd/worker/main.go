package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coverlinehq/coverline/internal/app/bootstrap"
	appconfig "github.com/coverlinehq/coverline/internal/config"
	"github.com/coverlinehq/coverline/internal/conversation"
	"github.com/coverlinehq/coverline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	worker := conversation.NewWorker(rt.Engine, rt.Queue, logger.Component("worker"),
		conversation.WithWorkerCount(cfg.WorkerCount),
	)
	logger.Info("conversation worker started", "workers", cfg.WorkerCount)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker shutdown failed", "error", err)
	}
}
