package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coverlinehq/coverline/internal/api/router"
	"github.com/coverlinehq/coverline/internal/app/bootstrap"
	appconfig "github.com/coverlinehq/coverline/internal/config"
	"github.com/coverlinehq/coverline/internal/http/handlers"
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

	webhooks := handlers.NewTwilioWebhookHandler(handlers.TwilioWebhookConfig{
		Agents:        rt.Agents,
		Resolver:      rt.Resolver,
		Store:         rt.Messages,
		Processed:     rt.Processed,
		Conversation:  rt.Engine,
		Logger:        logger.Component("webhooks"),
		Metrics:       rt.Metrics,
		AuthToken:     cfg.TwilioAuthToken,
		BypassToken:   cfg.WebhookBypassToken,
		AllowUnsigned: cfg.AllowUnsignedWebhooks,
		Production:    cfg.IsProduction(),
	})

	handler := router.New(&router.Config{
		Logger:          logger,
		TwilioWebhooks:  webhooks,
		AdminBooking:    handlers.NewAdminBookingHandler(rt.Agents, logger.Component("admin")),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
