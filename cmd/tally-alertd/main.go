package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tally/internal/alert"
	"tally/internal/backend"
	"tally/internal/cache"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/ratelimit"
	"tally/internal/report"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting tally-alertd")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Mode selects which half of the alert pipeline this process runs:
	// "notify" grades budgets and publishes, "deliver" consumes the queue.
	mode := os.Getenv("ALERTD_MODE")
	if mode == "" {
		mode = "notify"
	}
	if mode != "notify" && mode != "deliver" {
		logger.Error("Invalid ALERTD_MODE, expected notify or deliver", "mode", mode)
		os.Exit(1)
	}

	// Initialize AMQP client; both modes talk to the broker
	amqpClient, err := alert.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Prometheus scrape endpoint
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Metrics listener started", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics listener error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	switch mode {
	case "deliver":
		// Consume alerts from the queue and log each delivery. A real
		// deployment would hand them to a mail or chat gateway here.
		go func() {
			err := amqpClient.ConsumeBudgetAlerts(ctx, func(msg *alert.BudgetAlertMessage) error {
				logger.Info("Budget alert delivered",
					"message_id", msg.ID,
					"budget", msg.Name,
					"state", msg.State,
					"period", msg.Period,
					"actual_cents", msg.ActualCents,
					"limit_cents", msg.LimitCents)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Alert consumption failed", "error", err)
			}
			cancel()
		}()
		logger.Info("Alert delivery started", "queue", cfg.AMQPQueue)

	default:
		// Open the ledger store the notifier grades budgets from
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			logger.Error("Invalid backend configuration", "error", err)
			os.Exit(1)
		}
		res, err := backend.Open(ctx, backendCfg, logger)
		if err != nil {
			logger.Error("Failed to open ledger store", "error", err, "backend", cfg.DataBackend)
			os.Exit(1)
		}
		if res.Cleanup != nil {
			defer res.Cleanup()
		}

		svcCfg := report.DefaultConfig()
		svcCfg.RateLimit = ratelimit.Config{
			Limit:           cfg.RateLimit,
			Window:          cfg.RateLimitWindow,
			CleanupInterval: ratelimit.DefaultConfig().CleanupInterval,
		}
		svcCfg.NearThreshold = cfg.NearThreshold
		svcCfg.TrendThreshold = cfg.TrendThreshold
		svcCfg.TrendBaseline = cfg.TrendBaseline

		svc, err := report.NewService(res.Store, svcCfg, nil)
		if err != nil {
			logger.Error("Failed to build report service", "error", err)
			os.Exit(1)
		}
		defer svc.Close()

		notifier, err := alert.NewNotifier(svc, amqpClient, alert.DefaultNotifierConfig(), nil)
		if err != nil {
			logger.Error("Failed to build alert notifier", "error", err)
			os.Exit(1)
		}

		// Sweep the dedupe cache so long-quiet budgets do not pin memory
		cacheManager := cache.NewManager()
		cacheManager.Register(notifier.DedupeCache())
		cacheManager.StartCleanup(10 * time.Minute)
		defer cacheManager.Stop()

		go func() {
			err := notifier.Run(ctx, core.UserID(cfg.UserID), cfg.AlertInterval)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Notifier stopped", "error", err)
			}
			cancel()
		}()
		logger.Info("Budget notifier started",
			"interval", cfg.AlertInterval,
			"user_id", cfg.UserID,
			"backend", cfg.DataBackend)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down tally-alertd...")
	cancel()

	// Give in-flight publishes and acks a moment to settle
	time.Sleep(2 * time.Second)
	logger.Info("Alert daemon shutdown complete")
}
