package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finpulse/internal/config"
	"finpulse/internal/engine"
	"finpulse/internal/httpapi"
	"finpulse/internal/notify"
	"finpulse/internal/reconcile"
	"finpulse/internal/statestore"
	"finpulse/internal/txlog"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting finpulse")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := statestore.Open(cfg.StateDBPath)
	if err != nil {
		logger.Error("Failed to open state store", "error", err, "path", cfg.StateDBPath)
		os.Exit(1)
	}
	defer store.Close()

	txLog := txlog.New(cfg.TxLogPath)

	// AMQP alert publishing is optional; an empty URL disables it.
	var notifier *notify.Client
	if cfg.AMQPURL != "" {
		notifier, err = notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
		logger.Info("AMQP alert publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP alert publishing disabled - no AMQP_URL provided")
	}

	eng := engine.New(txLog, store, notifier)
	reconciler := reconcile.New(txLog, store, notifier, cfg.ReconcileInterval, cfg.AnomalyThreshold)
	srv := httpapi.NewServer(":"+cfg.Port, eng, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finpulse server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := reconciler.Run(gctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	// Daily rollover: zero the daily spend counter at local midnight. The
	// reconciliation loop only recomputes when rows arrive, so without
	// this a quiet day would keep showing yesterday's spend.
	g.Go(func() error {
		for {
			next := time.Now().AddDate(0, 0, 1)
			next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-gctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
				if err := eng.ResetDailyExpense(gctx); err != nil {
					logger.Error("Daily rollover failed", "error", err)
				}
			}
		}
	})

	// Graceful shutdown handling
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
