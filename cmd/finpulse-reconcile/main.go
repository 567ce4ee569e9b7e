// finpulse-reconcile runs one reconciliation pass and prints the snapshot
// it persisted. Meant for cron jobs and operator spot checks against a
// live data directory.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"finpulse/internal/config"
	"finpulse/internal/reconcile"
	"finpulse/internal/statestore"
	"finpulse/internal/txlog"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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
	reconciler := reconcile.New(txLog, store, nil, cfg.ReconcileInterval, cfg.AnomalyThreshold)

	snap, err := reconciler.RunOnce(context.Background())
	if err != nil {
		logger.Error("Reconciliation pass failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		logger.Error("Failed to render snapshot", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(append(out, '\n'))
}
