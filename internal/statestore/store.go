// Package statestore persists the aggregate snapshot and the user's
// limit/budget configuration in SQLite. The snapshot is a single JSON
// document replaced in one statement, so a reader can never observe a
// partially written state.
package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finpulse/internal/core"
)

const dailyLimitKey = "daily_limit"

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadSnapshot returns the current aggregate snapshot. A missing or
// unparsable persisted form is treated as "never initialized": the caller
// gets the zero snapshot, never an error. Read paths must not fault.
func (s *Store) ReadSnapshot(ctx context.Context) core.Snapshot {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM live_state WHERE id = 1`).Scan(&doc)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.WarnContext(ctx, "Snapshot read failed, serving defaults", "error", err)
		}
		return core.DefaultSnapshot()
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		slog.WarnContext(ctx, "Snapshot document unparsable, serving defaults", "error", err)
		return core.DefaultSnapshot()
	}
	normalize(&snap)
	return snap
}

// WriteSnapshot atomically replaces the persisted snapshot and stamps
// LastUpdated. Failures are reported to the caller; the previously
// persisted snapshot stays intact.
func (s *Store) WriteSnapshot(ctx context.Context, snap core.Snapshot) error {
	snap.LastUpdated = time.Now().UTC()
	normalize(&snap)

	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO live_state (id, doc, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(doc), snap.LastUpdated.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Reset replaces the snapshot with defaults in a single write. Concurrent
// readers see either the old state or the cleared one, never a half-clear.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.WriteSnapshot(ctx, core.DefaultSnapshot()); err != nil {
		return fmt.Errorf("reset snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Live state reset to defaults")
	return nil
}

// DailyLimit returns the configured daily spending limit. An unset limit
// is a first-class state, distinct from zero.
func (s *Store) DailyLimit(ctx context.Context) (decimal.Decimal, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, dailyLimitKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("read daily limit: %w", err)
	}

	limit, err := decimal.NewFromString(value)
	if err != nil {
		slog.WarnContext(ctx, "Stored daily limit unparsable, treating as unset", "value", value)
		return decimal.Zero, false, nil
	}
	return limit, true, nil
}

func (s *Store) SetDailyLimit(ctx context.Context, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return core.ErrInvalidAmount
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		dailyLimitKey, limit.String())
	if err != nil {
		return fmt.Errorf("set daily limit: %w", err)
	}
	return nil
}

func (s *Store) ClearDailyLimit(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, dailyLimitKey)
	if err != nil {
		return fmt.Errorf("clear daily limit: %w", err)
	}
	return nil
}

// RecommendedBudget returns the category -> monthly ceiling mapping.
// Unparsable rows are skipped and reported, not fatal.
func (s *Store) RecommendedBudget(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, ceiling FROM recommended_budget`)
	if err != nil {
		return nil, fmt.Errorf("read recommended budget: %w", err)
	}
	defer rows.Close()

	budget := map[string]decimal.Decimal{}
	for rows.Next() {
		var category, ceiling string
		if err := rows.Scan(&category, &ceiling); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		d, err := decimal.NewFromString(ceiling)
		if err != nil {
			slog.WarnContext(ctx, "Budget ceiling unparsable, skipping category",
				"category", category, "ceiling", ceiling)
			continue
		}
		budget[category] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget rows: %w", err)
	}
	return budget, nil
}

// SetRecommendedBudget replaces the whole mapping in one transaction.
func (s *Store) SetRecommendedBudget(ctx context.Context, budget map[string]decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin budget transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommended_budget`); err != nil {
		return fmt.Errorf("clear recommended budget: %w", err)
	}
	for category, ceiling := range budget {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommended_budget (category, ceiling) VALUES (?, ?)`,
			category, ceiling.String()); err != nil {
			return fmt.Errorf("insert budget category %s: %w", category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recommended budget: %w", err)
	}
	return nil
}

// normalize keeps the snapshot's collections non-nil so consumers and the
// JSON form stay stable regardless of which writer produced the state.
func normalize(s *core.Snapshot) {
	if s.CategoryTotals == nil {
		s.CategoryTotals = map[string]decimal.Decimal{}
	}
	if s.BudgetAlerts == nil {
		s.BudgetAlerts = []core.BudgetAlert{}
	}
	if s.AnomalyFlags == nil {
		s.AnomalyFlags = []core.Anomaly{}
	}
}
