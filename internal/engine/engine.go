// Package engine is the write-side fast path of the live financial state:
// it appends transactions to the log and folds their effect into the
// aggregate snapshot synchronously, so a new transaction is visible to
// readers before the producer call returns. The reconciliation loop later
// overwrites whatever this path wrote; the two writers need no ordering
// between them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/alerts"
	"finpulse/internal/analytics"
	"finpulse/internal/core"
	"finpulse/internal/limits"
	"finpulse/internal/notify"
	"finpulse/internal/statestore"
	"finpulse/internal/txlog"
)

// Defaults stamped on engine-written log rows; richer transaction entry
// paths (the natural-language parser) fill these from the user's text.
const (
	defaultMerchant = "Manual Entry"
	defaultAccount  = "HDFC Savings"
	defaultPayment  = "UPI"
)

type Engine struct {
	// mu serializes every read-modify-write cycle against the store.
	// Concurrent expense submissions without it would silently lose
	// updates (read stale, add, overwrite).
	mu sync.Mutex

	log      *txlog.Log
	store    *statestore.Store
	notifier *notify.Client
}

func New(log *txlog.Log, store *statestore.Store, notifier *notify.Client) *Engine {
	return &Engine{
		log:      log,
		store:    store,
		notifier: notifier,
	}
}

// RecordIncome appends an income row to the log and sets the monthly
// income to the given absolute value: "this is the current salary", not
// "another income event". Returns after the snapshot write is durable.
func (e *Engine) RecordIncome(ctx context.Context, amount decimal.Decimal) (core.Snapshot, error) {
	if amount.IsNegative() {
		return core.Snapshot{}, core.ErrInvalidAmount
	}
	amount = amount.Round(2)

	tx := core.Transaction{
		Date:          core.DateOf(time.Now()),
		Type:          core.Income,
		Merchant:      defaultMerchant,
		Category:      "Income",
		Amount:        amount,
		Account:       defaultAccount,
		PaymentMethod: defaultPayment,
	}
	if err := e.log.Append(ctx, tx); err != nil {
		return core.Snapshot{}, fmt.Errorf("append income: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.store.ReadSnapshot(ctx)
	snap.MonthlyIncome = amount
	snap.RecomputeNetSavings()
	if err := e.store.WriteSnapshot(ctx, snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("persist income update: %w", err)
	}

	slog.InfoContext(ctx, "Income recorded",
		"amount", amount,
		"net_savings", snap.NetSavings)
	return snap, nil
}

// RecordExpense appends an expense row to the log and adds its amount to
// the monthly, daily, and per-category totals. Returns after the snapshot
// write is durable.
func (e *Engine) RecordExpense(ctx context.Context, amount decimal.Decimal, category string) (core.Snapshot, error) {
	if amount.IsNegative() {
		return core.Snapshot{}, core.ErrInvalidAmount
	}
	amount = amount.Round(2)
	if category == "" {
		category = core.DefaultCategory
	}

	tx := core.Transaction{
		Date:          core.DateOf(time.Now()),
		Type:          core.Expense,
		Merchant:      defaultMerchant,
		Category:      category,
		Amount:        amount,
		Account:       defaultAccount,
		PaymentMethod: defaultPayment,
	}
	if err := e.log.Append(ctx, tx); err != nil {
		return core.Snapshot{}, fmt.Errorf("append expense: %w", err)
	}

	e.mu.Lock()
	snap := e.store.ReadSnapshot(ctx)
	snap.MonthlyExpense = snap.MonthlyExpense.Add(amount)
	snap.DailyExpense = snap.DailyExpense.Add(amount)
	snap.CategoryTotals[category] = snap.CategoryTotals[category].Add(amount)
	snap.RecomputeNetSavings()
	err := e.store.WriteSnapshot(ctx, snap)
	e.mu.Unlock()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("persist expense update: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"amount", amount,
		"category", category,
		"daily_expense", snap.DailyExpense)

	e.notifyIfLimitExceeded(ctx, snap)
	return snap, nil
}

// Snapshot returns the current aggregate snapshot. Never faults: an
// unreadable store degrades to the zero snapshot.
func (e *Engine) Snapshot(ctx context.Context) core.Snapshot {
	return e.store.ReadSnapshot(ctx)
}

// EvaluateDailyLimit classifies today's spending against the configured
// daily limit. A store error degrades to "limit not set" so the read path
// never faults.
func (e *Engine) EvaluateDailyLimit(ctx context.Context) limits.Evaluation {
	snap := e.store.ReadSnapshot(ctx)
	limit, configured, err := e.store.DailyLimit(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Daily limit unreadable, evaluating as unset", "error", err)
		configured = false
	}
	return limits.Evaluate(snap, limit, configured, time.Now())
}

// ProjectMonth extrapolates this month's spending velocity.
func (e *Engine) ProjectMonth(ctx context.Context) limits.Projection {
	return limits.Project(e.store.ReadSnapshot(ctx), time.Now())
}

// ProjectMonthRisk flags month-end overspend risk relative to income.
func (e *Engine) ProjectMonthRisk(ctx context.Context) limits.RiskAssessment {
	return limits.PredictRisk(e.store.ReadSnapshot(ctx), time.Now())
}

// ReductionSuggestions ranks where spending cuts would matter most.
func (e *Engine) ReductionSuggestions(ctx context.Context) []string {
	return limits.ReductionSuggestions(e.store.ReadSnapshot(ctx))
}

// BehaviorTag labels today's spending discipline.
func (e *Engine) BehaviorTag(ctx context.Context) string {
	return limits.BehaviorTag(e.EvaluateDailyLimit(ctx))
}

// CheckBudgetAlerts classifies every budgeted category against its
// recommended ceiling. An unreadable budget degrades to no alerts.
func (e *Engine) CheckBudgetAlerts(ctx context.Context) []alerts.Alert {
	snap := e.store.ReadSnapshot(ctx)
	budget, err := e.store.RecommendedBudget(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Recommended budget unreadable, reporting no alerts", "error", err)
		return []alerts.Alert{}
	}
	return alerts.Check(snap.CategoryTotals, budget)
}

// Analytics derives whole-log financial health metrics.
func (e *Engine) Analytics(ctx context.Context) (analytics.Report, error) {
	txs, report, err := e.log.ReadAll(ctx)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("scan log for analytics: %w", err)
	}
	if report.SkippedCount() > 0 {
		slog.WarnContext(ctx, "Malformed rows skipped in analytics scan",
			"skipped", report.SkippedCount())
	}
	return analytics.Compute(txs), nil
}

// Reset clears the aggregate snapshot to defaults in one atomic
// replacement. The transaction log is untouched; the next reconciliation
// pass rebuilds the metrics from it.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Reset(ctx)
}

// ResetDailyExpense zeroes the daily counter at day rollover without
// touching the monthly metrics.
func (e *Engine) ResetDailyExpense(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.store.ReadSnapshot(ctx)
	snap.DailyExpense = decimal.Zero
	if err := e.store.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("reset daily expense: %w", err)
	}
	slog.InfoContext(ctx, "Daily expense counter reset")
	return nil
}

// notifyIfLimitExceeded publishes a limit-exceeded event after an expense
// pushed today's spend over the configured limit. Best-effort: broker
// trouble never fails the producer call.
func (e *Engine) notifyIfLimitExceeded(ctx context.Context, snap core.Snapshot) {
	if e.notifier == nil {
		return
	}
	limit, configured, err := e.store.DailyLimit(ctx)
	if err != nil || !configured {
		return
	}
	ev := limits.Evaluate(snap, limit, configured, time.Now())
	if ev.Status != limits.StatusExceeded {
		return
	}
	event := notify.NewLimitExceededEvent(ev.Date, ev.Limit, ev.Spent, ev.ExceededBy)
	if err := e.notifier.PublishLimitExceeded(ctx, event); err != nil {
		slog.WarnContext(ctx, "Limit exceeded publish failed", "error", err)
	}
}
