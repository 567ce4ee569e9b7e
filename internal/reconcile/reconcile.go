// Package reconcile runs the correctness backstop of the live state: a
// periodic full recompute of the aggregate snapshot from the transaction
// log. It is idempotent and authoritative; whatever the incremental fast
// path wrote is overwritten wholesale, so any interleaving of the two
// writers converges within one tick.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finpulse/internal/core"
	"finpulse/internal/notify"
	"finpulse/internal/statestore"
	"finpulse/internal/txlog"
)

const DefaultInterval = 3 * time.Second

type Reconciler struct {
	log       *txlog.Log
	store     *statestore.Store
	notifier  *notify.Client
	interval  time.Duration
	threshold decimal.Decimal

	// Row count observed on the previous tick. Starts below any real
	// count so a reconciler starting over an existing log always
	// recomputes on its first tick.
	lastRowCount int
}

func New(log *txlog.Log, store *statestore.Store, notifier *notify.Client, interval time.Duration, threshold decimal.Decimal) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold.IsZero() {
		threshold = DefaultAnomalyThreshold
	}
	return &Reconciler{
		log:          log,
		store:        store,
		notifier:     notifier,
		interval:     interval,
		threshold:    threshold,
		lastRowCount: -1,
	}
}

// Run executes the reconciliation loop until ctx is cancelled. Every
// failure inside a tick is contained: logged, then retried on the next
// tick. The loop itself never terminates on data or I/O errors.
func (r *Reconciler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Reconciliation loop started",
		"interval", r.interval,
		"anomaly_threshold", r.threshold)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.tick(ctx)
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reconciliation loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick recomputes only when the log's row count differs from the count
// observed on the previous tick. Coarse but cheap: appends are the only
// mutation the log permits.
func (r *Reconciler) tick(ctx context.Context) {
	count, err := r.log.RowCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Row count failed, retrying next tick", "error", err)
		return
	}
	if count == r.lastRowCount {
		return
	}

	if _, err := r.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Reconciliation pass failed, retrying next tick", "error", err)
		return
	}
	r.lastRowCount = count
}

// RunOnce performs one full scan-derive-write pass and returns the
// snapshot it persisted.
func (r *Reconciler) RunOnce(ctx context.Context) (core.Snapshot, error) {
	passID := uuid.NewString()
	started := time.Now()

	txs, report, err := r.log.ReadAll(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}

	budget, err := r.store.RecommendedBudget(ctx)
	if err != nil {
		// Degrade to an empty budget rather than aborting the pass;
		// alerts reappear once the mapping is readable again.
		slog.WarnContext(ctx, "Recommended budget unreadable, deriving without alerts",
			"pass_id", passID, "error", err)
		budget = map[string]decimal.Decimal{}
	}

	prev := r.store.ReadSnapshot(ctx)
	snap := Derive(txs, budget, r.threshold, time.Now())

	if err := r.store.WriteSnapshot(ctx, snap); err != nil {
		return core.Snapshot{}, err
	}

	if report.SkippedCount() > 0 {
		slog.WarnContext(ctx, "Malformed rows skipped during scan",
			"pass_id", passID,
			"skipped", report.SkippedCount(),
			"reasons", skipReasons(report))
	}
	slog.InfoContext(ctx, "Live metrics reconciled from log",
		"pass_id", passID,
		"rows", report.Rows,
		"skipped", report.SkippedCount(),
		"alerts", len(snap.BudgetAlerts),
		"anomalies", len(snap.AnomalyFlags),
		"elapsed", time.Since(started).Round(time.Millisecond))

	r.publishNewAlerts(ctx, prev, snap)

	return snap, nil
}

// publishNewAlerts emits a notification for each category that crossed
// into exceeded on this pass. Publishing is best-effort; a broker failure
// never fails the pass.
func (r *Reconciler) publishNewAlerts(ctx context.Context, prev, next core.Snapshot) {
	if r.notifier == nil {
		return
	}

	known := make(map[string]bool, len(prev.BudgetAlerts))
	for _, a := range prev.BudgetAlerts {
		known[a.Category] = true
	}
	for _, a := range next.BudgetAlerts {
		if known[a.Category] {
			continue
		}
		if err := r.notifier.PublishBudgetAlert(ctx, a); err != nil {
			slog.WarnContext(ctx, "Budget alert publish failed",
				"category", a.Category, "error", err)
		}
	}
}

func skipReasons(report txlog.ScanReport) map[string]int {
	reasons := map[string]int{}
	for _, s := range report.Skipped {
		reasons[s.Reason]++
	}
	return reasons
}
