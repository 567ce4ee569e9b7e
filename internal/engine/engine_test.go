package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
	"finpulse/internal/limits"
	"finpulse/internal/reconcile"
	"finpulse/internal/statestore"
	"finpulse/internal/txlog"
)

func newTestEngine(t *testing.T) (*Engine, *txlog.Log, *statestore.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := statestore.Open(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := txlog.New(filepath.Join(dir, "transactions.csv"))
	return New(log, store, nil), log, store
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestRecordIncomeOverwrites(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.RecordIncome(ctx, dec(t, "40000")); err != nil {
		t.Fatalf("first income: %v", err)
	}
	snap, err := eng.RecordIncome(ctx, dec(t, "50000"))
	if err != nil {
		t.Fatalf("second income: %v", err)
	}

	// A new income states the current salary; it never accumulates.
	if got := snap.MonthlyIncome.String(); got != "50000" {
		t.Errorf("MonthlyIncome = %s, want 50000", got)
	}
	if got := snap.NetSavings.String(); got != "50000" {
		t.Errorf("NetSavings = %s, want 50000", got)
	}
}

func TestRecordExpenseAccumulates(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.RecordIncome(ctx, dec(t, "50000")); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := eng.RecordExpense(ctx, dec(t, "300.50"), "Food"); err != nil {
		t.Fatalf("expense: %v", err)
	}
	snap, err := eng.RecordExpense(ctx, dec(t, "199.50"), "Food")
	if err != nil {
		t.Fatalf("expense: %v", err)
	}

	if got := snap.MonthlyExpense.String(); got != "500" {
		t.Errorf("MonthlyExpense = %s, want 500", got)
	}
	if got := snap.DailyExpense.String(); got != "500" {
		t.Errorf("DailyExpense = %s, want 500", got)
	}
	if got := snap.CategoryTotals["Food"].String(); got != "500" {
		t.Errorf("CategoryTotals[Food] = %s, want 500", got)
	}
	if got := snap.NetSavings.String(); got != "49500" {
		t.Errorf("NetSavings = %s, want 49500", got)
	}
}

func TestRecordRejectsNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.RecordIncome(ctx, dec(t, "-1")); err != core.ErrInvalidAmount {
		t.Errorf("RecordIncome error = %v, want ErrInvalidAmount", err)
	}
	if _, err := eng.RecordExpense(ctx, dec(t, "-1"), "Food"); err != core.ErrInvalidAmount {
		t.Errorf("RecordExpense error = %v, want ErrInvalidAmount", err)
	}
}

func TestRecordExpenseDefaultsCategory(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	snap, err := eng.RecordExpense(ctx, dec(t, "10"), "")
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if got := snap.CategoryTotals[core.DefaultCategory].String(); got != "10" {
		t.Errorf("CategoryTotals[%s] = %s, want 10", core.DefaultCategory, got)
	}
}

// Category totals must always sum to the monthly expense on the fast
// path; a mismatch means an update was lost.
func TestCategoryTotalsSumToMonthlyExpense(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	categories := []string{"Food", "Transport", "Shopping", "Bills"}
	for i := 0; i < 20; i++ {
		amount := decimal.NewFromInt(int64(10 + i))
		if _, err := eng.RecordExpense(ctx, amount, categories[i%len(categories)]); err != nil {
			t.Fatalf("expense %d: %v", i, err)
		}
	}

	snap := eng.Snapshot(ctx)
	if !snap.CategorySum().Equal(snap.MonthlyExpense) {
		t.Errorf("category sum %s != monthly expense %s",
			snap.CategorySum(), snap.MonthlyExpense)
	}
}

func TestConcurrentExpensesLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := eng.RecordExpense(ctx, decimal.NewFromInt(10), "Food"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent expense: %v", err)
	}

	snap := eng.Snapshot(ctx)
	if got := snap.MonthlyExpense.String(); got != "160" {
		t.Errorf("MonthlyExpense = %s, want 160 (no lost updates)", got)
	}
	if got := snap.CategoryTotals["Food"].String(); got != "160" {
		t.Errorf("CategoryTotals[Food] = %s, want 160", got)
	}
}

// The incremental fast path and a full recompute from the log must land
// on the same aggregate for the same inputs.
func TestFastPathMatchesFullRecompute(t *testing.T) {
	ctx := context.Background()
	eng, log, store := newTestEngine(t)

	if _, err := eng.RecordIncome(ctx, dec(t, "50000")); err != nil {
		t.Fatalf("income: %v", err)
	}
	for i, e := range []struct {
		amount   string
		category string
	}{
		{"1200.50", "Food"},
		{"300", "Transport"},
		{"4999.99", "Shopping"},
	} {
		if _, err := eng.RecordExpense(ctx, dec(t, e.amount), e.category); err != nil {
			t.Fatalf("expense %d: %v", i, err)
		}
	}
	fast := eng.Snapshot(ctx)

	r := reconcile.New(log, store, nil, time.Hour, decimal.Zero)
	full, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if !fast.MonthlyIncome.Equal(full.MonthlyIncome) {
		t.Errorf("MonthlyIncome fast %s != full %s", fast.MonthlyIncome, full.MonthlyIncome)
	}
	if !fast.MonthlyExpense.Equal(full.MonthlyExpense) {
		t.Errorf("MonthlyExpense fast %s != full %s", fast.MonthlyExpense, full.MonthlyExpense)
	}
	if !fast.DailyExpense.Equal(full.DailyExpense) {
		t.Errorf("DailyExpense fast %s != full %s", fast.DailyExpense, full.DailyExpense)
	}
	if !fast.NetSavings.Equal(full.NetSavings) {
		t.Errorf("NetSavings fast %s != full %s", fast.NetSavings, full.NetSavings)
	}
	for category, want := range fast.CategoryTotals {
		if got := full.CategoryTotals[category]; !got.Equal(want) {
			t.Errorf("CategoryTotals[%s] fast %s != full %s", category, want, got)
		}
	}
}

func TestEvaluateDailyLimit(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	if got := eng.EvaluateDailyLimit(ctx).Status; got != limits.StatusNotSet {
		t.Errorf("status without limit = %s, want %s", got, limits.StatusNotSet)
	}

	if err := store.SetDailyLimit(ctx, dec(t, "1000")); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if _, err := eng.RecordExpense(ctx, dec(t, "1200"), "Shopping"); err != nil {
		t.Fatalf("expense: %v", err)
	}

	ev := eng.EvaluateDailyLimit(ctx)
	if ev.Status != limits.StatusExceeded {
		t.Errorf("status = %s, want %s", ev.Status, limits.StatusExceeded)
	}
	if got := ev.ExceededBy.String(); got != "200" {
		t.Errorf("ExceededBy = %s, want 200", got)
	}
}

func TestResetClearsSnapshotNotLog(t *testing.T) {
	ctx := context.Background()
	eng, log, _ := newTestEngine(t)

	if _, err := eng.RecordExpense(ctx, dec(t, "100"), "Food"); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if err := eng.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap := eng.Snapshot(ctx)
	if !snap.MonthlyExpense.IsZero() || !snap.DailyExpense.IsZero() {
		t.Errorf("snapshot after reset = %+v, want zero metrics", snap)
	}

	count, err := log.RowCount(ctx)
	if err != nil {
		t.Fatalf("row count: %v", err)
	}
	if count != 1 {
		t.Errorf("log rows after reset = %d, want 1 (log is never truncated)", count)
	}
}

func TestResetDailyExpenseKeepsMonthly(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.RecordExpense(ctx, dec(t, "250"), "Food"); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if err := eng.ResetDailyExpense(ctx); err != nil {
		t.Fatalf("reset daily: %v", err)
	}

	snap := eng.Snapshot(ctx)
	if !snap.DailyExpense.IsZero() {
		t.Errorf("DailyExpense = %s, want 0", snap.DailyExpense)
	}
	if got := snap.MonthlyExpense.String(); got != "250" {
		t.Errorf("MonthlyExpense = %s, want 250", got)
	}
}

func TestAnalyticsReadsWholeLog(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.RecordIncome(ctx, dec(t, "50000")); err != nil {
		t.Fatalf("income: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := eng.RecordExpense(ctx, dec(t, "5000"), fmt.Sprintf("Cat%d", i)); err != nil {
			t.Fatalf("expense %d: %v", i, err)
		}
	}

	report, err := eng.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got := report.TotalIncome.String(); got != "50000" {
		t.Errorf("TotalIncome = %s, want 50000", got)
	}
	if got := report.TotalExpense.String(); got != "15000" {
		t.Errorf("TotalExpense = %s, want 15000", got)
	}
}
