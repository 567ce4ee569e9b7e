package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

var deriveNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func tx(t *testing.T, date, typ, category, amount string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	return core.Transaction{Date: d, Type: core.TxType(typ), Category: category, Amount: a}
}

func TestDeriveMonthAndDayPartitioning(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "15-03-2026", "income", "Income", "50000"),
		tx(t, "15-03-2026", "expense", "Food", "300"),
		tx(t, "2026-03-15", "expense", "Food", "200"), // other date layout, same day
		tx(t, "01-03-2026", "expense", "Transport", "1000"),
		tx(t, "28-02-2026", "expense", "Food", "9999"), // previous month
		tx(t, "28-02-2026", "income", "Income", "40000"),
	}

	snap := Derive(txs, nil, DefaultAnomalyThreshold, deriveNow)

	if got := snap.MonthlyIncome.String(); got != "50000" {
		t.Errorf("MonthlyIncome = %s, want 50000", got)
	}
	if got := snap.MonthlyExpense.String(); got != "1500" {
		t.Errorf("MonthlyExpense = %s, want 1500", got)
	}
	if got := snap.DailyExpense.String(); got != "500" {
		t.Errorf("DailyExpense = %s, want 500", got)
	}
	if got := snap.NetSavings.String(); got != "48500" {
		t.Errorf("NetSavings = %s, want 48500", got)
	}
	if got := snap.CategoryTotals["Food"].String(); got != "500" {
		t.Errorf("CategoryTotals[Food] = %s, want 500", got)
	}
	if got := snap.CategoryTotals["Transport"].String(); got != "1000" {
		t.Errorf("CategoryTotals[Transport] = %s, want 1000", got)
	}
	if _, ok := snap.CategoryTotals["Income"]; ok {
		t.Error("income rows must not contribute to category totals")
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "15-03-2026", "income", "Income", "50000"),
		tx(t, "15-03-2026", "expense", "Food", "12000"),
		tx(t, "10-03-2026", "expense", "Shopping", "800"),
	}
	budget := map[string]decimal.Decimal{
		"Food":     decimal.NewFromInt(3000),
		"Shopping": decimal.NewFromInt(5000),
	}

	first := Derive(txs, budget, DefaultAnomalyThreshold, deriveNow)
	second := Derive(txs, budget, DefaultAnomalyThreshold, deriveNow)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("successive passes over the same log diverge:\n%s\n%s", a, b)
	}
}

func TestDeriveAnomalyThreshold(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "15-03-2026", "expense", "Food", "9999.99"),
		tx(t, "15-03-2026", "expense", "Electronics", "10000"),
		tx(t, "01-01-2026", "expense", "Travel", "25000"), // past month still flagged
		tx(t, "15-03-2026", "income", "Income", "50000"),  // income flagged too
	}

	snap := Derive(txs, nil, DefaultAnomalyThreshold, deriveNow)

	if len(snap.AnomalyFlags) != 3 {
		t.Fatalf("AnomalyFlags = %d entries, want 3: %v", len(snap.AnomalyFlags), snap.AnomalyFlags)
	}
	if snap.AnomalyFlags[0].Category != "Electronics" {
		t.Errorf("first flag category = %s, want Electronics", snap.AnomalyFlags[0].Category)
	}
	if snap.AnomalyFlags[1].Date != "01-01-2026" {
		t.Errorf("second flag date = %s, want 01-01-2026", snap.AnomalyFlags[1].Date)
	}
}

func TestDeriveBudgetAlerts(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "12-03-2026", "expense", "Food", "3500"),
		tx(t, "12-03-2026", "expense", "Transport", "2000"), // exactly at ceiling
		tx(t, "12-03-2026", "expense", "Shopping", "6000"),
	}
	budget := map[string]decimal.Decimal{
		"Shopping":  decimal.NewFromInt(5000),
		"Food":      decimal.NewFromInt(3000),
		"Transport": decimal.NewFromInt(2000),
		"Bills":     decimal.Zero, // unset ceiling, never alerts
	}

	snap := Derive(txs, budget, DefaultAnomalyThreshold, deriveNow)

	if len(snap.BudgetAlerts) != 2 {
		t.Fatalf("BudgetAlerts = %d entries, want 2: %v", len(snap.BudgetAlerts), snap.BudgetAlerts)
	}
	if snap.BudgetAlerts[0].Category != "Food" || snap.BudgetAlerts[1].Category != "Shopping" {
		t.Errorf("alert order = %s, %s, want Food, Shopping",
			snap.BudgetAlerts[0].Category, snap.BudgetAlerts[1].Category)
	}
	if snap.BudgetAlerts[0].Status != core.AlertExceeded {
		t.Errorf("alert status = %s, want %s", snap.BudgetAlerts[0].Status, core.AlertExceeded)
	}
}

func TestDeriveEmptyLog(t *testing.T) {
	snap := Derive(nil, nil, DefaultAnomalyThreshold, deriveNow)

	if !snap.MonthlyIncome.IsZero() || !snap.MonthlyExpense.IsZero() || !snap.DailyExpense.IsZero() {
		t.Errorf("empty log must derive zero metrics, got %+v", snap)
	}
	if snap.CategoryTotals == nil {
		t.Error("CategoryTotals must be non-nil on an empty log")
	}
}
