package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Snapshot is the materialized aggregate of the transaction log: the
	// "live state" every consumer reads instead of scanning the log. It is
	// written by exactly two writers, the incremental updater (partial,
	// synchronous) and the reconciliation loop (full replacement).
	Snapshot struct {
		MonthlyIncome  decimal.Decimal            `json:"monthly_income"`
		MonthlyExpense decimal.Decimal            `json:"monthly_expense"`
		DailyExpense   decimal.Decimal            `json:"daily_expense"`
		NetSavings     decimal.Decimal            `json:"net_savings"`
		CategoryTotals map[string]decimal.Decimal `json:"category_totals"`
		BudgetAlerts   []BudgetAlert              `json:"budget_alerts"`
		AnomalyFlags   []Anomaly                  `json:"anomaly_flags"`
		LastUpdated    time.Time                  `json:"last_updated"`
	}

	// BudgetAlert flags a category whose current-month spend exceeds its
	// recommended ceiling. Alerts are recomputed on every reconciliation
	// pass, never accumulated.
	BudgetAlert struct {
		Category string          `json:"category"`
		Limit    decimal.Decimal `json:"limit"`
		Spent    decimal.Decimal `json:"spent"`
		Status   string          `json:"status"`
	}

	// Anomaly records a transaction at or above the large-transaction
	// threshold, regardless of month.
	Anomaly struct {
		Date     string          `json:"date"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}
)

// AlertExceeded is the only status the reconciler persists in the
// snapshot; the full within_limit/warning/exceeded classification lives in
// the alert generator.
const AlertExceeded = "exceeded"

// DefaultSnapshot returns the all-zero snapshot used on first access and
// after an administrative reset.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		MonthlyIncome:  decimal.Zero,
		MonthlyExpense: decimal.Zero,
		DailyExpense:   decimal.Zero,
		NetSavings:     decimal.Zero,
		CategoryTotals: map[string]decimal.Decimal{},
		BudgetAlerts:   []BudgetAlert{},
		AnomalyFlags:   []Anomaly{},
	}
}

// RecomputeNetSavings restores the net_savings == monthly_income -
// monthly_expense invariant. Every write that touches either operand must
// call this before persisting.
func (s *Snapshot) RecomputeNetSavings() {
	s.NetSavings = s.MonthlyIncome.Sub(s.MonthlyExpense)
}

// CategorySum adds up all category totals. After any consistent write it
// equals MonthlyExpense.
func (s Snapshot) CategorySum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range s.CategoryTotals {
		sum = sum.Add(v)
	}
	return sum
}
