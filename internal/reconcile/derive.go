package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

// DefaultAnomalyThreshold flags large transactions during reconciliation.
var DefaultAnomalyThreshold = decimal.NewFromInt(10000)

// Derive recomputes every snapshot metric from zero out of the full
// transaction list. It is a pure function: deterministic for a given
// input, so rerunning it over an unchanged log yields an identical
// snapshot. LastUpdated is left zero; the store stamps it on write.
//
// Monthly metrics cover rows whose month prefix matches now's month,
// daily expense covers expense rows dated today, and anomaly flags cover
// every row at or above the threshold regardless of month.
func Derive(txs []core.Transaction, budget map[string]decimal.Decimal, threshold decimal.Decimal, now time.Time) core.Snapshot {
	snap := core.DefaultSnapshot()

	today := core.DateOf(now)
	currentMonth := today.MonthKey()

	for _, tx := range txs {
		inMonth := tx.Date.MonthKey() == currentMonth

		if inMonth {
			if tx.Type == core.Income {
				snap.MonthlyIncome = snap.MonthlyIncome.Add(tx.Amount)
			} else {
				snap.MonthlyExpense = snap.MonthlyExpense.Add(tx.Amount)
				snap.CategoryTotals[tx.Category] = snap.CategoryTotals[tx.Category].Add(tx.Amount)
			}
		}

		if tx.Type == core.Expense && tx.Date.SameDay(today) {
			snap.DailyExpense = snap.DailyExpense.Add(tx.Amount)
		}

		if tx.Amount.GreaterThanOrEqual(threshold) {
			snap.AnomalyFlags = append(snap.AnomalyFlags, core.Anomaly{
				Date:     tx.Date.String(),
				Category: tx.Category,
				Amount:   tx.Amount,
			})
		}
	}

	snap.MonthlyIncome = core.Round2(snap.MonthlyIncome)
	snap.MonthlyExpense = core.Round2(snap.MonthlyExpense)
	snap.DailyExpense = core.Round2(snap.DailyExpense)
	for category, total := range snap.CategoryTotals {
		snap.CategoryTotals[category] = core.Round2(total)
	}
	snap.RecomputeNetSavings()

	// Budgeted categories in name order so successive passes produce the
	// same alert sequence.
	categories := make([]string, 0, len(budget))
	for category := range budget {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		ceiling := budget[category]
		if !ceiling.IsPositive() {
			continue
		}
		spent := snap.CategoryTotals[category]
		if spent.GreaterThan(ceiling) {
			snap.BudgetAlerts = append(snap.BudgetAlerts, core.BudgetAlert{
				Category: category,
				Limit:    ceiling,
				Spent:    spent,
				Status:   core.AlertExceeded,
			})
		}
	}

	return snap
}
