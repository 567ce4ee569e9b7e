// Package alerts compares current-month category spend against the
// recommended budget. It is a pure function of the snapshot's category
// totals and the externally supplied budget mapping.
package alerts

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	StatusWithinLimit = "within_limit"
	StatusWarning     = "warning"
	StatusExceeded    = "exceeded"
)

var (
	warnPercent = decimal.NewFromInt(80)
	hundred     = decimal.NewFromInt(100)
)

// Alert classifies one budgeted category.
type Alert struct {
	Category    string          `json:"category"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	PercentUsed decimal.Decimal `json:"percent_used"`
	Status      string          `json:"status"`
}

// Check classifies every budgeted category with a nonzero ceiling:
// within_limit below 80% used, warning from 80% to 100%, exceeded above.
// A budgeted category absent from the log counts as zero spend and is
// still reported. Output is ordered by category name.
func Check(categoryTotals map[string]decimal.Decimal, budget map[string]decimal.Decimal) []Alert {
	results := make([]Alert, 0, len(budget))

	for category, ceiling := range budget {
		if !ceiling.IsPositive() {
			continue
		}
		spent := categoryTotals[category] // zero when absent
		percent := spent.Div(ceiling).Mul(hundred).Round(2)

		status := StatusWithinLimit
		switch {
		case percent.GreaterThan(hundred):
			status = StatusExceeded
		case percent.GreaterThanOrEqual(warnPercent):
			status = StatusWarning
		}

		results = append(results, Alert{
			Category:    category,
			Limit:       ceiling.Round(2),
			Spent:       spent.Round(2),
			PercentUsed: percent,
			Status:      status,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Category < results[j].Category
	})
	return results
}
