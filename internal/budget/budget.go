// Package budget produces the recommended monthly allocation the alert
// generator compares spending against.
package budget

import (
	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

// Allocation shares of monthly income, by category.
var allocationShares = map[string]decimal.Decimal{
	"Housing":       decimal.NewFromFloat(0.30),
	"Food":          decimal.NewFromFloat(0.12),
	"Transport":     decimal.NewFromFloat(0.08),
	"Utilities":     decimal.NewFromFloat(0.05),
	"Shopping":      decimal.NewFromFloat(0.08),
	"Investment":    decimal.NewFromFloat(0.20),
	"Emergency":     decimal.NewFromFloat(0.07),
	"Entertainment": decimal.NewFromFloat(0.05),
}

// SuggestAllocation splits a monthly income into recommended category
// ceilings, rounded to two decimal places.
func SuggestAllocation(monthlyIncome decimal.Decimal) (map[string]decimal.Decimal, error) {
	if monthlyIncome.IsNegative() {
		return nil, core.ErrInvalidAmount
	}

	allocation := make(map[string]decimal.Decimal, len(allocationShares))
	for category, share := range allocationShares {
		allocation[category] = monthlyIncome.Mul(share).Round(2)
	}
	return allocation, nil
}
