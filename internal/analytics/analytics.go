// Package analytics derives whole-log health metrics: savings rate,
// investment discipline, expense structure, and a 0-100 composite score.
// Unlike the snapshot these cover all recorded history, not just the
// current month.
package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

// Categories treated as fixed commitments when splitting expenses.
var fixedCategories = map[string]bool{
	"housing": true,
	"loan":    true,
	"bills":   true,
	"emi":     true,
	"rent":    true,
}

var hundred = decimal.NewFromInt(100)

type (
	CategoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	Report struct {
		TotalIncome     decimal.Decimal `json:"total_income"`
		TotalExpense    decimal.Decimal `json:"total_expense"`
		NetSavings      decimal.Decimal `json:"net_savings"`
		SavingsRate     decimal.Decimal `json:"savings_rate_percent"`
		InvestmentRatio decimal.Decimal `json:"investment_ratio_percent"`
		FixedPercent    decimal.Decimal `json:"fixed_percent"`
		VariablePercent decimal.Decimal `json:"variable_percent"`
		TopCategory     *CategoryAmount `json:"top_category,omitempty"`
		HealthScore     int             `json:"health_score"`
	}
)

// Compute derives the full report from the transaction list.
func Compute(txs []core.Transaction) Report {
	var r Report
	r.TotalIncome = decimal.Zero
	r.TotalExpense = decimal.Zero

	investment := decimal.Zero
	fixed := decimal.Zero
	variable := decimal.Zero
	byCategory := map[string]decimal.Decimal{}

	for _, tx := range txs {
		if tx.Type == core.Income {
			r.TotalIncome = r.TotalIncome.Add(tx.Amount)
			continue
		}

		r.TotalExpense = r.TotalExpense.Add(tx.Amount)
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)

		lower := strings.ToLower(tx.Category)
		if lower == "investment" {
			investment = investment.Add(tx.Amount)
		}
		if fixedCategories[lower] {
			fixed = fixed.Add(tx.Amount)
		} else {
			variable = variable.Add(tx.Amount)
		}
	}

	r.NetSavings = r.TotalIncome.Sub(r.TotalExpense)

	if r.TotalIncome.IsPositive() {
		r.SavingsRate = r.NetSavings.Div(r.TotalIncome).Mul(hundred).Round(2)
		r.InvestmentRatio = investment.Div(r.TotalIncome).Mul(hundred).Round(2)
	}

	if total := fixed.Add(variable); total.IsPositive() {
		r.FixedPercent = fixed.Div(total).Mul(hundred).Round(2)
		r.VariablePercent = variable.Div(total).Mul(hundred).Round(2)
	}

	for category, amount := range byCategory {
		if r.TopCategory == nil || amount.GreaterThan(r.TopCategory.Amount) ||
			(amount.Equal(r.TopCategory.Amount) && category < r.TopCategory.Category) {
			r.TopCategory = &CategoryAmount{Category: category, Amount: amount}
		}
	}

	r.HealthScore = healthScore(r)
	return r
}

// healthScore weighs savings rate (40), investment discipline (30),
// expense control (20), and spending diversification (10).
func healthScore(r Report) int {
	score := 0

	sr := r.SavingsRate
	switch {
	case sr.GreaterThanOrEqual(decimal.NewFromInt(40)):
		score += 40
	case sr.GreaterThanOrEqual(decimal.NewFromInt(25)):
		score += 30
	case sr.GreaterThanOrEqual(decimal.NewFromInt(15)):
		score += 20
	case sr.GreaterThanOrEqual(decimal.NewFromInt(5)):
		score += 10
	default:
		score += 5
	}

	ir := r.InvestmentRatio
	switch {
	case ir.GreaterThanOrEqual(decimal.NewFromInt(25)):
		score += 30
	case ir.GreaterThanOrEqual(decimal.NewFromInt(15)):
		score += 20
	case ir.GreaterThanOrEqual(decimal.NewFromInt(5)):
		score += 10
	default:
		score += 5
	}

	if r.TotalIncome.GreaterThan(r.TotalExpense) {
		score += 20
	} else {
		score += 5
	}

	if r.TopCategory != nil && r.TotalExpense.IsPositive() {
		concentration := r.TopCategory.Amount.Div(r.TotalExpense).Mul(hundred)
		if concentration.LessThan(decimal.NewFromInt(40)) {
			score += 10
		} else {
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
