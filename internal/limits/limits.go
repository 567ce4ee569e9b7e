// Package limits classifies today's spending against the configured daily
// limit and projects month-end risk. Everything here is a pure, stateless
// function of the current snapshot: there is no previous state to
// transition from, each call classifies afresh.
package limits

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

type Status string

const (
	StatusNotSet    Status = "not_set"
	StatusSafe      Status = "safe"
	StatusNearLimit Status = "near_limit"
	StatusExceeded  Status = "exceeded"
)

const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"

	// Projection/risk results for absent inputs; these are states, not errors.
	StatusNoData       = "no_data"
	StatusNoIncomeData = "no_income_data"
)

// Warning threshold: 80% of the limit (and of income, for month risk).
var warnRatio = decimal.NewFromFloat(0.8)

var hundred = decimal.NewFromInt(100)

type (
	// Evaluation is the result of one daily-limit check. Saved is
	// meaningful only for StatusSafe, ExceededBy only for StatusExceeded.
	Evaluation struct {
		Status      Status          `json:"status"`
		Date        string          `json:"date"`
		Limit       decimal.Decimal `json:"limit"`
		Spent       decimal.Decimal `json:"spent"`
		Remaining   decimal.Decimal `json:"remaining"`
		PercentUsed decimal.Decimal `json:"percent_used"`
		Saved       decimal.Decimal `json:"saved"`
		ExceededBy  decimal.Decimal `json:"exceeded_by"`
	}

	// Projection is the linear month-end extrapolation of current spend.
	Projection struct {
		Status                   string          `json:"status,omitempty"`
		AverageDailySpending     decimal.Decimal `json:"average_daily_spending"`
		ProjectedMonthlySpending decimal.Decimal `json:"projected_monthly_spending"`
		MonthlyIncome            decimal.Decimal `json:"monthly_income"`
	}

	RiskAssessment struct {
		Status           string          `json:"status,omitempty"`
		Risk             string          `json:"risk,omitempty"`
		Message          string          `json:"message,omitempty"`
		ProjectedExpense decimal.Decimal `json:"projected_expense"`
		Income           decimal.Decimal `json:"income"`
		ExpectedDeficit  decimal.Decimal `json:"expected_deficit"`
	}
)

// Evaluate classifies today's spending. An unconfigured limit yields
// StatusNotSet and no numeric fields.
func Evaluate(snap core.Snapshot, limit decimal.Decimal, configured bool, now time.Time) Evaluation {
	date := now.Format("2006-01-02")
	if !configured {
		return Evaluation{Status: StatusNotSet, Date: date}
	}

	spent := snap.DailyExpense
	remaining := limit.Sub(spent)

	percent := decimal.Zero
	if limit.IsPositive() {
		percent = spent.Div(limit).Mul(hundred).Round(2)
	}

	ev := Evaluation{
		Date:        date,
		Limit:       limit.Round(2),
		Spent:       spent.Round(2),
		Remaining:   decimal.Max(remaining, decimal.Zero).Round(2),
		PercentUsed: percent,
	}

	switch {
	case spent.GreaterThan(limit):
		ev.Status = StatusExceeded
		ev.ExceededBy = spent.Sub(limit).Round(2)
	case limit.IsPositive() && spent.GreaterThanOrEqual(limit.Mul(warnRatio)):
		ev.Status = StatusNearLimit
	default:
		ev.Status = StatusSafe
		ev.Saved = ev.Remaining
	}
	return ev
}

// Project extrapolates the month's spend linearly from the days elapsed so
// far: monthly_expense / day_of_month * 30. A zero elapsed-day count is a
// defined no-data result rather than an error.
func Project(snap core.Snapshot, now time.Time) Projection {
	day := now.Day()
	if day == 0 {
		return Projection{Status: StatusNoData}
	}

	days := decimal.NewFromInt(int64(day))
	avg := snap.MonthlyExpense.Div(days)
	return Projection{
		AverageDailySpending:     avg.Round(2),
		ProjectedMonthlySpending: avg.Mul(decimal.NewFromInt(30)).Round(2),
		MonthlyIncome:            snap.MonthlyIncome,
	}
}

// PredictRisk flags month-end overspend risk relative to income.
func PredictRisk(snap core.Snapshot, now time.Time) RiskAssessment {
	proj := Project(snap, now)
	if proj.Status != "" {
		return RiskAssessment{Status: proj.Status}
	}
	if snap.MonthlyIncome.IsZero() {
		return RiskAssessment{Status: StatusNoIncomeData}
	}

	projected := proj.ProjectedMonthlySpending
	income := snap.MonthlyIncome

	switch {
	case projected.GreaterThan(income):
		return RiskAssessment{
			Risk:             RiskHigh,
			Message:          "Projected spending exceeds income.",
			ProjectedExpense: projected,
			Income:           income,
			ExpectedDeficit:  projected.Sub(income).Round(2),
		}
	case projected.GreaterThan(income.Mul(warnRatio)):
		return RiskAssessment{
			Risk:             RiskModerate,
			Message:          "Spending is high relative to income.",
			ProjectedExpense: projected,
			Income:           income,
		}
	default:
		return RiskAssessment{
			Risk:             RiskLow,
			Message:          "Spending pace is healthy.",
			ProjectedExpense: projected,
			Income:           income,
		}
	}
}

// Generic advice appended after the category-ranked suggestions.
var genericAdvice = []string{
	"Delay non-essential purchases.",
	"Cook at home instead of ordering food.",
	"Use public transport where possible.",
	"Set micro-limits for top spending categories.",
}

// ReductionSuggestions ranks the top three categories by current-month
// spend, highest first, then appends the generic advice list.
func ReductionSuggestions(snap core.Snapshot) []string {
	type categorySpend struct {
		name   string
		amount decimal.Decimal
	}

	ranked := make([]categorySpend, 0, len(snap.CategoryTotals))
	for name, amount := range snap.CategoryTotals {
		ranked = append(ranked, categorySpend{name: name, amount: amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].amount.Equal(ranked[j].amount) {
			return ranked[i].amount.GreaterThan(ranked[j].amount)
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	suggestions := make([]string, 0, len(ranked)+len(genericAdvice))
	for _, cs := range ranked {
		suggestions = append(suggestions,
			fmt.Sprintf("Reduce spending in %s (₹%s)", cs.name, cs.amount.Round(2)))
	}
	return append(suggestions, genericAdvice...)
}

// BehaviorTag condenses an evaluation into a spending-discipline label.
func BehaviorTag(ev Evaluation) string {
	switch ev.Status {
	case StatusExceeded:
		return "impulsive_spending"
	case StatusNearLimit:
		return "borderline_control"
	default:
		return "disciplined"
	}
}
