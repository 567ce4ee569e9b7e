package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

func tx(t core.TxType, category, amount string) core.Transaction {
	d, _ := core.ParseDate("15-03-2026")
	return core.Transaction{
		Date:     d,
		Type:     t,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestComputeTotalsAndRates(t *testing.T) {
	r := Compute([]core.Transaction{
		tx(core.Income, "Income", "50000"),
		tx(core.Expense, "Housing", "15000"),
		tx(core.Expense, "Food", "5000"),
		tx(core.Expense, "Investment", "10000"),
	})

	if r.TotalIncome.String() != "50000" || r.TotalExpense.String() != "30000" {
		t.Fatalf("totals: %s / %s", r.TotalIncome, r.TotalExpense)
	}
	if r.NetSavings.String() != "20000" {
		t.Fatalf("net savings: %s", r.NetSavings)
	}
	if r.SavingsRate.String() != "40" {
		t.Fatalf("savings rate: %s", r.SavingsRate)
	}
	if r.InvestmentRatio.String() != "20" {
		t.Fatalf("investment ratio: %s", r.InvestmentRatio)
	}
}

func TestComputeFixedVariableSplit(t *testing.T) {
	r := Compute([]core.Transaction{
		tx(core.Expense, "Rent", "6000"),
		tx(core.Expense, "Food", "4000"),
	})
	if r.FixedPercent.String() != "60" || r.VariablePercent.String() != "40" {
		t.Fatalf("split: fixed=%s variable=%s", r.FixedPercent, r.VariablePercent)
	}
}

func TestComputeTopCategory(t *testing.T) {
	r := Compute([]core.Transaction{
		tx(core.Expense, "Food", "500"),
		tx(core.Expense, "Shopping", "800"),
		tx(core.Expense, "Food", "200"),
	})
	if r.TopCategory == nil || r.TopCategory.Category != "Shopping" {
		t.Fatalf("top category: %+v", r.TopCategory)
	}
}

func TestComputeEmptyLog(t *testing.T) {
	r := Compute(nil)
	if !r.TotalIncome.IsZero() || !r.SavingsRate.IsZero() {
		t.Fatalf("empty log should be all zero: %+v", r)
	}
	if r.TopCategory != nil {
		t.Fatal("no top category on empty log")
	}
}

func TestHealthScoreBands(t *testing.T) {
	// Strong profile: 40% savings, 20% investment, income > expense,
	// spending spread across categories.
	strong := Compute([]core.Transaction{
		tx(core.Income, "Income", "50000"),
		tx(core.Expense, "Housing", "10000"),
		tx(core.Expense, "Food", "10000"),
		tx(core.Expense, "Investment", "10000"),
	})
	// 40 (savings) + 20 (investment 20%) + 20 (control) + 10 (diversified)
	if strong.HealthScore != 90 {
		t.Fatalf("strong profile: expected 90, got %d", strong.HealthScore)
	}

	// Weak profile: overspending, no investment, concentrated.
	weak := Compute([]core.Transaction{
		tx(core.Income, "Income", "10000"),
		tx(core.Expense, "Shopping", "12000"),
	})
	// 5 + 5 + 5 + 5
	if weak.HealthScore != 20 {
		t.Fatalf("weak profile: expected 20, got %d", weak.HealthScore)
	}
}
