package notify

import (
	"testing"

	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

func TestBudgetAlertEventRoundTrip(t *testing.T) {
	ev := NewBudgetAlertEvent(core.BudgetAlert{
		Category: "Food",
		Limit:    decimal.NewFromInt(3000),
		Spent:    decimal.NewFromInt(3500),
		Status:   core.AlertExceeded,
	})
	if ev.EventID == "" {
		t.Fatal("event ID must be assigned")
	}

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := BudgetAlertEventFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventID != ev.EventID || got.Category != "Food" || !got.Spent.Equal(ev.Spent) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLimitExceededEventRoundTrip(t *testing.T) {
	ev := NewLimitExceededEvent("2026-03-15",
		decimal.NewFromInt(1000),
		decimal.NewFromFloat(1001.00),
		decimal.NewFromFloat(1.00))

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := LimitExceededEventFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2026-03-15" || !got.ExceededBy.Equal(ev.ExceededBy) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLimitExceededEventFromJSONInvalid(t *testing.T) {
	if _, err := LimitExceededEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
