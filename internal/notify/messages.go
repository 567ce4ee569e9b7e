package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finpulse/internal/core"
)

// BudgetAlertEvent announces a category that crossed its recommended
// monthly ceiling during a reconciliation pass.
type BudgetAlertEvent struct {
	EventID   string          `json:"event_id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// LimitExceededEvent announces that today's spending went over the
// configured daily limit after an expense was recorded.
type LimitExceededEvent struct {
	EventID    string          `json:"event_id"`
	Date       string          `json:"date"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	ExceededBy decimal.Decimal `json:"exceeded_by"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewBudgetAlertEvent(alert core.BudgetAlert) *BudgetAlertEvent {
	return &BudgetAlertEvent{
		EventID:   uuid.NewString(),
		Category:  alert.Category,
		Limit:     alert.Limit,
		Spent:     alert.Spent,
		Status:    alert.Status,
		Timestamp: time.Now(),
	}
}

func NewLimitExceededEvent(date string, limit, spent, exceededBy decimal.Decimal) *LimitExceededEvent {
	return &LimitExceededEvent{
		EventID:    uuid.NewString(),
		Date:       date,
		Limit:      limit,
		Spent:      spent,
		ExceededBy: exceededBy,
		Timestamp:  time.Now(),
	}
}

func (e *BudgetAlertEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func BudgetAlertEventFromJSON(data []byte) (*BudgetAlertEvent, error) {
	var ev BudgetAlertEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (e *LimitExceededEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LimitExceededEventFromJSON(data []byte) (*LimitExceededEvent, error) {
	var ev LimitExceededEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
