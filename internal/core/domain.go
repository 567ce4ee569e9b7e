package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DefaultCategory is assigned when a transaction carries no category.
const DefaultCategory = "General"

type (
	TxType string

	Date struct {
		time.Time
	}

	// Transaction is one immutable row of the transaction log. Identity is
	// the row's position in the log; there is no update or delete.
	Transaction struct {
		Date          Date
		Type          TxType
		Merchant      string
		Category      string
		Amount        decimal.Decimal
		Account       string
		PaymentMethod string
		Notes         string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Log writers are not all under our control: the engine writes DD-MM-YYYY
// while the natural-language entry path has been observed writing
// YYYY-MM-DD. Both layouts are accepted; DD-MM-YYYY is canonical.
const (
	dateLayout    = "02-01-2006"
	isoDateLayout = "2006-01-02"
)

// ParseDate parses a calendar day in either DD-MM-YYYY or YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(isoDateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, ErrInvalidDate
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// String renders the canonical DD-MM-YYYY form used in the log.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM prefix used for monthly partitioning.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// SameDay reports whether d and other fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (tx Transaction) Validate() error {
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if tx.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
