package commissions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status tracks how much of a commission has been paid out.
type Status string

const (
	StatusUnpaid        Status = "a_pagar"
	StatusPartiallyPaid Status = "pago_parcialmente"
	StatusPaid          Status = "pago"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

// StatusFor derives the status from the amounts.
func StatusFor(total, paid decimal.Decimal) Status {
	switch {
	case paid.IsZero() || paid.IsNegative():
		return StatusUnpaid
	case paid.LessThan(total):
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// Commission is the amount owed to a salesperson for one approved proposal.
type Commission struct {
	ID             int64           `json:"id"`
	ProposalID     int64           `json:"proposal_id"`
	ProposalNumber string          `json:"proposal_number,omitempty"`
	ClientName     string          `json:"client_name,omitempty"`
	Commercial     string          `json:"commercial"`
	TotalValue     decimal.Decimal `json:"total_value"`
	PaidValue      decimal.Decimal `json:"paid_value"`
	PendingValue   decimal.Decimal `json:"pending_value"`
	Status         Status          `json:"status"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	Payments       []Payment       `json:"payments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Pending is the amount still owed.
func (c Commission) Pending() decimal.Decimal {
	pending := c.TotalValue.Sub(c.PaidValue)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

type Payment struct {
	ID           uuid.UUID       `json:"id"`
	CommissionID int64           `json:"commission_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaidAt       time.Time       `json:"paid_at"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Summary folds the ledger into paid and pending totals.
type Summary struct {
	Count        int             `json:"count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	PaidValue    decimal.Decimal `json:"paid_value"`
	PendingValue decimal.Decimal `json:"pending_value"`
}
