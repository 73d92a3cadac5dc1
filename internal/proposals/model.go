package proposals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

// Status is the proposal workflow state.
type Status string

const (
	StatusDraft    Status = "rascunho"
	StatusSent     Status = "enviada"
	StatusApproved Status = "aprovada"
	StatusRejected Status = "rejeitada"
	StatusExpired  Status = "expirada"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusExpired},
	StatusSent:  {StatusApproved, StatusRejected, StatusExpired},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether header and lines may still change.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// StatusInfo describes a status for pickers and badges.
type StatusInfo struct {
	Status Status   `json:"status"`
	Label  string   `json:"label"`
	Color  string   `json:"color"`
	Next   []Status `json:"next"`
}

var statusLabels = []struct {
	status       Status
	label, color string
}{
	{StatusDraft, "Rascunho", "#6b7280"},
	{StatusSent, "Enviada", "#2563eb"},
	{StatusApproved, "Aprovada", "#16a34a"},
	{StatusRejected, "Rejeitada", "#dc2626"},
	{StatusExpired, "Expirada", "#d97706"},
}

// Statuses lists every status in workflow order with its allowed transitions.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, 0, len(statusLabels))
	for _, l := range statusLabels {
		next := append([]Status{}, transitions[l.status]...)
		out = append(out, StatusInfo{Status: l.status, Label: l.label, Color: l.color, Next: next})
	}
	return out
}

type Proposal struct {
	ID                   int64           `json:"id"`
	Number               string          `json:"number"`
	ClientID             int64           `json:"client_id"`
	ClientName           string          `json:"client_name,omitempty"`
	Status               Status          `json:"status"`
	GroupName            *string         `json:"group_name,omitempty"`
	TemplateID           *int64          `json:"template_id,omitempty"`
	ProposalDate         time.Time       `json:"proposal_date"`
	ExpiryDate           *time.Time      `json:"expiry_date,omitempty"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	Total                decimal.Decimal `json:"total"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	LineCommission       decimal.Decimal `json:"line_commission"`
	Notes                *string         `json:"notes,omitempty"`
	Lines                []Line          `json:"lines,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Group returns the proposal level group name, empty when unset.
func (p Proposal) Group() string {
	if p.GroupName == nil {
		return ""
	}
	return *p.GroupName
}

// Line is one priced row of a proposal.
type Line struct {
	ID                 int64           `json:"id"`
	ProposalID         int64           `json:"proposal_id"`
	ArticleID          *int64          `json:"article_id,omitempty"`
	Description        string          `json:"description"`
	Unit               string          `json:"unit"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	CostPrice          decimal.Decimal `json:"cost_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	LineTotal          decimal.Decimal `json:"line_total"`
	CalculationMode    pricing.Mode    `json:"calculation_mode"`
	MarginPercentage   decimal.Decimal `json:"margin_percentage"`
	MarginEuro         decimal.Decimal `json:"margin_euro"`
	Commission         decimal.Decimal `json:"commission"`
	SortOrder          int             `json:"sort_order"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Entity maps the line onto the calculator shape.
func (l Line) Entity() pricing.Entity {
	return pricing.Entity{
		SalePrice:       l.UnitPrice,
		CostPrice:       l.CostPrice,
		MarginPercent:   l.MarginPercentage,
		MarginValue:     l.MarginEuro,
		Mode:            l.CalculationMode,
		Quantity:        l.Quantity,
		DiscountPercent: l.DiscountPercentage,
		LineTotal:       l.LineTotal,
	}
}

// setEntity copies calculator output back onto the line.
func (l *Line) setEntity(e pricing.Entity) {
	l.UnitPrice = e.SalePrice
	l.CostPrice = e.CostPrice
	l.MarginPercentage = e.MarginPercent
	l.MarginEuro = e.MarginValue
	l.CalculationMode = e.Mode
	l.Quantity = e.Quantity
	l.DiscountPercentage = e.DiscountPercent
	l.LineTotal = e.LineTotal
}

const numberPrefix = "PROP"

// FormatNumber renders the yearly proposal number, e.g. PROP-2026-0007.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", numberPrefix, year, seq)
}
