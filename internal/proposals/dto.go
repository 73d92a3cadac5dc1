package proposals

import (
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

// LineInput is a proposal line as submitted by the editor.
type LineInput struct {
	ArticleID          *int64           `json:"article_id,omitempty" validate:"omitempty,gt=0"`
	Description        string           `json:"description" validate:"required,max=500"`
	Unit               string           `json:"unit" validate:"omitempty,max=20"`
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	CostPrice          decimal.Decimal  `json:"cost_price"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	CalculationMode    pricing.Mode     `json:"calculation_mode" validate:"omitempty,oneof=pvp cost"`
	MarginPercentage   decimal.Decimal  `json:"margin_percentage"`
	MarginEuro         decimal.Decimal  `json:"margin_euro"`
	SortOrder          int              `json:"sort_order" validate:"gte=0"`
}

type CreateProposalRequest struct {
	ClientID             int64           `json:"client_id" validate:"required,gt=0"`
	GroupName            *string         `json:"group_name,omitempty" validate:"omitempty,max=100"`
	TemplateID           *int64          `json:"template_id,omitempty" validate:"omitempty,gt=0"`
	ProposalDate         string          `json:"proposal_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate           string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Notes                *string         `json:"notes,omitempty"`
	Lines                []LineInput     `json:"lines" validate:"dive"`
}

type UpdateProposalRequest struct {
	ClientID             *int64           `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	GroupName            *string          `json:"group_name,omitempty" validate:"omitempty,max=100"`
	TemplateID           *int64           `json:"template_id,omitempty" validate:"omitempty,gt=0"`
	ProposalDate         *string          `json:"proposal_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate           *string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercentage   *decimal.Decimal `json:"discount_percentage,omitempty"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
	Lines                *[]LineInput     `json:"lines,omitempty" validate:"omitempty,dive"`
}

type ListProposalsRequest struct {
	Status   *Status `json:"status,omitempty"`
	ClientID *int64  `json:"client_id,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}

type ChangeStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=rascunho enviada aprovada rejeitada expirada"`
}

// LineRecomputeRequest is one field edit in the proposal line editor.
type LineRecomputeRequest struct {
	Line  pricing.Entity   `json:"line"`
	Group string           `json:"group"`
	Field pricing.Field    `json:"field" validate:"required"`
	Value pricing.RawValue `json:"value"`
}

type LineRecomputeResponse struct {
	Line       pricing.Entity  `json:"line"`
	Display    pricing.Entity  `json:"display"`
	Commission decimal.Decimal `json:"commission"`
}

type FromArticleRequest struct {
	ArticleID int64            `json:"article_id" validate:"required,gt=0"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Mode      pricing.Mode     `json:"calculation_mode" validate:"omitempty,oneof=pvp cost"`
}

type FromArticleResponse struct {
	Line       LineInput       `json:"line"`
	Group      string          `json:"group"`
	Commission decimal.Decimal `json:"commission"`
}

type TotalsRequest struct {
	Lines                []pricing.Entity `json:"lines"`
	DiscountPercentage   decimal.Decimal  `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal  `json:"commission_percentage"`
}

type TotalsResponse struct {
	Totals  pricing.Totals `json:"totals"`
	Display pricing.Totals `json:"display"`
}
