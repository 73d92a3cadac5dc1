package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

type CreateGroupRequest struct {
	Name              string          `json:"name" validate:"required,max=100"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Color             *string         `json:"color,omitempty" validate:"omitempty,max=20"`
	Description       *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateGroupRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	CommissionPercent *decimal.Decimal `json:"commission_percent,omitempty"`
	Color             *string          `json:"color,omitempty" validate:"omitempty,max=20"`
	Description       *string          `json:"description,omitempty" validate:"omitempty,max=500"`
}

// CreateArticleRequest carries the sale price and at most one of the cost side
// inputs. Purchase price wins over margin value, which wins over margin percent.
type CreateArticleRequest struct {
	Reference     string           `json:"reference" validate:"required,max=50"`
	Description   string           `json:"description" validate:"required,max=500"`
	Unit          string           `json:"unit" validate:"omitempty,max=20"`
	GroupName     *string          `json:"group_name,omitempty" validate:"omitempty,max=100"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	MarginPercent *decimal.Decimal `json:"margin_percent,omitempty"`
	MarginValue   *decimal.Decimal `json:"margin_value,omitempty"`
}

type UpdateArticleRequest struct {
	Reference     *string          `json:"reference,omitempty" validate:"omitempty,max=50"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Unit          *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	GroupName     *string          `json:"group_name,omitempty" validate:"omitempty,max=100"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	MarginPercent *decimal.Decimal `json:"margin_percent,omitempty"`
	MarginValue   *decimal.Decimal `json:"margin_value,omitempty"`
}

type ListArticlesRequest struct {
	Search    *string `json:"search,omitempty"`
	GroupName *string `json:"group_name,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

// RecomputeRequest is one field edit in the article editor.
type RecomputeRequest struct {
	Entity pricing.Entity   `json:"entity"`
	Group  string           `json:"group"`
	Field  pricing.Field    `json:"field" validate:"required"`
	Value  pricing.RawValue `json:"value"`
}

type RecomputeResponse struct {
	Entity         pricing.Entity  `json:"entity"`
	Display        pricing.Entity  `json:"display"`
	UnitCommission decimal.Decimal `json:"unit_commission"`
}
