package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

// Group is an article group. Its commission percent feeds the rate table.
type Group struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Color             *string         `json:"color,omitempty"`
	Description       *string         `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Rate returns the commission percent as a fraction.
func (g Group) Rate() decimal.Decimal {
	return g.CommissionPercent.Div(decimal.NewFromInt(100))
}

// Article is a sellable catalog item.
type Article struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	GroupName     *string         `json:"group_name,omitempty"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	MarginValue   decimal.Decimal `json:"margin_value"`
	Commission    decimal.Decimal `json:"commission"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Group returns the article group name, empty when unset.
func (a Article) Group() string {
	if a.GroupName == nil {
		return ""
	}
	return *a.GroupName
}

// Entity exposes the article prices in the shape the calculator consumes.
// Margins are derived from the stored prices whenever the sale price is set,
// so the stored percent precision never feeds back into a re-price.
func (a Article) Entity() pricing.Entity {
	e := pricing.NewEntity(pricing.ModeFromSalePrice)
	e.SalePrice = a.SalePrice
	e.CostPrice = a.PurchasePrice
	e.MarginPercent = a.MarginPercent
	e.MarginValue = a.MarginValue
	if a.SalePrice.IsPositive() {
		e = pricing.ApplyArticle(e, pricing.FieldCostPrice, a.PurchasePrice)
	}
	return e
}

// Reprice derives margin and commission from sale and purchase price.
func (a *Article) Reprice(rates pricing.RateTable) {
	e := pricing.ApplyArticle(a.Entity(), pricing.FieldCostPrice, a.PurchasePrice)
	a.applyEntity(e, rates)
}

func (a *Article) applyEntity(e pricing.Entity, rates pricing.RateTable) {
	a.SalePrice = e.SalePrice
	a.PurchasePrice = e.CostPrice
	a.MarginPercent = e.MarginPercent
	a.MarginValue = e.MarginValue
	a.Commission = pricing.UnitCommission(e.MarginValue, a.Group(), rates)
}

// storageScale is the scale of the article price columns.
const storageScale = 4

// samePricing compares the derived fields at storage precision.
func samePricing(a, b Article) bool {
	return a.MarginPercent.Round(storageScale).Equal(b.MarginPercent.Round(storageScale)) &&
		a.MarginValue.Round(storageScale).Equal(b.MarginValue.Round(storageScale)) &&
		a.Commission.Round(storageScale).Equal(b.Commission.Round(storageScale))
}

// MarshalJSON renders amounts rounded to cents.
func (a Article) MarshalJSON() ([]byte, error) {
	type article Article
	out := article(a)
	out.SalePrice = pricing.Round2(a.SalePrice)
	out.PurchasePrice = pricing.Round2(a.PurchasePrice)
	out.MarginPercent = pricing.Round2(a.MarginPercent)
	out.MarginValue = pricing.Round2(a.MarginValue)
	out.Commission = pricing.Round2(a.Commission)
	return json.Marshal(out)
}
