// Package pricing derives sale price, cost price, margin and commission for
// catalog articles and proposal lines. Every function is pure: callers pass the
// current state of one entity and get back the next state.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects which price is entered by the user and which one is derived.
type Mode string

const (
	// ModeFromSalePrice treats the sale price (PVP) as the input and margin as a
	// percentage of it.
	ModeFromSalePrice Mode = "pvp"
	// ModeFromCostPrice treats the cost price as the input and margin as a
	// percentage of cost.
	ModeFromCostPrice Mode = "cost"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeFromSalePrice || m == ModeFromCostPrice
}

// ParseMode maps user input to a Mode. Unknown values return false.
func ParseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pvp", "sale", "from_sale_price", "fromsaleprice":
		return ModeFromSalePrice, true
	case "cost", "from_cost_price", "fromcostprice":
		return ModeFromCostPrice, true
	default:
		return "", false
	}
}

func (m Mode) orDefault() Mode {
	if m.Valid() {
		return m
	}
	return ModeFromSalePrice
}

// Field names one editable attribute of an Entity.
type Field string

const (
	FieldSalePrice       Field = "sale_price"
	FieldCostPrice       Field = "cost_price"
	FieldMarginPercent   Field = "margin_percent"
	FieldMarginValue     Field = "margin_value"
	FieldQuantity        Field = "quantity"
	FieldDiscountPercent Field = "discount_percent"
	FieldMode            Field = "calculation_mode"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldSalePrice, FieldCostPrice, FieldMarginPercent, FieldMarginValue,
		FieldQuantity, FieldDiscountPercent, FieldMode:
		return true
	}
	return false
}

// Entity is the priced shape shared by catalog articles and proposal lines.
type Entity struct {
	SalePrice       decimal.Decimal `json:"sale_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	MarginValue     decimal.Decimal `json:"margin_value"`
	Mode            Mode            `json:"calculation_mode"`
	Quantity        decimal.Decimal `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// NewEntity returns a zeroed entity with quantity 1.
func NewEntity(mode Mode) Entity {
	return Entity{Mode: mode.orDefault(), Quantity: decimal.NewFromInt(1)}
}

// Rounded returns a copy with every amount rounded to two decimal places.
// Use it for presentation only; recompute from the unrounded entity.
func (e Entity) Rounded() Entity {
	e.SalePrice = Round2(e.SalePrice)
	e.CostPrice = Round2(e.CostPrice)
	e.MarginPercent = Round2(e.MarginPercent)
	e.MarginValue = Round2(e.MarginValue)
	e.Quantity = Round2(e.Quantity)
	e.DiscountPercent = Round2(e.DiscountPercent)
	e.LineTotal = Round2(e.LineTotal)
	return e
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
