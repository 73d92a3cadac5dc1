package pricing

import "github.com/shopspring/decimal"

// Recompute applies one raw field edit using the rules of the entity's mode.
// Editing FieldMode switches the mode; unknown modes are ignored.
func Recompute(e Entity, field Field, raw string) Entity {
	if field == FieldMode {
		mode, ok := ParseMode(raw)
		if !ok {
			return e
		}
		return SwitchMode(e, mode)
	}
	return Apply(e, field, ParseAmount(raw))
}

// Apply is Recompute for values that are already numeric.
func Apply(e Entity, field Field, value decimal.Decimal) Entity {
	if e.Mode.orDefault() == ModeFromCostPrice {
		return fromCostPrice(e, field, value)
	}
	return fromSalePrice(e, field, value)
}

// RecomputeFromSalePrice applies a raw edit with sale price as the basis.
// Cost price and margin value are derived and direct writes to them are ignored.
func RecomputeFromSalePrice(e Entity, field Field, raw string) Entity {
	return fromSalePrice(e, field, ParseAmount(raw))
}

// RecomputeFromCostPrice applies a raw edit with cost price as the basis.
// Sale price is derived and direct writes to it are ignored.
func RecomputeFromCostPrice(e Entity, field Field, raw string) Entity {
	return fromCostPrice(e, field, ParseAmount(raw))
}

// RecomputeArticle applies a raw edit to an article, where any of the four
// price fields may be edited and the sale price stays the margin basis.
func RecomputeArticle(e Entity, field Field, raw string) Entity {
	return ApplyArticle(e, field, ParseAmount(raw))
}

// ApplyArticle is RecomputeArticle for values that are already numeric.
func ApplyArticle(e Entity, field Field, value decimal.Decimal) Entity {
	v := sanitize(field, value)
	switch field {
	case FieldSalePrice:
		e.SalePrice = v
		e.MarginValue = percentOf(e.SalePrice, e.MarginPercent)
		e.CostPrice = e.SalePrice.Sub(e.MarginValue)
	case FieldMarginPercent:
		e.MarginPercent = clampPercent(v)
		e.MarginValue = percentOf(e.SalePrice, e.MarginPercent)
		e.CostPrice = e.SalePrice.Sub(e.MarginValue)
	case FieldMarginValue:
		e.MarginValue = v
		e.MarginPercent = ratio(e.MarginValue, e.SalePrice)
		e.CostPrice = e.SalePrice.Sub(e.MarginValue)
	case FieldCostPrice:
		e.CostPrice = v
		e.MarginValue = e.SalePrice.Sub(e.CostPrice)
		e.MarginPercent = ratio(e.MarginValue, e.SalePrice)
	case FieldQuantity, FieldDiscountPercent:
		return setVolume(e, field, v)
	}
	return withLineTotal(e)
}

// SwitchMode changes the calculation mode. The margin fields and the price
// that becomes derived are reset to zero. Switching to the current mode is a
// no-op.
func SwitchMode(e Entity, mode Mode) Entity {
	if !mode.Valid() || mode == e.Mode.orDefault() {
		return e
	}
	e.Mode = mode
	e.MarginPercent = decimal.Zero
	e.MarginValue = decimal.Zero
	if mode == ModeFromCostPrice {
		e.SalePrice = decimal.Zero
	} else {
		e.CostPrice = decimal.Zero
	}
	return withLineTotal(e)
}

// FromCatalog builds a line entity from catalog prices. The margin percent is
// expressed on the basis of mode, so later edits in that mode start from it.
func FromCatalog(salePrice, costPrice decimal.Decimal, mode Mode) Entity {
	e := NewEntity(mode)
	e.SalePrice = clampNonNegative(salePrice)
	e.CostPrice = clampNonNegative(costPrice)
	return Settle(e)
}

// Settle derives margin value and percent from the entity's prices, so that
// marginValue = salePrice - costPrice holds whatever margin was submitted.
// The percent is on the sale price for ModeFromSalePrice and on the cost price
// for ModeFromCostPrice.
func Settle(e Entity) Entity {
	e.Mode = e.Mode.orDefault()
	e.MarginValue = e.SalePrice.Sub(e.CostPrice)
	if e.Mode == ModeFromCostPrice {
		e.MarginPercent = ratio(e.MarginValue, e.CostPrice)
	} else {
		e.MarginPercent = ratio(e.MarginValue, e.SalePrice)
	}
	return withLineTotal(e)
}

func fromSalePrice(e Entity, field Field, value decimal.Decimal) Entity {
	v := sanitize(field, value)
	switch field {
	case FieldSalePrice:
		e.SalePrice = v
	case FieldMarginPercent:
		e.MarginPercent = v
	case FieldQuantity, FieldDiscountPercent:
		return setVolume(e, field, v)
	default:
		return withLineTotal(e)
	}
	// margin on sale price cannot exceed the price itself
	e.MarginPercent = clampPercent(e.MarginPercent)
	if e.SalePrice.IsPositive() && e.MarginPercent.IsPositive() {
		e.MarginValue = percentOf(e.SalePrice, e.MarginPercent)
		e.CostPrice = e.SalePrice.Sub(e.MarginValue)
	}
	return withLineTotal(e)
}

func fromCostPrice(e Entity, field Field, value decimal.Decimal) Entity {
	v := sanitize(field, value)
	switch field {
	case FieldCostPrice:
		e.CostPrice = v
		if e.CostPrice.IsPositive() {
			e.MarginValue = percentOf(e.CostPrice, e.MarginPercent)
			e.SalePrice = e.CostPrice.Add(e.MarginValue)
		}
	case FieldMarginPercent:
		e.MarginPercent = v
		e.MarginValue = percentOf(e.CostPrice, e.MarginPercent)
		e.SalePrice = e.CostPrice.Add(e.MarginValue)
	case FieldMarginValue:
		e.MarginValue = v
		e.SalePrice = e.CostPrice.Add(e.MarginValue)
		e.MarginPercent = ratio(e.MarginValue, e.CostPrice)
	case FieldQuantity, FieldDiscountPercent:
		return setVolume(e, field, v)
	}
	return withLineTotal(e)
}

func setVolume(e Entity, field Field, v decimal.Decimal) Entity {
	if field == FieldQuantity {
		e.Quantity = v
	} else {
		e.DiscountPercent = v
	}
	return withLineTotal(e)
}

func withLineTotal(e Entity) Entity {
	e.LineTotal = LineTotal(e)
	return e
}

// percentOf returns pct percent of base.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// ratio expresses part as a percentage of base; a non-positive base yields zero.
func ratio(part, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(base)
}
