package pricing

import "github.com/shopspring/decimal"

// Totals are the proposal level figures folded from its lines.
type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Total            decimal.Decimal `json:"total"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

// Rounded returns the totals rounded to two decimal places.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:         Round2(t.Subtotal),
		DiscountAmount:   Round2(t.DiscountAmount),
		Total:            Round2(t.Total),
		CommissionAmount: Round2(t.CommissionAmount),
	}
}

// LineTotal is quantity * salePrice * (1 - discountPercent/100).
func LineTotal(e Entity) decimal.Decimal {
	gross := e.Quantity.Mul(e.SalePrice)
	discount := percentOf(gross, clampPercent(e.DiscountPercent))
	return gross.Sub(discount)
}

// Aggregate recomputes every line total and folds them into proposal totals.
// The proposal commission is a share of the total and is independent of any
// per-line commission.
func Aggregate(lines []Entity, discountPercent, commissionPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line))
	}
	discount := percentOf(subtotal, clampPercent(discountPercent))
	total := subtotal.Sub(discount)
	return Totals{
		Subtotal:         subtotal,
		DiscountAmount:   discount,
		Total:            total,
		CommissionAmount: percentOf(total, clampNonNegative(commissionPercent)),
	}
}

// GroupedEntity pairs a line with the group that drives its commission rate.
type GroupedEntity struct {
	Entity
	Group string
}

// LineCommissions sums the per-line commission of every line.
func LineCommissions(lines []GroupedEntity, rates RateTable) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(Commission(line.MarginValue, line.Group, rates, line.Quantity))
	}
	return sum
}
