package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateTable maps an article group to its commission rate as a fraction in [0,1].
type RateTable map[string]decimal.Decimal

// DefaultRates returns the stock commission rates per group.
func DefaultRates() RateTable {
	return RateTable{
		"Serviços":      decimal.RequireFromString("0.05"),
		"Pack de horas": decimal.RequireFromString("0.10"),
		"Marketing":     decimal.RequireFromString("0.20"),
		"Sites":         decimal.RequireFromString("0.075"),
	}
}

// RatesFromPercent builds a table from percentages (20 means 20%).
func RatesFromPercent(percents map[string]float64) RateTable {
	table := make(RateTable, len(percents))
	for group, pct := range percents {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		table[group] = clampRate(decimal.NewFromFloat(pct).Div(hundred))
	}
	return table
}

// Rate returns the rate for group, or zero when the group is unknown.
func (t RateTable) Rate(group string) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	rate, ok := t[strings.TrimSpace(group)]
	if !ok {
		return decimal.Zero
	}
	return clampRate(rate)
}

// Merge returns a new table with the entries of other overriding t.
func (t RateTable) Merge(other RateTable) RateTable {
	out := make(RateTable, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Commission computes marginValue * rate(group) * quantity. Unknown groups and
// negative quantities produce zero.
func Commission(marginValue decimal.Decimal, group string, rates RateTable, quantity decimal.Decimal) decimal.Decimal {
	if quantity.IsNegative() {
		return decimal.Zero
	}
	return marginValue.Mul(rates.Rate(group)).Mul(quantity)
}

// UnitCommission is Commission for a single unit.
func UnitCommission(marginValue decimal.Decimal, group string, rates RateTable) decimal.Decimal {
	return Commission(marginValue, group, rates, decimal.NewFromInt(1))
}

func clampRate(r decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	switch {
	case r.IsNegative():
		return decimal.Zero
	case r.GreaterThan(one):
		return one
	}
	return r
}
