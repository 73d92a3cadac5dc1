package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(qty, price, discount string) Entity {
	e := NewEntity(ModeFromSalePrice)
	e = Recompute(e, FieldSalePrice, price)
	e = Recompute(e, FieldQuantity, qty)
	return Recompute(e, FieldDiscountPercent, discount)
}

func TestAggregateScenario(t *testing.T) {
	lines := []Entity{
		line("1", "1500", "0"),
		line("3", "300", "0"),
	}
	totals := Aggregate(lines, dec("10"), decimal.Zero)

	assertDecimal(t, "2400", totals.Subtotal, "subtotal")
	assertDecimal(t, "240", totals.DiscountAmount, "discount amount")
	assertDecimal(t, "2160", totals.Total, "total")
	assertDecimal(t, "0", totals.CommissionAmount, "commission amount")
}

func TestAggregateProposalCommission(t *testing.T) {
	totals := Aggregate([]Entity{line("2", "500", "0")}, dec("0"), dec("5"))
	assertDecimal(t, "1000", totals.Total, "total")
	assertDecimal(t, "50", totals.CommissionAmount, "commission amount")
}

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil, dec("10"), dec("5"))
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.CommissionAmount.IsZero())
}

func TestAggregateRecomputesStaleLineTotals(t *testing.T) {
	stale := line("2", "100", "0")
	stale.LineTotal = dec("1")
	totals := Aggregate([]Entity{stale}, decimal.Zero, decimal.Zero)
	assertDecimal(t, "200", totals.Subtotal, "subtotal")
}

func TestTotalsRounded(t *testing.T) {
	totals := Aggregate([]Entity{line("1", "10", "0")}, dec("33.333"), decimal.Zero).Rounded()
	assert.Equal(t, "3.33", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "6.67", totals.Total.StringFixed(2))
}
