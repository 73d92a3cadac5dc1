package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCommissionMarketingScenario(t *testing.T) {
	got := Commission(dec("400"), "Marketing", DefaultRates(), dec("3"))
	assertDecimal(t, "240", got, "commission")

	assertDecimal(t, "80", UnitCommission(dec("400"), "Marketing", DefaultRates()), "unit commission")
}

func TestCommissionSitesScenario(t *testing.T) {
	assertDecimal(t, "112.5", UnitCommission(dec("1500"), "Sites", DefaultRates()), "commission")
}

func TestCommissionUnknownGroupIsZero(t *testing.T) {
	assert.True(t, Commission(dec("400"), "Hardware", DefaultRates(), dec("3")).IsZero())
	assert.True(t, Commission(dec("400"), "", nil, dec("3")).IsZero())
	assert.True(t, Commission(dec("400"), "Marketing", DefaultRates(), dec("-1")).IsZero())
}

func TestRatesFromPercentAndMerge(t *testing.T) {
	overrides := RatesFromPercent(map[string]float64{"Marketing": 25, " Consultoria ": 12.5, "Bogus": 250, "": 5})
	assertDecimal(t, "0.25", overrides.Rate("Marketing"), "marketing")
	assertDecimal(t, "0.125", overrides.Rate("Consultoria"), "consultoria")
	assertDecimal(t, "1", overrides.Rate("Bogus"), "clamped")
	assert.Len(t, overrides, 3)

	merged := DefaultRates().Merge(overrides)
	assertDecimal(t, "0.25", merged.Rate("Marketing"), "override wins")
	assertDecimal(t, "0.075", merged.Rate("Sites"), "default kept")
}

func TestLineCommissions(t *testing.T) {
	marketing := FromCatalog(dec("800"), dec("400"), ModeFromSalePrice)
	marketing = Recompute(marketing, FieldQuantity, "3")
	sites := FromCatalog(dec("2500"), dec("1000"), ModeFromSalePrice)

	sum := LineCommissions([]GroupedEntity{
		{Entity: marketing, Group: "Marketing"},
		{Entity: sites, Group: "Sites"},
		{Entity: sites, Group: "Unknown"},
	}, DefaultRates())
	assertDecimal(t, "352.5", sum, "line commissions")
	assert.True(t, LineCommissions(nil, DefaultRates()).Equal(decimal.Zero))
}
