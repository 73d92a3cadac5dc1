package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("COMMISSION_RATES", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10*time.Minute, cfg.RateCacheTTL)
	assert.Equal(t, 8, cfg.RepriceConcurrency)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigCommissionRates(t *testing.T) {
	t.Setenv("COMMISSION_RATES", "Marketing:25,Pack de horas:12.5")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.CommissionRates["Marketing"])
	assert.Equal(t, 12.5, cfg.CommissionRates["Pack de horas"])

	rates := cfg.CommissionDefaults()
	assert.Equal(t, "0.25", rates.Rate("Marketing").String())
	assert.Equal(t, "0.125", rates.Rate("Pack de horas").String())
	assert.Equal(t, "0.075", rates.Rate("Sites").String())
}

func TestLoadConfigRejectsOutOfRangeRate(t *testing.T) {
	t.Setenv("COMMISSION_RATES", "Marketing:120")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestInTestMode(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "true": true, "0": false, "": false, "yes": false} {
		t.Setenv(testModeEnv, raw)
		assert.Equal(t, want, InTestMode(), "value %q", raw)
	}
}
