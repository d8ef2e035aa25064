package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Business.ProductsPerPage)
	assert.True(t, cfg.Business.TaxMode)
	assert.Equal(t, "5.00", cfg.Business.DeliveryFee.StringFixed(2))
	assert.Equal(t, "0.09", cfg.Business.TaxRate.String())
	assert.Equal(t, "SGD", cfg.Business.Currency)
	assert.Equal(t, "SGD", cfg.Business.CurrencyUnit.String())
	assert.Equal(t, 24*time.Hour, cfg.Business.CompletionTTL)
	assert.Equal(t, "http://localhost:8080/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Business.CheckoutLockTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRODUCTS_PER_PAGE", "12")
	t.Setenv("TAX_MODE", "false")
	t.Setenv("CATALOG_CACHE_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Business.ProductsPerPage)
	assert.False(t, cfg.Business.SummaryConfig().TaxMode)
	assert.Equal(t, 5*time.Minute, cfg.Business.CatalogCacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		val     string
		wantErr string
	}{
		{name: "bad int", key: "PRODUCTS_PER_PAGE", val: "eight", wantErr: `PRODUCTS_PER_PAGE[eight] is not valid: strconv.Atoi: parsing "eight": invalid syntax`},
		{name: "zero page size", key: "PRODUCTS_PER_PAGE", val: "0", wantErr: "PRODUCTS_PER_PAGE must be positive, got 0"},
		{name: "negative fee", key: "DELIVERY_FEE", val: "-1", wantErr: "DELIVERY_FEE and TAX_RATE must not be negative"},
		{name: "bad duration", key: "CHECKOUT_LOCK_TTL", val: "soon", wantErr: `CHECKOUT_LOCK_TTL[soon] is not valid: time: invalid duration "soon"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsUnknownCurrency(t *testing.T) {
	t.Setenv("CURRENCY", "XYZW")

	_, err := Load()
	require.Error(t, err)
}
