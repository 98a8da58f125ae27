package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/pricing"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORAGE_MODE", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("COMMIT_RETRIES", "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, 2, cfg.CommitRetries)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.SeedFixtures)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_MODE", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ADMIN_EMAILS", "ops@rentacar.lk")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SESSION_TTL", "12h")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"ops@rentacar.lk"}, cfg.AdminEmails)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SeedFixtures)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"mongo without uri": {"STORAGE_MODE", "mongo"},
		"unknown storage":   {"STORAGE_MODE", "sqlite"},
		"bad duration":      {"IDEMP_TTL", "soon"},
		"bad bool":          {"S3_USE_SSL", "maybe"},
		"bad int":           {"REDIS_DB", "two"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MONGO_URI", "")
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestParsePricingOverridesDefaults(t *testing.T) {
	raw := []byte(`
tax_percent: 8
tier_discounts:
  weekly: 12
addons:
  gps:
    mode: flat
    amount: 900
promo_codes:
  - code: monsoon
    percent_off: 15
`)
	cfg, promos, err := ParsePricing(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(8), cfg.TaxPercent)
	assert.Equal(t, int64(12), cfg.TierDiscountPercent[pricing.TierWeekly])
	assert.Equal(t, int64(20), cfg.TierDiscountPercent[pricing.TierMonthly])
	assert.Equal(t, pricing.AddonPrice{Mode: pricing.ChargeFlat, Amount: 900}, cfg.Addons[pricing.AddonGPS])

	code, ok := promos.Lookup(" Monsoon ")
	require.True(t, ok)
	assert.Equal(t, int64(15), code.PercentOff)
	_, ok = promos.Lookup("SAVE10")
	assert.False(t, ok, "an explicit promo list replaces the defaults")
}

func TestParsePricingRejectsInvalid(t *testing.T) {
	_, _, err := ParsePricing([]byte("tier_discounts:\n  hourly: 5\n"))
	assert.ErrorIs(t, err, pricing.ErrInvalidConfig)
	_, _, err = ParsePricing([]byte("tax_percent: 120\n"))
	assert.ErrorIs(t, err, pricing.ErrInvalidConfig)
	_, _, err = ParsePricing([]byte("surcharge: 3\n"))
	assert.Error(t, err)
}

func TestLoadPricingWithoutPath(t *testing.T) {
	cfg, promos, err := LoadPricing("")
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultConfig().TaxPercent, cfg.TaxPercent)
	_, ok := promos.Lookup("save10")
	assert.True(t, ok)
}
