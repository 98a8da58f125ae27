package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rentacar/internal/domain/pricing"
)

// PricingFile is the YAML layout of the tariff file. Omitted sections keep
// the defaults.
type PricingFile struct {
	Currency      string                 `yaml:"currency"`
	TaxPercent    *int64                 `yaml:"tax_percent"`
	TierDiscounts map[string]int64       `yaml:"tier_discounts"`
	Addons        map[string]AddonConfig `yaml:"addons"`
	PromoCodes    []pricing.PromoCode    `yaml:"promo_codes"`
}

type AddonConfig struct {
	Mode   string `yaml:"mode"`
	Amount int64  `yaml:"amount"`
}

// LoadPricing returns the tariff and promo table. An empty path yields the
// built-in defaults.
func LoadPricing(path string) (pricing.Config, pricing.StaticPromoTable, error) {
	if strings.TrimSpace(path) == "" {
		return pricing.DefaultConfig(), pricing.DefaultPromoTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return pricing.Config{}, nil, fmt.Errorf("read pricing config: %w", err)
	}
	return ParsePricing(raw)
}

func ParsePricing(raw []byte) (pricing.Config, pricing.StaticPromoTable, error) {
	var file PricingFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return pricing.Config{}, nil, fmt.Errorf("parse pricing config: %w", err)
	}

	cfg := pricing.DefaultConfig()
	if file.Currency != "" {
		cfg.Currency = strings.ToUpper(strings.TrimSpace(file.Currency))
	}
	if file.TaxPercent != nil {
		cfg.TaxPercent = *file.TaxPercent
	}
	for name, pct := range file.TierDiscounts {
		tier, ok := pricing.ParseTier(name)
		if !ok {
			return pricing.Config{}, nil, fmt.Errorf("%w: unknown tier %q", pricing.ErrInvalidConfig, name)
		}
		cfg.TierDiscountPercent[tier] = pct
	}
	for name, addon := range file.Addons {
		kind, ok := pricing.ParseAddon(name)
		if !ok {
			return pricing.Config{}, nil, fmt.Errorf("%w: unknown add-on %q", pricing.ErrInvalidConfig, name)
		}
		cfg.Addons[kind] = pricing.AddonPrice{Mode: pricing.ChargeMode(strings.ToLower(addon.Mode)), Amount: addon.Amount}
	}
	if err := cfg.Validate(); err != nil {
		return pricing.Config{}, nil, err
	}

	promos := pricing.DefaultPromoTable()
	if file.PromoCodes != nil {
		promos = pricing.NewStaticPromoTable(file.PromoCodes)
	}
	return cfg, promos, nil
}
