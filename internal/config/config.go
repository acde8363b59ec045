// Package config loads cmd/simd's startup configuration. The simulation
// core never reads this itself: loading YAML is the binary's job, the core
// only ever sees the resulting typed values (spec: "supplied at
// construction").
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arborfi/simtrade/internal/fixed"
)

// Config is the on-disk shape of cmd/simd's startup file.
type Config struct {
	CycleDelayMs     int64  `yaml:"cycle_delay_ms"`
	CurrencyBalance  string `yaml:"currency_balance"`
	CommodityBalance string `yaml:"commodity_balance"`
	Venue            struct {
		Kind   string `yaml:"kind"` // "binance" or "memory"
		Symbol string `yaml:"symbol"`
	} `yaml:"venue"`
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"` // optional; non-empty enables the audit ledger, which connects via the DATABASE_URL environment variable
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// CycleDelay is CycleDelayMs as a time.Duration.
func (c Config) CycleDelay() time.Duration {
	return time.Duration(c.CycleDelayMs) * time.Millisecond
}

// Balances parses the configured starting balances into fixed.D.
func (c Config) Balances() (currency, commodity fixed.D, err error) {
	currency, err = fixed.Parse(c.CurrencyBalance)
	if err != nil {
		return fixed.D{}, fixed.D{}, fmt.Errorf("config: currency_balance: %w", err)
	}
	commodity, err = fixed.Parse(c.CommodityBalance)
	if err != nil {
		return fixed.D{}, fixed.D{}, fmt.Errorf("config: commodity_balance: %w", err)
	}
	return currency, commodity, nil
}
