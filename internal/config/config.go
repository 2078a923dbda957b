package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Strategy StrategyConfig `yaml:"strategy"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ExchangeConfig struct {
	BaseURL        string `yaml:"base_url"`
	HTTPTimeoutSec int64  `yaml:"http_timeout_sec"`
	RetryDelayMs   int64  `yaml:"retry_delay_ms"`
}

type StrategyConfig struct {
	// Discounts are the tier factors applied to the reference price, in
	// placement order.
	Discounts []Decimal `yaml:"discounts"`
	// SellMarkup multiplies the fill price to produce the take-profit price.
	SellMarkup Decimal `yaml:"sell_markup"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no config file is supplied.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("config must contain a single YAML document")
		}
		return Config{}, err
	}
	cfg.normalize()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Exchange.BaseURL = strings.TrimSpace(c.Exchange.BaseURL)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
}

func (c *Config) applyDefaults() {
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://api.ataix.kz"
	}
	if c.Exchange.HTTPTimeoutSec == 0 {
		c.Exchange.HTTPTimeoutSec = 15
	}
	if c.Exchange.RetryDelayMs == 0 {
		c.Exchange.RetryDelayMs = 500
	}
	if len(c.Strategy.Discounts) == 0 {
		c.Strategy.Discounts = []Decimal{
			{Decimal: decimal.RequireFromString("0.98")},
			{Decimal: decimal.RequireFromString("0.95")},
			{Decimal: decimal.RequireFromString("0.92")},
		}
	}
	if c.Strategy.SellMarkup.Cmp(decimal.Zero) == 0 {
		c.Strategy.SellMarkup = Decimal{Decimal: decimal.RequireFromString("1.02")}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c Config) Validate() error {
	if err := validateURL(c.Exchange.BaseURL, "http", "https"); err != nil {
		return fmt.Errorf("exchange base_url %v", err)
	}
	if c.Exchange.HTTPTimeoutSec < 1 || c.Exchange.HTTPTimeoutSec > 120 {
		return fmt.Errorf("exchange http_timeout_sec must be between 1 and 120")
	}
	if c.Exchange.RetryDelayMs < 1 || c.Exchange.RetryDelayMs > 10000 {
		return fmt.Errorf("exchange retry_delay_ms must be between 1 and 10000")
	}
	one := decimal.NewFromInt(1)
	for _, d := range c.Strategy.Discounts {
		if d.Cmp(decimal.Zero) <= 0 || d.Cmp(one) >= 0 {
			return fmt.Errorf("strategy discounts must be between 0 and 1 exclusive")
		}
	}
	if c.Strategy.SellMarkup.Cmp(one) <= 0 {
		return fmt.Errorf("strategy sell_markup must be > 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn, or error")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("must include scheme and host")
	}
	for _, s := range schemes {
		if parsed.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be %s", strings.Join(schemes, " or "))
}

// DiscountDecimals unwraps the configured discounts for the planner.
func (c Config) DiscountDecimals() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(c.Strategy.Discounts))
	for _, d := range c.Strategy.Discounts {
		out = append(out, d.Decimal)
	}
	return out
}
