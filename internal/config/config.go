// Package config loads the application configuration from YAML.
// Zero values are filled with the product defaults at validation time,
// so a minimal file (or none at all) yields a runnable setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/gate"
	"solana-trading-core/internal/logging"
	"solana-trading-core/internal/risk"
	"solana-trading-core/internal/tuner"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Logging    logging.Config   `yaml:"logging" json:"logging"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Budget     BudgetConfig     `yaml:"budget" json:"budget"`
	MarketData MarketDataConfig `yaml:"marketData" json:"marketData"`
	Gate       GateConfig       `yaml:"gate" json:"gate"`
	Risk       RiskConfig       `yaml:"risk" json:"risk"`
	Tuner      TunerConfig      `yaml:"tuner" json:"tuner"`
}

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`
}

// StorageConfig selects the storage backends. Empty DSNs fall back to
// in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgresDSN" json:"postgresDSN"`
	ClickhouseDSN string `yaml:"clickhouseDSN" json:"clickhouseDSN"`
}

// BudgetConfig holds the ledger budget authorization.
type BudgetConfig struct {
	Allocated float64 `yaml:"allocated" json:"allocated"`
}

// MarketDataConfig points at the external market data provider. An
// empty ProviderURL disables live snapshot lookups.
type MarketDataConfig struct {
	ProviderURL string `yaml:"providerURL" json:"providerURL"`
}

// GateConfig mirrors gate.Config with yaml tags.
type GateConfig struct {
	MinAgeMinutes           float64 `yaml:"minAgeMinutes" json:"minAgeMinutes"`
	MaxMultiplier           float64 `yaml:"maxMultiplier" json:"maxMultiplier"`
	ThresholdsEnabled       *bool   `yaml:"thresholdsEnabled" json:"thresholdsEnabled"`
	MinPriceChange1h        float64 `yaml:"minPriceChange1h" json:"minPriceChange1h"`
	MinLiquidityUSD         float64 `yaml:"minLiquidityUSD" json:"minLiquidityUSD"`
	MinVolumeLiquidityRatio float64 `yaml:"minVolumeLiquidityRatio" json:"minVolumeLiquidityRatio"`

	// Trading hours in UTC. Both zero disables the hours gate.
	StartHourUTC int `yaml:"startHourUTC" json:"startHourUTC"`
	EndHourUTC   int `yaml:"endHourUTC" json:"endHourUTC"`
}

// BreakerLimitsConfig mirrors domain.BreakerLimits with yaml tags.
type BreakerLimitsConfig struct {
	MaxConsecutiveLosses int     `yaml:"maxConsecutiveLosses" json:"maxConsecutiveLosses"`
	MaxDailyLossPct      float64 `yaml:"maxDailyLossPct" json:"maxDailyLossPct"`
	CooldownMinutes      int     `yaml:"cooldownMinutes" json:"cooldownMinutes"`
}

// RiskConfig holds per-class and global breaker limits. Classes not
// listed keep the built-in defaults.
type RiskConfig struct {
	Classes map[string]BreakerLimitsConfig `yaml:"classes" json:"classes"`
	Global  *BreakerLimitsConfig           `yaml:"global" json:"global"`
}

// TunerConfig holds the parameter sweep settings.
type TunerConfig struct {
	Assets   []string `yaml:"assets" json:"assets"`
	Interval string   `yaml:"interval" json:"interval"`

	// Transaction cost model applied to every simulated fill.
	FeePct      float64 `yaml:"feePct" json:"feePct"`
	SlippagePct float64 `yaml:"slippagePct" json:"slippagePct"`

	TopK               int `yaml:"topK" json:"topK"`
	MinTrades          int `yaml:"minTrades" json:"minTrades"`
	StabilityMinTrades int `yaml:"stabilityMinTrades" json:"stabilityMinTrades"`
	Concurrency        int `yaml:"concurrency" json:"concurrency"`

	Grid *GridConfig `yaml:"grid" json:"grid"`
}

// GridConfig mirrors tuner.Grid with yaml tags.
type GridConfig struct {
	StopLoss     []float64 `yaml:"stopLoss" json:"stopLoss"`
	TakeProfit   []float64 `yaml:"takeProfit" json:"takeProfit"`
	TrailingStop []float64 `yaml:"trailingStop" json:"trailingStop"`
	MaxHold      []int     `yaml:"maxHold" json:"maxHold"`
}

// Load reads and validates a YAML config file. A missing path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects contradictory settings.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Budget.Allocated < 0 {
		return fmt.Errorf("budget.allocated must not be negative")
	}
	if c.Budget.Allocated == 0 {
		c.Budget.Allocated = 1000
	}

	if c.Gate.MinAgeMinutes < 0 {
		return fmt.Errorf("gate.minAgeMinutes must not be negative")
	}
	if c.Gate.MaxMultiplier < 0 {
		return fmt.Errorf("gate.maxMultiplier must not be negative")
	}
	if c.Gate.StartHourUTC < 0 || c.Gate.StartHourUTC > 23 ||
		c.Gate.EndHourUTC < 0 || c.Gate.EndHourUTC > 24 {
		return fmt.Errorf("gate trading hours out of range")
	}

	for name, limits := range c.Risk.Classes {
		if _, err := domain.ParseAssetClass(name); err != nil {
			return fmt.Errorf("risk.classes: %w", err)
		}
		if limits.MaxConsecutiveLosses <= 0 || limits.CooldownMinutes <= 0 || limits.MaxDailyLossPct <= 0 {
			return fmt.Errorf("risk.classes.%s: limits must be positive", name)
		}
	}

	if c.Tuner.Interval == "" {
		c.Tuner.Interval = "1h"
	}
	if c.Tuner.FeePct < 0 || c.Tuner.SlippagePct < 0 {
		return fmt.Errorf("tuner.feePct and tuner.slippagePct must not be negative")
	}
	if c.Tuner.FeePct == 0 {
		c.Tuner.FeePct = 0.001
	}
	if c.Tuner.SlippagePct == 0 {
		c.Tuner.SlippagePct = 0.0005
	}
	if c.Tuner.Grid != nil {
		g := c.Tuner.Grid
		if len(g.StopLoss) == 0 || len(g.TakeProfit) == 0 || len(g.MaxHold) == 0 {
			return fmt.Errorf("tuner.grid: stopLoss, takeProfit and maxHold must be non-empty")
		}
	}

	return nil
}

// GateConfig converts to the gate package config, starting from its
// defaults and overriding the fields present here.
func (c *Config) GateConfig() gate.Config {
	out := gate.DefaultConfig()
	if c.Gate.MinAgeMinutes > 0 {
		out.MinAgeMinutes = c.Gate.MinAgeMinutes
	}
	if c.Gate.MaxMultiplier > 0 {
		out.MaxMultiplier = c.Gate.MaxMultiplier
	}
	if c.Gate.ThresholdsEnabled != nil {
		out.ThresholdsEnabled = *c.Gate.ThresholdsEnabled
	}
	if c.Gate.MinPriceChange1h > 0 {
		out.MinPriceChange1h = c.Gate.MinPriceChange1h
	}
	if c.Gate.MinLiquidityUSD > 0 {
		out.MinLiquidityUSD = c.Gate.MinLiquidityUSD
	}
	if c.Gate.MinVolumeLiquidityRatio > 0 {
		out.MinVolumeLiquidityRatio = c.Gate.MinVolumeLiquidityRatio
	}
	if c.Gate.StartHourUTC != 0 || c.Gate.EndHourUTC != 0 {
		out.HoursEnabled = true
		out.StartHourUTC = c.Gate.StartHourUTC
		out.EndHourUTC = c.Gate.EndHourUTC
	}
	return out
}

// ClassLimits converts to the enum-indexed limits array, starting from
// the built-in defaults.
func (c *Config) ClassLimits() [domain.NumAssetClasses]domain.BreakerLimits {
	limits := risk.DefaultClassLimits
	for name, lc := range c.Risk.Classes {
		class, err := domain.ParseAssetClass(name)
		if err != nil {
			continue // rejected by Validate already
		}
		limits[class] = domain.BreakerLimits{
			MaxConsecutiveLosses: lc.MaxConsecutiveLosses,
			MaxDailyLossPct:      lc.MaxDailyLossPct,
			CooldownMinutes:      lc.CooldownMinutes,
		}
	}
	return limits
}

// GlobalLimits converts the global breaker limits.
func (c *Config) GlobalLimits() domain.BreakerLimits {
	if c.Risk.Global == nil {
		return risk.DefaultGlobalLimits
	}
	return domain.BreakerLimits{
		MaxConsecutiveLosses: c.Risk.Global.MaxConsecutiveLosses,
		MaxDailyLossPct:      c.Risk.Global.MaxDailyLossPct,
		CooldownMinutes:      c.Risk.Global.CooldownMinutes,
	}
}

// Grid converts to the tuner grid, or the default grid when unset.
func (c *Config) Grid() tuner.Grid {
	if c.Tuner.Grid == nil {
		return tuner.DefaultGrid()
	}
	g := tuner.Grid{
		StopLoss:     c.Tuner.Grid.StopLoss,
		TakeProfit:   c.Tuner.Grid.TakeProfit,
		TrailingStop: c.Tuner.Grid.TrailingStop,
		MaxHold:      c.Tuner.Grid.MaxHold,
	}
	if len(g.TrailingStop) == 0 {
		g.TrailingStop = []float64{0}
	}
	return g
}
