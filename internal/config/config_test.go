package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/risk"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 1000.0, cfg.Budget.Allocated)
	assert.Equal(t, "1h", cfg.Tuner.Interval)
	assert.Equal(t, 0.001, cfg.Tuner.FeePct)
	assert.Equal(t, 0.0005, cfg.Tuner.SlippagePct)

	gc := cfg.GateConfig()
	assert.Equal(t, 2.0, gc.MinAgeMinutes)
	assert.Equal(t, 2.5, gc.MaxMultiplier)
	assert.False(t, gc.HoursEnabled)

	assert.Equal(t, risk.DefaultClassLimits, cfg.ClassLimits())
	assert.Equal(t, risk.DefaultGlobalLimits, cfg.GlobalLimits())
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listenAddr: ":9090"
budget:
  allocated: 500
gate:
  minAgeMinutes: 5
  startHourUTC: 9
  endHourUTC: 17
risk:
  classes:
    memecoin:
      maxConsecutiveLosses: 2
      maxDailyLossPct: 0.2
      cooldownMinutes: 15
tuner:
  assets: [SOL, BONK]
  feePct: 0.002
  slippagePct: 0.001
  grid:
    stopLoss: [0.1]
    takeProfit: [0.3]
    maxHold: [12]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 500.0, cfg.Budget.Allocated)

	gc := cfg.GateConfig()
	assert.Equal(t, 5.0, gc.MinAgeMinutes)
	assert.True(t, gc.HoursEnabled)
	assert.Equal(t, 9, gc.StartHourUTC)
	assert.Equal(t, 17, gc.EndHourUTC)

	limits := cfg.ClassLimits()
	assert.Equal(t, 2, limits[domain.AssetMemecoin].MaxConsecutiveLosses)
	// Unlisted classes keep the defaults.
	assert.Equal(t, risk.DefaultClassLimits[domain.AssetBluechip], limits[domain.AssetBluechip])

	grid := cfg.Grid()
	assert.Equal(t, []float64{0.1}, grid.StopLoss)
	assert.Equal(t, []float64{0}, grid.TrailingStop)

	assert.Equal(t, []string{"SOL", "BONK"}, cfg.Tuner.Assets)
	assert.Equal(t, 0.002, cfg.Tuner.FeePct)
	assert.Equal(t, 0.001, cfg.Tuner.SlippagePct)
}

func TestLoad_RejectsNegativeCosts(t *testing.T) {
	path := writeConfig(t, "tuner:\n  feePct: -0.001\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownAssetClass(t *testing.T) {
	path := writeConfig(t, `
risk:
  classes:
    dogcoin:
      maxConsecutiveLosses: 3
      maxDailyLossPct: 0.3
      cooldownMinutes: 30
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsNegativeBudget(t *testing.T) {
	path := writeConfig(t, "budget:\n  allocated: -1\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyGridAxis(t *testing.T) {
	path := writeConfig(t, `
tuner:
  grid:
    stopLoss: []
    takeProfit: [0.3]
    maxHold: [12]
`)

	_, err := Load(path)
	assert.Error(t, err)
}
