package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"solana-trading-core/internal/tuner"
)

// RenderMarkdown renders a tuning run as a Markdown summary.
func RenderMarkdown(res *tuner.Result) string {
	var sb strings.Builder

	sb.WriteString("# Tuning Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", res.RunID))
	sb.WriteString(fmt.Sprintf("Signal: %s | Generated: %s\n\n",
		res.SignalKind, res.GeneratedAt.UTC().Format(time.RFC3339)))

	sb.WriteString("## Selected Config\n\n")
	sb.WriteString("| Config | SL | TP | Trail | MaxHold |\n")
	sb.WriteString("|--------|----|----|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %d |\n\n",
		res.Selected.ID(), res.Selected.StopLossPct, res.Selected.TakeProfitPct,
		res.Selected.TrailingStopPct, res.Selected.MaxHoldCandles))

	if res.LowConfidence {
		sb.WriteString("**LOW CONFIDENCE**: the winner's confirmation trade count missed the stability threshold.\n\n")
	}

	sb.WriteString("## Confirmation Ranking\n\n")
	writeCellTable(&sb, res.Stage2)

	sb.WriteString("## Sweep Survivors\n\n")
	writeCellTable(&sb, res.Stage1)

	sb.WriteString("## Dataset Provenance\n\n")
	if len(res.DatasetHashes) > 0 {
		sb.WriteString("| Asset | Hash |\n")
		sb.WriteString("|-------|------|\n")
		assets := make([]string, 0, len(res.DatasetHashes))
		for asset := range res.DatasetHashes {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", asset, res.DatasetHashes[asset]))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No dataset hashes recorded.\n\n")
	}

	if len(res.SkippedAssets) > 0 {
		sb.WriteString("## Skipped Assets\n\n")
		assets := make([]string, 0, len(res.SkippedAssets))
		for asset := range res.SkippedAssets {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", asset, res.SkippedAssets[asset]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeCellTable(sb *strings.Builder, cells []tuner.CellMetrics) {
	if len(cells) == 0 {
		sb.WriteString("No cells evaluated.\n\n")
		return
	}

	sb.WriteString("| Config | Trades | WinRate | Expectancy | AvgReturn | ProfitFactor | MaxDD | Sharpe | Assets |\n")
	sb.WriteString("|--------|--------|---------|------------|-----------|--------------|-------|--------|--------|\n")
	for _, c := range cells {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.2f | %.4f | %.2f | %d |\n",
			c.Config.ID(), c.TotalTrades, c.WinRate, c.Expectancy, c.AvgReturnPct,
			c.ProfitFactor, c.MaxDrawdownPct, c.SharpeRatio, c.AssetsCovered))
	}
	sb.WriteString("\n")
}

// RenderCSV renders sweep cells as CSV for spreadsheet import.
func RenderCSV(cells []tuner.CellMetrics) string {
	var sb strings.Builder

	sb.WriteString("config_id,total_trades,win_rate,expectancy,avg_return_pct,")
	sb.WriteString("profit_factor,max_drawdown_pct,sharpe_ratio,assets_covered\n")

	for _, c := range cells {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d\n",
			c.Config.ID(),
			c.TotalTrades,
			c.WinRate,
			c.Expectancy,
			c.AvgReturnPct,
			c.ProfitFactor,
			c.MaxDrawdownPct,
			c.SharpeRatio,
			c.AssetsCovered,
		))
	}

	return sb.String()
}
