// Package main runs one strategy config over a candle series and
// prints the aggregated result. Candles come from a CSV file or from
// ClickHouse storage.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"

	"solana-trading-core/internal/backtest"
	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/idhash"
	"solana-trading-core/internal/signal"
	chstore "solana-trading-core/internal/storage/clickhouse"
)

func main() {
	// Data source
	csvPath := flag.String("csv", "", "Candle CSV file (timestamp_ms,open,high,low,close,volume)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	asset := flag.String("asset", "", "Asset symbol for ClickHouse lookup")
	interval := flag.String("interval", "1h", "Candle interval for ClickHouse lookup")

	// Strategy parameters
	signalKind := flag.String("signal", string(signal.KindRSIBand), "Entry signal: rsi_band, ma_crossover, breakout, mean_reversion")
	stopLoss := flag.Float64("stop-loss", 0.12, "Stop-loss fraction")
	takeProfit := flag.Float64("take-profit", 0.25, "Take-profit fraction")
	trailingStop := flag.Float64("trailing-stop", 0, "Trailing-stop fraction (0 disables)")
	maxHold := flag.Int("max-hold", 24, "Max hold in candles")
	slippage := flag.Float64("slippage", 0.0005, "Slippage fraction per fill")
	fee := flag.Float64("fee", 0.001, "Fee fraction per leg")

	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *csvPath == "" && (*clickhouseDSN == "" || *asset == "") {
		logger.Fatal("either --csv or both --clickhouse-dsn and --asset are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	candles, err := loadCandles(ctx, *csvPath, *clickhouseDSN, *asset, *interval)
	if err != nil {
		logger.Fatalf("load candles: %v", err)
	}
	logger.Printf("Loaded %d candles", len(candles))

	cfg := domain.StrategyConfig{
		StopLossPct:     *stopLoss,
		TakeProfitPct:   *takeProfit,
		TrailingStopPct: *trailingStop,
		MaxHoldCandles:  *maxHold,
		SlippagePct:     *slippage,
		FeePct:          *fee,
		SignalKind:      *signalKind,
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	engine := backtest.NewEngine()
	result, err := engine.Run(candles, cfg)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}
	result.DatasetHash = idhash.DatasetHash(*asset, *interval, candles)

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}
}

// loadCandles reads candles from CSV or ClickHouse.
func loadCandles(ctx context.Context, csvPath, dsn, asset, interval string) ([]domain.Candle, error) {
	if csvPath != "" {
		return loadCSV(csvPath)
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	store := chstore.NewCandleStore(conn)
	return store.GetByAsset(ctx, asset, interval)
}

// loadCSV parses a candle CSV. A header row is skipped when the first
// field is not numeric.
func loadCSV(path string) ([]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var candles []domain.Candle
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			if len(candles) == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("parse timestamp %q: %w", record[0], err)
		}

		var vals [5]float64
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse field %q: %w", record[i+1], err)
			}
			vals[i] = v
		}

		candles = append(candles, domain.Candle{
			TimestampMs: ts,
			Open:        vals[0],
			High:        vals[1],
			Low:         vals[2],
			Close:       vals[3],
			Volume:      vals[4],
		})
	}

	return candles, nil
}

// printResult outputs a human-readable summary.
func printResult(r *domain.BacktestResult) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Strategy:           %s\n", r.StrategyID)
	fmt.Printf("Signal:             %s\n", r.SignalKind)
	fmt.Printf("Dataset Hash:       %s\n", r.DatasetHash)
	fmt.Println()

	fmt.Printf("Trades:             %d (%d wins / %d losses)\n", r.TotalTrades, r.Wins, r.Losses)
	fmt.Printf("Win Rate:           %.2f%%\n", r.WinRate*100)
	fmt.Printf("Avg Return:         %.2f%%\n", r.AvgReturnPct*100)
	fmt.Printf("Best / Worst:       %.2f%% / %.2f%%\n", r.BestTradePct*100, r.WorstTradePct*100)
	fmt.Printf("Profit Factor:      %.2f\n", r.ProfitFactor)
	fmt.Printf("Expectancy:         %.4f\n", r.Expectancy)
	fmt.Printf("Max Drawdown:       %.2f%%\n", r.MaxDrawdownPct*100)
	fmt.Printf("Sharpe (ann.):      %.2f\n", r.SharpeRatio)
	fmt.Printf("Avg Hold:           %.1f candles\n", r.AvgHoldCandles)
}
