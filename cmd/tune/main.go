// Package main runs the two-stage parameter sweep against a candle
// provider and persists the resulting report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"solana-trading-core/internal/config"
	"solana-trading-core/internal/logging"
	"solana-trading-core/internal/marketdata"
	"solana-trading-core/internal/observability"
	"solana-trading-core/internal/reporting"
	"solana-trading-core/internal/signal"
	"solana-trading-core/internal/storage"
	"solana-trading-core/internal/storage/memory"
	"solana-trading-core/internal/storage/migrations"
	pgstore "solana-trading-core/internal/storage/postgres"
	"solana-trading-core/internal/tuner"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	providerURL := flag.String("provider-url", "", "Candle provider base URL (overrides config)")
	signalKind := flag.String("signal", string(signal.KindRSIBand), "Entry signal kind")
	assets := flag.String("assets", "", "Comma-separated asset list (overrides config)")
	sanityDays := flag.Int("sanity-days", 7, "Stage 1 window length in days")
	stabilityDays := flag.Int("stability-days", 30, "Stage 2 window length in days")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN for report persistence (overrides config)")
	printCSV := flag.Bool("csv", false, "Print the confirmation ranking as CSV")

	flag.Parse()

	logger := log.New(os.Stderr, "[tune] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		logger.Fatalf("setup logging: %v", err)
	}

	if *providerURL == "" {
		*providerURL = cfg.MarketData.ProviderURL
	}
	if *providerURL == "" {
		logger.Fatal("no candle provider: set marketData.providerURL or --provider-url")
	}

	assetList := cfg.Tuner.Assets
	if *assets != "" {
		assetList = strings.Split(*assets, ",")
	}
	if len(assetList) == 0 {
		logger.Fatal("no assets configured: set tuner.assets or --assets")
	}

	if _, err := signal.FromKind(signal.Kind(*signalKind)); err != nil {
		logger.Fatalf("invalid signal kind: %v", err)
	}

	dsn := cfg.Storage.PostgresDSN
	if *postgresDSN != "" {
		dsn = *postgresDSN
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

	var reportStore storage.TuningReportStore = memory.NewTuningReportStore()
	if dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		reportStore = pgstore.NewTuningReportStore(pool)
	} else {
		logger.Print("no postgres DSN configured, report is printed but not persisted")
	}

	provider := marketdata.NewHTTPClient(*providerURL)

	now := time.Now().UTC()
	opts := tuner.Options{
		SignalKind: *signalKind,
		Assets:     assetList,
		Interval:   cfg.Tuner.Interval,
		SanityWindow: tuner.Window{
			StartMs: now.AddDate(0, 0, -*sanityDays).UnixMilli(),
			EndMs:   now.UnixMilli(),
		},
		StabilityWindow: tuner.Window{
			StartMs: now.AddDate(0, 0, -*stabilityDays).UnixMilli(),
			EndMs:   now.UnixMilli(),
		},
		Grid:               cfg.Grid(),
		SlippagePct:        cfg.Tuner.SlippagePct,
		FeePct:             cfg.Tuner.FeePct,
		TopK:               cfg.Tuner.TopK,
		MinTrades:          cfg.Tuner.MinTrades,
		StabilityMinTrades: cfg.Tuner.StabilityMinTrades,
		Concurrency:        cfg.Tuner.Concurrency,
	}

	logger.Printf("Running sweep: signal=%s assets=%d grid=%d configs",
		*signalKind, len(assetList), len(opts.Grid.Configs(opts.SignalKind, opts.SlippagePct, opts.FeePct)))

	started := time.Now()
	result, err := tuner.New(provider).Run(ctx, opts)
	if err != nil {
		logger.Fatalf("tuning run failed: %v", err)
	}
	observability.RecordTuningRun(time.Since(started).Seconds(), len(result.Stage1)+len(result.Stage2))

	report, err := reporting.NewGenerator(reportStore).Generate(ctx, result)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	fmt.Println(report.SummaryMarkdown)
	if *printCSV {
		fmt.Println(reporting.RenderCSV(result.Stage2))
	}
	logger.Printf("Report persisted: run=%s low_confidence=%v", report.RunID, report.LowConfidence)
}
