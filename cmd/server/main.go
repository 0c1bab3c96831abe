// Package main provides the unified trading service:
// - Entry gate (live): snapshot evaluation against thresholds and breakers
// - Ledger (live): position lifecycle, budget, breaker and belief updates
// - Price stream (continuous): websocket ticks driving trailing exits
// - Activity feed: websocket broadcast of decisions and position events
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"solana-trading-core/internal/config"
	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/feed"
	"solana-trading-core/internal/gate"
	"solana-trading-core/internal/ledger"
	"solana-trading-core/internal/logging"
	"solana-trading-core/internal/marketdata"
	"solana-trading-core/internal/observability"
	"solana-trading-core/internal/risk"
	"solana-trading-core/internal/storage"
	"solana-trading-core/internal/storage/memory"
	"solana-trading-core/internal/storage/migrations"
	pgstore "solana-trading-core/internal/storage/postgres"
)

// Server holds all components of the unified service.
type Server struct {
	// Configuration
	cfg        *config.Config
	wsEndpoint string

	// Stores
	stores *serverStores

	// Components
	hub       *feed.Hub
	ledger    *ledger.Ledger
	gate      *gate.Gate
	snapshots marketdata.SnapshotProvider
	logger    *log.Logger

	// State
	mu      sync.Mutex
	started time.Time
	ticks   int64
}

// serverStores holds the storage implementations behind the service.
type serverStores struct {
	positionStore storage.PositionStore
	decisionStore storage.DecisionStore
	reportStore   storage.TuningReportStore
	inMemory      bool
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("PRICE_WS_ENDPOINT"), "Price tick websocket endpoint (empty disables the stream)")
	providerURL := flag.String("provider-url", "", "Market data provider base URL (overrides config)")
	listenAddr := flag.String("listen-addr", "", "HTTP listen address (overrides config)")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *providerURL != "" {
		cfg.MarketData.ProviderURL = *providerURL
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		logger.Fatalf("setup logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()
	if stores.inMemory {
		logger.Println("No DSNs configured, using in-memory storage (records are not persisted)")
	}

	hub := feed.NewHub()
	defer hub.Close()

	lgr := ledger.New(ledger.Options{
		Allocated: decimal.NewFromFloat(cfg.Budget.Allocated),
		Governor:  risk.NewGovernor(cfg.ClassLimits(), cfg.GlobalLimits()),
		Sink: &positionSink{
			hub:    hub,
			store:  stores.positionStore,
			logger: logger,
		},
	})

	gt := gate.New(cfg.GateConfig(), lgr, &decisionSink{
		hub:    hub,
		store:  stores.decisionStore,
		logger: logger,
	})

	var snapshots marketdata.SnapshotProvider
	if cfg.MarketData.ProviderURL != "" {
		snapshots = marketdata.NewHTTPClient(cfg.MarketData.ProviderURL)
	}

	server := &Server{
		cfg:        cfg,
		wsEndpoint: *wsEndpoint,
		stores:     stores,
		hub:        hub,
		ledger:     lgr,
		gate:       gt,
		snapshots:  snapshots,
		logger:     logger,
		started:    time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the required stores. Empty DSNs select the
// in-memory implementations.
func createStores(ctx context.Context, cfg config.StorageConfig) (*serverStores, func(), error) {
	if cfg.PostgresDSN == "" {
		stores := &serverStores{
			positionStore: memory.NewPositionStore(),
			decisionStore: memory.NewDecisionStore(),
			reportStore:   memory.NewTuningReportStore(),
			inMemory:      true,
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &serverStores{
		positionStore: pgstore.NewPositionStore(pool),
		decisionStore: pgstore.NewDecisionStore(pool),
		reportStore:   pgstore.NewTuningReportStore(pool),
	}

	cleanup := func() {
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the service and blocks until the context is cancelled or
// a component fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting trading service...")

	errCh := make(chan error, 2)

	if s.wsEndpoint != "" {
		go func() {
			err := s.runPriceStream(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("price stream: %w", err)
			}
		}()
	} else {
		s.logger.Println("No --ws-endpoint, price stream disabled")
	}

	go s.startHTTPServer(ctx)
	go s.runUptimeTicker(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runPriceStream subscribes to the tick feed and drives the ledger's
// trailing-stop and exit evaluation. The subscription follows the set
// of open positions and is refreshed whenever it changes.
func (s *Server) runPriceStream(ctx context.Context) error {
	s.logger.Printf("Starting price stream from %s...", s.wsEndpoint)

	for {
		mints := s.openMints()
		if len(mints) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		if err := s.streamOnce(ctx, mints); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.logger.Printf("Price stream error, reconnecting: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

// streamOnce holds one subscription until the open set changes or the
// stream fails.
func (s *Server) streamOnce(ctx context.Context, mints []string) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := marketdata.NewWSStream(streamCtx, s.wsEndpoint, nil)
	if err != nil {
		return err
	}
	defer stream.Close()

	ticks, err := stream.Subscribe(streamCtx, mints)
	if err != nil {
		return err
	}

	refresh := time.NewTicker(10 * time.Second)
	defer refresh.Stop()

	for {
		select {
		case <-streamCtx.Done():
			return streamCtx.Err()
		case <-refresh.C:
			if !sameMints(mints, s.openMints()) {
				return nil
			}
		case tick, ok := <-ticks:
			if !ok {
				return errors.New("tick channel closed")
			}
			s.ledger.ApplyTick(tick.Mint, tick.Price)
			s.mu.Lock()
			s.ticks++
			s.mu.Unlock()
			observability.DefaultMetrics.LastSuccessfulTick.SetToCurrentTime()
		}
	}
}

// openMints returns the distinct mints of all open positions.
func (s *Server) openMints() []string {
	open := s.ledger.OpenPositions()
	mints := make([]string, 0, len(open))
	seen := make(map[string]bool, len(open))
	for _, p := range open {
		if !seen[p.Mint] {
			seen[p.Mint] = true
			mints = append(mints, p.Mint)
		}
	}
	return mints
}

func sameMints(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, m := range a {
		set[m] = true
	}
	for _, m := range b {
		if !set[m] {
			return false
		}
	}
	return true
}

// runUptimeTicker keeps the uptime counter current.
func (s *Server) runUptimeTicker(ctx context.Context) {
	const step = 15 * time.Second
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Add(step.Seconds())
		}
	}
}

// startHTTPServer serves the API, the activity feed, and metrics.
func (s *Server) startHTTPServer(ctx context.Context) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/ws", s.hub)

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/positions", s.handlePositions)
	mux.HandleFunc("/positions/open", s.handleOpenPosition)
	mux.HandleFunc("/positions/close", s.handleClosePosition)
	mux.HandleFunc("/positions/reconcile", s.handleReconcile)
	mux.HandleFunc("/budget", s.handleBudget)
	mux.HandleFunc("/beliefs", s.handleBeliefs)
	mux.HandleFunc("/breakers", s.handleBreakers)
	mux.HandleFunc("/reports/latest", s.handleLatestReport)

	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting HTTP server on %s", s.cfg.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	Started       time.Time `json:"started"`
	OpenPositions int       `json:"open_positions"`
	FeedClients   int       `json:"feed_clients"`
	TicksApplied  int64     `json:"ticks_applied"`
	Storage       string    `json:"storage"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ticks := s.ticks
	s.mu.Unlock()

	backend := "postgres"
	if s.stores.inMemory {
		backend = "memory"
	}

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		Started:       s.started,
		OpenPositions: len(s.ledger.OpenPositions()),
		FeedClients:   s.hub.ClientCount(),
		TicksApplied:  ticks,
		Storage:       backend,
	}

	writeJSON(w, http.StatusOK, resp)
}

// evaluateRequest carries a live snapshot through the entry gate.
type evaluateRequest struct {
	Mint       string `json:"mint"`
	Symbol     string `json:"symbol"`
	AssetClass string `json:"asset_class"`

	PriceUSD       float64 `json:"price_usd"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	Volume24hUSD   float64 `json:"volume_24h_usd"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange24h float64 `json:"price_change_24h"`

	Buys1h  int `json:"buys_1h"`
	Sells1h int `json:"sells_1h"`

	AgeMinutes float64 `json:"age_minutes"`

	StrategyID string `json:"strategy_id"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleEvaluateLive(w, r)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.Mint == "" {
		writeError(w, http.StatusBadRequest, "mint is required")
		return
	}

	class, err := domain.ParseAssetClass(req.AssetClass)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := domain.TokenSnapshot{
		Mint:           req.Mint,
		Symbol:         req.Symbol,
		AssetClass:     class,
		PriceUSD:       req.PriceUSD,
		LiquidityUSD:   req.LiquidityUSD,
		Volume24hUSD:   req.Volume24hUSD,
		PriceChange1h:  req.PriceChange1h,
		PriceChange24h: req.PriceChange24h,
		Buys1h:         req.Buys1h,
		Sells1h:        req.Sells1h,
		AgeMinutes:     req.AgeMinutes,
		ObservedAtMs:   time.Now().UnixMilli(),
	}

	decision := s.gate.Evaluate(snap, req.StrategyID)
	writeJSON(w, http.StatusOK, decision)
}

// handleEvaluateLive fetches a fresh snapshot from the market data
// provider and runs it through the gate.
func (s *Server) handleEvaluateLive(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "no market data provider configured")
		return
	}
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	snap, err := s.snapshots.FetchSnapshot(ctx, mint)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no snapshot for %s", mint))
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("fetch snapshot: %v", err))
		return
	}

	decision := s.gate.Evaluate(snap, r.URL.Query().Get("strategy_id"))
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if r.URL.Query().Get("status") == "open" {
		writeJSON(w, http.StatusOK, s.ledger.OpenPositions())
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Positions())
}

// openPositionRequest mirrors ledger.OpenRequest with JSON tags.
type openPositionRequest struct {
	Mint       string `json:"mint"`
	Symbol     string `json:"symbol"`
	AssetClass string `json:"asset_class"`
	Source     string `json:"source"`
	StrategyID string `json:"strategy_id"`

	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	Committed  float64 `json:"committed"`

	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`

	OnChainExits bool `json:"on_chain_exits"`
}

func (s *Server) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req openPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	class, err := domain.ParseAssetClass(req.AssetClass)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pos, err := s.ledger.Open(ledger.OpenRequest{
		Mint:            req.Mint,
		Symbol:          req.Symbol,
		AssetClass:      class,
		Source:          domain.EntrySource(req.Source),
		StrategyID:      req.StrategyID,
		EntryPrice:      req.EntryPrice,
		Quantity:        req.Quantity,
		Committed:       decimal.NewFromFloat(req.Committed),
		StopLossPct:     req.StopLossPct,
		TakeProfitPct:   req.TakeProfitPct,
		TrailingStopPct: req.TrailingStopPct,
		OnChainExits:    req.OnChainExits,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, pos)
}

// closePositionRequest carries an execution-confirmed exit.
type closePositionRequest struct {
	PositionID  string  `json:"position_id"`
	ExitReason  string  `json:"exit_reason"`
	TxSignature string  `json:"tx_signature"`
	Proceeds    float64 `json:"proceeds"`
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req closePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	pos, ok := s.ledger.Close(req.PositionID, req.ExitReason, req.TxSignature, decimal.NewFromFloat(req.Proceeds))
	if !ok {
		writeError(w, http.StatusNotFound, "position not found or not open")
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// reconcileRequest resolves a position whose fill outcome is unknown.
type reconcileRequest struct {
	PositionID string `json:"position_id"`
	Reason     string `json:"reason"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	pos, ok := s.ledger.Reconcile(req.PositionID, domain.ReconcileReason(req.Reason))
	if !ok {
		writeError(w, http.StatusNotFound, "position not found or not open")
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Budget())
}

func (s *Server) handleBeliefs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Beliefs())
}

// breakerStateResponse pairs the class and global breaker records.
type breakerStateResponse struct {
	Class  string               `json:"class"`
	State  domain.BreakerRecord `json:"state"`
	Global domain.BreakerRecord `json:"global"`
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	classParam := r.URL.Query().Get("class")
	if classParam != "" {
		class, err := domain.ParseAssetClass(classParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state, global := s.ledger.BreakerState(class)
		writeJSON(w, http.StatusOK, breakerStateResponse{
			Class:  class.String(),
			State:  state,
			Global: global,
		})
		return
	}

	resp := make([]breakerStateResponse, 0, domain.NumAssetClasses)
	for class := domain.AssetClass(0); class < domain.NumAssetClasses; class++ {
		state, global := s.ledger.BreakerState(class)
		resp = append(resp, breakerStateResponse{
			Class:  class.String(),
			State:  state,
			Global: global,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	signalKind := r.URL.Query().Get("signal")
	if signalKind == "" {
		writeError(w, http.StatusBadRequest, "signal query parameter is required")
		return
	}

	report, err := s.stores.reportStore.GetLatest(r.Context(), signalKind)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no report for signal kind")
			return
		}
		s.logger.Printf("Get latest report: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report.SummaryMarkdown))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(report.PayloadJSON)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decisionSink persists every gate decision and forwards it to the
// activity feed.
type decisionSink struct {
	hub    *feed.Hub
	store  storage.DecisionStore
	logger *log.Logger
}

func (s *decisionSink) Publish(d domain.Decision) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Insert(ctx, &d)
	observability.RecordDBQuery("postgres", "insert_decision", time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Printf("Persist decision %s: %v", d.ID, err)
	}

	s.hub.PublishDecision(d)
	observability.RecordDecision(string(d.Action), d.AssetClass.String(), d.Multiplier, d.Action == domain.ActionAdmit)
}

// positionSink persists position lifecycle transitions and forwards
// them to the activity feed.
type positionSink struct {
	hub    *feed.Hub
	store  storage.PositionStore
	logger *log.Logger
}

func (s *positionSink) PositionOpened(p domain.Position) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Insert(ctx, &p)
	observability.RecordDBQuery("postgres", "insert_position", time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Printf("Persist opened position %s: %v", p.ID, err)
	}

	s.hub.PositionOpened(p)
	observability.RecordOpen(string(p.Source))
}

func (s *positionSink) PositionClosed(p domain.Position) {
	s.update(p, "update_closed_position")
	s.hub.PositionClosed(p)
	observability.RecordClose(p.ExitReason)
}

func (s *positionSink) PositionReconciled(p domain.Position) {
	s.update(p, "update_reconciled_position")
	s.hub.PositionReconciled(p)
	observability.RecordReconcile(string(p.ReconcileReason))
}

func (s *positionSink) update(p domain.Position, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Update(ctx, &p)
	observability.RecordDBQuery("postgres", query, time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Printf("Persist position %s: %v", p.ID, err)
	}
}
