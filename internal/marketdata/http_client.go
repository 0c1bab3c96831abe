package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"solana-trading-core/internal/domain"
)

// Default client configuration.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements CandleProvider and SnapshotProvider over a
// REST candle/snapshot API.
type HTTPClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a market-data client for baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireCandle is the provider's candle schema.
type wireCandle struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type candlesResponse struct {
	Candles []wireCandle `json:"candles"`
}

// wireSnapshot is the provider's token overview schema.
type wireSnapshot struct {
	Mint           string  `json:"mint"`
	Symbol         string  `json:"symbol"`
	Class          string  `json:"class"`
	PriceUSD       float64 `json:"priceUsd"`
	LiquidityUSD   float64 `json:"liquidityUsd"`
	Volume24hUSD   float64 `json:"volume24hUsd"`
	PriceChange1h  float64 `json:"priceChange1hPct"`
	PriceChange24h float64 `json:"priceChange24hPct"`
	Buys1h         int     `json:"txnsBuy1h"`
	Sells1h        int     `json:"txnsSell1h"`
	ListedAtMs     int64   `json:"listedAt"`
}

// FetchCandles retrieves candles for [startMs, endMs], normalized
// oldest-first.
func (c *HTTPClient) FetchCandles(ctx context.Context, asset, interval string, startMs, endMs int64) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("pool", asset)
	q.Set("interval", interval)
	q.Set("from", strconv.FormatInt(startMs, 10))
	q.Set("to", strconv.FormatInt(endMs, 10))

	var resp candlesResponse
	if err := c.get(ctx, "/candles?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Candles) == 0 {
		return nil, ErrNoData
	}

	candles := make([]domain.Candle, 0, len(resp.Candles))
	for _, w := range resp.Candles {
		candles = append(candles, domain.Candle{
			TimestampMs: w.Time,
			Open:        w.Open,
			High:        w.High,
			Low:         w.Low,
			Close:       w.Close,
			Volume:      w.Volume,
		})
	}

	// Some providers return newest-first; normalize.
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].TimestampMs < candles[j].TimestampMs
	})
	return candles, nil
}

// FetchSnapshot retrieves and normalizes one live token snapshot.
func (c *HTTPClient) FetchSnapshot(ctx context.Context, mint string) (domain.TokenSnapshot, error) {
	var w wireSnapshot
	if err := c.get(ctx, "/tokens/"+url.PathEscape(mint), &w); err != nil {
		return domain.TokenSnapshot{}, err
	}
	return normalizeSnapshot(w, time.Now().UnixMilli())
}

func normalizeSnapshot(w wireSnapshot, nowMs int64) (domain.TokenSnapshot, error) {
	class, err := domain.ParseAssetClass(w.Class)
	if err != nil {
		// Uncategorized listings trade under the riskiest bucket.
		class = domain.AssetMemecoin
	}

	age := 0.0
	if w.ListedAtMs > 0 && nowMs > w.ListedAtMs {
		age = float64(nowMs-w.ListedAtMs) / 60_000
	}

	return domain.TokenSnapshot{
		Mint:           w.Mint,
		Symbol:         w.Symbol,
		AssetClass:     class,
		PriceUSD:       w.PriceUSD,
		LiquidityUSD:   w.LiquidityUSD,
		Volume24hUSD:   w.Volume24hUSD,
		PriceChange1h:  w.PriceChange1h / 100,
		PriceChange24h: w.PriceChange24h / 100,
		Buys1h:         w.Buys1h,
		Sells1h:        w.Sells1h,
		AgeMinutes:     age,
		ObservedAtMs:   nowMs,
	}, nil
}

// get performs a GET with retries and exponential backoff. 429s back
// off like transient failures; the final failure surfaces as
// ErrRateLimited so batch callers can skip rather than abort.
func (c *HTTPClient) get(ctx context.Context, path string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error
	rateLimited := false

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			lastErr = ErrRateLimited
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	if rateLimited {
		return fmt.Errorf("max retries exceeded: %w", ErrRateLimited)
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
