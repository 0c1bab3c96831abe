package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solana-trading-core/internal/logging"
)

// StreamConfig configures the websocket tick stream.
type StreamConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSStream implements TickStream over a websocket price feed,
// reconnecting with backoff on drops.
type WSStream struct {
	endpoint string
	config   StreamConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSStream connects to a websocket price feed endpoint.
func NewWSStream(ctx context.Context, endpoint string, config *StreamConfig) (*WSStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSStream{
		endpoint: endpoint,
		config:   cfg,
		done:     make(chan struct{}),
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WSStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// subscribeRequest is the feed's subscription schema.
type subscribeRequest struct {
	Op    string   `json:"op"`
	Mints []string `json:"mints"`
}

// wireTick is the feed's tick schema.
type wireTick struct {
	Mint  string  `json:"mint"`
	Price float64 `json:"price"`
	Time  int64   `json:"t"`
}

// Subscribe starts delivering ticks for the given mints.
func (s *WSStream) Subscribe(ctx context.Context, mints []string) (<-chan Tick, error) {
	s.mu.Lock()
	if s.closed || s.conn == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("stream closed")
	}
	conn := s.conn
	s.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Mints: mints}); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Tick, 64)
	s.wg.Add(1)
	go s.readLoop(ctx, mints, out)
	return out, nil
}

func (s *WSStream) readLoop(ctx context.Context, mints []string, out chan<- Tick) {
	defer s.wg.Done()
	defer close(out)

	log := logging.L().WithField("component", "tickstream")
	delay := s.config.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			log.WithError(err).Warn("read failed, reconnecting")

			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}

			if err := s.connect(ctx); err != nil {
				continue
			}
			s.mu.Lock()
			conn = s.conn
			s.mu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Mints: mints}); err != nil {
				log.WithError(err).Warn("resubscribe failed")
			}
			continue
		}
		delay = s.config.ReconnectDelay

		var w wireTick
		if err := json.Unmarshal(data, &w); err != nil || w.Mint == "" || w.Price <= 0 {
			continue
		}

		select {
		case out <- Tick{Mint: w.Mint, Price: w.Price, AtMs: w.Time}:
		default:
			// Slow consumer: drop the tick, the next one supersedes it.
		}
	}
}

func (s *WSStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close shuts the stream down and waits for readers to exit.
func (s *WSStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.wg.Wait()
	return nil
}

// Interface checks.
var (
	_ CandleProvider   = (*HTTPClient)(nil)
	_ SnapshotProvider = (*HTTPClient)(nil)
	_ TickStream       = (*WSStream)(nil)
)
