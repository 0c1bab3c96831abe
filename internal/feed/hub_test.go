package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-trading-core/internal/domain"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Connection registration happens in ServeHTTP before the loops
	// start; wait for the hub to see the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	return conn
}

func TestHub_BroadcastDecision(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)

	hub.PublishDecision(domain.Decision{
		ID:     "d1",
		Mint:   "MintA",
		Action: domain.ActionAdmit,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, KindDecision, ev.Kind)
	require.NotNil(t, ev.Decision)
	assert.Equal(t, "MintA", ev.Decision.Mint)
	assert.Nil(t, ev.Position)
}

func TestHub_BroadcastPositionLifecycle(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)

	hub.PositionOpened(domain.Position{ID: "p1", Mint: "MintA", Status: domain.StatusOpen})
	hub.PositionClosed(domain.Position{ID: "p1", Mint: "MintA", Status: domain.StatusClosed})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var kinds []string
	for i := 0; i < 2; i++ {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{KindOpened, KindClosed}, kinds)
}

func TestHub_CloseDetachesClients(t *testing.T) {
	hub := NewHub()
	dialHub(t, hub)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	// Broadcasting after close must not panic.
	hub.PublishDecision(domain.Decision{ID: "d1"})
}
