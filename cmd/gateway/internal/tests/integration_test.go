package tests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/gateway"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/repository"
	"github.com/shubham-shewale/stock-dashboard/pkg/models"
	"github.com/shubham-shewale/stock-dashboard/pkg/ticker"
	"github.com/shubham-shewale/stock-dashboard/pkg/watchlist"
)

// message mirrors protocol.WSResponse with a raw Data field for typed decoding
type message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func startServer(t *testing.T, tickerOpts ticker.Options) (*httptest.Server, *hub.Hub) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	seedStore := repository.NewRedisSeedStore(rdb, zap.NewNop())
	t.Cleanup(func() { seedStore.Close() })

	seed, err := seedStore.LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}

	wsHub := hub.NewHub(hub.Options{Seed: seed, Ticker: tickerOpts}, zap.NewNop())
	server := httptest.NewServer(gateway.NewRouter(wsHub, seed, zap.NewNop()))
	t.Cleanup(func() {
		wsHub.Close()
		server.Close()
	})

	return server, wsHub
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	t.Cleanup(func() { wsConn.Close() })
	return wsConn
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Waiting for %s: %v", typ, err)
		}
		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Invalid message %s: %v", raw, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, req protocol.WSRequest) {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestEndToEnd_WatchlistFlow(t *testing.T) {
	server, _ := startServer(t, ticker.Options{Interval: time.Hour, AutoPlay: false})
	wsConn := connectWS(t, server.URL)

	var wl watchlist.Snapshot
	json.Unmarshal(readUntil(t, wsConn, protocol.TypeWatchlist).Data, &wl)
	if wl.Total != 5 || len(wl.Favorites) != 3 {
		t.Fatalf("Unexpected initial watchlist: %+v", wl)
	}

	send(t, wsConn, protocol.WSRequest{Action: protocol.ActionSearch, Payload: protocol.RequestPayload{Term: "tesla"}, ID: "s1"})
	json.Unmarshal(readUntil(t, wsConn, protocol.TypeWatchlist).Data, &wl)
	if len(wl.Others) != 1 || wl.Others[0].Symbol != "TSLA" || len(wl.Favorites) != 0 {
		t.Errorf("Expected only TSLA for 'tesla', got %+v", wl)
	}
	if ack := readUntil(t, wsConn, protocol.TypeAck); ack.ID != "s1" {
		t.Errorf("Expected ack for s1, got %+v", ack)
	}

	send(t, wsConn, protocol.WSRequest{Action: protocol.ActionToggleFavorite, Payload: protocol.RequestPayload{EntryID: " 2 "}, ID: "f1"})
	json.Unmarshal(readUntil(t, wsConn, protocol.TypeWatchlist).Data, &wl)
	if len(wl.Favorites) != 1 || wl.Favorites[0].Symbol != "TSLA" {
		t.Errorf("TSLA should now be a favorite, got %+v", wl)
	}
	readUntil(t, wsConn, protocol.TypeAck)

	send(t, wsConn, protocol.WSRequest{Action: protocol.ActionRemove, Payload: protocol.RequestPayload{EntryID: "2"}, ID: "r1"})
	json.Unmarshal(readUntil(t, wsConn, protocol.TypeWatchlist).Data, &wl)
	if wl.Total != 4 || len(wl.Favorites)+len(wl.Others) != 0 {
		t.Errorf("Removed TSLA should be gone, got %+v", wl)
	}
	readUntil(t, wsConn, protocol.TypeAck)

	send(t, wsConn, protocol.WSRequest{Action: protocol.ActionRemove, Payload: protocol.RequestPayload{EntryID: "2"}, ID: "r2"})
	ack := readUntil(t, wsConn, protocol.TypeAck)
	if ack.ID != "r2" || ack.Status != protocol.StatusNoop {
		t.Errorf("Second remove should be a noop ack, got %+v", ack)
	}
}

func TestEndToEnd_TickerRotates(t *testing.T) {
	server, _ := startServer(t, ticker.Options{Interval: 50 * time.Millisecond, AutoPlay: true})
	wsConn := connectWS(t, server.URL)

	var tk ticker.Snapshot
	json.Unmarshal(readUntil(t, wsConn, protocol.TypeTicker).Data, &tk)
	if tk.Index != 0 || !tk.Running || len(tk.Instruments) != 8 {
		t.Fatalf("Unexpected initial ticker: %+v", tk)
	}

	json.Unmarshal(readUntil(t, wsConn, protocol.TypeTicker).Data, &tk)
	if tk.Index != 1 || tk.Current == nil || tk.Current.Symbol != "MSFT" {
		t.Errorf("Expected rotation to MSFT, got %+v", tk)
	}

	send(t, wsConn, protocol.WSRequest{Action: protocol.ActionToggleTicker, ID: "p"})
	for {
		json.Unmarshal(readUntil(t, wsConn, protocol.TypeTicker).Data, &tk)
		if !tk.Running {
			break
		}
	}
	paused := tk.Index

	// No further ticker pushes while paused
	wsConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			break
		}
		var msg message
		json.Unmarshal(raw, &msg)
		if msg.Type == protocol.TypeTicker {
			json.Unmarshal(msg.Data, &tk)
			if tk.Index != paused {
				t.Fatalf("Paused ticker advanced from %d to %d", paused, tk.Index)
			}
		}
	}
}

func TestEndToEnd_InvalidJSON(t *testing.T) {
	server, _ := startServer(t, ticker.Options{Interval: time.Hour})
	wsConn := connectWS(t, server.URL)

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{ "action": "sear`))

	msg := readUntil(t, wsConn, protocol.TypeError)
	if !strings.Contains(msg.Message, "Invalid JSON") {
		t.Errorf("Expected error message for bad JSON, got: %+v", msg)
	}
}

func TestEndToEnd_MaxMessageSize(t *testing.T) {
	server, wsHub := startServer(t, ticker.Options{Interval: time.Hour})
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeTicker)

	hugeTerm := strings.Repeat("a", 65*1024)
	hugeMsg := fmt.Sprintf(`{"action":"search", "payload": {"term": "%s"}}`, hugeTerm)

	// The server may hang up before the whole frame is written
	_ = wsConn.WriteMessage(websocket.TextMessage, []byte(hugeMsg))

	wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var err error
	for err == nil {
		_, _, err = wsConn.ReadMessage()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatal("Server kept the connection open after an oversized message")
	}
	disconnected := websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET)
	if !disconnected {
		t.Errorf("Expected close frame or EOF, got %v", err)
	}

	waitForSessions(t, wsHub, 0)
}

func waitForSessions(t *testing.T, h *hub.Hub, want int) {
	t.Helper()
	for i := 0; i < 50 && h.Sessions() != want; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.Sessions(); got != want {
		t.Errorf("Expected %d sessions, got %d", want, got)
	}
}

func TestEndToEnd_DisconnectClosesSession(t *testing.T) {
	server, wsHub := startServer(t, ticker.Options{Interval: 20 * time.Millisecond, AutoPlay: true})
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeTicker)

	if wsHub.Sessions() != 1 {
		t.Fatalf("Expected 1 session, got %d", wsHub.Sessions())
	}

	wsConn.Close()

	waitForSessions(t, wsHub, 0)
}

func TestHTTP_SeedAndHealth(t *testing.T) {
	server, _ := startServer(t, ticker.Options{Interval: time.Hour})

	resp, err := http.Get(server.URL + "/api/v1/seed")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var seed models.Seed
	if err := json.NewDecoder(resp.Body).Decode(&seed); err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	if len(seed.Indices) != 3 || seed.Indices[0].Name != "S&P 500" {
		t.Errorf("Unexpected indices: %+v", seed.Indices)
	}

	health, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from healthz, got %d", health.StatusCode)
	}
}
