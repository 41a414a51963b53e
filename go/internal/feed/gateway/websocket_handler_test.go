package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registryListener registers clients and greets them, like the feed service does
type registryListener struct {
	registry    *Registry
	broadcaster *Broadcaster
	reject      error
}

func (l *registryListener) ClientConnected(_ context.Context, c Client) error {
	if l.reject != nil {
		return l.reject
	}
	l.registry.Register(c)
	l.broadcaster.BroadcastOnlineUsers(l.registry.Count())
	return nil
}

func (l *registryListener) ClientDisconnected(_ context.Context, c Client) {
	l.registry.Unregister(c)
}

func testServer(t *testing.T, listener *registryListener) (*httptest.Server, func(path string) *ws.Conn) {
	t.Helper()

	handler := NewWebSocketHandler(DefaultConnectionConfig(), listener.registry, listener)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	dial := func(path string) *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http") + path
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return server, dial
}

func newRegistryListener() *registryListener {
	registry := NewRegistry()
	return &registryListener{
		registry:    registry,
		broadcaster: NewBroadcaster(registry, clockwork.NewRealClock(), nil),
	}
}

// waitForCount polls until the registry reaches the expected size
func waitForCount(r *Registry, expected int) bool {
	for range 200 {
		if r.Count() == expected {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func readMessage(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, ws.TextMessage, msgType)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWebSocketHandler_AcceptsOnRootAndWS(t *testing.T) {
	listener := newRegistryListener()
	_, dial := testServer(t, listener)

	root := dial("/")
	assert.Equal(t, "onlineUsers", readMessage(t, root)["type"])

	wsPath := dial("/ws")
	assert.Equal(t, "onlineUsers", readMessage(t, wsPath)["type"])

	assert.True(t, waitForCount(listener.registry, 2))
}

func TestWebSocketHandler_BroadcastReachesAllClients(t *testing.T) {
	listener := newRegistryListener()
	_, dial := testServer(t, listener)

	c1 := dial("/")
	readMessage(t, c1)
	c2 := dial("/")
	readMessage(t, c1) // greeting for c2 goes to everyone
	readMessage(t, c2)

	listener.broadcaster.BroadcastEarnings(testBoard)

	for _, conn := range []*ws.Conn{c1, c2} {
		msg := readMessage(t, conn)
		assert.Equal(t, "earningsData", msg["type"])
		assert.Equal(t, EarningsTitle, msg["title"])
	}
}

func TestWebSocketHandler_DisconnectUnregisters(t *testing.T) {
	listener := newRegistryListener()
	_, dial := testServer(t, listener)

	conn := dial("/")
	readMessage(t, conn)
	require.True(t, waitForCount(listener.registry, 1))

	conn.Close()
	assert.True(t, waitForCount(listener.registry, 0))
}

func TestWebSocketHandler_ServerCloseReachesClient(t *testing.T) {
	listener := newRegistryListener()
	_, dial := testServer(t, listener)

	conn := dial("/")
	readMessage(t, conn)

	listener.registry.ForEach(func(c Client) { c.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, waitForCount(listener.registry, 0))
}

func TestWebSocketHandler_ListenerRejection(t *testing.T) {
	listener := newRegistryListener()
	listener.reject = errors.New("stopped")
	_, dial := testServer(t, listener)

	conn := dial("/")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Zero(t, listener.registry.Count())
}

func TestWebSocketHandler_PlainHTTP(t *testing.T) {
	listener := newRegistryListener()
	server, _ := testServer(t, listener)

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusUpgradeRequired},
		{"/ws", http.StatusUpgradeRequired},
		{"/favicon.ico", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestWebSocketHandler_Stats(t *testing.T) {
	listener := newRegistryListener()
	server, dial := testServer(t, listener)

	conn := dial("/ws")
	readMessage(t, conn)
	require.True(t, waitForCount(listener.registry, 1))

	resp, err := http.Get(server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats["total_connections"])
}

func TestConnection_TrySendAfterClose(t *testing.T) {
	listener := newRegistryListener()
	_, dial := testServer(t, listener)

	conn := dial("/")
	readMessage(t, conn)

	var client Client
	listener.registry.ForEach(func(c Client) { client = c })
	require.NotNil(t, client)

	client.Close()
	assert.False(t, client.TrySend([]byte(`{}`)))
	client.Close() // idempotent
}
