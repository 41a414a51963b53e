package feed

import (
	"context"
	"encoding/json"
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

func startHTTP(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	svc := NewService(DefaultConfig(), clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()
	require.NoError(t, clock.BlockUntilContext(ctx, 2))

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		cancel()
		require.NoError(t, <-errCh)
	})

	return svc, server
}

func dialFeed(t *testing.T, server *httptest.Server) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestIntegration_ClientReceivesInitialSnapshots(t *testing.T) {
	svc, server := startHTTP(t)
	require.NoError(t, svc.do(context.Background(), func() { svc.state.SetOnlineUsers(500) }))

	conn := dialFeed(t, server)

	first := readJSON(t, conn)
	assert.Equal(t, "onlineUsers", first["type"])
	assert.Equal(t, float64(500), first["count"])

	second := readJSON(t, conn)
	assert.Equal(t, "earningsData", second["type"])
	assert.Equal(t, "Today's earnings chart", second["title"])
	assert.NotEmpty(t, second["data"])
}

func TestIntegration_ClosedClientLeavesRegistry(t *testing.T) {
	svc, server := startHTTP(t)

	conn := dialFeed(t, server)
	readJSON(t, conn)
	readJSON(t, conn)
	require.Equal(t, 1, svc.registry.Count())

	conn.Close()
	assert.Eventually(t, func() bool { return svc.registry.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestIntegration_ShutdownClosesSockets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := NewService(DefaultConfig(), clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conn := dialFeed(t, server)
	readJSON(t, conn)
	readJSON(t, conn)

	cancel()
	require.NoError(t, <-errCh)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, ws.IsCloseError(err, ws.CloseGoingAway), "expected going-away close, got %v", err)
}

func TestIntegration_SnapshotEndpoint(t *testing.T) {
	_, server := startHTTP(t)

	resp, err := http.Get(server.URL + "/api/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot struct {
		OnlineUsers int               `json:"online_users"`
		Earnings    []json.RawMessage `json:"earnings"`
		Title       string            `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.GreaterOrEqual(t, snapshot.OnlineUsers, 200)
	assert.LessOrEqual(t, len(snapshot.Earnings), 10)
	assert.Equal(t, "Today's earnings chart", snapshot.Title)
}
