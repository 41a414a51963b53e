package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/livefeed/go/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ConnectionListener is told when clients join and leave. ClientConnected must register
// the client before it returns.
type ConnectionListener interface {
	ClientConnected(ctx context.Context, c Client) error
	ClientDisconnected(ctx context.Context, c Client)
}

// WebSocketHandler accepts push-channel connections
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	config   ConnectionConfig
	registry *Registry
	listener ConnectionListener
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(config ConnectionConfig, registry *Registry, listener ConnectionListener) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		registry: registry,
		listener: listener,
	}
}

// HandleConnection upgrades the request and hands the connection to the listener
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		if r.URL.Path != "/" && r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client
		metrics.UpgradeFailures.Inc()
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
		return
	}

	conn := newConnection(ws, h.config)
	metrics.ConnectionsTotal.Inc()

	// Register before the read pump starts so a disconnect can never overtake the registration
	if err := h.listener.ClientConnected(r.Context(), conn); err != nil {
		log.Warn().Err(err).Str("connection_id", conn.ID()).Msg("failed to register connection")
		conn.Close()
		return
	}

	conn.start(func(c *Connection) {
		h.listener.ClientDisconnected(context.Background(), c)
		log.Info().
			Str("connection_id", c.ID()).
			Dur("connected_for", time.Since(c.ConnectedAt)).
			Msg("WebSocket connection closed")
	})

	log.Info().
		Str("connection_id", conn.ID()).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	stats := map[string]int{"total_connections": h.registry.Count()}
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux. Upgrades are accepted on the
// root path as well as /ws.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandleConnection)
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
