package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcdev12/livefeed/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Snapshot is the full simulated state at one instant
type Snapshot struct {
	OnlineUsers int                  `json:"online_users"`
	Earnings    models.EarningsBoard `json:"earnings"`
	Title       string               `json:"title"`
	Timestamp   string               `json:"timestamp"`
}

// SnapshotProvider returns the current state
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// StateHandler serves the current state over plain HTTP for clients that cannot hold a socket
type StateHandler struct {
	provider SnapshotProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider SnapshotProvider) *StateHandler {
	return &StateHandler{provider: provider}
}

// HandleGetSnapshot handles GET /api/snapshot
func (h *StateHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot, err := h.provider.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get snapshot")
		http.Error(w, "Failed to get snapshot", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/snapshot", h.HandleGetSnapshot)
}
