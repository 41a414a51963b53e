package gateway

import (
	"sync"

	"github.com/mcdev12/livefeed/go/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Client is a registered push target
type Client interface {
	ID() string
	// TrySend queues data without blocking and reports whether it was accepted
	TrySend(data []byte) bool
	Close()
}

// Registry tracks the currently open clients
type Registry struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[Client]struct{}),
	}
}

// Register adds a client and returns the new total
func (r *Registry) Register(c Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c] = struct{}{}
	total := len(r.clients)
	metrics.ConnectedClients.Set(float64(total))

	log.Debug().
		Str("connection_id", c.ID()).
		Int("total_connections", total).
		Msg("connection registered")

	return total
}

// Unregister removes a client and reports whether it was present
func (r *Registry) Unregister(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	metrics.ConnectedClients.Set(float64(len(r.clients)))

	log.Debug().
		Str("connection_id", c.ID()).
		Int("total_connections", len(r.clients)).
		Msg("connection unregistered")

	return true
}

// ForEach calls fn for every client registered at the time of the call. fn runs without
// the registry lock held, so it may register or unregister clients.
func (r *Registry) ForEach(fn func(Client)) {
	for _, c := range r.snapshot() {
		fn(c)
	}
}

// Count returns the number of registered clients
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}
