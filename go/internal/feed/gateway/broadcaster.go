package gateway

import (
	"encoding/json"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livefeed/go/internal/metrics"
	"github.com/mcdev12/livefeed/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Broadcaster serializes snapshots and fans them out to every registered client.
// Delivery is fire-and-forget: a client that cannot take the message right now is skipped.
type Broadcaster struct {
	registry *Registry
	clock    clockwork.Clock
	mirror   Mirror
}

// NewBroadcaster creates a broadcaster over registry. A nil mirror disables mirroring.
func NewBroadcaster(registry *Registry, clock clockwork.Clock, mirror Mirror) *Broadcaster {
	if mirror == nil {
		mirror = NoOpMirror{}
	}
	return &Broadcaster{
		registry: registry,
		clock:    clock,
		mirror:   mirror,
	}
}

// BroadcastOnlineUsers pushes the online-users snapshot
func (b *Broadcaster) BroadcastOnlineUsers(count int) {
	b.broadcast(MessageTypeOnlineUsers, NewOnlineUsersMessage(count, b.clock.Now()))
}

// BroadcastEarnings pushes the earnings chart snapshot
func (b *Broadcaster) BroadcastEarnings(board models.EarningsBoard) {
	b.broadcast(MessageTypeEarningsData, NewEarningsDataMessage(board, b.clock.Now()))
}

func (b *Broadcaster) broadcast(msgType MessageType, message any) {
	// Marshal once for every recipient
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", string(msgType)).Msg("failed to marshal message for broadcast")
		return
	}

	metrics.BroadcastsTotal.WithLabelValues(string(msgType)).Inc()

	sent, skipped := 0, 0
	b.registry.ForEach(func(c Client) {
		if c.TrySend(data) {
			sent++
			return
		}
		skipped++
		log.Debug().
			Str("connection_id", c.ID()).
			Str("type", string(msgType)).
			Msg("connection not writable, skipping")
	})

	metrics.DeliveriesTotal.WithLabelValues(string(msgType), "sent").Add(float64(sent))
	metrics.DeliveriesTotal.WithLabelValues(string(msgType), "skipped").Add(float64(skipped))

	if err := b.mirror.Publish(msgType, data); err != nil {
		metrics.MirrorFailures.Inc()
		log.Debug().Err(err).Str("type", string(msgType)).Msg("failed to mirror broadcast")
	}

	log.Trace().
		Str("type", string(msgType)).
		Int("sent", sent).
		Int("skipped", skipped).
		Msg("message broadcasted")
}
