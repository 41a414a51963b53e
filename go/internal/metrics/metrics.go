package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket metrics
var (
	// ConnectedClients tracks the current registry size
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livefeed_connected_clients",
			Help: "Number of WebSocket clients currently registered",
		},
	)

	// ConnectionsTotal counts accepted WebSocket upgrades
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livefeed_connections_total",
			Help: "Total WebSocket connections accepted",
		},
	)

	// UpgradeFailures counts failed WebSocket upgrades
	UpgradeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livefeed_upgrade_failures_total",
			Help: "Total WebSocket upgrade failures",
		},
	)
)

// Broadcast metrics
var (
	// BroadcastsTotal counts broadcasts by message type
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livefeed_broadcasts_total",
			Help: "Total broadcasts by message type",
		},
		[]string{"type"},
	)

	// DeliveriesTotal counts per-client deliveries by message type and result (sent/skipped)
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livefeed_deliveries_total",
			Help: "Per-client broadcast deliveries by message type and result",
		},
		[]string{"type", "result"},
	)

	// MirrorFailures counts payloads the mirror publisher could not hand off
	MirrorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livefeed_mirror_failures_total",
			Help: "Total broadcast payloads the mirror publisher failed to publish",
		},
	)
)

// Simulation metrics
var (
	// OnlineUsers mirrors the simulated online-users count
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livefeed_online_users",
			Help: "Current simulated online-users count",
		},
	)

	// TicksTotal counts generator ticks by task
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livefeed_ticks_total",
			Help: "Total state generator ticks by task",
		},
		[]string{"task"},
	)
)
