package feed

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livefeed/go/internal/feed/gateway"
	"github.com/mcdev12/livefeed/go/internal/feed/scheduler"
	"github.com/mcdev12/livefeed/go/internal/feed/simulator"
	"github.com/mcdev12/livefeed/go/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned for work submitted after the service has stopped
var ErrStopped = errors.New("feed service stopped")

// Config holds configuration for the feed service
type Config struct {
	Tuning           simulator.Tuning
	Seed             uint64
	ConnectionConfig gateway.ConnectionConfig
}

// DefaultConfig returns default configuration for the feed service
func DefaultConfig() Config {
	return Config{
		Tuning:           simulator.DefaultTuning(),
		Seed:             1,
		ConnectionConfig: gateway.DefaultConnectionConfig(),
	}
}

// Service owns the simulated state, the connection registry and the two generator tasks.
// Every state mutation and every broadcast runs on the event loop goroutine, one job at a
// time, so the state itself needs no locking.
type Service struct {
	clock        clockwork.Clock
	state        *simulator.State
	registry     *gateway.Registry
	broadcaster  *gateway.Broadcaster
	mirror       gateway.Mirror
	wsHandler    *gateway.WebSocketHandler
	stateHandler *gateway.StateHandler

	usersTask    *scheduler.Task
	earningsTask *scheduler.Task

	jobs    chan func()
	stopped chan struct{}
	wg      sync.WaitGroup
}

// NewService creates the feed service. mirror may be nil.
func NewService(config Config, clock clockwork.Clock, mirror gateway.Mirror) *Service {
	if mirror == nil {
		mirror = gateway.NoOpMirror{}
	}

	registry := gateway.NewRegistry()

	s := &Service{
		clock:       clock,
		state:       simulator.NewState(config.Tuning, simulator.NewSource(config.Seed)),
		registry:    registry,
		broadcaster: gateway.NewBroadcaster(registry, clock, mirror),
		mirror:      mirror,
		jobs:        make(chan func()),
		stopped:     make(chan struct{}),
	}

	s.wsHandler = gateway.NewWebSocketHandler(config.ConnectionConfig, registry, s)
	s.stateHandler = gateway.NewStateHandler(s)

	// Delay draws happen on the task goroutines, so each task gets its own source
	usersDelay := simulator.NewSource(config.Seed + 1)
	earningsDelay := simulator.NewSource(config.Seed + 2)

	s.usersTask = scheduler.NewTask("online_users", clock,
		func() time.Duration { return simulator.DelayBetween(usersDelay, config.Tuning.Users.Delay) },
		s.tickUsers,
	)
	s.earningsTask = scheduler.NewTask("earnings", clock,
		func() time.Duration { return simulator.DelayBetween(earningsDelay, config.Tuning.Earnings.Delay) },
		s.tickEarnings,
	)

	return s
}

// Start runs the event loop and both generator tasks until ctx is cancelled, then closes
// every open connection
func (s *Service) Start(ctx context.Context) error {
	log.Info().
		Int("online_users", s.state.OnlineUsers()).
		Int("earnings_entries", len(s.state.Earnings())).
		Msg("starting feed service")

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.loop(ctx)
	}()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.usersTask.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.earningsTask.Run(ctx)
	}()

	<-ctx.Done()

	log.Info().Msg("feed service shutting down")
	s.wg.Wait()
	<-loopDone
	return s.Stop()
}

// Stop closes every registered connection and the mirror
func (s *Service) Stop() error {
	s.registry.ForEach(func(c gateway.Client) {
		c.Close()
	})

	if err := s.mirror.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close broadcast mirror")
	}

	log.Info().Msg("feed service stopped")
	return nil
}

// loop executes submitted jobs one at a time
func (s *Service) loop(ctx context.Context) {
	defer close(s.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			job()
		}
	}
}

// do runs job on the event loop and waits for it to finish
func (s *Service) do(ctx context.Context, job func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		job()
	}

	select {
	case s.jobs <- wrapped:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once accepted the job always runs to completion
	<-done
	return nil
}

func (s *Service) tickUsers(ctx context.Context) {
	err := s.do(ctx, func() {
		count := s.state.TickUsers()
		metrics.TicksTotal.WithLabelValues("online_users").Inc()
		metrics.OnlineUsers.Set(float64(count))
		s.broadcaster.BroadcastOnlineUsers(count)
	})
	if err != nil {
		log.Debug().Err(err).Msg("online users tick skipped")
	}
}

func (s *Service) tickEarnings(ctx context.Context) {
	err := s.do(ctx, func() {
		board := s.state.TickEarnings()
		metrics.TicksTotal.WithLabelValues("earnings").Inc()
		s.broadcaster.BroadcastEarnings(board)
	})
	if err != nil {
		log.Debug().Err(err).Msg("earnings tick skipped")
	}
}

// ClientConnected registers c and pushes both current snapshots. As in the demo this feed
// reproduces, the snapshots go to every registered client, not only the newcomer.
func (s *Service) ClientConnected(ctx context.Context, c gateway.Client) error {
	return s.do(ctx, func() {
		s.registry.Register(c)
		s.broadcaster.BroadcastOnlineUsers(s.state.OnlineUsers())
		s.broadcaster.BroadcastEarnings(s.state.Earnings())
	})
}

// ClientDisconnected removes c from the registry
func (s *Service) ClientDisconnected(ctx context.Context, c gateway.Client) {
	err := s.do(ctx, func() {
		s.registry.Unregister(c)
	})
	if err != nil {
		// The loop is gone; drop the client directly so stats stay honest
		s.registry.Unregister(c)
	}
}

// Snapshot returns the current state as served by /api/snapshot
func (s *Service) Snapshot(ctx context.Context) (gateway.Snapshot, error) {
	var snapshot gateway.Snapshot
	err := s.do(ctx, func() {
		snapshot = gateway.Snapshot{
			OnlineUsers: s.state.OnlineUsers(),
			Earnings:    s.state.Earnings(),
			Title:       gateway.EarningsTitle,
			Timestamp:   gateway.FormatTimestamp(s.clock.Now()),
		}
	})
	return snapshot, err
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("feed routes registered")
}

// GetStats returns statistics about the service
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"service":           "livefeed",
		"total_connections": s.registry.Count(),
	}
}
