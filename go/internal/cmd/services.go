package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livefeed/go/internal/feed"
	"github.com/mcdev12/livefeed/go/internal/feed/gateway"
	"github.com/mcdev12/livefeed/go/internal/feed/simulator"
)

type Services struct {
	Feed   *feed.Service
	Mirror gateway.Mirror
}

func setupServices(config *Config, tuning simulator.Tuning, clock clockwork.Clock) (*Services, error) {
	// Mirror → Feed service

	var mirror gateway.Mirror = gateway.NoOpMirror{}
	if config.NATSEnabled {
		natsMirror, err := gateway.NewNATSMirror(config.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to start broadcast mirror: %w", err)
		}
		mirror = natsMirror
	}

	serviceConfig := feed.DefaultConfig()
	serviceConfig.Tuning = tuning
	serviceConfig.Seed = config.Seed

	return &Services{
		Feed:   feed.NewService(serviceConfig, clock, mirror),
		Mirror: mirror,
	}, nil
}
