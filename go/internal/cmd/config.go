package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/livefeed/go/internal/feed/gateway"
	"github.com/mcdev12/livefeed/go/internal/feed/simulator"
	"github.com/rs/zerolog"
)

// Config is everything the process reads from its environment
type Config struct {
	Port       string
	LogLevel   zerolog.Level
	TuningFile string
	Seed       uint64

	// NATS mirroring is enabled only when NATS_URL is set
	NATSEnabled bool
	NATS        gateway.NATSMirrorConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func loadConfig() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	port := getEnvAsInt("PORT", 3000)
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", port)
	}

	seed := rand.Uint64()
	if value := os.Getenv("SIM_SEED"); value != "" {
		seed, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SIM_SEED: %w", err)
		}
	}

	natsConfig := gateway.DefaultNATSMirrorConfig()
	natsURL := os.Getenv("NATS_URL")
	if natsURL != "" {
		natsConfig.URL = natsURL
	}
	natsConfig.Subject = getEnv("NATS_SUBJECT", natsConfig.Subject)
	natsConfig.MaxReconnects = getEnvAsInt("NATS_MAX_RECONNECTS", natsConfig.MaxReconnects)
	natsConfig.ReconnectWait = getEnvAsDuration("NATS_RECONNECT_WAIT", natsConfig.ReconnectWait)

	return &Config{
		Port:        strconv.Itoa(port),
		LogLevel:    level,
		TuningFile:  os.Getenv("TUNING_FILE"),
		Seed:        seed,
		NATSEnabled: natsURL != "",
		NATS:        natsConfig,
	}, nil
}

func loadTuning(path string) (simulator.Tuning, error) {
	if path == "" {
		return simulator.DefaultTuning(), nil
	}
	return simulator.LoadTuning(path)
}
