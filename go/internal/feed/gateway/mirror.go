package gateway

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Mirror receives a copy of every broadcast payload after local fan-out
type Mirror interface {
	Publish(msgType MessageType, data []byte) error
	Close() error
}

// NoOpMirror discards everything
type NoOpMirror struct{}

func (NoOpMirror) Publish(MessageType, []byte) error { return nil }
func (NoOpMirror) Close() error                      { return nil }

// NATSMirrorConfig holds configuration for the NATS mirror
type NATSMirrorConfig struct {
	URL           string
	Subject       string // payloads go to <Subject>.<message type>
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSMirrorConfig returns default NATS mirror configuration
func DefaultNATSMirrorConfig() NATSMirrorConfig {
	return NATSMirrorConfig{
		URL:           nats.DefaultURL,
		Subject:       "livefeed.broadcast",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSMirror publishes broadcast payloads to core NATS. Publishing is buffered by the
// client library and never waits for subscribers.
type NATSMirror struct {
	nc      *nats.Conn
	subject string
}

// NewNATSMirror connects to NATS
func NewNATSMirror(config NATSMirrorConfig) (*NATSMirror, error) {
	opts := []nats.Option{
		nats.Name("livefeed"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject", config.Subject).
		Msg("broadcast mirror connected")

	return &NATSMirror{nc: nc, subject: config.Subject}, nil
}

// Publish hands data to the NATS client
func (m *NATSMirror) Publish(msgType MessageType, data []byte) error {
	if err := m.nc.Publish(m.subject+"."+string(msgType), data); err != nil {
		return fmt.Errorf("publish %s: %w", msgType, err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection
func (m *NATSMirror) Close() error {
	if err := m.nc.Drain(); err != nil {
		m.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
