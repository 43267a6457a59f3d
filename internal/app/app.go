// Package app wires configuration, logging, tracing, a transport, the engine
// and the protocol client into one running instance.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/hermes/internal/config"
	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
	"github.com/nfrund/hermes/internal/transport/mqtttransport"
	"github.com/nfrund/hermes/internal/transport/natstransport"
)

// Dependencies holds the services built from a Config.
type Dependencies struct {
	Config    *config.Config
	Logger    *slog.Logger
	Transport pubsub.Transport
	Engine    *pubsub.Engine
	Client    *hermes.Client
	Topics    *topicmgr.Manager

	shutdownTracing func()
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(cfg *config.Config, logger *slog.Logger) (pubsub.Transport, error) {
	switch cfg.Transport {
	case config.TransportLoopback:
		return pubsub.NewLoopback(), nil
	case config.TransportMQTT:
		return mqtttransport.New(mqtttransport.Options{
			BrokerURL: cfg.BrokerURL,
			ClientID:  cfg.ClientID,
			Logger:    logger,
		}), nil
	case config.TransportNATS:
		return natstransport.New(natstransport.Options{
			URL:    cfg.BrokerURL,
			Name:   cfg.ClientID,
			Logger: logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// New builds every dependency without connecting.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tracer, shutdown, err := pubsub.SetupOTel(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	transport, err := NewTransport(cfg, logger)
	if err != nil {
		shutdown()
		return nil, err
	}

	engine := pubsub.NewEngine(transport,
		pubsub.WithLogger(logger),
		pubsub.WithQueueSize(cfg.QueueSize),
		pubsub.WithTracer(tracer),
		pubsub.WithWaitTimeout(cfg.RequestTimeout),
	)

	topics := topicmgr.Default()
	client, err := hermes.New(engine,
		hermes.WithClientLogger(logger),
		hermes.WithRequestTimeout(cfg.RequestTimeout),
		hermes.WithTopicManager(topics),
	)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Dependencies{
		Config:          cfg,
		Logger:          logger,
		Transport:       transport,
		Engine:          engine,
		Client:          client,
		Topics:          topics,
		shutdownTracing: shutdown,
	}, nil
}

// Start connects the engine.
func (d *Dependencies) Start(ctx context.Context) error {
	return d.Engine.Start(ctx)
}

// Close stops the engine and flushes tracing.
func (d *Dependencies) Close() error {
	err := d.Engine.Close()
	if d.shutdownTracing != nil {
		d.shutdownTracing()
	}
	return err
}
