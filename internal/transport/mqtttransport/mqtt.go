// Package mqtttransport carries Hermes topics over an MQTT broker.
package mqtttransport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nfrund/hermes/internal/pubsub"
)

// Options configures the transport.
type Options struct {
	// BrokerURL is the broker address (e.g., "tcp://localhost:1883").
	BrokerURL string
	// ClientID identifies this client on the broker. Empty lets paho pick one.
	ClientID string
	Username string
	Password string
	// QoS used for publishes and subscriptions. Default is 0.
	QoS byte
	// ConnectTimeout bounds the initial connection. Default is 5 seconds.
	ConnectTimeout time.Duration
	// OperationTimeout bounds publish and subscribe acknowledgements. Default is 10 seconds.
	OperationTimeout time.Duration
	// MaxReconnectInterval caps the automatic reconnect backoff. Default is 30 seconds.
	MaxReconnectInterval time.Duration
	// EventBuffer is the capacity of the events channel. Default is 256.
	EventBuffer int
	// Logger for operational logging. If nil, uses slog.Default().
	Logger *slog.Logger
}

func (o Options) applyDefaults() Options {
	if o.BrokerURL == "" {
		o.BrokerURL = "tcp://localhost:1883"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = 10 * time.Second
	}
	if o.MaxReconnectInterval <= 0 {
		o.MaxReconnectInterval = 30 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 256
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Transport implements pubsub.Transport with the paho MQTT client.
type Transport struct {
	opts   Options
	logger *slog.Logger
	events chan pubsub.Event
	client mqtt.Client

	closing   chan struct{}
	closeOnce sync.Once
}

var _ pubsub.Transport = (*Transport)(nil)

// New creates a disconnected transport.
func New(opts Options) *Transport {
	return newTransport(opts, mqtt.NewClient)
}

func newTransport(opts Options, newClient func(*mqtt.ClientOptions) mqtt.Client) *Transport {
	opts = opts.applyDefaults()
	t := &Transport{
		opts:    opts,
		logger:  opts.Logger.With("component", "mqtt-transport"),
		events:  make(chan pubsub.Event, opts.EventBuffer),
		closing: make(chan struct{}),
	}
	t.client = newClient(t.clientOptions())
	return t
}

func (t *Transport) clientOptions() *mqtt.ClientOptions {
	co := mqtt.NewClientOptions().
		AddBroker(t.opts.BrokerURL).
		SetClientID(t.opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectTimeout(t.opts.ConnectTimeout).
		SetMaxReconnectInterval(t.opts.MaxReconnectInterval).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost).
		SetDefaultPublishHandler(t.onMessage)
	if t.opts.Username != "" {
		co.SetUsername(t.opts.Username)
		co.SetPassword(t.opts.Password)
	}
	return co
}

func (t *Transport) onConnect(_ mqtt.Client) {
	t.logger.Info("connected to MQTT broker", "broker", t.opts.BrokerURL)
	t.emit(pubsub.Event{Type: pubsub.EventConnected})
}

func (t *Transport) onConnectionLost(_ mqtt.Client, err error) {
	t.logger.Warn("MQTT connection lost", "error", err)
	t.emit(pubsub.Event{Type: pubsub.EventDisconnected, Err: fmt.Errorf("%w: %v", pubsub.ErrConnectionLost, err)})
}

func (t *Transport) onMessage(_ mqtt.Client, msg mqtt.Message) {
	t.emit(pubsub.Event{
		Type:    pubsub.EventMessage,
		Topic:   msg.Topic(),
		Payload: msg.Payload(),
	})
}

func (t *Transport) emit(ev pubsub.Event) {
	select {
	case t.events <- ev:
	case <-t.closing:
	}
}

// Connect opens the broker connection. Reconnection afterwards is automatic
// and reported through Events.
func (t *Transport) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout)
	defer cancel()

	if err := waitToken(ctx, t.client.Connect()); err != nil {
		return fmt.Errorf("connect to MQTT %s: %w", t.opts.BrokerURL, err)
	}
	return nil
}

// Publish implements pubsub.Transport.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte) error {
	if !t.client.IsConnectionOpen() {
		return pubsub.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, t.opts.OperationTimeout)
	defer cancel()

	return waitToken(ctx, t.client.Publish(topic, t.opts.QoS, false, payload))
}

// Subscribe implements pubsub.Transport. Deliveries go to the default
// publish handler so each broker message yields one event.
func (t *Transport) Subscribe(ctx context.Context, pattern string) error {
	if !t.client.IsConnectionOpen() {
		return pubsub.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, t.opts.OperationTimeout)
	defer cancel()

	if err := waitToken(ctx, t.client.Subscribe(pattern, t.opts.QoS, nil)); err != nil {
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}
	t.logger.Debug("subscribed", "pattern", pattern)
	return nil
}

// Unsubscribe implements pubsub.Transport.
func (t *Transport) Unsubscribe(ctx context.Context, pattern string) error {
	if !t.client.IsConnectionOpen() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.opts.OperationTimeout)
	defer cancel()

	if err := waitToken(ctx, t.client.Unsubscribe(pattern)); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", pattern, err)
	}
	return nil
}

// IsConnected implements pubsub.Transport. It is false while paho is
// reconnecting.
func (t *Transport) IsConnected() bool {
	return t.client.IsConnectionOpen()
}

// Events implements pubsub.Transport. The channel is never closed.
func (t *Transport) Events() <-chan pubsub.Event {
	return t.events
}

// Close disconnects from the broker.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closing)
		if t.client.IsConnected() {
			t.client.Disconnect(250)
		}
	})
	return nil
}

var errTokenTimeout = errors.New("mqtt operation timed out")

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errTokenTimeout
		}
		return ctx.Err()
	}
}
