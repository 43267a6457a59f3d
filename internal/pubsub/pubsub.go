package pubsub

import (
	"context"
	"errors"
)

// Message is one publish/subscribe message as seen by the engine.
type Message struct {
	// Topic is the concrete topic the message was published on (e.g., "hermes/tts/say").
	Topic string
	// Payload contains the raw message bytes (JSON or an audio envelope).
	Payload []byte
}

// Handler processes a dispatched message. A returned error is logged by the
// dispatcher and never stops delivery to other listeners.
type Handler func(ctx context.Context, msg Message) error

// EventType identifies a transport event.
type EventType int

const (
	// EventConnected is emitted after every successful (re)connection.
	EventConnected EventType = iota
	// EventDisconnected is emitted when the connection is lost; Err may carry the cause.
	EventDisconnected
	// EventError reports a transport error that did not necessarily drop the connection.
	EventError
	// EventMessage carries an inbound message.
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is produced by a Transport on its Events channel.
type Event struct {
	Type    EventType
	Topic   string
	Payload []byte
	Err     error
}

// Transport is the broker connection driven by the Engine. Implementations
// deliver inbound messages and lifecycle changes through Events, which must
// stay open for the lifetime of the transport.
type Transport interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, pattern string) error
	Unsubscribe(ctx context.Context, pattern string) error
	IsConnected() bool
	Events() <-chan Event
	Close() error
}

// Sentinel errors shared by the engine and transports.
var (
	ErrNotConnected   = errors.New("transport not connected")
	ErrConnectionLost = errors.New("connection lost")
	ErrAlreadyStarted = errors.New("engine already started")
	ErrClosed         = errors.New("engine closed")
)
