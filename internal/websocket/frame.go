package websocket

import (
	"encoding/json"

	"github.com/nfrund/hermes/internal/pubsub"
)

// Frame is the JSON envelope exchanged with WebSocket clients. JSON payloads
// travel inline in Payload; anything else (audio) travels base64 encoded in
// Data. Error is only set on frames sent to a client.
type Frame struct {
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Data    []byte          `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewFrame wraps a bus message for delivery to a client.
func NewFrame(msg pubsub.Message) Frame {
	f := Frame{Topic: msg.Topic}
	if len(msg.Payload) > 0 && json.Valid(msg.Payload) {
		f.Payload = json.RawMessage(msg.Payload)
	} else if len(msg.Payload) > 0 {
		f.Data = msg.Payload
	}
	return f
}

// Bytes returns the bus payload carried by an inbound frame.
func (f Frame) Bytes() []byte {
	if len(f.Payload) > 0 {
		return f.Payload
	}
	return f.Data
}

func errorFrame(topic string, err error) Frame {
	return Frame{Topic: topic, Error: err.Error()}
}
