package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// Handler receives a decoded protocol message.
type Handler[T any] func(ctx context.Context, msg T) error

// DecodeError reports a payload that could not be decoded for a typed
// listener. It is returned to the dispatcher, which logs it without
// affecting other listeners.
type DecodeError struct {
	Topic string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload on %s: %v", e.Topic, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var errNilHandler = errors.New("handler cannot be nil")

// publishJSON formats topic with params and publishes msg encoded as JSON.
func publishJSON(ctx context.Context, c *Client, topic *topicmgr.TypedTopic, params topicmgr.Params, msg any) error {
	name, err := topic.Format(params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.engine.Publish(ctx, name, payload)
}

// publishRaw formats topic with params and publishes payload unchanged.
func publishRaw(ctx context.Context, c *Client, topic *topicmgr.TypedTopic, params topicmgr.Params, payload []byte) error {
	name, err := topic.Format(params)
	if err != nil {
		return err
	}
	return c.engine.Publish(ctx, name, payload)
}

// onJSON subscribes to topic, substituting wildcards for the params not
// given, and decodes each payload into T.
func onJSON[T any](c *Client, topic *topicmgr.TypedTopic, params topicmgr.Params, handler Handler[T]) (*pubsub.Listener, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	pattern, err := topic.Template().Wildcard(params)
	if err != nil {
		return nil, err
	}
	return c.engine.On(pattern, func(ctx context.Context, msg pubsub.Message) error {
		v, err := decodeJSON[T](msg)
		if err != nil {
			return err
		}
		return handler(ctx, v)
	})
}

// onRaw subscribes to a binary topic and hands over the path parameters
// extracted from the concrete topic.
func onRaw(c *Client, topic *topicmgr.TypedTopic, params topicmgr.Params, handler func(ctx context.Context, params topicmgr.Params, payload []byte) error) (*pubsub.Listener, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	tmpl := topic.Template()
	pattern, err := tmpl.Wildcard(params)
	if err != nil {
		return nil, err
	}
	return c.engine.On(pattern, func(ctx context.Context, msg pubsub.Message) error {
		extracted, ok := tmpl.Extract(msg.Topic)
		if !ok {
			return &DecodeError{Topic: msg.Topic, Err: fmt.Errorf("topic does not match %s", tmpl)}
		}
		return handler(ctx, extracted, msg.Payload)
	})
}

func decodeJSON[T any](msg pubsub.Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, &DecodeError{Topic: msg.Topic, Err: err}
	}
	return v, nil
}
