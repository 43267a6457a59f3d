// Package hermes is the typed protocol surface of the Hermes voice assistant
// bus. A Client wraps a pubsub.Engine and exposes one facade per component
// (dialogue, feedback, hotword, ASR, NLU, TTS, audio server, injection) with
// typed publishers, typed subscribers and blocking request/response helpers.
package hermes

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// Client is the entry point to the protocol facades.
type Client struct {
	engine  *pubsub.Engine
	topics  *topicmgr.Manager
	logger  *slog.Logger
	timeout time.Duration
	newID   func() string

	Dialogue    *Dialogue
	Feedback    *Feedback
	Hotword     *Hotword
	ASR         *ASR
	NLU         *NLU
	TTS         *TTS
	AudioServer *AudioServer
	Injection   *Injection
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestTimeout sets the timeout of blocking requests that do not pass
// their own.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithIDGenerator replaces the random correlation id generator.
func WithIDGenerator(fn func() string) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithTopicManager registers the catalog in m instead of the default manager.
func WithTopicManager(m *topicmgr.Manager) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.topics = m
		}
	}
}

// New creates a client on engine and registers the topic catalog.
func New(engine *pubsub.Engine, opts ...ClientOption) (*Client, error) {
	c := &Client{
		engine: engine,
		topics: topicmgr.Default(),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "hermes-client")

	if err := RegisterTopics(c.topics); err != nil {
		return nil, err
	}

	c.Dialogue = &Dialogue{c: c}
	c.Feedback = &Feedback{c: c}
	c.Hotword = &Hotword{c: c}
	c.ASR = &ASR{c: c}
	c.NLU = &NLU{c: c}
	c.TTS = &TTS{c: c}
	c.AudioServer = &AudioServer{c: c}
	c.Injection = &Injection{c: c}
	return c, nil
}

// Engine returns the underlying engine.
func (c *Client) Engine() *pubsub.Engine {
	return c.engine
}

// Topics returns the manager holding the topic catalog.
func (c *Client) Topics() *topicmgr.Manager {
	return c.topics
}

// NewID returns a fresh correlation id.
func (c *Client) NewID() string {
	return c.newID()
}

func (c *Client) requestTimeout(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return c.timeout
}

// request publishes after the wait is registered so the response cannot be
// missed, then blocks for the outcome.
func (c *Client) request(ctx context.Context, w *pubsub.Wait, publish func() error) (pubsub.Message, error) {
	if err := publish(); err != nil {
		w.Cancel()
		return pubsub.Message{}, err
	}
	return w.Result(ctx)
}
