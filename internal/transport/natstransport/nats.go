// Package natstransport carries Hermes topics over NATS subjects.
//
// Topics map to subjects by replacing "/" with ".". Pattern wildcards map to
// their NATS counterparts: "+" becomes "*" and a trailing "#" becomes ">".
// Because ">" needs at least one token, "a/#" is subscribed as both "a.>"
// and "a" so that the parent topic still matches.
package natstransport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// Options configures the transport.
type Options struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string
	// Name identifies the connection on the server.
	Name string
	// ConnectTimeout bounds the initial dial. Default is 5 seconds.
	ConnectTimeout time.Duration
	// ReconnectWait is the delay between reconnect attempts. Default is 2 seconds.
	ReconnectWait time.Duration
	// EventBuffer is the capacity of the events channel. Default is 256.
	EventBuffer int
	// Logger for operational logging. If nil, uses slog.Default().
	Logger *slog.Logger
}

func (o Options) applyDefaults() Options {
	if o.URL == "" {
		o.URL = nats.DefaultURL
	}
	if o.Name == "" {
		o.Name = "hermes"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 256
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Transport implements pubsub.Transport on a NATS connection.
type Transport struct {
	opts   Options
	logger *slog.Logger
	events chan pubsub.Event

	mu   sync.Mutex
	conn *nats.Conn
	subs map[string][]*nats.Subscription

	closing   chan struct{}
	closeOnce sync.Once
}

var _ pubsub.Transport = (*Transport)(nil)

// New creates a disconnected transport.
func New(opts Options) *Transport {
	opts = opts.applyDefaults()
	return &Transport{
		opts:    opts,
		logger:  opts.Logger.With("component", "nats-transport"),
		events:  make(chan pubsub.Event, opts.EventBuffer),
		subs:    make(map[string][]*nats.Subscription),
		closing: make(chan struct{}),
	}
}

// Connect dials the server. Reconnection afterwards is automatic.
func (t *Transport) Connect(ctx context.Context) error {
	timeout := t.opts.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	conn, err := nats.Connect(
		t.opts.URL,
		nats.Name(t.opts.Name),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(t.opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			t.logger.Warn("NATS disconnected", "error", err)
			t.emit(pubsub.Event{Type: pubsub.EventDisconnected, Err: err})
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			t.logger.Info("NATS reconnected", "url", c.ConnectedUrl())
			t.emit(pubsub.Event{Type: pubsub.EventConnected})
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			t.emit(pubsub.Event{Type: pubsub.EventError, Err: fmt.Errorf("subject %q: %w", subject, err)})
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS %s: %w", t.opts.URL, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.logger.Info("connected to NATS", "url", t.opts.URL)
	t.emit(pubsub.Event{Type: pubsub.EventConnected})
	return nil
}

func (t *Transport) connection() *nats.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *Transport) emit(ev pubsub.Event) {
	select {
	case t.events <- ev:
	case <-t.closing:
	}
}

// Publish implements pubsub.Transport.
func (t *Transport) Publish(_ context.Context, topic string, payload []byte) error {
	conn := t.connection()
	if conn == nil || !conn.IsConnected() {
		return pubsub.ErrNotConnected
	}
	subject, err := TopicToSubject(topic)
	if err != nil {
		return err
	}
	return conn.Publish(subject, payload)
}

// Subscribe implements pubsub.Transport. Subscribing to a pattern that is
// already subscribed is a no-op: NATS restores subscriptions on reconnect.
func (t *Transport) Subscribe(_ context.Context, pattern string) error {
	subjects, err := PatternToSubjects(pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || !t.conn.IsConnected() {
		return pubsub.ErrNotConnected
	}
	if _, ok := t.subs[pattern]; ok {
		return nil
	}

	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := t.conn.Subscribe(subject, t.deliver)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	t.subs[pattern] = subs
	t.logger.Debug("subscribed", "pattern", pattern, "subjects", subjects)
	return nil
}

func (t *Transport) deliver(msg *nats.Msg) {
	t.emit(pubsub.Event{
		Type:    pubsub.EventMessage,
		Topic:   SubjectToTopic(msg.Subject),
		Payload: msg.Data,
	})
}

// Unsubscribe implements pubsub.Transport.
func (t *Transport) Unsubscribe(_ context.Context, pattern string) error {
	t.mu.Lock()
	subs, ok := t.subs[pattern]
	delete(t.subs, pattern)
	t.mu.Unlock()

	if !ok {
		return nil
	}
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", sub.Subject, err)
		}
	}
	return nil
}

// IsConnected implements pubsub.Transport.
func (t *Transport) IsConnected() bool {
	conn := t.connection()
	return conn != nil && conn.IsConnected()
}

// Events implements pubsub.Transport. The channel is never closed.
func (t *Transport) Events() <-chan pubsub.Event {
	return t.events
}

// Close drains subscriptions and closes the connection.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closing)

		t.mu.Lock()
		conn := t.conn
		t.conn = nil
		t.subs = make(map[string][]*nats.Subscription)
		t.mu.Unlock()

		if conn != nil {
			conn.Close()
		}
	})
	return nil
}

// TopicToSubject converts a concrete topic to a NATS subject.
func TopicToSubject(topic string) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("topic cannot be empty")
	}
	if strings.ContainsAny(topic, ". \t*>") {
		return "", fmt.Errorf("topic %q contains characters reserved by NATS", topic)
	}
	if strings.ContainsAny(topic, topicmgr.SingleWildcard+topicmgr.MultiWildcard) {
		return "", fmt.Errorf("topic %q contains a wildcard", topic)
	}
	return strings.ReplaceAll(topic, topicmgr.Separator, "."), nil
}

// SubjectToTopic converts a NATS subject back to a topic.
func SubjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", topicmgr.Separator)
}

// PatternToSubjects converts a subscription pattern to the NATS subjects
// that together match the same topics.
func PatternToSubjects(pattern string) ([]string, error) {
	if err := topicmgr.ValidatePattern(pattern); err != nil {
		return nil, err
	}
	if strings.ContainsAny(pattern, ". \t*>") {
		return nil, fmt.Errorf("pattern %q contains characters reserved by NATS", pattern)
	}

	segments := strings.Split(pattern, topicmgr.Separator)
	multi := segments[len(segments)-1] == topicmgr.MultiWildcard

	tokens := make([]string, len(segments))
	for i, seg := range segments {
		switch seg {
		case topicmgr.SingleWildcard:
			tokens[i] = "*"
		case topicmgr.MultiWildcard:
			tokens[i] = ">"
		default:
			tokens[i] = seg
		}
	}

	subjects := []string{strings.Join(tokens, ".")}
	if multi && len(tokens) > 1 {
		subjects = append(subjects, strings.Join(tokens[:len(tokens)-1], "."))
	}
	return subjects, nil
}
