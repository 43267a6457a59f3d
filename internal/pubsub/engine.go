package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nfrund/hermes/internal/topicmgr"
)

// DefaultWaitTimeout bounds Expect/WaitFor calls that do not pass their own timeout.
const DefaultWaitTimeout = 30 * time.Second

// Engine connects the subscription registry, the outbound queue and a
// Transport. It keeps the transport's subscriptions in sync with the
// registry and re-establishes them after every reconnection.
type Engine struct {
	transport   Transport
	registry    *Registry
	queue       *Queue
	logger      *slog.Logger
	tracer      trace.Tracer
	queueSize   int
	waitTimeout time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithQueueSize bounds the number of messages kept while disconnected.
// The default of zero disables buffering.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// WithTracer enables publish and dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithWaitTimeout changes the timeout used by waits that do not set one.
func WithWaitTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.waitTimeout = d
		}
	}
}

// NewEngine creates an engine driving transport. Call Start to connect.
func NewEngine(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:   transport,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer(tracerName),
		waitTimeout: DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "hermes-engine")
	e.queue = NewQueue(e.queueSize)
	e.registry = NewRegistry(transportSync{e}, e.logger)
	return e
}

// Start launches the event loop and connects the transport.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	e.started = true
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go e.run(loopCtx, done)

	if err := e.transport.Connect(ctx); err != nil {
		cancel()
		<-done
		e.mu.Lock()
		e.started = false
		e.mu.Unlock()
		return fmt.Errorf("connect transport: %w", err)
	}

	e.logger.Info("engine started", "queue_size", e.queue.Cap())
	return nil
}

// Close stops the event loop and closes the transport. It is safe to call
// more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if dropped := e.queue.Dropped(); dropped > 0 {
		e.logger.Warn("outbound messages dropped while disconnected", "count", dropped)
	}
	if pending := e.queue.Len(); pending > 0 {
		e.logger.Warn("discarding queued messages on close", "count", pending)
	}

	if err := e.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	e.logger.Info("engine stopped")
	return nil
}

// On registers handler for every message whose topic matches pattern.
//
// Handlers run off the event loop, one goroutine per subscription: a handler
// sees messages in arrival order and may block, including on a wait such as
// WaitFor, without stalling delivery to other subscriptions. Handlers on the
// same pattern share that goroutine and run in registration order.
func (e *Engine) On(pattern string, handler Handler) (*Listener, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	return e.registry.Add(pattern, handler)
}

// watch registers a non-blocking handler that runs on the event loop.
func (e *Engine) watch(pattern string, handler Handler) (*Listener, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	return e.registry.addInline(pattern, handler)
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}

// Publish sends payload on topic. While the transport is disconnected the
// message is queued (subject to the queue bound) and nil is returned. A
// transport failure on a connected transport is returned without retrying.
// A closed engine returns ErrClosed.
func (e *Engine) Publish(ctx context.Context, topic string, payload []byte) error {
	if e.isClosed() {
		return ErrClosed
	}
	if topic == "" {
		return errors.New("publish: topic cannot be empty")
	}
	if strings.ContainsAny(topic, topicmgr.SingleWildcard+topicmgr.MultiWildcard) {
		return fmt.Errorf("publish: topic %q contains a wildcard", topic)
	}

	if e.transport.IsConnected() {
		err := e.send(ctx, topic, payload)
		if err == nil || !errors.Is(err, ErrNotConnected) {
			return err
		}
	}

	e.enqueue(Message{Topic: topic, Payload: payload})
	return nil
}

func (e *Engine) send(ctx context.Context, topic string, payload []byte) error {
	ctx, span := startPublishSpan(ctx, e.tracer, topic, payload)
	defer span.End()

	if err := e.transport.Publish(ctx, topic, payload); err != nil {
		recordSpanError(span, err)
		if errors.Is(err, ErrNotConnected) {
			return err
		}
		e.logger.Error("publish failed", "topic", topic, "error", err)
		return fmt.Errorf("publish %q: %w", topic, err)
	}

	e.logger.Debug("published", "topic", topic, "bytes", len(payload))
	return nil
}

func (e *Engine) enqueue(msg Message) {
	evicted, dropped := e.queue.Push(msg)
	if dropped {
		e.logger.Debug("outbound queue full, dropped oldest message",
			"dropped_topic", evicted.Topic,
			"queue_size", e.queue.Cap())
		return
	}
	e.logger.Debug("queued message while disconnected",
		"topic", msg.Topic,
		"queued", e.queue.Len())
}

// Flush republishes every queued message in FIFO order. Messages that hit a
// disconnected transport are queued again behind the remainder.
func (e *Engine) Flush(ctx context.Context) {
	pending := e.queue.Drain()
	if len(pending) == 0 {
		return
	}
	e.logger.Info("flushing queued messages", "count", len(pending))
	for _, msg := range pending {
		if err := e.Publish(ctx, msg.Topic, msg.Payload); err != nil {
			e.logger.Error("failed to flush queued message", "topic", msg.Topic, "error", err)
		}
	}
}

// Patterns returns the live subscription patterns.
func (e *Engine) Patterns() []string {
	return e.registry.Patterns()
}

// Registry exposes the subscription registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Queued returns the number of messages waiting for a connection.
func (e *Engine) Queued() int {
	return e.queue.Len()
}

// Connected reports whether the transport is currently connected.
func (e *Engine) Connected() bool {
	return e.transport.IsConnected()
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	events := e.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				e.logger.Debug("transport event stream closed")
				return
			}
			e.handleEvent(ctx, ev)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventConnected:
		e.logger.Info("transport connected")
		e.resubscribe(ctx)
		e.Flush(ctx)
	case EventDisconnected:
		e.logger.Warn("transport disconnected", "error", ev.Err)
	case EventError:
		e.logger.Error("transport error", "error", ev.Err)
	case EventMessage:
		e.dispatch(ctx, Message{Topic: ev.Topic, Payload: ev.Payload})
	}
}

func (e *Engine) dispatch(ctx context.Context, msg Message) {
	ctx, span := startDispatchSpan(ctx, e.tracer, msg)
	defer span.End()

	n := e.registry.Post(ctx, msg)
	setDispatchCount(span, n)
	e.logger.Debug("dispatched", "topic", msg.Topic, "listeners", n)
}

func (e *Engine) resubscribe(ctx context.Context) {
	e.registry.ForEachPattern(func(pattern string) {
		if err := e.transport.Subscribe(ctx, pattern); err != nil {
			e.logger.Error("resubscribe failed", "pattern", pattern, "error", err)
		}
	})
}

// transportSync mirrors registry subscription changes onto the transport.
// While disconnected, additions are picked up by the resubscribe on connect.
// Removals always reach the transport, which may hold state across reconnects.
type transportSync struct {
	e *Engine
}

func (s transportSync) PatternAdded(pattern string) {
	if !s.e.transport.IsConnected() {
		return
	}
	if err := s.e.transport.Subscribe(context.Background(), pattern); err != nil {
		s.e.logger.Error("subscribe failed", "pattern", pattern, "error", err)
	}
}

func (s transportSync) PatternRemoved(pattern string) {
	if err := s.e.transport.Unsubscribe(context.Background(), pattern); err != nil {
		s.e.logger.Error("unsubscribe failed", "pattern", pattern, "error", err)
	}
}
