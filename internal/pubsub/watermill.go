package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/nfrund/hermes/internal/topicmgr"
)

const (
	// loopbackTopic is the single watermill topic every Hermes message travels on.
	loopbackTopic = "hermes"
	// metaKeyTopic carries the Hermes topic through watermill's metadata.
	metaKeyTopic = "topic"

	loopbackEventBuffer = 256
)

// Loopback is an in-process Transport backed by watermill's GoChannel. It
// behaves like a broker: published messages are delivered back only when a
// subscribed pattern matches. Drop and Restore simulate connection loss.
type Loopback struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
	events chan Event

	connected atomic.Bool

	mu       sync.RWMutex
	patterns map[string]*topicmgr.Matcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	closing   chan struct{}
	closeOnce sync.Once
}

// NewLoopback creates a disconnected in-memory transport.
func NewLoopback() *Loopback {
	logger := watermill.NewStdLogger(false, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            loopbackEventBuffer,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return &Loopback{
		pubsub:   goChannel,
		logger:   logger,
		events:   make(chan Event, loopbackEventBuffer),
		patterns: make(map[string]*topicmgr.Matcher),
		closing:  make(chan struct{}),
	}
}

// Connect starts consuming the watermill topic and reports a connection.
func (l *Loopback) Connect(ctx context.Context) error {
	select {
	case <-l.closing:
		return errors.New("loopback transport closed")
	default:
	}

	l.mu.Lock()
	if l.cancel == nil {
		subCtx, cancel := context.WithCancel(context.Background())
		messages, err := l.pubsub.Subscribe(subCtx, loopbackTopic)
		if err != nil {
			cancel()
			l.mu.Unlock()
			return fmt.Errorf("subscribe loopback: %w", err)
		}
		l.cancel = cancel
		l.wg.Add(1)
		go l.forward(messages)
	}
	l.mu.Unlock()

	l.connected.Store(true)
	l.emit(Event{Type: EventConnected})
	return nil
}

func (l *Loopback) forward(messages <-chan *message.Message) {
	defer l.wg.Done()

	for wmMsg := range messages {
		topic := wmMsg.Metadata.Get(metaKeyTopic)
		if l.matches(topic) {
			l.emit(Event{Type: EventMessage, Topic: topic, Payload: wmMsg.Payload})
		}
		wmMsg.Ack()
	}
	l.logger.Debug("loopback message loop ended", nil)
}

func (l *Loopback) matches(topic string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, m := range l.patterns {
		if m.Match(topic) {
			return true
		}
	}
	return false
}

func (l *Loopback) emit(ev Event) {
	select {
	case l.events <- ev:
	case <-l.closing:
	}
}

// Publish implements Transport.
func (l *Loopback) Publish(_ context.Context, topic string, payload []byte) error {
	if !l.connected.Load() {
		return ErrNotConnected
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), payload)
	wmMsg.Metadata.Set(metaKeyTopic, topic)
	return l.pubsub.Publish(loopbackTopic, wmMsg)
}

// Subscribe implements Transport.
func (l *Loopback) Subscribe(_ context.Context, pattern string) error {
	if !l.connected.Load() {
		return ErrNotConnected
	}
	matcher, err := topicmgr.CompilePattern(pattern)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.patterns[pattern] = matcher
	l.mu.Unlock()
	return nil
}

// Unsubscribe implements Transport. It succeeds while disconnected.
func (l *Loopback) Unsubscribe(_ context.Context, pattern string) error {
	l.mu.Lock()
	delete(l.patterns, pattern)
	l.mu.Unlock()
	return nil
}

// Subscriptions returns the patterns currently subscribed on the transport.
func (l *Loopback) Subscriptions() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	patterns := make([]string, 0, len(l.patterns))
	for pattern := range l.patterns {
		patterns = append(patterns, pattern)
	}
	return patterns
}

// IsConnected implements Transport.
func (l *Loopback) IsConnected() bool {
	return l.connected.Load()
}

// Events implements Transport. The channel is never closed.
func (l *Loopback) Events() <-chan Event {
	return l.events
}

// Drop simulates a lost connection. Like a broker session ending, it forgets
// all subscriptions.
func (l *Loopback) Drop() {
	if !l.connected.CompareAndSwap(true, false) {
		return
	}
	l.mu.Lock()
	l.patterns = make(map[string]*topicmgr.Matcher)
	l.mu.Unlock()
	l.emit(Event{Type: EventDisconnected, Err: ErrConnectionLost})
}

// Restore simulates a successful reconnection.
func (l *Loopback) Restore() {
	if !l.connected.CompareAndSwap(false, true) {
		return
	}
	l.emit(Event{Type: EventConnected})
}

// Close shuts the transport down.
func (l *Loopback) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.connected.Store(false)
		close(l.closing)

		l.mu.Lock()
		cancel := l.cancel
		l.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		err = l.pubsub.Close()
		l.wg.Wait()
	})
	return err
}
