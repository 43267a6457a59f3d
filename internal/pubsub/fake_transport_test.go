package pubsub

import (
	"context"
	"sync"
)

// fakeTransport records calls and lets tests drive connection events.
type fakeTransport struct {
	mu         sync.Mutex
	connected  bool
	published  []Message
	calls      []string
	publishErr error
	closed     bool
	dropAt     int
	events     chan Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan Event, 64)}
}

func (f *fakeTransport) Connect(context.Context) error {
	f.setConnected(true)
	f.events <- Event{Type: EventConnected}
	return nil
}

func (f *fakeTransport) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dropAt > 0 && len(f.published) >= f.dropAt {
		f.dropAt = 0
		f.connected = false
	}
	if !f.connected {
		return ErrNotConnected
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, Message{Topic: topic, Payload: payload})
	return nil
}

func (f *fakeTransport) Subscribe(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "sub:"+pattern)
	return nil
}

func (f *fakeTransport) Unsubscribe(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "unsub:"+pattern)
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connected
}

func (f *fakeTransport) Events() <-chan Event {
	return f.events
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.connected = false
	return nil
}

func (f *fakeTransport) setConnected(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connected = v
}

func (f *fakeTransport) setPublishErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.publishErr = err
}

func (f *fakeTransport) disconnect() {
	f.setConnected(false)
	f.events <- Event{Type: EventDisconnected, Err: ErrConnectionLost}
}

func (f *fakeTransport) reconnect() {
	f.setConnected(true)
	f.events <- Event{Type: EventConnected}
}

func (f *fakeTransport) deliver(topic string, payload []byte) {
	f.events <- Event{Type: EventMessage, Topic: topic, Payload: payload}
}

func (f *fakeTransport) publishedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	topics := make([]string, 0, len(f.published))
	for _, msg := range f.published {
		topics = append(topics, msg.Topic)
	}
	return topics
}

func (f *fakeTransport) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// dropAfter makes the transport lose its connection once n messages in total
// have been published. The failing publish returns ErrNotConnected.
func (f *fakeTransport) dropAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dropAt = n
}
