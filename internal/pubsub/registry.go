package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nfrund/hermes/internal/topicmgr"
)

// SubscriptionObserver is told when a pattern gains its first listener and
// when it loses its last one. The engine uses it to drive transport
// subscribe/unsubscribe calls.
type SubscriptionObserver interface {
	PatternAdded(pattern string)
	PatternRemoved(pattern string)
}

type subscription struct {
	pattern   string
	matcher   *topicmgr.Matcher
	listeners []*Listener
	box       mailbox
}

// delivery is one message handed to a subscription's mailbox together with
// the listeners that were registered when it arrived.
type delivery struct {
	ctx       context.Context
	msg       Message
	listeners []*Listener
}

// mailbox holds the deliveries of one subscription. At most one goroutine
// drains it at a time, so its deliveries run in arrival order.
type mailbox struct {
	mu      sync.Mutex
	pending []delivery
	running bool
}

// Listener is a handler registered on a pattern.
type Listener struct {
	id       uint64
	pattern  string
	handler  Handler
	registry *Registry
	inline   bool
	removed  atomic.Bool
}

// Pattern returns the subscription pattern the listener is registered on.
func (l *Listener) Pattern() string {
	return l.pattern
}

// Active reports whether the listener is still registered.
func (l *Listener) Active() bool {
	return !l.removed.Load()
}

// Remove detaches the listener. Removing the last listener of a pattern
// deletes the subscription. Calling Remove more than once is a no-op.
func (l *Listener) Remove() {
	l.registry.remove(l)
}

// Registry maps subscription patterns to their ordered listeners and
// dispatches inbound messages to them.
type Registry struct {
	// changeMu serializes mutations together with observer callbacks so the
	// transport sees subscribe/unsubscribe in mutation order.
	changeMu sync.Mutex
	mu       sync.RWMutex
	subs     map[string]*subscription
	observer SubscriptionObserver
	logger   *slog.Logger
	nextID   atomic.Uint64
}

// NewRegistry creates an empty registry. observer may be nil.
func NewRegistry(observer SubscriptionObserver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		subs:     make(map[string]*subscription),
		observer: observer,
		logger:   logger,
	}
}

// Add registers handler on pattern. The pattern is compiled on first use and
// the observer is notified when the subscription is created.
func (r *Registry) Add(pattern string, handler Handler) (*Listener, error) {
	return r.add(pattern, handler, false)
}

// addInline registers a listener that Post runs on the posting goroutine.
// Its handler must not block.
func (r *Registry) addInline(pattern string, handler Handler) (*Listener, error) {
	return r.add(pattern, handler, true)
}

func (r *Registry) add(pattern string, handler Handler, inline bool) (*Listener, error) {
	if handler == nil {
		return nil, errors.New("listener handler cannot be nil")
	}

	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	sub, exists := r.subs[pattern]
	if !exists {
		matcher, err := topicmgr.CompilePattern(pattern)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		sub = &subscription{pattern: pattern, matcher: matcher}
		r.subs[pattern] = sub
	}
	l := &Listener{
		id:       r.nextID.Add(1),
		pattern:  pattern,
		handler:  handler,
		registry: r,
		inline:   inline,
	}
	sub.listeners = append(sub.listeners, l)
	r.mu.Unlock()

	if !exists {
		r.logger.Debug("subscription created", "pattern", pattern)
		if r.observer != nil {
			r.observer.PatternAdded(pattern)
		}
	}
	return l, nil
}

func (r *Registry) remove(l *Listener) {
	if !l.removed.CompareAndSwap(false, true) {
		return
	}

	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	emptied := false
	if sub, ok := r.subs[l.pattern]; ok {
		// Copy on write: a dispatch in progress may hold the old slice.
		kept := make([]*Listener, 0, len(sub.listeners))
		for _, other := range sub.listeners {
			if other != l {
				kept = append(kept, other)
			}
		}
		sub.listeners = kept
		if len(kept) == 0 {
			delete(r.subs, l.pattern)
			emptied = true
		}
	}
	r.mu.Unlock()

	if emptied {
		r.logger.Debug("subscription removed", "pattern", l.pattern)
		if r.observer != nil {
			r.observer.PatternRemoved(l.pattern)
		}
	}
}

// Dispatch delivers msg to every listener whose pattern matches its topic and
// returns how many listeners ran. Listeners of one subscription run in
// registration order. A listener removed while the dispatch is running is
// skipped if it has not run yet; failing or panicking listeners are logged
// and do not affect the others.
func (r *Registry) Dispatch(ctx context.Context, msg Message) int {
	r.mu.RLock()
	var targets []*Listener
	for _, sub := range r.subs {
		if sub.matcher.Match(msg.Topic) {
			targets = append(targets, sub.listeners...)
		}
	}
	r.mu.RUnlock()

	invoked := 0
	for _, l := range targets {
		if l.removed.Load() {
			continue
		}
		invoked++
		r.invoke(ctx, l, msg)
	}
	return invoked
}

// Post hands msg to every matching subscription without running its
// handlers on the calling goroutine. Each subscription drains its own
// mailbox: its listeners see messages in arrival order and run in
// registration order, and a listener that blocks only holds up its own
// subscription. Inline listeners run before Post returns. Post returns the
// number of listeners the message was handed to.
func (r *Registry) Post(ctx context.Context, msg Message) int {
	type target struct {
		sub       *subscription
		listeners []*Listener
	}

	r.mu.RLock()
	var targets []target
	for _, sub := range r.subs {
		if sub.matcher.Match(msg.Topic) {
			targets = append(targets, target{sub: sub, listeners: sub.listeners})
		}
	}
	r.mu.RUnlock()

	handed := 0
	for _, t := range targets {
		var queued []*Listener
		for _, l := range t.listeners {
			if l.removed.Load() {
				continue
			}
			handed++
			if l.inline {
				r.invoke(ctx, l, msg)
				continue
			}
			queued = append(queued, l)
		}
		if len(queued) > 0 {
			r.enqueue(t.sub, delivery{ctx: ctx, msg: msg, listeners: queued})
		}
	}
	return handed
}

func (r *Registry) enqueue(sub *subscription, d delivery) {
	box := &sub.box
	box.mu.Lock()
	defer box.mu.Unlock()

	box.pending = append(box.pending, d)
	if box.running {
		return
	}
	box.running = true
	go r.drain(box)
}

func (r *Registry) drain(box *mailbox) {
	for {
		box.mu.Lock()
		if len(box.pending) == 0 {
			box.running = false
			box.mu.Unlock()
			return
		}
		d := box.pending[0]
		box.pending[0] = delivery{}
		box.pending = box.pending[1:]
		box.mu.Unlock()

		for _, l := range d.listeners {
			if l.removed.Load() {
				continue
			}
			r.invoke(d.ctx, l, d.msg)
		}
	}
}

func (r *Registry) invoke(ctx context.Context, l *Listener, msg Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("listener panicked",
				"pattern", l.pattern,
				"topic", msg.Topic,
				"panic", rec)
		}
	}()

	if err := l.handler(ctx, msg); err != nil {
		r.logger.Warn("listener failed",
			"pattern", l.pattern,
			"topic", msg.Topic,
			"error", err)
	}
}

// Patterns returns the live subscription patterns, sorted.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := make([]string, 0, len(r.subs))
	for pattern := range r.subs {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	return patterns
}

// ForEachPattern calls fn for every live pattern while holding off concurrent
// registrations and removals.
func (r *Registry) ForEachPattern(fn func(pattern string)) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	for _, pattern := range r.Patterns() {
		fn(pattern)
	}
}

// ListenerCount returns the number of listeners registered on pattern.
func (r *Registry) ListenerCount(pattern string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sub, ok := r.subs[pattern]; ok {
		return len(sub.listeners)
	}
	return 0
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}
