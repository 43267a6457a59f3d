package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Wait errors.
var (
	ErrWaitTimeout   = errors.New("wait timed out")
	ErrWaitFailed    = errors.New("wait failed")
	ErrWaitCancelled = errors.New("wait cancelled")
)

// TimeoutError is returned when no matching message arrived in time.
type TimeoutError struct {
	Topics  []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, strings.Join(e.Topics, " or "))
}

// Is lets errors.Is(err, ErrWaitTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}

// FailureError is returned when the failure side of an either-wait matched.
// Reason carries the "error" field of the failure payload when present.
type FailureError struct {
	Topic   string
	Reason  string
	Message Message
}

func (e *FailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("failure reported on %s", e.Topic)
	}
	return fmt.Sprintf("failure reported on %s: %s", e.Topic, e.Reason)
}

// Is lets errors.Is(err, ErrWaitFailed) match.
func (e *FailureError) Is(target error) bool {
	return target == ErrWaitFailed
}

// Predicate filters messages for a wait. A nil Predicate accepts every message.
type Predicate func(msg Message) bool

// Wait is a pending one-shot match on one or two topics. It settles exactly
// once: on the first accepted message, on timeout, or on cancellation. Its
// listeners and timer are released when it settles.
type Wait struct {
	once sync.Once
	done chan struct{}

	mu        sync.Mutex
	settled   bool
	topics    []string
	listeners []*Listener
	timer     *time.Timer
	matched   int

	msg Message
	err error
}

func newWait(topics ...string) *Wait {
	return &Wait{
		done:    make(chan struct{}),
		topics:  topics,
		matched: -1,
	}
}

// track attaches a listener; if the wait already settled it is removed at once.
func (w *Wait) track(l *Listener) {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		l.Remove()
		return
	}
	w.listeners = append(w.listeners, l)
	w.mu.Unlock()
}

func (w *Wait) arm(timeout time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.settled {
		return
	}
	w.timer = time.AfterFunc(timeout, func() {
		w.settle(-1, Message{}, &TimeoutError{Topics: w.topics, Timeout: timeout})
	})
}

func (w *Wait) settle(matched int, msg Message, err error) {
	w.once.Do(func() {
		w.mu.Lock()
		w.settled = true
		w.matched = matched
		w.msg = msg
		w.err = err
		timer, listeners := w.timer, w.listeners
		w.mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		for _, l := range listeners {
			l.Remove()
		}
		close(w.done)
	})
}

// Done is closed once the wait has settled.
func (w *Wait) Done() <-chan struct{} {
	return w.done
}

// Result blocks until the wait settles or ctx ends. Ending ctx cancels the
// wait and returns ctx.Err().
func (w *Wait) Result(ctx context.Context) (Message, error) {
	select {
	case <-w.done:
	case <-ctx.Done():
		w.settle(-1, Message{}, ctx.Err())
		<-w.done
	}
	return w.msg, w.err
}

// Cancel abandons the wait, releasing its listeners. A settled wait is unaffected.
func (w *Wait) Cancel() {
	w.settle(-1, Message{}, ErrWaitCancelled)
}

// Listener returns the listener whose message settled the wait, or nil if it
// settled on timeout, cancellation or before its listener was tracked.
func (w *Wait) Listener() *Listener {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.matched < 0 || w.matched >= len(w.listeners) {
		return nil
	}
	return w.listeners[w.matched]
}

// Expect starts waiting for the first message on pattern accepted by match.
// A non-positive timeout uses the engine default.
func (e *Engine) Expect(pattern string, match Predicate, timeout time.Duration) (*Wait, error) {
	if timeout <= 0 {
		timeout = e.waitTimeout
	}

	w := newWait(pattern)
	l, err := e.watch(pattern, func(_ context.Context, msg Message) error {
		if match == nil || match(msg) {
			w.settle(0, msg, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.track(l)
	w.arm(timeout)
	return w, nil
}

// WaitFor blocks until a message on pattern is accepted by match, the timeout
// expires or ctx ends.
func (e *Engine) WaitFor(ctx context.Context, pattern string, match Predicate, timeout time.Duration) (Message, error) {
	w, err := e.Expect(pattern, match, timeout)
	if err != nil {
		return Message{}, err
	}
	return w.Result(ctx)
}

// ExpectEither starts waiting on a success and a failure pattern. A failure
// message settles the wait with a *FailureError.
func (e *Engine) ExpectEither(successPattern string, success Predicate, failurePattern string, failure Predicate, timeout time.Duration) (*Wait, error) {
	if timeout <= 0 {
		timeout = e.waitTimeout
	}

	w := newWait(successPattern, failurePattern)
	ok, err := e.watch(successPattern, func(_ context.Context, msg Message) error {
		if success == nil || success(msg) {
			w.settle(0, msg, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.track(ok)

	fail, err := e.watch(failurePattern, func(_ context.Context, msg Message) error {
		if failure == nil || failure(msg) {
			w.settle(1, msg, &FailureError{
				Topic:   msg.Topic,
				Reason:  failureReason(msg.Payload),
				Message: msg,
			})
		}
		return nil
	})
	if err != nil {
		w.Cancel()
		return nil, err
	}
	w.track(fail)
	w.arm(timeout)
	return w, nil
}

// WaitForEither blocks until either pattern matches. The success message is
// returned with a nil error; a failure message yields a *FailureError.
func (e *Engine) WaitForEither(ctx context.Context, successPattern string, success Predicate, failurePattern string, failure Predicate, timeout time.Duration) (Message, error) {
	w, err := e.ExpectEither(successPattern, success, failurePattern, failure, timeout)
	if err != nil {
		return Message{}, err
	}
	return w.Result(ctx)
}

func failureReason(payload []byte) string {
	if !gjson.ValidBytes(payload) {
		return ""
	}
	return gjson.GetBytes(payload, "error").String()
}

// FieldEquals returns a Predicate accepting JSON payloads whose field at path
// (gjson syntax) equals value.
func FieldEquals(path, value string) Predicate {
	return func(msg Message) bool {
		res := gjson.GetBytes(msg.Payload, path)
		return res.Exists() && res.String() == value
	}
}
