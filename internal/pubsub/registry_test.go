package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) PatternAdded(pattern string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "+"+pattern)
}

func (o *recordingObserver) PatternRemoved(pattern string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "-"+pattern)
}

func noopHandler(context.Context, Message) error { return nil }

func TestRegistry_DispatchMatchesPatterns(t *testing.T) {
	r := NewRegistry(nil, nil)

	var got []string
	record := func(name string) Handler {
		return func(_ context.Context, msg Message) error {
			got = append(got, name+"@"+msg.Topic)
			return nil
		}
	}

	_, err := r.Add("hermes/+/say", record("single"))
	require.NoError(t, err)
	_, err = r.Add("hermes/#", record("multi"))
	require.NoError(t, err)
	_, err = r.Add("hermes/asr/textCaptured", record("exact"))
	require.NoError(t, err)

	n := r.Dispatch(context.Background(), Message{Topic: "hermes/tts/say"})
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"single@hermes/tts/say", "multi@hermes/tts/say"}, got)

	got = nil
	n = r.Dispatch(context.Background(), Message{Topic: "other/topic"})
	assert.Equal(t, 0, n)
	assert.Empty(t, got)
}

func TestRegistry_ListenersRunInRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil, nil)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		_, err := r.Add("a/b", func(context.Context, Message) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}

	r.Dispatch(context.Background(), Message{Topic: "a/b"})
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 3, r.ListenerCount("a/b"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ObserverSeesFirstAddAndLastRemove(t *testing.T) {
	obs := &recordingObserver{}
	r := NewRegistry(obs, nil)

	first, err := r.Add("a/+", noopHandler)
	require.NoError(t, err)
	second, err := r.Add("a/+", noopHandler)
	require.NoError(t, err)

	first.Remove()
	assert.Equal(t, []string{"+a/+"}, obs.events)
	assert.Equal(t, []string{"a/+"}, r.Patterns())

	second.Remove()
	second.Remove()
	assert.Equal(t, []string{"+a/+", "-a/+"}, obs.events)
	assert.Empty(t, r.Patterns())
	assert.False(t, second.Active())
}

func TestRegistry_RemovedListenerIsSkippedMidDispatch(t *testing.T) {
	r := NewRegistry(nil, nil)

	var secondCalled bool
	var second *Listener

	_, err := r.Add("t", func(context.Context, Message) error {
		second.Remove()
		return nil
	})
	require.NoError(t, err)
	second, err = r.Add("t", func(context.Context, Message) error {
		secondCalled = true
		return nil
	})
	require.NoError(t, err)

	n := r.Dispatch(context.Background(), Message{Topic: "t"})
	assert.Equal(t, 1, n)
	assert.False(t, secondCalled)
}

func TestRegistry_IsolatesFailingListeners(t *testing.T) {
	r := NewRegistry(nil, nil)

	var lastCalled bool
	_, err := r.Add("t", func(context.Context, Message) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	_, err = r.Add("t", func(context.Context, Message) error {
		panic("listener bug")
	})
	require.NoError(t, err)
	_, err = r.Add("t", func(context.Context, Message) error {
		lastCalled = true
		return nil
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, 3, r.Dispatch(context.Background(), Message{Topic: "t"}))
	})
	assert.True(t, lastCalled)
}

func TestRegistry_RejectsBadInput(t *testing.T) {
	obs := &recordingObserver{}
	r := NewRegistry(obs, nil)

	_, err := r.Add("a/#/b", noopHandler)
	assert.Error(t, err)

	_, err = r.Add("a/b", nil)
	assert.Error(t, err)

	assert.Zero(t, r.Len())
	assert.Empty(t, obs.events)
}

func TestRegistry_PostRunsInlineListenersBeforeReturning(t *testing.T) {
	r := NewRegistry(nil, nil)

	release := make(chan struct{})
	queued := make(chan string, 2)
	_, err := r.Add("a/+", func(_ context.Context, msg Message) error {
		<-release
		queued <- msg.Topic
		return nil
	})
	require.NoError(t, err)

	var inline []string
	_, err = r.addInline("a/+", func(_ context.Context, msg Message) error {
		inline = append(inline, msg.Topic)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, r.Post(context.Background(), Message{Topic: "a/1"}))
	assert.Equal(t, 2, r.Post(context.Background(), Message{Topic: "a/2"}))
	assert.Equal(t, []string{"a/1", "a/2"}, inline)

	close(release)
	for _, want := range []string{"a/1", "a/2"} {
		select {
		case got := <-queued:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("queued listener did not run")
		}
	}
}

func TestRegistry_PostSkipsListenersRemovedBeforeDelivery(t *testing.T) {
	r := NewRegistry(nil, nil)

	release := make(chan struct{})
	_, err := r.Add("t", func(context.Context, Message) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	called := make(chan struct{}, 1)
	second, err := r.Add("t", func(context.Context, Message) error {
		called <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	r.Post(context.Background(), Message{Topic: "t"})
	second.Remove()
	close(release)

	select {
	case <-called:
		t.Fatal("removed listener ran")
	case <-time.After(50 * time.Millisecond):
	}
}
