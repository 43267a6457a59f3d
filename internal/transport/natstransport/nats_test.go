package natstransport

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hermes/internal/pubsub"
)

func TestTopicToSubject(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{name: "simple", topic: "hermes/tts/say", want: "hermes.tts.say"},
		{name: "single segment", topic: "hermes", want: "hermes"},
		{name: "empty", topic: "", wantErr: true},
		{name: "single wildcard", topic: "hermes/+/say", wantErr: true},
		{name: "multi wildcard", topic: "hermes/#", wantErr: true},
		{name: "dot is reserved", topic: "hermes/v1.2/say", wantErr: true},
		{name: "nats wildcard", topic: "hermes/*/say", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TopicToSubject(tt.topic)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubjectToTopic(t *testing.T) {
	assert.Equal(t, "hermes/audioServer/default/audioFrame", SubjectToTopic("hermes.audioServer.default.audioFrame"))
	assert.Equal(t, "hermes", SubjectToTopic("hermes"))
}

func TestPatternToSubjects(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string
		wantErr bool
	}{
		{name: "exact", pattern: "hermes/tts/say", want: []string{"hermes.tts.say"}},
		{name: "single wildcard", pattern: "hermes/intent/+", want: []string{"hermes.intent.*"}},
		{name: "multi wildcard includes parent", pattern: "hermes/intent/#", want: []string{"hermes.intent.>", "hermes.intent"}},
		{name: "mixed", pattern: "hermes/+/#", want: []string{"hermes.*.>", "hermes.*"}},
		{name: "bare multi wildcard", pattern: "#", want: []string{">"}},
		{name: "multi wildcard not last", pattern: "hermes/#/say", wantErr: true},
		{name: "empty", pattern: "", wantErr: true},
		{name: "dot is reserved", pattern: "hermes/a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PatternToSubjects(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransport_Disconnected(t *testing.T) {
	tr := New(Options{})
	t.Cleanup(func() { _ = tr.Close() })

	assert.False(t, tr.IsConnected())
	assert.ErrorIs(t, tr.Publish(context.Background(), "hermes/tts/say", []byte("{}")), pubsub.ErrNotConnected)
	assert.ErrorIs(t, tr.Subscribe(context.Background(), "hermes/tts/say"), pubsub.ErrNotConnected)
	assert.NoError(t, tr.Unsubscribe(context.Background(), "hermes/tts/say"))
}

func TestTransport_ConnectFailure(t *testing.T) {
	tr := New(Options{URL: "nats://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = tr.Close() })

	err := tr.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to NATS")
	assert.False(t, tr.IsConnected())
}

func TestTransport_CloseIsIdempotent(t *testing.T) {
	tr := New(Options{})
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}.applyDefaults()
	assert.Equal(t, "nats://127.0.0.1:4222", opts.URL)
	assert.Equal(t, "hermes", opts.Name)
	assert.Equal(t, 5*time.Second, opts.ConnectTimeout)
	assert.Equal(t, 2*time.Second, opts.ReconnectWait)
	assert.Equal(t, 256, opts.EventBuffer)
	assert.NotNil(t, opts.Logger)
}

func TestTransport_RemovedPatternIsForgottenWhileDisconnected(t *testing.T) {
	tr := New(Options{})
	t.Cleanup(func() { _ = tr.Close() })

	// A subscription left over from an earlier connection.
	tr.mu.Lock()
	tr.subs["hermes/tts/say"] = []*nats.Subscription{{Subject: "hermes.tts.say"}}
	tr.mu.Unlock()

	engine := pubsub.NewEngine(tr)
	l, err := engine.On("hermes/tts/say", func(context.Context, pubsub.Message) error { return nil })
	require.NoError(t, err)
	l.Remove()

	tr.mu.Lock()
	_, stale := tr.subs["hermes/tts/say"]
	tr.mu.Unlock()
	assert.False(t, stale)
}
