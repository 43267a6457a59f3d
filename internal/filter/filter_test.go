package filter

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

func msg(topic, payload string) pubsub.Message {
	return pubsub.Message{Topic: topic, Payload: []byte(payload)}
}

func TestFilter_Match(t *testing.T) {
	ctx := context.Background()
	say := msg("hermes/tts/say", `{"id":"1","siteId":"kitchen","text":"hello there"}`)

	tests := []struct {
		name string
		expr string
		msg  pubsub.Message
		want bool
	}{
		{name: "payload field", expr: `payload.siteId == "kitchen"`, msg: say, want: true},
		{name: "payload field mismatch", expr: `payload.siteId == "bedroom"`, msg: say, want: false},
		{name: "missing field", expr: `payload.sessionId == "s1"`, msg: say, want: false},
		{name: "topic", expr: `topic == "hermes/tts/say"`, msg: say, want: true},
		{name: "size", expr: `size > 10`, msg: say, want: true},
		{name: "stdlib", expr: `import("text").contains(payload.text, "hello")`, msg: say, want: true},
		{name: "binary payload", expr: `is_undefined(payload) && size == 4`, msg: msg("hermes/audioServer/default/audioFrame", "RIFF"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)

			got, err := f.Match(ctx, tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Params(t *testing.T) {
	m := topicmgr.NewManager()
	require.NoError(t, m.Register(topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/{modelId}/detected",
		Component:   "hotword",
		Kind:        topicmgr.KindJSON,
		Description: "A wake word was detected",
	})))

	f, err := Compile(`params.modelId == "jarvis"`, WithTopics(m))
	require.NoError(t, err)

	ok, err := f.Match(context.Background(), msg("hermes/hotword/jarvis/detected", `{}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(context.Background(), msg("hermes/hotword/alexa/detected", `{}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_Errors(t *testing.T) {
	_, err := Compile(`payload.siteId ==`)
	assert.Error(t, err)

	f, err := Compile(`size + 1`)
	require.NoError(t, err)
	_, err = f.Match(context.Background(), msg("a", "{}"))
	assert.ErrorIs(t, err, ErrNotBool)
}

func TestFilter_Predicate(t *testing.T) {
	f, err := Compile(`payload.id == "42"`)
	require.NoError(t, err)

	pred := f.Predicate()
	assert.True(t, pred(msg("hermes/tts/sayFinished", `{"id":"42"}`)))
	assert.False(t, pred(msg("hermes/tts/sayFinished", `{"id":"7"}`)))
	assert.Equal(t, `payload.id == "42"`, f.String())
}

func TestFilter_PredicateLogsEvaluationErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	f, err := Compile(`size + 1`, WithLogger(logger))
	require.NoError(t, err)

	assert.False(t, f.Predicate()(msg("hermes/tts/say", "{}")))
	assert.Contains(t, buf.String(), "filter evaluation failed")
	assert.Contains(t, buf.String(), "topic=hermes/tts/say")
}

func TestFilter_Concurrent(t *testing.T) {
	f, err := Compile(`int(payload.n) % 2 == 0`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := `{"n":` + string(rune('0'+n%10)) + `}`
			ok, err := f.Match(context.Background(), msg("t", payload))
			assert.NoError(t, err)
			assert.Equal(t, n%2 == 0, ok)
		}(i)
	}
	wg.Wait()
}
