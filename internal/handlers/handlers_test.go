package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hermes/internal/audio"
	"github.com/nfrund/hermes/internal/handlers"
	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
	"github.com/nfrund/hermes/internal/websocket"
)

type testEnv struct {
	e      *echo.Echo
	engine *pubsub.Engine
	client *hermes.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	engine := pubsub.NewEngine(pubsub.NewLoopback())
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(func() { engine.Close() })

	topics := topicmgr.NewManager()
	client, err := hermes.New(engine,
		hermes.WithTopicManager(topics),
		hermes.WithRequestTimeout(500*time.Millisecond),
	)
	require.NoError(t, err)

	wl, err := websocket.NewWhitelist("hermes/tts/#", "custom/#")
	require.NoError(t, err)

	bus := handlers.NewBusHandler(engine, topics, wl, func() int { return 3 })
	topicsHandler := handlers.NewTopicsHandler(topics)
	tts := handlers.NewTTSHandler(client, "default")
	audioHandler := handlers.NewAudioHandler(client, 0)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.GET("/health", bus.Health)
	e.POST("/api/publish/*", bus.Publish)
	e.GET("/api/topics", topicsHandler.List)
	e.GET("/api/topics/resolve", topicsHandler.Resolve)
	e.POST("/api/tts/say", tts.Say)
	e.POST("/api/audio/:siteId/play", audioHandler.Play)

	return &testEnv{e: e, engine: engine, client: client}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func capture(t *testing.T, engine *pubsub.Engine, pattern string) <-chan pubsub.Message {
	t.Helper()

	got := make(chan pubsub.Message, 4)
	_, err := engine.On(pattern, func(_ context.Context, msg pubsub.Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, err)
	return got
}

func receive(t *testing.T, ch <-chan pubsub.Message) pubsub.Message {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return pubsub.Message{}
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestBusHandler_Publish(t *testing.T) {
	env := newTestEnv(t)
	got := capture(t, env.engine, "custom/#")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/publish/custom/lights/on", strings.NewReader("raw bytes")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decode[handlers.PublishResponse](t, rec)
	assert.Equal(t, "custom/lights/on", resp.Topic)
	assert.Equal(t, len("raw bytes"), resp.Size)

	msg := receive(t, got)
	assert.Equal(t, "custom/lights/on", msg.Topic)
	assert.Equal(t, "raw bytes", string(msg.Payload))
}

func TestBusHandler_PublishRejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{name: "outside whitelist", target: "/api/publish/hermes/asr/toggleOn", body: "{}", status: http.StatusForbidden, code: "forbidden"},
		{name: "wildcard topic", target: "/api/publish/hermes/tts/+", body: "{}", status: http.StatusBadRequest, code: "invalid_topic"},
		{name: "json topic with invalid body", target: "/api/publish/hermes/tts/say", body: "not json", status: http.StatusBadRequest, code: "invalid_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[handlers.ErrorResponse](t, rec).Code)
		})
	}
}

func TestBusHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[handlers.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Connected)
	assert.Equal(t, 3, resp.Clients)
}

func TestTopicsHandler_List(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/topics?kind=audio", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	topics := decode[[]handlers.TopicResponse](t, rec)
	require.NotEmpty(t, topics)
	for _, topic := range topics {
		assert.Equal(t, "audio", topic.Kind, topic.Name)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/topics?component=tts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]handlers.TopicResponse](t, rec), 4)
}

func TestTopicsHandler_Resolve(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/topics/resolve?topic=hermes/hotword/alexa/detected", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[handlers.ResolveResponse](t, rec)
	assert.Equal(t, hermes.TopicHotwordDetected.Name(), resp.Match.Name)
	assert.Equal(t, "alexa", resp.Params["modelId"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/topics/resolve?topic=nothing/here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/topics/resolve", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTTSHandler_Say(t *testing.T) {
	env := newTestEnv(t)
	got := capture(t, env.engine, hermes.TopicTTSSay.Name())

	rec := env.do(jsonRequest(http.MethodPost, "/api/tts/say", `{"text":"Dinner is ready","lang":"en"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[handlers.RequestResponse](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.Finished)

	var say hermes.Say
	require.NoError(t, json.Unmarshal(receive(t, got).Payload, &say))
	assert.Equal(t, resp.ID, say.ID)
	assert.Equal(t, "default", say.SiteID)
	assert.Equal(t, "Dinner is ready", say.Text)
}

func TestTTSHandler_SayAndWait(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.TTS.OnSay(func(ctx context.Context, say hermes.Say) error {
		return env.client.TTS.SayFinished(ctx, hermes.SayFinished{ID: say.ID})
	})
	require.NoError(t, err)

	rec := env.do(jsonRequest(http.MethodPost, "/api/tts/say", `{"text":"hello","siteId":"kitchen","wait":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[handlers.RequestResponse](t, rec).Finished)
}

func TestTTSHandler_SayErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(http.MethodPost, "/api/tts/say", `{"siteId":"kitchen"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(jsonRequest(http.MethodPost, "/api/tts/say", `{"text":"hi","siteId":"a/b"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(jsonRequest(http.MethodPost, "/api/tts/say", `{"text":"anyone?","wait":true}`))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", decode[handlers.ErrorResponse](t, rec).Code)
}

func uploadRequest(t *testing.T, target string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "chime.wav")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestAudioHandler_Play(t *testing.T) {
	env := newTestEnv(t)
	got := capture(t, env.engine, "hermes/audioServer/kitchen/playBytes/+")

	wav, err := audio.Encode(make([]byte, 320), audio.DefaultOptions())
	require.NoError(t, err)

	rec := env.do(uploadRequest(t, "/api/audio/kitchen/play", wav))
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[handlers.RequestResponse](t, rec).ID

	msg := receive(t, got)
	assert.Equal(t, "hermes/audioServer/kitchen/playBytes/"+id, msg.Topic)
	assert.Equal(t, wav, msg.Payload)
}

func TestAudioHandler_PlayErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/api/audio/kitchen/play", []byte("definitely not a wav file")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/audio/kitchen/play", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(uploadRequest(t, "/api/audio/kitchen/play?wait=maybe", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
