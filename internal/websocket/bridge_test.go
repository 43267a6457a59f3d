package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hermes/internal/pubsub"
	ws "github.com/nfrund/hermes/internal/websocket"
)

func setupBridge(t *testing.T, allowed ...string) (*pubsub.Engine, *ws.Bridge, string) {
	t.Helper()

	engine := pubsub.NewEngine(pubsub.NewLoopback())
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(func() { engine.Close() })

	wl, err := ws.NewWhitelist(allowed...)
	require.NoError(t, err)
	bridge := ws.NewBridge(engine, wl, nil)

	e := echo.New()
	e.GET("/ws", bridge.Handler())
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return engine, bridge, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, bridge *ws.Bridge, url string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	before := bridge.ClientCount()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	require.Eventually(t, func() bool {
		return bridge.ClientCount() > before
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ws.Frame {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var frame ws.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame ws.Frame) {
	t.Helper()

	data, err := json.Marshal(frame)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestBridge_DeliversSubscribedTopics(t *testing.T) {
	engine, bridge, url := setupBridge(t)
	conn := dial(t, bridge, url+"?pattern=hermes/tts/%23")

	require.NoError(t, engine.Publish(context.Background(), "hermes/asr/toggleOn", []byte(`{}`)))
	require.NoError(t, engine.Publish(context.Background(), "hermes/tts/say", []byte(`{"text":"hi"}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "hermes/tts/say", frame.Topic)
	assert.JSONEq(t, `{"text":"hi"}`, string(frame.Payload))
	assert.Empty(t, frame.Data)
}

func TestBridge_BinaryPayloadIsBase64(t *testing.T) {
	engine, bridge, url := setupBridge(t)
	conn := dial(t, bridge, url)

	audio := []byte{'R', 'I', 'F', 'F', 0x00, 0xff}
	require.NoError(t, engine.Publish(context.Background(), "hermes/audioServer/default/audioFrame", audio))

	frame := readFrame(t, conn)
	assert.Equal(t, "hermes/audioServer/default/audioFrame", frame.Topic)
	assert.Empty(t, frame.Payload)
	assert.Equal(t, audio, frame.Data)
}

func TestBridge_PublishesWhitelistedFrames(t *testing.T) {
	engine, bridge, url := setupBridge(t, "hermes/tts/say")

	got := make(chan pubsub.Message, 1)
	_, err := engine.On("hermes/tts/say", func(_ context.Context, msg pubsub.Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, err)

	conn := dial(t, bridge, url+"?pattern=hermes/none")
	writeFrame(t, conn, ws.Frame{Topic: "hermes/tts/say", Payload: json.RawMessage(`{"text":"from ws"}`)})

	select {
	case msg := <-got:
		assert.JSONEq(t, `{"text":"from ws"}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not published")
	}
}

func TestBridge_RejectsTopicsOutsideWhitelist(t *testing.T) {
	_, bridge, url := setupBridge(t, "hermes/tts/say")
	conn := dial(t, bridge, url+"?pattern=hermes/none")

	writeFrame(t, conn, ws.Frame{Topic: "hermes/asr/toggleOff", Payload: json.RawMessage(`{}`)})

	frame := readFrame(t, conn)
	assert.Equal(t, "hermes/asr/toggleOff", frame.Topic)
	assert.Equal(t, ws.ErrTopicNotAllowed.Error(), frame.Error)
}

func TestBridge_InvalidPattern(t *testing.T) {
	_, _, url := setupBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url+"?pattern=a/%23/b", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridge_UnregistersOnClose(t *testing.T) {
	engine, bridge, url := setupBridge(t)
	conn := dial(t, bridge, url+"?pattern=hermes/tts/say")
	assert.Contains(t, engine.Patterns(), "hermes/tts/say")

	conn.Close(websocket.StatusNormalClosure, "bye")

	assert.Eventually(t, func() bool {
		return bridge.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, engine.Patterns(), "hermes/tts/say")
}
