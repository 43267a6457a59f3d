// Package websocket bridges WebSocket clients onto the message bus. Each
// client subscribes to one or more topic patterns and may publish frames on
// whitelisted topics.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/middleware"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
)

// ErrTopicNotAllowed is reported to clients publishing outside the whitelist.
var ErrTopicNotAllowed = errors.New("topic not allowed")

// Client is a single connected WebSocket client.
type Client struct {
	ID       string
	Patterns []string

	conn      *websocket.Conn
	send      chan []byte
	listeners []*pubsub.Listener
	logger    *slog.Logger
}

// Bridge routes bus messages to subscribed WebSocket clients and forwards
// client frames onto the bus.
type Bridge struct {
	engine    *pubsub.Engine
	whitelist *Whitelist
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewBridge creates a bridge publishing through engine. A nil whitelist
// makes every client read-only.
func NewBridge(engine *pubsub.Engine, whitelist *Whitelist, logger *slog.Logger) *Bridge {
	if whitelist == nil {
		whitelist, _ = NewWhitelist()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		engine:    engine,
		whitelist: whitelist,
		logger:    logger,
		clients:   make(map[string]*Client),
	}
}

// ClientCount returns the number of connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Handler upgrades the request to a WebSocket. Patterns come from repeated
// "pattern" query parameters and default to "#".
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := middleware.FromContext(c.Request().Context())

		patterns := c.QueryParams()["pattern"]
		if len(patterns) == 0 {
			patterns = []string{topicmgr.MultiWildcard}
		}
		for _, p := range patterns {
			if err := topicmgr.ValidatePattern(p); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			// Accept has already written the error response.
			logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		client := &Client{
			ID:       uuid.NewString(),
			Patterns: patterns,
			conn:     conn,
			send:     make(chan []byte, sendBuffer),
		}
		client.logger = b.logger.With("client_id", client.ID, "remote", c.RealIP())
		if err := b.register(client); err != nil {
			conn.Close(websocket.StatusInternalError, "subscribe failed")
			return nil
		}
		defer b.unregister(client)

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()

		go client.writePump(ctx)
		b.readPump(ctx, client)
		return nil
	}
}

func (b *Bridge) register(client *Client) error {
	for _, pattern := range client.Patterns {
		l, err := b.engine.On(pattern, func(_ context.Context, msg pubsub.Message) error {
			client.enqueue(NewFrame(msg))
			return nil
		})
		if err != nil {
			for _, prev := range client.listeners {
				prev.Remove()
			}
			client.logger.Error("Bridge subscribe failed", "pattern", pattern, "error", err)
			return err
		}
		client.listeners = append(client.listeners, l)
	}

	b.mu.Lock()
	b.clients[client.ID] = client
	b.mu.Unlock()
	client.logger.Info("Client registered", "patterns", client.Patterns)
	return nil
}

func (b *Bridge) unregister(client *Client) {
	for _, l := range client.listeners {
		l.Remove()
	}

	b.mu.Lock()
	delete(b.clients, client.ID)
	b.mu.Unlock()
	client.logger.Info("Client unregistered")
}

// readPump publishes client frames until the connection closes.
func (b *Bridge) readPump(ctx context.Context, client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				client.logger.Debug("WebSocket read ended", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.enqueue(errorFrame("", fmt.Errorf("invalid frame: %w", err)))
			continue
		}
		if !b.whitelist.IsAllowed(frame.Topic) {
			client.enqueue(errorFrame(frame.Topic, ErrTopicNotAllowed))
			continue
		}
		if err := b.engine.Publish(ctx, frame.Topic, frame.Bytes()); err != nil {
			client.logger.Error("Bridge failed to publish client frame", "topic", frame.Topic, "error", err)
			client.enqueue(errorFrame(frame.Topic, err))
		}
	}
}

func (c *Client) enqueue(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("Failed to encode frame", "topic", frame.Topic, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Client send channel full, dropping message", "topic", frame.Topic)
	}
}

// writePump drains the send channel onto the connection until ctx ends.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Debug("WebSocket write error", "error", err)
				return
			}
		}
	}
}
