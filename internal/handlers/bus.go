package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/middleware"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
	"github.com/nfrund/hermes/internal/websocket"
)

// DefaultMaxPayload bounds request bodies forwarded onto the bus.
const DefaultMaxPayload = 4 << 20

// BusHandler publishes raw payloads and reports bus health.
type BusHandler struct {
	engine     *pubsub.Engine
	topics     *topicmgr.Manager
	whitelist  *websocket.Whitelist
	clients    func() int
	maxPayload int64
}

// NewBusHandler creates a BusHandler. clients reports the number of
// WebSocket clients and may be nil.
func NewBusHandler(engine *pubsub.Engine, topics *topicmgr.Manager, whitelist *websocket.Whitelist, clients func() int) *BusHandler {
	if clients == nil {
		clients = func() int { return 0 }
	}
	return &BusHandler{
		engine:     engine,
		topics:     topics,
		whitelist:  whitelist,
		clients:    clients,
		maxPayload: DefaultMaxPayload,
	}
}

// Publish handles POST /api/publish/<topic>. The body is the payload.
func (h *BusHandler) Publish(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	topic := c.Param("*")
	if topic == "" || strings.ContainsAny(topic, topicmgr.SingleWildcard+topicmgr.MultiWildcard) {
		return errorJSON(c, http.StatusBadRequest, "invalid_topic", "a concrete topic is required")
	}
	if !h.whitelist.IsAllowed(topic) {
		return errorJSON(c, http.StatusForbidden, "forbidden", "topic not allowed")
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxPayload+1))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body", err.Error())
	}
	if int64(len(payload)) > h.maxPayload {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "too_large", "payload exceeds limit")
	}

	if t, _, ok := h.topics.Resolve(topic); ok && t.Kind() == topicmgr.KindJSON && !json.Valid(payload) {
		return errorJSON(c, http.StatusBadRequest, "invalid_json", t.Name()+" expects a JSON payload")
	}

	if err := h.engine.Publish(ctx, topic, payload); err != nil {
		logger.Error("Failed to publish", "topic", topic, slog.String("error", err.Error()))
		return busError(c, err)
	}
	return c.JSON(http.StatusAccepted, PublishResponse{Topic: topic, Size: len(payload)})
}

// Health handles GET /health.
func (h *BusHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:    "ok",
		Connected: h.engine.Connected(),
		Queued:    h.engine.Queued(),
		Patterns:  len(h.engine.Patterns()),
		Clients:   h.clients(),
	}
	status := http.StatusOK
	if !resp.Connected {
		resp.Status = "disconnected"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
