package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/topicmgr"
)

// TopicsHandler serves the topic catalog.
type TopicsHandler struct {
	topics *topicmgr.Manager
}

func NewTopicsHandler(topics *topicmgr.Manager) *TopicsHandler {
	return &TopicsHandler{topics: topics}
}

// List handles GET /api/topics with optional component, kind and filter
// query parameters.
func (h *TopicsHandler) List(c echo.Context) error {
	var list []topicmgr.Topic
	switch {
	case c.QueryParam("filter") != "":
		found, err := h.topics.FindTopics(c.QueryParam("filter"))
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_filter", err.Error())
		}
		list = found
	case c.QueryParam("component") != "":
		list = h.topics.ListByComponent(c.QueryParam("component"))
	default:
		list = h.topics.List()
	}

	kind := topicmgr.PayloadKind(c.QueryParam("kind"))
	out := make([]TopicResponse, 0, len(list))
	for _, t := range list {
		if kind != "" && t.Kind() != kind {
			continue
		}
		out = append(out, NewTopicResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Resolve handles GET /api/topics/resolve?topic=...
func (h *TopicsHandler) Resolve(c echo.Context) error {
	topic := c.QueryParam("topic")
	if topic == "" {
		return errorJSON(c, http.StatusBadRequest, "missing_topic", "topic query parameter is required")
	}
	t, params, ok := h.topics.Resolve(topic)
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found", "no catalog topic matches "+topic)
	}
	return c.JSON(http.StatusOK, ResolveResponse{
		Topic:  topic,
		Match:  NewTopicResponse(t),
		Params: params,
	})
}
