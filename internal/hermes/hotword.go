package hermes

import (
	"context"
	"errors"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// Hotword controls wake word detection.
type Hotword struct {
	c *Client
}

func (h *Hotword) Load(ctx context.Context, siteID string) error {
	return publishJSON(ctx, h.c, TopicHotwordLoad, nil, SiteMessage{SiteID: siteID})
}

func (h *Hotword) OnLoad(handler Handler[SiteMessage]) (*pubsub.Listener, error) {
	return onJSON(h.c, TopicHotwordLoad, nil, handler)
}

func (h *Hotword) ToggleOn(ctx context.Context, target SessionTarget) error {
	return publishJSON(ctx, h.c, TopicHotwordToggleOn, nil, target)
}

func (h *Hotword) OnToggleOn(handler Handler[SessionTarget]) (*pubsub.Listener, error) {
	return onJSON(h.c, TopicHotwordToggleOn, nil, handler)
}

func (h *Hotword) ToggleOff(ctx context.Context, target SessionTarget) error {
	return publishJSON(ctx, h.c, TopicHotwordToggleOff, nil, target)
}

func (h *Hotword) OnToggleOff(handler Handler[SessionTarget]) (*pubsub.Listener, error) {
	return onJSON(h.c, TopicHotwordToggleOff, nil, handler)
}

func (h *Hotword) Detected(ctx context.Context, msg HotwordDetected) error {
	if msg.ModelID == "" {
		return errors.New("hotword model id is required")
	}
	h.c.logger.Debug("hotword detected", "model_id", msg.ModelID, "site_id", msg.SiteID)
	return publishJSON(ctx, h.c, TopicHotwordDetected, topicmgr.Params{"modelId": msg.ModelID}, msg)
}

// OnDetected subscribes to detections of modelID, or of every model when it is empty.
func (h *Hotword) OnDetected(modelID string, handler Handler[HotwordDetected]) (*pubsub.Listener, error) {
	var params topicmgr.Params
	if modelID != "" {
		params = topicmgr.Params{"modelId": modelID}
	}
	return onJSON(h.c, TopicHotwordDetected, params, handler)
}

func (h *Hotword) Error(ctx context.Context, msg ComponentError) error {
	h.c.logger.Error("hotword error", "site_id", msg.SiteID, "error", msg.Error)
	return publishJSON(ctx, h.c, TopicHotwordError, nil, msg)
}

func (h *Hotword) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(h.c, TopicHotwordError, nil, handler)
}
