package hermes

import (
	"context"

	"github.com/nfrund/hermes/internal/pubsub"
)

// ASR drives the speech recognizer.
type ASR struct {
	c *Client
}

func (a *ASR) Load(ctx context.Context) error {
	return publishJSON(ctx, a.c, TopicASRLoad, nil, Empty{})
}

func (a *ASR) OnLoad(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRLoad, nil, handler)
}

func (a *ASR) ToggleOn(ctx context.Context) error {
	return publishJSON(ctx, a.c, TopicASRToggleOn, nil, Empty{})
}

func (a *ASR) OnToggleOn(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRToggleOn, nil, handler)
}

func (a *ASR) ToggleOff(ctx context.Context) error {
	return publishJSON(ctx, a.c, TopicASRToggleOff, nil, Empty{})
}

func (a *ASR) OnToggleOff(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRToggleOff, nil, handler)
}

func (a *ASR) StartListening(ctx context.Context, target SessionTarget) error {
	a.c.logger.Debug("start listening", "site_id", target.SiteID, "session_id", target.SessionID)
	return publishJSON(ctx, a.c, TopicASRStartListening, nil, target)
}

func (a *ASR) OnStartListening(handler Handler[SessionTarget]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRStartListening, nil, handler)
}

func (a *ASR) StopListening(ctx context.Context, target SessionTarget) error {
	a.c.logger.Debug("stop listening", "site_id", target.SiteID, "session_id", target.SessionID)
	return publishJSON(ctx, a.c, TopicASRStopListening, nil, target)
}

func (a *ASR) OnStopListening(handler Handler[SessionTarget]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRStopListening, nil, handler)
}

func (a *ASR) TextCaptured(ctx context.Context, msg TextCaptured) error {
	return publishJSON(ctx, a.c, TopicASRTextCaptured, nil, msg)
}

func (a *ASR) OnTextCaptured(handler Handler[TextCaptured]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRTextCaptured, nil, handler)
}

func (a *ASR) Error(ctx context.Context, msg ComponentError) error {
	a.c.logger.Error("asr error", "error", msg.Error, "context", msg.Context)
	return publishJSON(ctx, a.c, TopicASRError, nil, msg)
}

func (a *ASR) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicASRError, nil, handler)
}
