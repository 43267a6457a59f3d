package hermes

import (
	"context"
	"errors"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// Dialogue publishes and subscribes to dialogue manager messages.
type Dialogue struct {
	c *Client
}

func (d *Dialogue) Load(ctx context.Context) error {
	return publishJSON(ctx, d.c, TopicDialogueLoad, nil, Empty{})
}

func (d *Dialogue) OnLoad(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueLoad, nil, handler)
}

func (d *Dialogue) StartSession(ctx context.Context, msg StartSession) error {
	d.c.logger.Debug("starting session", "site_id", msg.SiteID, "type", msg.Init.Type)
	return publishJSON(ctx, d.c, TopicDialogueStartSession, nil, msg)
}

// StartActionSession starts a session that expects a user answer.
func (d *Dialogue) StartActionSession(ctx context.Context, siteID string, init SessionInit, customData string) error {
	init.Type = InitAction
	return d.StartSession(ctx, StartSession{SiteID: siteID, Init: init, CustomData: customData})
}

// StartNotificationSession starts a session that only speaks text.
func (d *Dialogue) StartNotificationSession(ctx context.Context, siteID, text, customData string) error {
	return d.StartSession(ctx, StartSession{
		SiteID:     siteID,
		Init:       SessionInit{Type: InitNotification, Text: text},
		CustomData: customData,
	})
}

func (d *Dialogue) OnStartSession(handler Handler[StartSession]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueStartSession, nil, handler)
}

func (d *Dialogue) SessionStarted(ctx context.Context, msg SessionEvent) error {
	return publishJSON(ctx, d.c, TopicDialogueSessionStarted, nil, msg)
}

func (d *Dialogue) OnSessionStarted(handler Handler[SessionEvent]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueSessionStarted, nil, handler)
}

func (d *Dialogue) ContinueSession(ctx context.Context, msg ContinueSession) error {
	d.c.logger.Debug("continuing session", "site_id", msg.SiteID, "session_id", msg.SessionID)
	return publishJSON(ctx, d.c, TopicDialogueContinueSession, nil, msg)
}

func (d *Dialogue) OnContinueSession(handler Handler[ContinueSession]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueContinueSession, nil, handler)
}

func (d *Dialogue) SessionContinued(ctx context.Context, msg SessionEvent) error {
	return publishJSON(ctx, d.c, TopicDialogueSessionContinued, nil, msg)
}

func (d *Dialogue) OnSessionContinued(handler Handler[SessionEvent]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueSessionContinued, nil, handler)
}

func (d *Dialogue) EndSession(ctx context.Context, msg EndSession) error {
	d.c.logger.Debug("ending session", "site_id", msg.SiteID, "session_id", msg.SessionID)
	return publishJSON(ctx, d.c, TopicDialogueEndSession, nil, msg)
}

func (d *Dialogue) OnEndSession(handler Handler[EndSession]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueEndSession, nil, handler)
}

func (d *Dialogue) SessionQueued(ctx context.Context, msg EndSession) error {
	return publishJSON(ctx, d.c, TopicDialogueSessionQueued, nil, msg)
}

func (d *Dialogue) OnSessionQueued(handler Handler[EndSession]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueSessionQueued, nil, handler)
}

func (d *Dialogue) SessionEnded(ctx context.Context, msg SessionEnded) error {
	d.c.logger.Debug("session ended",
		"site_id", msg.SiteID,
		"session_id", msg.SessionID,
		"reason", msg.Termination.Reason)
	return publishJSON(ctx, d.c, TopicDialogueSessionEnded, nil, msg)
}

func (d *Dialogue) OnSessionEnded(handler Handler[SessionEnded]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueSessionEnded, nil, handler)
}

// Intent publishes msg on the topic named after its intent.
func (d *Dialogue) Intent(ctx context.Context, msg Intent) error {
	if msg.Intent.IntentName == "" {
		return errors.New("intent name is required")
	}
	d.c.logger.Debug("recognized intent",
		"intent", msg.Intent.IntentName,
		"session_id", msg.SessionID,
		"confidence", msg.Intent.ConfidenceScore)
	return publishJSON(ctx, d.c, TopicIntent, topicmgr.Params{"intentName": msg.Intent.IntentName}, msg)
}

// OnIntent subscribes to one intent, or to every intent when intentName is empty.
func (d *Dialogue) OnIntent(intentName string, handler Handler[Intent]) (*pubsub.Listener, error) {
	var params topicmgr.Params
	if intentName != "" {
		params = topicmgr.Params{"intentName": intentName}
	}
	return onJSON(d.c, TopicIntent, params, handler)
}

func (d *Dialogue) IntentNotRecognized(ctx context.Context, msg IntentNotRecognized) error {
	return publishJSON(ctx, d.c, TopicDialogueIntentNotRecognized, nil, msg)
}

func (d *Dialogue) OnIntentNotRecognized(handler Handler[IntentNotRecognized]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueIntentNotRecognized, nil, handler)
}

func (d *Dialogue) Error(ctx context.Context, msg ComponentError) error {
	d.c.logger.Error("dialogue error", "error", msg.Error, "context", msg.Context)
	return publishJSON(ctx, d.c, TopicDialogueError, nil, msg)
}

func (d *Dialogue) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(d.c, TopicDialogueError, nil, handler)
}
