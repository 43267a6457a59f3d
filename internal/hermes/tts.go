package hermes

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/hermes/internal/pubsub"
)

// TTS drives speech synthesis.
type TTS struct {
	c *Client
}

func (t *TTS) Load(ctx context.Context) error {
	return publishJSON(ctx, t.c, TopicTTSLoad, nil, Empty{})
}

func (t *TTS) OnLoad(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(t.c, TopicTTSLoad, nil, handler)
}

// Say asks the synthesizer to speak msg.Text and returns the request id.
func (t *TTS) Say(ctx context.Context, msg Say) (string, error) {
	if msg.ID == "" {
		msg.ID = t.c.NewID()
	}
	t.c.logger.Debug("speaking", "id", msg.ID, "site_id", msg.SiteID, "session_id", msg.SessionID)
	return msg.ID, publishJSON(ctx, t.c, TopicTTSSay, nil, msg)
}

// SayAndWait speaks msg.Text and blocks until the matching sayFinished
// arrives. A zero timeout uses the client default.
func (t *TTS) SayAndWait(ctx context.Context, msg Say, timeout time.Duration) (SayFinished, error) {
	if msg.ID == "" {
		msg.ID = t.c.NewID()
	}
	w, err := t.ExpectSayFinished(msg.ID, timeout)
	if err != nil {
		return SayFinished{}, err
	}

	res, err := t.c.request(ctx, w, func() error {
		_, err := t.Say(ctx, msg)
		return err
	})
	if err != nil {
		return SayFinished{}, fmt.Errorf("say %s: %w", msg.ID, err)
	}
	t.c.logger.Debug("speaking finished", "id", msg.ID)
	return decodeJSON[SayFinished](res)
}

// ExpectSayFinished starts waiting for the sayFinished of request id.
func (t *TTS) ExpectSayFinished(id string, timeout time.Duration) (*pubsub.Wait, error) {
	return t.c.engine.Expect(TopicTTSSayFinished.Name(), pubsub.FieldEquals("id", id), t.c.requestTimeout(timeout))
}

func (t *TTS) OnSay(handler Handler[Say]) (*pubsub.Listener, error) {
	return onJSON(t.c, TopicTTSSay, nil, handler)
}

func (t *TTS) SayFinished(ctx context.Context, msg SayFinished) error {
	return publishJSON(ctx, t.c, TopicTTSSayFinished, nil, msg)
}

func (t *TTS) OnSayFinished(handler Handler[SayFinished]) (*pubsub.Listener, error) {
	return onJSON(t.c, TopicTTSSayFinished, nil, handler)
}

func (t *TTS) Error(ctx context.Context, msg ComponentError) error {
	t.c.logger.Error("tts error", "error", msg.Error, "context", msg.Context)
	return publishJSON(ctx, t.c, TopicTTSError, nil, msg)
}

func (t *TTS) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(t.c, TopicTTSError, nil, handler)
}
