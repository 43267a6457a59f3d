package hermes

import (
	"context"

	"github.com/nfrund/hermes/internal/pubsub"
)

// Feedback toggles the feedback sounds played around sessions.
type Feedback struct {
	c *Client
}

func (f *Feedback) SoundToggleOn(ctx context.Context, siteID string) error {
	return publishJSON(ctx, f.c, TopicFeedbackSoundToggleOn, nil, SiteMessage{SiteID: siteID})
}

func (f *Feedback) OnSoundToggleOn(handler Handler[SiteMessage]) (*pubsub.Listener, error) {
	return onJSON(f.c, TopicFeedbackSoundToggleOn, nil, handler)
}

func (f *Feedback) SoundToggleOff(ctx context.Context, siteID string) error {
	return publishJSON(ctx, f.c, TopicFeedbackSoundToggleOff, nil, SiteMessage{SiteID: siteID})
}

func (f *Feedback) OnSoundToggleOff(handler Handler[SiteMessage]) (*pubsub.Listener, error) {
	return onJSON(f.c, TopicFeedbackSoundToggleOff, nil, handler)
}
