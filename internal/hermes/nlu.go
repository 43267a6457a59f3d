package hermes

import (
	"context"

	"github.com/nfrund/hermes/internal/pubsub"
)

// NLU drives the intent parser.
type NLU struct {
	c *Client
}

func (n *NLU) Load(ctx context.Context) error {
	return publishJSON(ctx, n.c, TopicNLULoad, nil, Empty{})
}

func (n *NLU) OnLoad(handler Handler[Empty]) (*pubsub.Listener, error) {
	return onJSON(n.c, TopicNLULoad, nil, handler)
}

// Query asks the parser to classify msg.Input. An empty ID is replaced by a
// fresh one, which is returned.
func (n *NLU) Query(ctx context.Context, msg NLUQuery) (string, error) {
	if msg.ID == "" {
		msg.ID = n.c.NewID()
	}
	n.c.logger.Debug("querying nlu", "id", msg.ID, "session_id", msg.SessionID)
	return msg.ID, publishJSON(ctx, n.c, TopicNLUQuery, nil, msg)
}

func (n *NLU) OnQuery(handler Handler[NLUQuery]) (*pubsub.Listener, error) {
	return onJSON(n.c, TopicNLUQuery, nil, handler)
}

func (n *NLU) IntentParsed(ctx context.Context, msg IntentParsed) error {
	return publishJSON(ctx, n.c, TopicNLUIntentParsed, nil, msg)
}

func (n *NLU) OnIntentParsed(handler Handler[IntentParsed]) (*pubsub.Listener, error) {
	return onJSON(n.c, TopicNLUIntentParsed, nil, handler)
}

func (n *NLU) IntentNotRecognized(ctx context.Context, msg NLUIntentNotRecognized) error {
	return publishJSON(ctx, n.c, TopicNLUIntentNotRecognized, nil, msg)
}

func (n *NLU) OnIntentNotRecognized(handler Handler[NLUIntentNotRecognized]) (*pubsub.Listener, error) {
	return onJSON(n.c, TopicNLUIntentNotRecognized, nil, handler)
}

func (n *NLU) Error(ctx context.Context, msg ComponentError) error {
	n.c.logger.Error("nlu error", "error", msg.Error, "context", msg.Context)
	return publishJSON(ctx, n.c, TopicNLUError, nil, msg)
}

func (n *NLU) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(n.c, TopicNLUError, nil, handler)
}
