package hermes

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/hermes/internal/pubsub"
)

// Injection extends the recognizer vocabulary at runtime.
type Injection struct {
	c *Client
}

// Perform publishes an injection request and returns its id.
func (i *Injection) Perform(ctx context.Context, req InjectionRequest) (string, error) {
	if req.ID == "" {
		req.ID = i.c.NewID()
	}
	i.c.logger.Debug("requesting injection", "id", req.ID, "operations", len(req.Operations))
	return req.ID, publishJSON(ctx, i.c, TopicInjectionPerform, nil, req)
}

// PerformAndWait publishes req and blocks until it completes. A failure
// report yields a *pubsub.FailureError carrying its error text.
func (i *Injection) PerformAndWait(ctx context.Context, req InjectionRequest, timeout time.Duration) (InjectionResult, error) {
	if req.ID == "" {
		req.ID = i.c.NewID()
	}
	match := pubsub.FieldEquals("requestId", req.ID)
	w, err := i.c.engine.ExpectEither(
		TopicInjectionComplete.Name(), match,
		TopicInjectionFailure.Name(), match,
		i.c.requestTimeout(timeout))
	if err != nil {
		return InjectionResult{}, err
	}

	res, err := i.c.request(ctx, w, func() error {
		_, err := i.Perform(ctx, req)
		return err
	})
	if err != nil {
		return InjectionResult{}, fmt.Errorf("injection %s: %w", req.ID, err)
	}
	return decodeJSON[InjectionResult](res)
}

func (i *Injection) OnPerform(handler Handler[InjectionRequest]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionPerform, nil, handler)
}

func (i *Injection) Status(ctx context.Context, msg InjectionStatus) error {
	return publishJSON(ctx, i.c, TopicInjectionStatus, nil, msg)
}

func (i *Injection) OnStatus(handler Handler[InjectionStatus]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionStatus, nil, handler)
}

func (i *Injection) Complete(ctx context.Context, requestID string) error {
	return publishJSON(ctx, i.c, TopicInjectionComplete, nil, InjectionResult{RequestID: requestID})
}

func (i *Injection) OnComplete(handler Handler[InjectionResult]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionComplete, nil, handler)
}

func (i *Injection) Failure(ctx context.Context, requestID, reason string) error {
	return publishJSON(ctx, i.c, TopicInjectionFailure, nil, InjectionResult{RequestID: requestID, Error: reason})
}

func (i *Injection) OnFailure(handler Handler[InjectionResult]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionFailure, nil, handler)
}

// Reset asks the injector to drop every injected value and returns the request id.
func (i *Injection) Reset(ctx context.Context) (string, error) {
	id := i.c.NewID()
	i.c.logger.Debug("requesting injection reset", "id", id)
	return id, publishJSON(ctx, i.c, TopicInjectionResetPerform, nil, InjectionReset{ID: id})
}

// ResetAndWait resets the injected values and blocks until reset/complete arrives.
func (i *Injection) ResetAndWait(ctx context.Context, timeout time.Duration) (InjectionResult, error) {
	id := i.c.NewID()
	w, err := i.c.engine.Expect(TopicInjectionResetComplete.Name(), pubsub.FieldEquals("requestId", id), i.c.requestTimeout(timeout))
	if err != nil {
		return InjectionResult{}, err
	}

	res, err := i.c.request(ctx, w, func() error {
		return publishJSON(ctx, i.c, TopicInjectionResetPerform, nil, InjectionReset{ID: id})
	})
	if err != nil {
		return InjectionResult{}, fmt.Errorf("injection reset %s: %w", id, err)
	}
	return decodeJSON[InjectionResult](res)
}

func (i *Injection) OnReset(handler Handler[InjectionReset]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionResetPerform, nil, handler)
}

func (i *Injection) ResetComplete(ctx context.Context, requestID string) error {
	return publishJSON(ctx, i.c, TopicInjectionResetComplete, nil, InjectionResult{RequestID: requestID})
}

func (i *Injection) OnResetComplete(handler Handler[InjectionResult]) (*pubsub.Listener, error) {
	return onJSON(i.c, TopicInjectionResetComplete, nil, handler)
}
