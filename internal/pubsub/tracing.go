package pubsub

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "hermes-pubsub"
	messagingSystem = "hermes"
	previewLimit    = 100
)

// startPublishSpan opens a producer span around a transport publish.
func startPublishSpan(ctx context.Context, tracer trace.Tracer, topic string, payload []byte) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "hermes.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", messagingSystem),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", topic),
			attribute.Int("messaging.message_payload_size_bytes", len(payload)),
		),
	)
	span.SetAttributes(attribute.String("messaging.message_payload_preview", payloadPreview(payload)))
	return ctx, span
}

// startDispatchSpan opens a consumer span around listener dispatch.
func startDispatchSpan(ctx context.Context, tracer trace.Tracer, msg Message) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "hermes.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", messagingSystem),
			attribute.String("messaging.operation", "process"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	span.SetAttributes(attribute.String("messaging.message_payload_preview", payloadPreview(msg.Payload)))
	return ctx, span
}

func setDispatchCount(span trace.Span, n int) {
	span.SetAttributes(attribute.Int("hermes.listeners_invoked", n))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// payloadPreview renders the first bytes of JSON payloads; binary audio
// frames are summarized.
func payloadPreview(payload []byte) string {
	if len(payload) >= 4 && string(payload[:4]) == "RIFF" {
		return "<audio>"
	}
	preview := string(payload)
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return preview
}
