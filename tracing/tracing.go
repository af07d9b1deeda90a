// Package tracing opens OpenTelemetry spans around client calls and server
// dispatch. It always uses the global tracer provider: if the host process
// never configures one, the otel API returns no-op spans, so this package
// adds no overhead to a host that does not care about traces.
package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("drpc")

// StartClientCall opens a drpc.client.call span tagged with method and a
// fresh correlation id, which it also returns; the id is never placed on
// the wire and is unrelated to the wire-level frame id.
func StartClientCall(ctx context.Context, method string) (context.Context, trace.Span, string) {
	correlationID := uuid.New().String()
	ctx, span := tracer.Start(ctx, "drpc.client.call",
		trace.WithAttributes(
			attribute.String("drpc.method", method),
			attribute.String("drpc.correlation_id", correlationID),
		),
	)
	return ctx, span, correlationID
}

// StartServerHandle opens a drpc.server.handle span tagged with method and
// the wire-level request id.
func StartServerHandle(ctx context.Context, method string, requestID uint64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "drpc.server.handle",
		trace.WithAttributes(
			attribute.String("drpc.method", method),
			attribute.Int64("drpc.request_id", int64(requestID)),
		),
	)
}
