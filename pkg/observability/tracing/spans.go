package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOperation represents a traced operation type.
type SpanOperation string

const (
	// SpanOperationDBFind is a single-document read.
	SpanOperationDBFind SpanOperation = "db.find"
	// SpanOperationDBUpsert is a single-document upsert.
	SpanOperationDBUpsert SpanOperation = "db.upsert"
	// SpanOperationUpstreamGet is an outbound GET to the country configuration service.
	SpanOperationUpstreamGet SpanOperation = "upstream.get"
)

// StartDatabaseSpan creates a client span for a database operation.
func StartDatabaseSpan(ctx context.Context, operation SpanOperation, collection string) (context.Context, trace.Span) {
	tracer := otel.Tracer("database")

	name := fmt.Sprintf("DB %s", operation)
	if collection != "" {
		name = fmt.Sprintf("DB %s %s", operation, collection)
	}

	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.operation", string(operation)),
		attribute.String("db.mongodb.collection", collection),
	)
	return ctx, span
}

// StartUpstreamSpan creates a client span for an outbound HTTP call.
func StartUpstreamSpan(ctx context.Context, url string) (context.Context, trace.Span) {
	tracer := otel.Tracer("countryconfig")

	ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP GET %s", url), trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", "GET"),
		attribute.String("http.url", url),
	)
	return ctx, span
}

// RecordError records err on span and marks it failed. A nil err marks the
// span successful.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
