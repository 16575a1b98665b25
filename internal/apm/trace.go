// Package apm wires OpenTelemetry tracing for the gateway.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumentation scope.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
}

// Span is the subset of trace.Span the application layer uses.
type Span interface {
	trace.Span

	// NoticeError records err and marks the span as failed.
	NoticeError(err error)
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global provider.
func NewTracer(name string) Tracer {
	return &openTracer{
		otel.Tracer(name),
	}
}

func (t *openTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &traceSpan{span}
}

func (t *openTracer) SpanFromContext(ctx context.Context) Span {
	return &traceSpan{trace.SpanFromContext(ctx)}
}

type traceSpan struct {
	trace.Span
}

func (t *traceSpan) NoticeError(err error) {
	t.Span.RecordError(err)
	t.Span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace id of the span in ctx, or an empty string.
// It matches logger.TraceIDFn.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
