package apm

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("x-honeycomb-team=abc, api-key=def,broken,=x")
	if len(got) != 2 || got["x-honeycomb-team"] != "abc" || got["api-key"] != "def" {
		t.Fatalf("unexpected headers %v", got)
	}
}

func TestTraceID(t *testing.T) {
	if TraceID(context.Background()) != "" {
		t.Fatal("expected empty trace id without a span")
	}

	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := NewTracer("test").StartSpanFromContext(context.Background(), "op")
	span.End()

	if TraceID(ctx) == "" {
		t.Fatal("expected trace id inside a span")
	}
	if len(rec.Ended()) != 1 {
		t.Fatalf("expected one ended span, got %d", len(rec.Ended()))
	}
}
