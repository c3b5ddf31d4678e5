package observe

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testTracerProvider(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp
}

func TestCorrelationID_NoSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID with no span = %q, want empty", got)
	}
}

func TestCorrelationID_WithSpan(t *testing.T) {
	tp := testTracerProvider(t)
	ctx, span := tp.Tracer(tracerName).Start(context.Background(), "test")
	defer span.End()

	got := CorrelationID(ctx)
	if got == "" {
		t.Fatal("CorrelationID with active span should not be empty")
	}
	if got != span.SpanContext().TraceID().String() {
		t.Errorf("CorrelationID = %q, want trace ID %q", got, span.SpanContext().TraceID())
	}
}

func TestLogger_NoSpanReturnsDefault(t *testing.T) {
	if Logger(context.Background()) == nil {
		t.Fatal("Logger returned nil")
	}
}

func TestLogger_WithSpan(t *testing.T) {
	tp := testTracerProvider(t)
	ctx, span := tp.Tracer(tracerName).Start(context.Background(), "test")
	defer span.End()

	if Logger(ctx) == nil {
		t.Fatal("Logger returned nil")
	}
}
