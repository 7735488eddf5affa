package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Tracer("test") == nil {
		t.Fatal("expected tracer")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewTracerProvider_InvalidConfig(t *testing.T) {
	cases := []TracerConfig{
		{Enabled: true, Endpoint: "localhost:4317"},
		{Enabled: true, ServiceName: "config"},
		{Enabled: true, ServiceName: "config", Endpoint: "localhost:4317", SampleRate: 2},
	}
	for _, cfg := range cases {
		if _, err := NewTracerProvider(context.Background(), cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestSpans_RecordStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartDatabaseSpan(context.Background(), SpanOperationDBFind, "applicationconfigs")
	RecordError(span, nil)
	span.End()

	_, span = StartUpstreamSpan(context.Background(), "http://countryconfig/application-config")
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}
	if ended[0].Name() != "DB db.find applicationconfigs" {
		t.Fatalf("unexpected span name %q", ended[0].Name())
	}
	if ended[1].Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", ended[1].Status().Code)
	}
}
