package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestTracedOperation_RecordsError(t *testing.T) {
	rec, tp := newRecorder()
	tracer := tp.Tracer("test")

	_, err := TracedOperation(context.Background(), tracer, "stock.apply-delta",
		func(ctx context.Context) (int, error) { return 0, errors.New("insufficient stock") },
		StockSpanAttributes("reserve", "P1", "W1")...,
	)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stock.apply-delta", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 3)
}

func TestTracedOperation_OK(t *testing.T) {
	rec, tp := newRecorder()

	got, err := TracedOperation(context.Background(), tp.Tracer("test"), "op",
		func(ctx context.Context) (string, error) { return "done", nil })
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, codes.Ok, rec.Ended()[0].Status().Code)
}

func TestInjectExtractRoundTrip(t *testing.T) {
	_, err := Initialize(context.Background(), DefaultConfig("test"))
	require.NoError(t, err)

	_, tp := newRecorder()
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	carrier := MapCarrier{}
	InjectTraceContext(ctx, carrier)
	require.NotEmpty(t, carrier.Get("traceparent"))
	assert.Contains(t, carrier.Keys(), "traceparent")

	extracted := ExtractTraceContext(context.Background(), carrier)
	assert.Equal(t, GetTraceID(ctx), GetTraceID(extracted))
}

var _ propagation.TextMapCarrier = MapCarrier{}
