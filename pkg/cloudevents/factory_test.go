package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type testEvent struct {
	TransferID string    `json:"transferId"`
	At         time.Time `json:"at"`
}

func (e testEvent) EventType() string     { return "wms.stock.transfer.completed" }
func (e testEvent) OccurredAt() time.Time { return e.At }
func (e testEvent) Subject() string       { return "transfer/" + e.TransferID }

func TestFromDomainEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := NewEventFactory(SourceStockService)

	event := f.FromDomainEvent(context.Background(), testEvent{TransferID: "t-1", At: at})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, "wms.stock.transfer.completed", event.Type)
	assert.Equal(t, "transfer/t-1", event.Subject)
	assert.Equal(t, SourceStockService, event.Source)
	assert.Equal(t, at, event.Time)
	assert.NotEmpty(t, event.ID)
	assert.Empty(t, event.TraceParent)

	raw, err := json.Marshal(event.WithCorrelation("corr-1"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"wmscorrelationid":"corr-1"`)
	assert.Contains(t, string(raw), `"transferId":"t-1"`)
}

func TestCreateEvent_CarriesTraceParent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	event := NewEventFactory(SourceStockService).CreateEvent(ctx, "wms.stock.adjusted", "inventory/P/W", nil)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", event.TraceParent)
}
