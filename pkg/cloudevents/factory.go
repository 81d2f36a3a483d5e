package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/stock-service/pkg/tracing"
)

// DomainEvent is what the factory needs from an aggregate's event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	Subject() string
}

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent wraps data in an envelope. The current span, if any, is
// propagated as a W3C traceparent extension.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier.Get(ExtTraceParent)

	return event
}

// FromDomainEvent converts a domain event, keeping its occurrence time
func (f *EventFactory) FromDomainEvent(ctx context.Context, e DomainEvent) *WMSCloudEvent {
	event := f.CreateEvent(ctx, e.EventType(), e.Subject(), e)
	if t := e.OccurredAt(); !t.IsZero() {
		event.Time = t.UTC()
	}
	return event
}

// WithCorrelation sets the correlation extension and returns the event
func (e *WMSCloudEvent) WithCorrelation(correlationID string) *WMSCloudEvent {
	e.CorrelationID = correlationID
	return e
}
