package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/stock-service/pkg/cloudevents"
)

// DefaultMaxRetries bounds publish attempts per event
const DefaultMaxRetries = 10

// OutboxEvent is an event stored next to the aggregate it describes and
// published to Kafka after the transaction commits
type OutboxEvent struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// NewOutboxEventFromCloudEvent serialises a CloudEvent into an outbox row
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, cloudEvent *cloudevents.WMSCloudEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     cloudEvent.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished checks if the event has been published
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry checks if the event should be retried
func (e *OutboxEvent) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent decodes the payload back into an envelope
func (e *OutboxEvent) ToCloudEvent() (*cloudevents.WMSCloudEvent, error) {
	var cloudEvent cloudevents.WMSCloudEvent
	if err := json.Unmarshal(e.Payload, &cloudEvent); err != nil {
		return nil, err
	}
	return &cloudEvent, nil
}

// Recorder turns aggregate domain events into outbox rows. It must be called
// with the transaction context so the rows commit with the aggregate.
type Recorder struct {
	repo    Repository
	factory *cloudevents.EventFactory
	topic   string
}

// NewRecorder creates a Recorder writing to topic
func NewRecorder(repo Repository, factory *cloudevents.EventFactory, topic string) *Recorder {
	return &Recorder{repo: repo, factory: factory, topic: topic}
}

// Record stores one outbox row per event
func (r *Recorder) Record(ctx context.Context, aggregateID, aggregateType string, events []cloudevents.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]*OutboxEvent, 0, len(events))
	for _, e := range events {
		row, err := NewOutboxEventFromCloudEvent(aggregateID, aggregateType, r.topic, r.factory.FromDomainEvent(ctx, e))
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		rows = append(rows, row)
	}

	if err := r.repo.SaveAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
