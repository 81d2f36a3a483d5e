package outbox

import (
	"context"
	"time"
)

// Repository defines outbox event persistence
type Repository interface {
	// SaveAll inserts events using the caller's transaction context
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns retryable unpublished events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// CountUnpublished returns the backlog size
	CountUnpublished(ctx context.Context) (int64, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished removes events published before cutoff
	DeletePublished(ctx context.Context, cutoff time.Time) (int64, error)
}
