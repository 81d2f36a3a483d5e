package mongodb

import (
	"context"
	"time"

	"github.com/wms-platform/stock-service/pkg/metrics"
	"go.mongodb.org/mongo-driver/event"
)

// NewCommandMonitor exports every driver command as Prometheus metrics
func NewCommandMonitor(m *metrics.Metrics) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			m.RecordMongoDBOperation(e.CommandName, true, time.Duration(e.DurationNanos))
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			m.RecordMongoDBOperation(e.CommandName, false, time.Duration(e.DurationNanos))
		},
	}
}
