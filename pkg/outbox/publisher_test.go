package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/pkg/cloudevents"
	"github.com/wms-platform/stock-service/pkg/logging"
)

type memoryRepo struct {
	mu     sync.Mutex
	events map[string]*OutboxEvent
	order  []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{events: map[string]*OutboxEvent{}}
}

func (r *memoryRepo) SaveAll(_ context.Context, events []*OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	return nil
}

func (r *memoryRepo) FindUnpublished(_ context.Context, limit int) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*OutboxEvent
	for _, id := range r.order {
		if e := r.events[id]; e.ShouldRetry() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) CountUnpublished(ctx context.Context) (int64, error) {
	events, _ := r.FindUnpublished(ctx, 1<<30)
	return int64(len(events)), nil
}

func (r *memoryRepo) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.events[id].PublishedAt = &now
	return nil
}

func (r *memoryRepo) IncrementRetry(_ context.Context, id string, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id].RetryCount++
	r.events[id].LastError = msg
	return nil
}

func (r *memoryRepo) DeletePublished(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeProducer struct {
	mu        sync.Mutex
	failTypes map[string]bool
	sent      []*cloudevents.WMSCloudEvent
}

func (p *fakeProducer) PublishEvent(_ context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTypes[event.Type] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, event)
	return nil
}

type testEvent struct {
	typ     string
	subject string
}

func (e testEvent) EventType() string     { return e.typ }
func (e testEvent) OccurredAt() time.Time { return time.Now() }
func (e testEvent) Subject() string       { return e.subject }

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("outbox-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func TestRecorder_RecordWritesOneRowPerEvent(t *testing.T) {
	repo := newMemoryRepo()
	rec := NewRecorder(repo, cloudevents.NewEventFactory(cloudevents.SourceStockService), "wms.stock.events")

	err := rec.Record(context.Background(), "P1:W1", "InventoryRecord", []cloudevents.DomainEvent{
		testEvent{typ: "wms.stock.level-changed", subject: "P1:W1"},
		testEvent{typ: "wms.stock.low-stock-detected", subject: "P1:W1"},
	})
	require.NoError(t, err)
	require.Len(t, repo.order, 2)

	row := repo.events[repo.order[0]]
	assert.Equal(t, "P1:W1", row.AggregateID)
	assert.Equal(t, "wms.stock.events", row.Topic)
	assert.Equal(t, DefaultMaxRetries, row.MaxRetries)

	ce, err := row.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, "wms.stock.level-changed", ce.Type)
	assert.Equal(t, "P1:W1", ce.Subject)
}

func TestRecorder_NoEventsIsNoop(t *testing.T) {
	repo := newMemoryRepo()
	rec := NewRecorder(repo, cloudevents.NewEventFactory(cloudevents.SourceStockService), "t")
	require.NoError(t, rec.Record(context.Background(), "x", "y", nil))
	assert.Empty(t, repo.order)
}

func TestPublisher_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	rec := NewRecorder(repo, cloudevents.NewEventFactory(cloudevents.SourceStockService), "wms.stock.events")
	require.NoError(t, rec.Record(ctx, "T1", "StockTransfer", []cloudevents.DomainEvent{
		testEvent{typ: "wms.stock.transfer.completed", subject: "T1"},
		testEvent{typ: "wms.stock.transfer.broken", subject: "T1"},
	}))

	producer := &fakeProducer{failTypes: map[string]bool{"wms.stock.transfer.broken": true}}
	p := NewPublisher(repo, producer, testLogger(), nil, nil)

	assert.Equal(t, 1, p.ProcessBatch(ctx))
	require.Len(t, producer.sent, 1)
	assert.Equal(t, "wms.stock.transfer.completed", producer.sent[0].Type)

	failed := repo.events[repo.order[1]]
	assert.False(t, failed.IsPublished())
	assert.Equal(t, 1, failed.RetryCount)
	assert.Contains(t, failed.LastError, "broker unavailable")

	// published rows are not picked up again
	assert.Equal(t, 0, p.ProcessBatch(ctx))
	assert.Len(t, producer.sent, 1)
	assert.Equal(t, map[string]int{"published": 1, "failed": 2}, p.Stats())
}

func TestPublisher_StopsRetryingAtMax(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	rec := NewRecorder(repo, cloudevents.NewEventFactory(cloudevents.SourceStockService), "t")
	require.NoError(t, rec.Record(ctx, "A", "X", []cloudevents.DomainEvent{testEvent{typ: "bad", subject: "A"}}))

	producer := &fakeProducer{failTypes: map[string]bool{"bad": true}}
	p := NewPublisher(repo, producer, testLogger(), nil, nil)

	for i := 0; i < DefaultMaxRetries+3; i++ {
		p.ProcessBatch(ctx)
	}
	assert.Equal(t, DefaultMaxRetries, repo.events[repo.order[0]].RetryCount)

	pending, err := repo.CountUnpublished(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestPublisher_StartStop(t *testing.T) {
	repo := newMemoryRepo()
	p := NewPublisher(repo, &fakeProducer{}, testLogger(), nil, &PublisherConfig{PollInterval: 5 * time.Millisecond, BatchSize: 10})

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(context.Background()))

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	assert.Error(t, p.Stop())
}
