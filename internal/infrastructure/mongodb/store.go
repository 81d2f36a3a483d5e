// Package mongodb persists the stock aggregates in MongoDB. Every write of a
// unit of work runs inside one multi-document transaction together with the
// outbox rows for the events it raised and the processed request markers.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/stock-service/pkg/errors"
	"github.com/wms-platform/stock-service/pkg/idempotency"
	"github.com/wms-platform/stock-service/pkg/kafka"
	"github.com/wms-platform/stock-service/pkg/metrics"
	pkgmongo "github.com/wms-platform/stock-service/pkg/mongodb"
	"github.com/wms-platform/stock-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/stock-service/pkg/outbox/mongodb"
	"github.com/wms-platform/stock-service/pkg/resilience"
)

const (
	inventoryCollection      = "inventories"
	purchaseOrderCollection  = "purchase_orders"
	salesOrderCollection     = "sales_orders"
	transferCollection       = "stock_transfers"
	adjustmentCollection     = "stock_adjustments"
	movementCollection       = "stock_movements"
	defaultFindByStatusLimit = 100
)

type aggregate interface {
	GetDomainEvents() []domain.DomainEvent
	ClearDomainEvents()
}

// Store implements domain.UnitOfWork and hands out the repositories
type Store struct {
	client   *pkgmongo.Client
	db       *mongo.Database
	tx       *pkgmongo.TransactionManager
	outbox   *outboxMongo.OutboxRepository
	recorder *outbox.Recorder
	requests *idempotency.MongoStore
}

// NewStore creates a store over client. breaker may be nil.
func NewStore(client *pkgmongo.Client, breaker *resilience.CircuitBreaker, factory *cloudevents.EventFactory, retention time.Duration) *Store {
	db := client.Database()
	outboxRepo := outboxMongo.NewOutboxRepository(db)
	return &Store{
		client:   client,
		db:       db,
		tx:       pkgmongo.NewTransactionManager(client, breaker),
		outbox:   outboxRepo,
		recorder: outbox.NewRecorder(outboxRepo, factory, kafka.Topics.StockEvents),
		requests: idempotency.NewMongoStore(db, retention),
	}
}

// Outbox returns the outbox repository the publisher drains
func (s *Store) Outbox() *outboxMongo.OutboxRepository { return s.outbox }

// HealthCheck pings the primary
func (s *Store) HealthCheck(ctx context.Context) error { return s.client.HealthCheck(ctx) }

// WithTransaction runs fn in a transaction. Nested calls join the outer one.
// Lost races surface as domain.ErrConcurrentModification and database
// failures as domain.ErrUnavailable; errors returned by fn pass through.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	return translate(s.tx.WithTransaction(ctx, fn))
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConcurrentModification), errors.Is(err, domain.ErrUnavailable):
		return err
	case errors.Is(err, pkgmongo.ErrVersionConflict),
		errors.Is(err, idempotency.ErrAlreadyProcessed),
		pkgmongo.IsWriteConflict(err):
		return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
	case pkgmongo.IsInfrastructureError(err):
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}

// BreakerName labels the storage circuit breaker in logs and metrics
const BreakerName = "mongodb"

// NewCircuitBreaker builds the breaker guarding transactions. Rejected units
// of work and lost races never count as failures, so only an unhealthy
// database can open it. m may be nil.
func NewCircuitBreaker(m *metrics.Metrics, logger *slog.Logger) *resilience.CircuitBreaker {
	cfg := resilience.DefaultCircuitBreakerConfig(BreakerName)
	cfg.IsFailure = IsStorageFailure
	cfg.OnStateChange = func(name string, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
	}
	m.SetCircuitBreakerState(BreakerName, int(gobreaker.StateClosed))
	return resilience.NewCircuitBreaker(cfg, logger)
}

// IsStorageFailure reports whether err came from the database rather than
// from the unit of work that ran inside the transaction
func IsStorageFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case pkgmongo.IsInfrastructureError(err), errors.Is(err, domain.ErrUnavailable):
		return true
	case domain.IsRejection(err),
		apperrors.IsAppError(err),
		errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, pkgmongo.ErrVersionConflict),
		errors.Is(err, idempotency.ErrAlreadyProcessed),
		pkgmongo.IsWriteConflict(err):
		return false
	}
	return true
}

// save writes agg under optimistic concurrency, bumps the caller's version
// and records the pending events in the outbox
func (s *Store) save(ctx context.Context, coll *mongo.Collection, aggregateType, id string, version *int64, agg aggregate) error {
	expected := *version
	*version = expected + 1
	if err := pkgmongo.SaveVersioned(ctx, coll, id, expected, agg); err != nil {
		*version = expected
		if errors.Is(err, pkgmongo.ErrVersionConflict) {
			return fmt.Errorf("%w: %s %s version %d", domain.ErrConcurrentModification, aggregateType, id, expected)
		}
		return err
	}

	pending := agg.GetDomainEvents()
	events := make([]cloudevents.DomainEvent, len(pending))
	for i, e := range pending {
		events[i] = e
	}
	if err := s.recorder.Record(ctx, id, aggregateType, events); err != nil {
		return err
	}
	agg.ClearDomainEvents()
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var out T
	found, err := pkgmongo.FindByID(ctx, coll, id, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func byStatus(status string, createdField string, limit int) (bson.M, *options.FindOptions) {
	if limit <= 0 {
		limit = defaultFindByStatusLimit
	}
	return bson.M{"status": status}, options.Find().
		SetSort(pkgmongo.SortDescending(createdField)).
		SetLimit(int64(limit))
}

// EnsureIndexes creates every index the repositories query by
func (s *Store) EnsureIndexes(ctx context.Context) error {
	byCollection := map[string][]mongo.IndexModel{
		inventoryCollection: {
			{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "productId", Value: 1}}},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "warehouseId", Value: 1}}},
		},
		purchaseOrderCollection: {
			{Keys: bson.D{{Key: "poNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		salesOrderCollection: {
			{Keys: bson.D{{Key: "soNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		transferCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "initiatedAt", Value: -1}}},
		},
		adjustmentCollection: {
			{Keys: bson.D{{Key: "inventoryId", Value: 1}, {Key: "adjustedAt", Value: -1}}},
		},
		movementCollection: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "reference.type", Value: 1}, {Key: "reference.id", Value: 1}}},
		},
	}

	for name, indexes := range byCollection {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	if err := s.outbox.EnsureIndexes(ctx); err != nil {
		return err
	}
	return s.requests.EnsureIndexes(ctx)
}
