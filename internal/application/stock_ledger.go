package application

import (
	"context"
	"errors"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/tracing"
)

// stockLedger applies inventory deltas on behalf of the workflows and writes
// the matching applied movement in the same unit of work
type stockLedger struct {
	store     domain.InventoryStore
	movements domain.StockMovementRepository
}

func newStockLedger(store domain.InventoryStore, movements domain.StockMovementRepository) *stockLedger {
	return &stockLedger{store: store, movements: movements}
}

// available treats a missing record as zero stock
func (l *stockLedger) available(ctx context.Context, productID, warehouseID string) (int, error) {
	rec, err := l.store.Get(ctx, productID, warehouseID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Available(), nil
}

// requireAvailable fails with ErrInsufficientStock when available < quantity
func (l *stockLedger) requireAvailable(ctx context.Context, productID, warehouseID string, quantity int) error {
	available, err := l.available(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	if available < quantity {
		return domain.InsufficientStockError(productID, warehouseID, quantity, available)
	}
	return nil
}

func (l *stockLedger) apply(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
	rec, err := tracing.TracedOperation(ctx, tracer, "stock.apply_delta",
		func(ctx context.Context) (*domain.InventoryRecord, error) {
			return l.store.ApplyDelta(ctx, productID, warehouseID, onHandDelta, reservedDelta)
		},
		tracing.StockSpanAttributes(operationFrom(ctx), productID, warehouseID)...,
	)
	if err != nil {
		return nil, err
	}
	recordDelta(ctx, onHandDelta, reservedDelta)
	return rec, nil
}

// reserve holds quantity for an order
func (l *stockLedger) reserve(ctx context.Context, productID, warehouseID string, quantity int) error {
	if err := l.requireAvailable(ctx, productID, warehouseID, quantity); err != nil {
		return err
	}
	_, err := l.apply(ctx, productID, warehouseID, 0, quantity)
	return err
}

// release returns reserved quantity to available
func (l *stockLedger) release(ctx context.Context, productID, warehouseID string, quantity int) error {
	_, err := l.apply(ctx, productID, warehouseID, 0, -quantity)
	return err
}

// movementEntry describes one applied movement
type movementEntry struct {
	productID     string
	warehouseID   string
	movementType  domain.MovementType
	quantity      int
	reservedDelta int
	unitCost      domain.Money
	actor         string
	ref           domain.Reference
	notes         string
}

// move applies the on hand delta implied by the movement type, plus any
// reserved delta, and appends the applied movement
func (l *stockLedger) move(ctx context.Context, e movementEntry) (*domain.InventoryRecord, error) {
	m, err := domain.NewAppliedMovement(e.productID, e.warehouseID, e.movementType, e.quantity, e.unitCost, e.actor, e.ref)
	if err != nil {
		return nil, err
	}
	m.Notes = e.notes

	rec, err := l.apply(ctx, e.productID, e.warehouseID, m.OnHandDelta(), e.reservedDelta)
	if err != nil {
		return nil, err
	}
	if err := l.movements.Save(ctx, m); err != nil {
		return nil, err
	}
	return rec, nil
}
