package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/idempotency"
	pkgmongo "github.com/wms-platform/stock-service/pkg/mongodb"
)

// InventoryStore implements domain.InventoryStore with a version
// compare-and-swap on every write
type InventoryStore struct {
	s    *Store
	coll *mongo.Collection
}

// Inventory returns the inventory store
func (s *Store) Inventory() *InventoryStore {
	return &InventoryStore{s: s, coll: s.db.Collection(inventoryCollection)}
}

func (r *InventoryStore) Get(ctx context.Context, productID, warehouseID string) (*domain.InventoryRecord, error) {
	id := domain.InventoryID(productID, warehouseID)
	rec, err := findOne[domain.InventoryRecord](ctx, r.coll, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NotFoundError("inventory", id)
	}
	return rec, nil
}

func (r *InventoryStore) ApplyDelta(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
	return r.mutate(ctx, productID, warehouseID, func(rec *domain.InventoryRecord) error {
		return rec.ApplyDelta(onHandDelta, reservedDelta)
	})
}

func (r *InventoryStore) SetReorderPoint(ctx context.Context, productID, warehouseID string, point int) (*domain.InventoryRecord, error) {
	return r.mutate(ctx, productID, warehouseID, func(rec *domain.InventoryRecord) error {
		return rec.SetReorderPoint(point)
	})
}

// mutate reads the row, applies fn and writes it back only if nobody else
// moved the version in between. A missing row is inserted at version 1.
func (r *InventoryStore) mutate(ctx context.Context, productID, warehouseID string, fn func(rec *domain.InventoryRecord) error) (*domain.InventoryRecord, error) {
	id := domain.InventoryID(productID, warehouseID)
	rec, err := findOne[domain.InventoryRecord](ctx, r.coll, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = domain.NewInventoryRecord(productID, warehouseID)
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := r.s.save(ctx, r.coll, "inventory", id, &rec.Version, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *InventoryStore) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.InventoryRecord, error) {
	return pkgmongo.FindAll[domain.InventoryRecord](ctx, r.coll, bson.M{"warehouseId": warehouseID},
		options.Find().SetSort(bson.D{{Key: "productId", Value: 1}}))
}

func (r *InventoryStore) FindByProduct(ctx context.Context, productID string) ([]*domain.InventoryRecord, error) {
	return pkgmongo.FindAll[domain.InventoryRecord](ctx, r.coll, bson.M{"productId": productID},
		options.Find().SetSort(bson.D{{Key: "warehouseId", Value: 1}}))
}

// PurchaseOrderRepository implements domain.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	s    *Store
	coll *mongo.Collection
}

// PurchaseOrders returns the purchase order repository
func (s *Store) PurchaseOrders() *PurchaseOrderRepository {
	return &PurchaseOrderRepository{s: s, coll: s.db.Collection(purchaseOrderCollection)}
}

func (r *PurchaseOrderRepository) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.s.save(ctx, r.coll, "purchase_order", po.PurchaseOrderID, &po.Version, po)
}

func (r *PurchaseOrderRepository) FindByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return findOne[domain.PurchaseOrder](ctx, r.coll, id)
}

func (r *PurchaseOrderRepository) FindByStatus(ctx context.Context, status domain.PurchaseOrderStatus, limit int) ([]*domain.PurchaseOrder, error) {
	filter, opts := byStatus(string(status), "createdAt", limit)
	return pkgmongo.FindAll[domain.PurchaseOrder](ctx, r.coll, filter, opts)
}

// SalesOrderRepository implements domain.SalesOrderRepository
type SalesOrderRepository struct {
	s    *Store
	coll *mongo.Collection
}

// SalesOrders returns the sales order repository
func (s *Store) SalesOrders() *SalesOrderRepository {
	return &SalesOrderRepository{s: s, coll: s.db.Collection(salesOrderCollection)}
}

func (r *SalesOrderRepository) Save(ctx context.Context, so *domain.SalesOrder) error {
	return r.s.save(ctx, r.coll, "sales_order", so.SalesOrderID, &so.Version, so)
}

func (r *SalesOrderRepository) FindByID(ctx context.Context, id string) (*domain.SalesOrder, error) {
	return findOne[domain.SalesOrder](ctx, r.coll, id)
}

func (r *SalesOrderRepository) FindByStatus(ctx context.Context, status domain.SalesOrderStatus, limit int) ([]*domain.SalesOrder, error) {
	filter, opts := byStatus(string(status), "createdAt", limit)
	return pkgmongo.FindAll[domain.SalesOrder](ctx, r.coll, filter, opts)
}

// TransferRepository implements domain.StockTransferRepository
type TransferRepository struct {
	s    *Store
	coll *mongo.Collection
}

// Transfers returns the transfer repository
func (s *Store) Transfers() *TransferRepository {
	return &TransferRepository{s: s, coll: s.db.Collection(transferCollection)}
}

func (r *TransferRepository) Save(ctx context.Context, t *domain.StockTransfer) error {
	return r.s.save(ctx, r.coll, "stock_transfer", t.TransferID, &t.Version, t)
}

func (r *TransferRepository) FindByID(ctx context.Context, id string) (*domain.StockTransfer, error) {
	return findOne[domain.StockTransfer](ctx, r.coll, id)
}

func (r *TransferRepository) FindByStatus(ctx context.Context, status domain.TransferStatus, limit int) ([]*domain.StockTransfer, error) {
	filter, opts := byStatus(string(status), "initiatedAt", limit)
	return pkgmongo.FindAll[domain.StockTransfer](ctx, r.coll, filter, opts)
}

// AdjustmentRepository implements domain.StockAdjustmentRepository
type AdjustmentRepository struct {
	s    *Store
	coll *mongo.Collection
}

// Adjustments returns the adjustment repository
func (s *Store) Adjustments() *AdjustmentRepository {
	return &AdjustmentRepository{s: s, coll: s.db.Collection(adjustmentCollection)}
}

func (r *AdjustmentRepository) Save(ctx context.Context, a *domain.StockAdjustment) error {
	return r.s.save(ctx, r.coll, "stock_adjustment", a.AdjustmentID, &a.Version, a)
}

func (r *AdjustmentRepository) FindByID(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	return findOne[domain.StockAdjustment](ctx, r.coll, id)
}

func (r *AdjustmentRepository) FindByInventory(ctx context.Context, productID, warehouseID string) ([]*domain.StockAdjustment, error) {
	return pkgmongo.FindAll[domain.StockAdjustment](ctx, r.coll,
		bson.M{"inventoryId": domain.InventoryID(productID, warehouseID)},
		options.Find().SetSort(pkgmongo.SortDescending("adjustedAt")))
}

// MovementRepository implements domain.StockMovementRepository
type MovementRepository struct {
	s    *Store
	coll *mongo.Collection
}

// Movements returns the movement ledger repository
func (s *Store) Movements() *MovementRepository {
	return &MovementRepository{s: s, coll: s.db.Collection(movementCollection)}
}

func (r *MovementRepository) Save(ctx context.Context, m *domain.StockMovement) error {
	return r.s.save(ctx, r.coll, "stock_movement", m.MovementID, &m.Version, m)
}

func (r *MovementRepository) FindByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	return findOne[domain.StockMovement](ctx, r.coll, id)
}

func (r *MovementRepository) FindByInventory(ctx context.Context, productID, warehouseID string) ([]*domain.StockMovement, error) {
	return pkgmongo.FindAll[domain.StockMovement](ctx, r.coll,
		bson.M{"productId": productID, "warehouseId": warehouseID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *MovementRepository) FindByReference(ctx context.Context, refType, refID string) ([]*domain.StockMovement, error) {
	return pkgmongo.FindAll[domain.StockMovement](ctx, r.coll,
		bson.M{"reference.type": refType, "reference.id": refID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ProcessedRequests implements domain.ProcessedRequestStore over the
// shared idempotency collection
type ProcessedRequests struct{ s *Store }

// ProcessedRequests returns the processed request store
func (s *Store) ProcessedRequests() *ProcessedRequests { return &ProcessedRequests{s: s} }

func (r *ProcessedRequests) IsProcessed(ctx context.Context, scope, requestID string) (string, bool, error) {
	return r.s.requests.IsProcessed(ctx, scope, requestID)
}

func (r *ProcessedRequests) MarkProcessed(ctx context.Context, scope, requestID, aggregateID string) error {
	err := r.s.requests.MarkProcessed(ctx, scope, requestID, aggregateID)
	if errors.Is(err, idempotency.ErrAlreadyProcessed) {
		return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
	}
	return err
}
