package memory

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-service/internal/domain"
)

// InventoryStore implements domain.InventoryStore
type InventoryStore struct{ s *Store }

// Inventory returns the inventory store view
func (s *Store) Inventory() *InventoryStore { return &InventoryStore{s: s} }

func (r *InventoryStore) Get(ctx context.Context, productID, warehouseID string) (*domain.InventoryRecord, error) {
	id := domain.InventoryID(productID, warehouseID)
	rec, ok := get(r.s, r.s.inventory, id, cloneRecord)
	if !ok {
		return nil, domain.NotFoundError("inventory", id)
	}
	return rec, nil
}

func (r *InventoryStore) ApplyDelta(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
	return r.mutate(productID, warehouseID, func(rec *domain.InventoryRecord) error {
		return rec.ApplyDelta(onHandDelta, reservedDelta)
	})
}

func (r *InventoryStore) SetReorderPoint(ctx context.Context, productID, warehouseID string, point int) (*domain.InventoryRecord, error) {
	return r.mutate(productID, warehouseID, func(rec *domain.InventoryRecord) error {
		return rec.SetReorderPoint(point)
	})
}

func (r *InventoryStore) mutate(productID, warehouseID string, fn func(rec *domain.InventoryRecord) error) (*domain.InventoryRecord, error) {
	id := domain.InventoryID(productID, warehouseID)
	rec, ok := get(r.s, r.s.inventory, id, cloneRecord)
	if !ok {
		rec = domain.NewInventoryRecord(productID, warehouseID)
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := put(r.s, r.s.inventory, id, &rec.Version, rec, cloneRecord); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *InventoryStore) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.InventoryRecord, error) {
	return list(r.s, r.s.inventory, cloneRecord,
		func(rec *domain.InventoryRecord) bool { return rec.WarehouseID == warehouseID },
		func(a, b *domain.InventoryRecord) bool { return a.ProductID < b.ProductID },
	), nil
}

func (r *InventoryStore) FindByProduct(ctx context.Context, productID string) ([]*domain.InventoryRecord, error) {
	return list(r.s, r.s.inventory, cloneRecord,
		func(rec *domain.InventoryRecord) bool { return rec.ProductID == productID },
		func(a, b *domain.InventoryRecord) bool { return a.WarehouseID < b.WarehouseID },
	), nil
}

// PurchaseOrderRepository implements domain.PurchaseOrderRepository
type PurchaseOrderRepository struct{ s *Store }

// PurchaseOrders returns the purchase order repository view
func (s *Store) PurchaseOrders() *PurchaseOrderRepository { return &PurchaseOrderRepository{s: s} }

func (r *PurchaseOrderRepository) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	return put(r.s, r.s.purchaseOrders, po.PurchaseOrderID, &po.Version, po, clonePurchaseOrder)
}

func (r *PurchaseOrderRepository) FindByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	po, _ := get(r.s, r.s.purchaseOrders, id, clonePurchaseOrder)
	return po, nil
}

func (r *PurchaseOrderRepository) FindByStatus(ctx context.Context, status domain.PurchaseOrderStatus, n int) ([]*domain.PurchaseOrder, error) {
	return limit(list(r.s, r.s.purchaseOrders, clonePurchaseOrder,
		func(po *domain.PurchaseOrder) bool { return po.Status == status },
		func(a, b *domain.PurchaseOrder) bool { return a.CreatedAt.After(b.CreatedAt) },
	), n), nil
}

// SalesOrderRepository implements domain.SalesOrderRepository
type SalesOrderRepository struct{ s *Store }

// SalesOrders returns the sales order repository view
func (s *Store) SalesOrders() *SalesOrderRepository { return &SalesOrderRepository{s: s} }

func (r *SalesOrderRepository) Save(ctx context.Context, so *domain.SalesOrder) error {
	return put(r.s, r.s.salesOrders, so.SalesOrderID, &so.Version, so, cloneSalesOrder)
}

func (r *SalesOrderRepository) FindByID(ctx context.Context, id string) (*domain.SalesOrder, error) {
	so, _ := get(r.s, r.s.salesOrders, id, cloneSalesOrder)
	return so, nil
}

func (r *SalesOrderRepository) FindByStatus(ctx context.Context, status domain.SalesOrderStatus, n int) ([]*domain.SalesOrder, error) {
	return limit(list(r.s, r.s.salesOrders, cloneSalesOrder,
		func(so *domain.SalesOrder) bool { return so.Status == status },
		func(a, b *domain.SalesOrder) bool { return a.CreatedAt.After(b.CreatedAt) },
	), n), nil
}

// TransferRepository implements domain.StockTransferRepository
type TransferRepository struct{ s *Store }

// Transfers returns the transfer repository view
func (s *Store) Transfers() *TransferRepository { return &TransferRepository{s: s} }

func (r *TransferRepository) Save(ctx context.Context, t *domain.StockTransfer) error {
	return put(r.s, r.s.transfers, t.TransferID, &t.Version, t, cloneTransfer)
}

func (r *TransferRepository) FindByID(ctx context.Context, id string) (*domain.StockTransfer, error) {
	t, _ := get(r.s, r.s.transfers, id, cloneTransfer)
	return t, nil
}

func (r *TransferRepository) FindByStatus(ctx context.Context, status domain.TransferStatus, n int) ([]*domain.StockTransfer, error) {
	return limit(list(r.s, r.s.transfers, cloneTransfer,
		func(t *domain.StockTransfer) bool { return t.Status == status },
		func(a, b *domain.StockTransfer) bool { return a.InitiatedAt.After(b.InitiatedAt) },
	), n), nil
}

// AdjustmentRepository implements domain.StockAdjustmentRepository
type AdjustmentRepository struct{ s *Store }

// Adjustments returns the adjustment repository view
func (s *Store) Adjustments() *AdjustmentRepository { return &AdjustmentRepository{s: s} }

func (r *AdjustmentRepository) Save(ctx context.Context, a *domain.StockAdjustment) error {
	return put(r.s, r.s.adjustments, a.AdjustmentID, &a.Version, a, cloneAdjustment)
}

func (r *AdjustmentRepository) FindByID(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	a, _ := get(r.s, r.s.adjustments, id, cloneAdjustment)
	return a, nil
}

func (r *AdjustmentRepository) FindByInventory(ctx context.Context, productID, warehouseID string) ([]*domain.StockAdjustment, error) {
	id := domain.InventoryID(productID, warehouseID)
	return list(r.s, r.s.adjustments, cloneAdjustment,
		func(a *domain.StockAdjustment) bool { return a.InventoryID == id },
		func(a, b *domain.StockAdjustment) bool { return a.AdjustedAt.After(b.AdjustedAt) },
	), nil
}

// MovementRepository implements domain.StockMovementRepository
type MovementRepository struct{ s *Store }

// Movements returns the movement ledger view
func (s *Store) Movements() *MovementRepository { return &MovementRepository{s: s} }

func (r *MovementRepository) Save(ctx context.Context, m *domain.StockMovement) error {
	return put(r.s, r.s.movements, m.MovementID, &m.Version, m, cloneMovement)
}

func (r *MovementRepository) FindByID(ctx context.Context, id string) (*domain.StockMovement, error) {
	m, _ := get(r.s, r.s.movements, id, cloneMovement)
	return m, nil
}

func (r *MovementRepository) FindByInventory(ctx context.Context, productID, warehouseID string) ([]*domain.StockMovement, error) {
	return list(r.s, r.s.movements, cloneMovement,
		func(m *domain.StockMovement) bool { return m.ProductID == productID && m.WarehouseID == warehouseID },
		func(a, b *domain.StockMovement) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (r *MovementRepository) FindByReference(ctx context.Context, refType, refID string) ([]*domain.StockMovement, error) {
	return list(r.s, r.s.movements, cloneMovement,
		func(m *domain.StockMovement) bool {
			return m.Reference != nil && m.Reference.Type == refType && m.Reference.ID == refID
		},
		func(a, b *domain.StockMovement) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

// ProcessedRequests implements domain.ProcessedRequestStore
type ProcessedRequests struct{ s *Store }

// ProcessedRequests returns the processed request view
func (s *Store) ProcessedRequests() *ProcessedRequests { return &ProcessedRequests{s: s} }

func (r *ProcessedRequests) IsProcessed(ctx context.Context, scope, requestID string) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	aggregateID, ok := r.s.processed[scope+"/"+requestID]
	return aggregateID, ok, nil
}

func (r *ProcessedRequests) MarkProcessed(ctx context.Context, scope, requestID, aggregateID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := scope + "/" + requestID
	if _, ok := r.s.processed[key]; ok {
		return fmt.Errorf("%w: request %s already processed", domain.ErrConcurrentModification, key)
	}
	r.s.processed[key] = aggregateID
	return nil
}
