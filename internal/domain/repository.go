package domain

import "context"

// InventoryStore owns the quantity triples. ApplyDelta is the only way
// quantities change; it creates the record on the first valid delta.
type InventoryStore interface {
	Get(ctx context.Context, productID, warehouseID string) (*InventoryRecord, error)
	ApplyDelta(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*InventoryRecord, error)
	SetReorderPoint(ctx context.Context, productID, warehouseID string, point int) (*InventoryRecord, error)
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*InventoryRecord, error)
	FindByProduct(ctx context.Context, productID string) ([]*InventoryRecord, error)
}

// PurchaseOrderRepository defines persistence for purchase orders.
// FindByID returns nil, nil when the order does not exist.
type PurchaseOrderRepository interface {
	Save(ctx context.Context, po *PurchaseOrder) error
	FindByID(ctx context.Context, id string) (*PurchaseOrder, error)
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, limit int) ([]*PurchaseOrder, error)
}

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	Save(ctx context.Context, so *SalesOrder) error
	FindByID(ctx context.Context, id string) (*SalesOrder, error)
	FindByStatus(ctx context.Context, status SalesOrderStatus, limit int) ([]*SalesOrder, error)
}

// StockTransferRepository defines persistence for transfers
type StockTransferRepository interface {
	Save(ctx context.Context, t *StockTransfer) error
	FindByID(ctx context.Context, id string) (*StockTransfer, error)
	FindByStatus(ctx context.Context, status TransferStatus, limit int) ([]*StockTransfer, error)
}

// StockAdjustmentRepository defines persistence for adjustments
type StockAdjustmentRepository interface {
	Save(ctx context.Context, a *StockAdjustment) error
	FindByID(ctx context.Context, id string) (*StockAdjustment, error)
	FindByInventory(ctx context.Context, productID, warehouseID string) ([]*StockAdjustment, error)
}

// StockMovementRepository defines persistence for the movement ledger
type StockMovementRepository interface {
	Save(ctx context.Context, m *StockMovement) error
	FindByID(ctx context.Context, id string) (*StockMovement, error)
	FindByInventory(ctx context.Context, productID, warehouseID string) ([]*StockMovement, error)
	FindByReference(ctx context.Context, refType, refID string) ([]*StockMovement, error)
}

// ProcessedRequestStore remembers request ids that already mutated an aggregate.
// MarkProcessed must run in the same unit of work as the mutation.
// IsProcessed returns the aggregate a processed request was applied to.
type ProcessedRequestStore interface {
	IsProcessed(ctx context.Context, scope, requestID string) (aggregateID string, done bool, err error)
	MarkProcessed(ctx context.Context, scope, requestID, aggregateID string) error
}

// UnitOfWork commits every write made through the context passed to fn, or none
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
