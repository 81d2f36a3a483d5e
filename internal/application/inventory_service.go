package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
)

// InventoryService exposes the inventory records. Quantities are changed only
// by the order, transfer, adjustment and movement workflows.
type InventoryService struct {
	store  domain.InventoryStore
	tx     *TxRunner
	logger *logging.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(store domain.InventoryStore, tx *TxRunner, logger *logging.Logger) *InventoryService {
	return &InventoryService{
		store:  store,
		tx:     tx,
		logger: logger.WithComponent("inventory-service"),
	}
}

// GetInventory returns the record for a product in a warehouse
func (s *InventoryService) GetInventory(ctx context.Context, productID, warehouseID string) (*InventoryDTO, error) {
	rec, err := s.store.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return ToInventoryDTO(rec), nil
}

// ListByWarehouse returns every record stocked in a warehouse
func (s *InventoryService) ListByWarehouse(ctx context.Context, warehouseID string) ([]*InventoryDTO, error) {
	records, err := s.store.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		s.logger.Error("Failed to list inventory", "warehouseId", warehouseID, "error", err)
		return nil, err
	}
	return mapSlice(records, ToInventoryDTO), nil
}

// ListByProduct returns the records of a product across warehouses
func (s *InventoryService) ListByProduct(ctx context.Context, productID string) ([]*InventoryDTO, error) {
	records, err := s.store.FindByProduct(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to list inventory", "productId", productID, "error", err)
		return nil, err
	}
	return mapSlice(records, ToInventoryDTO), nil
}

// SetReorderPoint sets the available level that triggers a low stock event
func (s *InventoryService) SetReorderPoint(ctx context.Context, cmd SetReorderPointCommand) (*InventoryDTO, error) {
	var rec *domain.InventoryRecord
	err := s.tx.Run(ctx, "inventory.set_reorder_point", func(ctx context.Context) error {
		var err error
		rec, err = s.store.SetReorderPoint(ctx, cmd.ProductID, cmd.WarehouseID, cmd.ReorderPoint)
		return err
	})
	if err != nil {
		logFailure(s.logger, "Failed to set reorder point", err, "productId", cmd.ProductID, "warehouseId", cmd.WarehouseID)
		return nil, err
	}

	s.logger.Info("Set reorder point", "productId", cmd.ProductID, "warehouseId", cmd.WarehouseID, "reorderPoint", cmd.ReorderPoint)
	return ToInventoryDTO(rec), nil
}
