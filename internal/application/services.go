package application

import (
	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/resilience"
)

// Repositories is the storage backend the services run on
type Repositories struct {
	UnitOfWork     domain.UnitOfWork
	Inventory      domain.InventoryStore
	PurchaseOrders domain.PurchaseOrderRepository
	SalesOrders    domain.SalesOrderRepository
	Transfers      domain.StockTransferRepository
	Adjustments    domain.StockAdjustmentRepository
	Movements      domain.StockMovementRepository
	Requests       domain.ProcessedRequestStore
}

// Services bundles every application service over one backend
type Services struct {
	Inventory      *InventoryService
	PurchaseOrders *PurchaseOrderService
	SalesOrders    *SalesOrderService
	Transfers      *TransferService
	Adjustments    *AdjustmentService
	Movements      *MovementService
}

// NewServices wires the services to a shared transaction runner
func NewServices(repos Repositories, retry *resilience.RetryConfig, m *metrics.Metrics, logger *logging.Logger) *Services {
	tx := NewTxRunner(repos.UnitOfWork, retry, m, logger)
	return &Services{
		Inventory:      NewInventoryService(repos.Inventory, tx, logger),
		PurchaseOrders: NewPurchaseOrderService(repos.PurchaseOrders, repos.Inventory, repos.Movements, repos.Requests, tx, m, logger),
		SalesOrders:    NewSalesOrderService(repos.SalesOrders, repos.Inventory, repos.Movements, repos.Requests, tx, m, logger),
		Transfers:      NewTransferService(repos.Transfers, repos.Inventory, repos.Movements, tx, logger),
		Adjustments:    NewAdjustmentService(repos.Adjustments, repos.Inventory, repos.Movements, tx, logger),
		Movements:      NewMovementService(repos.Movements, repos.Inventory, repos.Requests, tx, logger),
	}
}
