package application

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/internal/infrastructure/memory"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/resilience"
)

// stubInventoryStore wraps a real store and lets a test intercept deltas
type stubInventoryStore struct {
	domain.InventoryStore
	ApplyDeltaFn func(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error)
}

func (s *stubInventoryStore) ApplyDelta(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
	if s.ApplyDeltaFn != nil {
		return s.ApplyDeltaFn(ctx, productID, warehouseID, onHandDelta, reservedDelta)
	}
	return s.InventoryStore.ApplyDelta(ctx, productID, warehouseID, onHandDelta, reservedDelta)
}

type harness struct {
	store       *memory.Store
	inventory   *stubInventoryStore
	tx          *TxRunner
	stock       *InventoryService
	purchases   *PurchaseOrderService
	sales       *SalesOrderService
	transfers   *TransferService
	adjustments *AdjustmentService
	movements   *MovementService
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: logging.LevelError, ServiceName: "stock-service-test", Output: io.Discard})
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	inventory := &stubInventoryStore{InventoryStore: store.Inventory()}
	logger := testLogger()

	tx := NewTxRunner(store, &resilience.RetryConfig{
		MaxAttempts:     DefaultTxMaxAttempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: IsRetryable,
	}, nil, logger)

	return &harness{
		store:       store,
		inventory:   inventory,
		tx:          tx,
		stock:       NewInventoryService(inventory, tx, logger),
		purchases:   NewPurchaseOrderService(store.PurchaseOrders(), inventory, store.Movements(), store.ProcessedRequests(), tx, nil, logger),
		sales:       NewSalesOrderService(store.SalesOrders(), inventory, store.Movements(), store.ProcessedRequests(), tx, nil, logger),
		transfers:   NewTransferService(store.Transfers(), inventory, store.Movements(), tx, logger),
		adjustments: NewAdjustmentService(store.Adjustments(), inventory, store.Movements(), tx, logger),
		movements:   NewMovementService(store.Movements(), inventory, store.ProcessedRequests(), tx, logger),
	}
}

// seed sets on hand stock directly through the store
func (h *harness) seed(t *testing.T, productID, warehouseID string, onHand, reserved int) {
	t.Helper()
	_, err := h.store.Inventory().ApplyDelta(context.Background(), productID, warehouseID, onHand, reserved)
	require.NoError(t, err)
}

func (h *harness) record(t *testing.T, productID, warehouseID string) *domain.InventoryRecord {
	t.Helper()
	rec, err := h.store.Inventory().Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	require.NoError(t, rec.CheckInvariant())
	return rec
}

func (h *harness) movementsOf(t *testing.T, refType, refID string) []*domain.StockMovement {
	t.Helper()
	movements, err := h.store.Movements().FindByReference(context.Background(), refType, refID)
	require.NoError(t, err)
	return movements
}

// confirmedSalesOrder creates and confirms a one line order
func (h *harness) confirmedSalesOrder(t *testing.T, productID, warehouseID string, quantity int) *SalesOrderDTO {
	t.Helper()
	so := h.approvedSalesOrder(t, productID, warehouseID, quantity)
	confirmed, err := h.sales.Confirm(context.Background(), so.SalesOrderID, "bob")
	require.NoError(t, err)
	return confirmed
}

func (h *harness) approvedSalesOrder(t *testing.T, productID, warehouseID string, quantity int) *SalesOrderDTO {
	t.Helper()
	ctx := context.Background()
	so, err := h.sales.CreateSalesOrder(ctx, CreateSalesOrderCommand{
		CustomerID:  "cust-1",
		WarehouseID: warehouseID,
		Items:       []OrderItemInput{{ProductID: productID, Quantity: quantity, UnitPrice: decimal.RequireFromString("12.50")}},
		CreatedBy:   "alice",
	})
	require.NoError(t, err)
	_, err = h.sales.UpdateStatus(ctx, UpdateStatusCommand{ID: so.SalesOrderID, Status: "pending_approval", Actor: "alice"})
	require.NoError(t, err)
	so, err = h.sales.UpdateStatus(ctx, UpdateStatusCommand{ID: so.SalesOrderID, Status: "approved", Actor: "bob"})
	require.NoError(t, err)
	return so
}

// sentPurchaseOrder creates a one line order and sends it to the supplier
func (h *harness) sentPurchaseOrder(t *testing.T, productID, warehouseID string, quantity int) *PurchaseOrderDTO {
	t.Helper()
	ctx := context.Background()
	po, err := h.purchases.CreatePurchaseOrder(ctx, CreatePurchaseOrderCommand{
		SupplierID:  "sup-1",
		WarehouseID: warehouseID,
		Items:       []OrderItemInput{{ProductID: productID, Quantity: quantity, UnitPrice: decimal.RequireFromString("4.20")}},
		CreatedBy:   "alice",
	})
	require.NoError(t, err)
	for _, status := range []string{"pending_approval", "approved", "sent_to_supplier"} {
		po, err = h.purchases.UpdateStatus(ctx, UpdateStatusCommand{ID: po.PurchaseOrderID, Status: status, Actor: "bob"})
		require.NoError(t, err)
	}
	return po
}

// inTransitTransfer initiates a transfer and moves it to in_transit
func (h *harness) inTransitTransfer(t *testing.T, productID, from, to string, quantity int) *TransferDTO {
	t.Helper()
	ctx := context.Background()
	tr, err := h.transfers.InitiateTransfer(ctx, InitiateTransferCommand{
		FromWarehouseID: from,
		ToWarehouseID:   to,
		ProductID:       productID,
		Quantity:        quantity,
		InitiatedBy:     "alice",
	})
	require.NoError(t, err)
	_, err = h.transfers.Approve(ctx, tr.TransferID, "bob")
	require.NoError(t, err)
	tr, err = h.transfers.MarkInTransit(ctx, tr.TransferID, "carol")
	require.NoError(t, err)
	return tr
}
