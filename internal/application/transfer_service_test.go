package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/internal/domain"
)

func TestTransferService_Complete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "WH-A", 20, 0)
	h.seed(t, "P", "WH-B", 5, 0)

	tr := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 15)

	// in transit goods are counted nowhere until completion
	assert.Equal(t, 20, h.record(t, "P", "WH-A").QuantityOnHand)
	assert.Equal(t, 5, h.record(t, "P", "WH-B").QuantityOnHand)

	done, err := h.transfers.Complete(ctx, tr.TransferID, "dave")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "dave", done.CompletedBy)

	assert.Equal(t, 5, h.record(t, "P", "WH-A").QuantityOnHand)
	assert.Equal(t, 20, h.record(t, "P", "WH-B").QuantityOnHand)

	_, err = h.transfers.Complete(ctx, tr.TransferID, "dave")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 5, h.record(t, "P", "WH-A").QuantityOnHand)
	assert.Equal(t, 20, h.record(t, "P", "WH-B").QuantityOnHand)

	movements := h.movementsOf(t, "stock_transfer", tr.TransferID)
	require.Len(t, movements, 2)
	byType := map[domain.MovementType]*domain.StockMovement{}
	for _, m := range movements {
		byType[m.MovementType] = m
	}
	assert.Equal(t, -15, byType[domain.MovementTypeTransferOut].QuantityMoved)
	assert.Equal(t, "WH-A", byType[domain.MovementTypeTransferOut].WarehouseID)
	assert.Equal(t, 15, byType[domain.MovementTypeTransferIn].QuantityMoved)
	assert.Equal(t, "WH-B", byType[domain.MovementTypeTransferIn].WarehouseID)
}

func TestTransferService_CompleteIsAllOrNothing(t *testing.T) {
	for _, failing := range []string{"WH-A", "WH-B"} {
		t.Run("fail at "+failing, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.seed(t, "P", "WH-A", 20, 0)
			h.seed(t, "P", "WH-B", 5, 0)
			tr := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 15)

			crash := errors.New("connection reset")
			h.inventory.ApplyDeltaFn = func(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
				if warehouseID == failing {
					return nil, crash
				}
				return h.store.Inventory().ApplyDelta(ctx, productID, warehouseID, onHandDelta, reservedDelta)
			}

			_, err := h.transfers.Complete(ctx, tr.TransferID, "dave")
			require.ErrorIs(t, err, crash)

			assert.Equal(t, 20, h.record(t, "P", "WH-A").QuantityOnHand)
			assert.Equal(t, 5, h.record(t, "P", "WH-B").QuantityOnHand)
			assert.Empty(t, h.movementsOf(t, "stock_transfer", tr.TransferID))

			current, err := h.transfers.GetTransfer(ctx, tr.TransferID)
			require.NoError(t, err)
			assert.Equal(t, "in_transit", current.Status)

			h.inventory.ApplyDeltaFn = nil
			_, err = h.transfers.Complete(ctx, tr.TransferID, "dave")
			require.NoError(t, err)
			assert.Equal(t, 5, h.record(t, "P", "WH-A").QuantityOnHand)
			assert.Equal(t, 20, h.record(t, "P", "WH-B").QuantityOnHand)
		})
	}
}

func TestTransferService_WritesRowsInWarehouseOrder(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "P", "WH-B", 10, 0)
	tr := h.inTransitTransfer(t, "P", "WH-B", "WH-A", 4)

	var order []string
	h.inventory.ApplyDeltaFn = func(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
		order = append(order, warehouseID)
		return h.store.Inventory().ApplyDelta(ctx, productID, warehouseID, onHandDelta, reservedDelta)
	}

	_, err := h.transfers.Complete(context.Background(), tr.TransferID, "dave")
	require.NoError(t, err)

	assert.Equal(t, []string{"WH-A", "WH-B"}, order)
	assert.Equal(t, 6, h.record(t, "P", "WH-B").QuantityOnHand)
	assert.Equal(t, 4, h.record(t, "P", "WH-A").QuantityOnHand)
}

func TestTransferService_RetriesLostRace(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "P", "WH-A", 20, 0)
	tr := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 15)

	calls := 0
	h.inventory.ApplyDeltaFn = func(ctx context.Context, productID, warehouseID string, onHandDelta, reservedDelta int) (*domain.InventoryRecord, error) {
		calls++
		if calls == 2 {
			return nil, domain.ErrConcurrentModification
		}
		return h.store.Inventory().ApplyDelta(ctx, productID, warehouseID, onHandDelta, reservedDelta)
	}

	_, err := h.transfers.Complete(context.Background(), tr.TransferID, "dave")
	require.NoError(t, err)

	assert.Equal(t, 4, calls)
	assert.Equal(t, 5, h.record(t, "P", "WH-A").QuantityOnHand)
	assert.Equal(t, 15, h.record(t, "P", "WH-B").QuantityOnHand)
	assert.Len(t, h.movementsOf(t, "stock_transfer", tr.TransferID), 2)
}

func TestTransferService_ExhaustedRetriesAreUnavailable(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "P", "WH-A", 20, 0)
	tr := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 15)

	h.inventory.ApplyDeltaFn = func(context.Context, string, string, int, int) (*domain.InventoryRecord, error) {
		return nil, domain.ErrConcurrentModification
	}

	_, err := h.transfers.Complete(context.Background(), tr.TransferID, "dave")

	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 503, ToAppError(err).HTTPStatus)
	assert.Equal(t, 20, h.record(t, "P", "WH-A").QuantityOnHand)
}

func TestTransferService_CompleteRevalidatesSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "WH-A", 20, 0)
	tr := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 15)

	_, err := h.adjustments.CreateAdjustment(ctx, CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "WH-A",
		AdjustmentType: "decrease",
		Quantity:       10,
		Reason:         "water damage",
	})
	require.NoError(t, err)

	_, err = h.transfers.Complete(ctx, tr.TransferID, "dave")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	current, err := h.transfers.GetTransfer(ctx, tr.TransferID)
	require.NoError(t, err)
	assert.Equal(t, "in_transit", current.Status)
	assert.Equal(t, 10, h.record(t, "P", "WH-A").QuantityOnHand)
}

func TestTransferService_Initiate(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "P", "WH-A", 20, 5)

	tests := []struct {
		name    string
		cmd     InitiateTransferCommand
		wantErr error
	}{
		{
			name:    "same warehouse",
			cmd:     InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-A", ProductID: "P", Quantity: 1},
			wantErr: domain.ErrSameWarehouse,
		},
		{
			name:    "zero quantity",
			cmd:     InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 0},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "more than available",
			cmd:     InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 16},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:    "unknown source stock",
			cmd:     InitiateTransferCommand{FromWarehouseID: "WH-Z", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 1},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name: "exactly available",
			cmd:  InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := h.transfers.InitiateTransfer(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pending", tr.Status)
		})
	}

	// initiating reserves nothing
	rec := h.record(t, "P", "WH-A")
	assert.Equal(t, 20, rec.QuantityOnHand)
	assert.Equal(t, 5, rec.QuantityReserved)
}

func TestTransferService_Cancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "WH-A", 20, 0)

	tr, err := h.transfers.InitiateTransfer(ctx, InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 5})
	require.NoError(t, err)

	_, err = h.transfers.Cancel(ctx, tr.TransferID, "", "bob")
	require.ErrorIs(t, err, domain.ErrReasonRequired)

	cancelled, err := h.transfers.Cancel(ctx, tr.TransferID, "truck broke down", "bob")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "truck broke down", cancelled.CancellationReason)

	moving := h.inTransitTransfer(t, "P", "WH-A", "WH-B", 5)
	_, err = h.transfers.Cancel(ctx, moving.TransferID, "too late", "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransferService_CompleteRequiresInTransit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "WH-A", 20, 0)

	tr, err := h.transfers.InitiateTransfer(ctx, InitiateTransferCommand{FromWarehouseID: "WH-A", ToWarehouseID: "WH-B", ProductID: "P", Quantity: 5})
	require.NoError(t, err)
	_, err = h.transfers.Approve(ctx, tr.TransferID, "bob")
	require.NoError(t, err)

	_, err = h.transfers.Complete(ctx, tr.TransferID, "dave")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 20, h.record(t, "P", "WH-A").QuantityOnHand)

	_, err = h.transfers.UpdateStatus(ctx, UpdateStatusCommand{ID: tr.TransferID, Status: "pending"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
