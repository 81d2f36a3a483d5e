package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/internal/domain"
)

func TestAdjustmentService_RejectedDecreaseLeavesRecordUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "W", 50, 0)
	before := h.record(t, "P", "W")

	_, err := h.adjustments.CreateAdjustment(ctx, CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "W",
		AdjustmentType: "decrease",
		Quantity:       200,
		Reason:         "cycle count",
		AdjustedBy:     "auditor",
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	after := h.record(t, "P", "W")
	assert.Equal(t, before.QuantityOnHand, after.QuantityOnHand)
	assert.Equal(t, before.Version, after.Version)

	adjustments, err := h.adjustments.ListByInventory(ctx, "P", "W")
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestAdjustmentService_DecreaseCannotTouchReservedStock(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "P", "W", 50, 40)

	_, err := h.adjustments.CreateAdjustment(context.Background(), CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "W",
		AdjustmentType: "decrease",
		Quantity:       11,
		Reason:         "shrinkage",
	})

	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, 50, h.record(t, "P", "W").QuantityOnHand)
}

func TestAdjustmentService_RecordsQuantitiesAroundChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "W", 50, 0)

	adj, err := h.adjustments.CreateAdjustment(ctx, CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "W",
		AdjustmentType: "increase",
		Quantity:       10,
		Reason:         "found pallet",
		Notes:          "aisle 4",
		AdjustedBy:     "auditor",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, adj.QuantityBefore)
	assert.Equal(t, 60, adj.QuantityAfter)
	assert.Equal(t, "P:W", adj.InventoryID)
	assert.Equal(t, "aisle 4", adj.Notes)
	assert.Equal(t, 60, h.record(t, "P", "W").QuantityOnHand)

	movements := h.movementsOf(t, "stock_adjustment", adj.AdjustmentID)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementTypeAdjustment, movements[0].MovementType)
	assert.Equal(t, 10, movements[0].QuantityMoved)

	dec, err := h.adjustments.CreateAdjustment(ctx, CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "W",
		AdjustmentType: "decrease",
		Quantity:       15,
		Reason:         "damaged",
	})
	require.NoError(t, err)
	assert.Equal(t, 60, dec.QuantityBefore)
	assert.Equal(t, 45, dec.QuantityAfter)
	assert.Equal(t, -15, h.movementsOf(t, "stock_adjustment", dec.AdjustmentID)[0].QuantityMoved)

	assert.Contains(t, h.store.EventTypes(), "wms.stock.adjusted")
}

func TestAdjustmentService_CreatesRecordOnFirstIncrease(t *testing.T) {
	h := newHarness(t)

	adj, err := h.adjustments.CreateAdjustment(context.Background(), CreateAdjustmentCommand{
		ProductID:      "NEW",
		WarehouseID:    "W",
		AdjustmentType: "increase",
		Quantity:       3,
		Reason:         "opening balance",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, adj.QuantityBefore)
	assert.Equal(t, 3, h.record(t, "NEW", "W").QuantityOnHand)
}

func TestAdjustmentService_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name    string
		cmd     CreateAdjustmentCommand
		wantErr error
	}{
		{name: "unknown type", cmd: CreateAdjustmentCommand{AdjustmentType: "sideways", Quantity: 1, Reason: "x"}, wantErr: domain.ErrInvalidQuantity},
		{name: "zero quantity", cmd: CreateAdjustmentCommand{AdjustmentType: "increase", Quantity: 0, Reason: "x"}, wantErr: domain.ErrInvalidQuantity},
		{name: "missing reason", cmd: CreateAdjustmentCommand{AdjustmentType: "increase", Quantity: 1}, wantErr: domain.ErrReasonRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.ProductID, tt.cmd.WarehouseID = "P", "W"
			_, err := h.adjustments.CreateAdjustment(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdjustmentService_DeleteKeepsStockChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	adj, err := h.adjustments.CreateAdjustment(ctx, CreateAdjustmentCommand{
		ProductID:      "P",
		WarehouseID:    "W",
		AdjustmentType: "increase",
		Quantity:       8,
		Reason:         "return to stock",
	})
	require.NoError(t, err)

	updated, err := h.adjustments.UpdateNotes(ctx, adj.AdjustmentID, "checked twice")
	require.NoError(t, err)
	assert.Equal(t, "checked twice", updated.Notes)

	require.NoError(t, h.adjustments.DeleteAdjustment(ctx, adj.AdjustmentID, "auditor"))
	assert.Equal(t, 8, h.record(t, "P", "W").QuantityOnHand)

	err = h.adjustments.DeleteAdjustment(ctx, adj.AdjustmentID, "auditor")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.adjustments.UpdateNotes(ctx, adj.AdjustmentID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	deleted, err := h.adjustments.GetAdjustment(ctx, adj.AdjustmentID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, "auditor", deleted.DeletedBy)

	live, err := h.adjustments.ListByInventory(ctx, "P", "W")
	require.NoError(t, err)
	assert.Empty(t, live)

	err = h.adjustments.DeleteAdjustment(ctx, "missing", "auditor")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
