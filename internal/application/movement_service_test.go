package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/internal/domain"
)

func TestMovementService_ApproveAppliesOnce(t *testing.T) {
	tests := []struct {
		movementType string
		quantity     int
		wantOnHand   int
	}{
		{movementType: "purchase", quantity: 5, wantOnHand: 25},
		{movementType: "return", quantity: 2, wantOnHand: 22},
		{movementType: "damage", quantity: 3, wantOnHand: 17},
		{movementType: "sale", quantity: 4, wantOnHand: 16},
		{movementType: "adjustment", quantity: -6, wantOnHand: 14},
		{movementType: "adjustment", quantity: 6, wantOnHand: 26},
	}

	for _, tt := range tests {
		t.Run(tt.movementType, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.seed(t, "P", "W", 20, 0)

			m, err := h.movements.RecordMovement(ctx, RecordMovementCommand{
				ProductID:    "P",
				WarehouseID:  "W",
				MovementType: tt.movementType,
				Quantity:     tt.quantity,
				UnitCost:     decimal.RequireFromString("1.5"),
				UserID:       "clerk",
			})
			require.NoError(t, err)
			assert.Equal(t, "pending", m.Status)
			assert.Equal(t, 20, h.record(t, "P", "W").QuantityOnHand)

			approved, err := h.movements.ApproveMovement(ctx, m.MovementID, "manager")
			require.NoError(t, err)
			assert.Equal(t, "approved", approved.Status)
			assert.NotNil(t, approved.AppliedAt)
			assert.Equal(t, tt.wantOnHand, h.record(t, "P", "W").QuantityOnHand)

			_, err = h.movements.ApproveMovement(ctx, m.MovementID, "manager")
			require.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, tt.wantOnHand, h.record(t, "P", "W").QuantityOnHand)
		})
	}
}

func TestMovementService_ApproveRespectsInventoryInvariant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "W", 10, 8)

	m, err := h.movements.RecordMovement(ctx, RecordMovementCommand{ProductID: "P", WarehouseID: "W", MovementType: "damage", Quantity: 3})
	require.NoError(t, err)

	_, err = h.movements.ApproveMovement(ctx, m.MovementID, "manager")
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	current, err := h.movements.GetMovement(ctx, m.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "pending", current.Status)
	assert.Equal(t, 10, h.record(t, "P", "W").QuantityOnHand)
}

func TestMovementService_Reject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "P", "W", 10, 0)

	m, err := h.movements.RecordMovement(ctx, RecordMovementCommand{
		ProductID:     "P",
		WarehouseID:   "W",
		MovementType:  "return",
		Quantity:      4,
		ReferenceType: "rma",
		ReferenceID:   "RMA-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "rma", m.ReferenceType)

	_, err = h.movements.RejectMovement(ctx, m.MovementID, "manager", "")
	require.ErrorIs(t, err, domain.ErrReasonRequired)

	rejected, err := h.movements.RejectMovement(ctx, m.MovementID, "manager", "no paperwork")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "no paperwork", rejected.RejectionReason)
	assert.Equal(t, 10, h.record(t, "P", "W").QuantityOnHand)

	_, err = h.movements.ApproveMovement(ctx, m.MovementID, "manager")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	byRef, err := h.movements.ListByReference(ctx, "rma", "RMA-9")
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, m.MovementID, byRef[0].MovementID)
}

func TestMovementService_RecordValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     RecordMovementCommand
		wantErr error
	}{
		{name: "unknown type", cmd: RecordMovementCommand{MovementType: "teleport", Quantity: 1}, wantErr: domain.ErrInvalidQuantity},
		{name: "zero quantity", cmd: RecordMovementCommand{MovementType: "purchase"}, wantErr: domain.ErrInvalidQuantity},
		{name: "negative purchase", cmd: RecordMovementCommand{MovementType: "purchase", Quantity: -1}, wantErr: domain.ErrInvalidQuantity},
		{name: "negative cost", cmd: RecordMovementCommand{MovementType: "purchase", Quantity: 1, UnitCost: decimal.NewFromInt(-1)}, wantErr: domain.ErrNegativeMoney},
		{name: "bad currency", cmd: RecordMovementCommand{MovementType: "purchase", Quantity: 1, Currency: "EURO"}, wantErr: domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.ProductID, tt.cmd.WarehouseID = "P", "W"
			_, err := h.movements.RecordMovement(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	ledger, err := h.movements.ListByInventory(ctx, "P", "W")
	require.NoError(t, err)
	assert.Empty(t, ledger)
}
