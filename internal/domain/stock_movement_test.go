package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement_Signs(t *testing.T) {
	tests := []struct {
		movementType MovementType
		quantity     int
		wantDelta    int
		wantErr      bool
	}{
		{MovementTypePurchase, 5, 5, false},
		{MovementTypeTransferIn, 5, 5, false},
		{MovementTypeReturn, 2, 2, false},
		{MovementTypeSale, 5, -5, false},
		{MovementTypeTransferOut, 5, -5, false},
		{MovementTypeDamage, 1, -1, false},
		{MovementTypeAdjustment, -3, -3, false},
		{MovementTypeAdjustment, 3, 3, false},
		{MovementTypeAdjustment, 0, 0, true},
		{MovementTypeSale, -5, 0, true},
		{MovementType("theft"), 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.movementType), func(t *testing.T) {
			m, err := NewStockMovement("SKU-1", "WH-A", tt.movementType, tt.quantity, Money{}, "user")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelta, m.OnHandDelta())
			assert.Equal(t, MovementStatusPending, m.Status)
			assert.Equal(t, DefaultCurrency, m.UnitCost.Currency())
		})
	}
}

func TestNewStockMovement_TotalValue(t *testing.T) {
	cost, err := NewMoney(decimal.RequireFromString("1.25"), "USD")
	require.NoError(t, err)

	m, err := NewStockMovement("SKU-1", "WH-A", MovementTypeSale, 4, cost, "user")
	require.NoError(t, err)
	assert.True(t, m.TotalValue.Amount().Equal(decimal.NewFromInt(5)))
}

func TestNewAppliedMovement(t *testing.T) {
	m, err := NewAppliedMovement("SKU-1", "WH-A", MovementTypePurchase, 10, Money{}, "user", Reference{Type: "purchase_order", ID: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, MovementStatusApplied, m.Status)
	assert.NotNil(t, m.AppliedAt)
	assert.Equal(t, "PO-1", m.Reference.ID)
	assert.ErrorIs(t, m.Approve("manager"), ErrInvalidTransition)
}

func TestStockMovement_ApproveAndReject(t *testing.T) {
	m, err := NewStockMovement("SKU-1", "WH-A", MovementTypeReturn, 2, Money{}, "user")
	require.NoError(t, err)

	require.NoError(t, m.Approve("manager"))
	assert.Equal(t, MovementStatusApproved, m.Status)
	assert.NotNil(t, m.AppliedAt)
	assert.ErrorIs(t, m.Approve("manager"), ErrInvalidTransition)
	assert.ErrorIs(t, m.Reject("manager", "dup"), ErrInvalidTransition)

	m, err = NewStockMovement("SKU-1", "WH-A", MovementTypeDamage, 2, Money{}, "user")
	require.NoError(t, err)
	assert.ErrorIs(t, m.Reject("manager", ""), ErrReasonRequired)
	require.NoError(t, m.Reject("manager", "not damaged"))
	assert.Equal(t, MovementStatusRejected, m.Status)
	assert.Nil(t, m.AppliedAt)

	events := m.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "wms.stock.movement.rejected", events[0].EventType())
}
