package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockAdjustment(t *testing.T) {
	_, err := NewStockAdjustment("SKU-1", "WH-A", "sideways", 1, "count", "op")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewStockAdjustment("SKU-1", "WH-A", AdjustmentTypeIncrease, 0, "count", "op")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewStockAdjustment("SKU-1", "WH-A", AdjustmentTypeIncrease, 1, "", "op")
	assert.ErrorIs(t, err, ErrReasonRequired)

	a, err := NewStockAdjustment("SKU-1", "WH-A", AdjustmentTypeDecrease, 3, "shrinkage", "op")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1:WH-A", a.InventoryID)
	assert.Equal(t, -3, a.OnHandDelta())
}

func TestStockAdjustment_RecordOutcome(t *testing.T) {
	a, err := NewStockAdjustment("SKU-1", "WH-A", AdjustmentTypeIncrease, 5, "found", "op")
	require.NoError(t, err)

	a.RecordOutcome(10, 15)
	assert.Equal(t, 10, a.QuantityBefore)
	assert.Equal(t, 15, a.QuantityAfter)

	events := a.GetDomainEvents()
	require.Len(t, events, 1)
	adjusted, ok := events[0].(*StockAdjustedEvent)
	require.True(t, ok)
	assert.Equal(t, "increase", adjusted.AdjustmentType)
}

func TestStockAdjustment_NotesAndDelete(t *testing.T) {
	a, err := NewStockAdjustment("SKU-1", "WH-A", AdjustmentTypeIncrease, 5, "found", "op")
	require.NoError(t, err)

	require.NoError(t, a.UpdateNotes("recount done"))
	assert.Equal(t, "recount done", a.Notes)

	require.NoError(t, a.Delete("auditor"))
	assert.True(t, a.IsDeleted())
	assert.Equal(t, "auditor", a.DeletedBy)

	assert.ErrorIs(t, a.Delete("auditor"), ErrInvalidTransition)
	assert.ErrorIs(t, a.UpdateNotes("again"), ErrInvalidTransition)
}
