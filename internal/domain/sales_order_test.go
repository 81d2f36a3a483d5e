package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedSalesOrder(t *testing.T, quantities ...int) *SalesOrder {
	t.Helper()
	so, err := NewSalesOrder("", "CUST-1", "WH-A", "USD", "clerk")
	require.NoError(t, err)
	for i, qty := range quantities {
		_, err := so.AddItem("SKU-"+string(rune('A'+i)), qty, decimal.NewFromInt(3))
		require.NoError(t, err)
	}
	require.NoError(t, so.SubmitForApproval("clerk"))
	require.NoError(t, so.Approve("manager"))
	so.ClearDomainEvents()
	return so
}

func TestSalesOrder_ConfirmReturnsFullReservation(t *testing.T) {
	so := approvedSalesOrder(t, 3, 2)

	lines, err := so.Confirm("clerk")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.Equal(t, SalesOrderStatusConfirmed, so.Status)
	assert.NotNil(t, so.ConfirmedAt)
	assert.Equal(t, 5, so.OutstandingReservation())

	_, err = so.Confirm("clerk")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSalesOrder_EmptiedOrderCannotBeApprovedOrConfirmed(t *testing.T) {
	so, err := NewSalesOrder("", "CUST-1", "WH-A", "USD", "clerk")
	require.NoError(t, err)
	item, err := so.AddItem("SKU-A", 2, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, so.SubmitForApproval("clerk"))

	require.NoError(t, so.RemoveItem(item.ItemID))
	assert.ErrorIs(t, so.Approve("manager"), ErrEmptyOrder)
	assert.Equal(t, SalesOrderStatusPendingApproval, so.Status)

	approved := approvedSalesOrder(t, 4)
	approved.Items = nil
	_, err = approved.Confirm("clerk")
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, SalesOrderStatusApproved, approved.Status)
}

func TestSalesOrder_FulfillItems(t *testing.T) {
	so := approvedSalesOrder(t, 10)
	_, err := so.Confirm("clerk")
	require.NoError(t, err)
	itemID := so.Items[0].ItemID

	lines, err := so.FulfillItems([]FulfillmentLine{{ItemID: itemID, Quantity: 4, Notes: "first pallet"}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, SalesOrderStatusPartiallyFulfilled, so.Status)
	assert.Equal(t, "first pallet", so.Items[0].Notes)
	assert.Equal(t, 6, so.OutstandingReservation())

	_, err = so.FulfillItems([]FulfillmentLine{{ItemID: itemID, Quantity: 7}})
	assert.ErrorIs(t, err, ErrOverFulfillment)
	assert.Equal(t, 4, so.Items[0].QuantityFulfilled)

	_, err = so.FulfillItems([]FulfillmentLine{{ItemID: itemID, Quantity: 6}})
	require.NoError(t, err)
	assert.Equal(t, SalesOrderStatusFullyFulfilled, so.Status)
	assert.Zero(t, so.OutstandingReservation())
}

func TestSalesOrder_FulfillRequiresReservation(t *testing.T) {
	so := approvedSalesOrder(t, 10)
	_, err := so.FulfillItems([]FulfillmentLine{{ItemID: so.Items[0].ItemID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSalesOrder_Cancel(t *testing.T) {
	tests := []struct {
		name        string
		prepare     func(t *testing.T, so *SalesOrder)
		wantErr     error
		wantRelease int
	}{
		{
			name:    "approved holds nothing",
			prepare: func(t *testing.T, so *SalesOrder) {},
		},
		{
			name: "confirmed releases everything",
			prepare: func(t *testing.T, so *SalesOrder) {
				_, err := so.Confirm("clerk")
				require.NoError(t, err)
			},
			wantRelease: 10,
		},
		{
			name: "partially fulfilled releases the remainder",
			prepare: func(t *testing.T, so *SalesOrder) {
				_, err := so.Confirm("clerk")
				require.NoError(t, err)
				_, err = so.FulfillItems([]FulfillmentLine{{ItemID: so.Items[0].ItemID, Quantity: 4}})
				require.NoError(t, err)
			},
			wantRelease: 6,
		},
		{
			name: "fully fulfilled cannot cancel",
			prepare: func(t *testing.T, so *SalesOrder) {
				_, err := so.Confirm("clerk")
				require.NoError(t, err)
				_, err = so.FulfillItems([]FulfillmentLine{{ItemID: so.Items[0].ItemID, Quantity: 10}})
				require.NoError(t, err)
			},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			so := approvedSalesOrder(t, 10)
			tt.prepare(t, so)

			release, err := so.Cancel("customer request", "clerk")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SalesOrderStatusCancelled, so.Status)
			assert.Equal(t, "customer request", so.CancellationReason)

			total := 0
			for _, line := range release {
				total += line.Quantity
			}
			assert.Equal(t, tt.wantRelease, total)
		})
	}
}

func TestSalesOrder_ShipAndDeliver(t *testing.T) {
	so := approvedSalesOrder(t, 2)
	assert.ErrorIs(t, so.Ship("TRK-1", "UPS", "clerk"), ErrInvalidTransition)

	_, err := so.Confirm("clerk")
	require.NoError(t, err)
	_, err = so.FulfillItems([]FulfillmentLine{{ItemID: so.Items[0].ItemID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, so.Ship("TRK-1", "UPS", "clerk"))
	assert.Equal(t, "TRK-1", so.TrackingNumber)
	assert.NotNil(t, so.ShippedAt)

	_, err = so.Cancel("too late", "clerk")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, so.MarkAsDelivered("driver"))
	assert.Equal(t, SalesOrderStatusDelivered, so.Status)
	assert.ErrorIs(t, so.MarkAsDelivered("driver"), ErrInvalidTransition)
}

func TestSalesOrder_StatusEvents(t *testing.T) {
	so := approvedSalesOrder(t, 1)
	_, err := so.Confirm("clerk")
	require.NoError(t, err)

	events := so.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "wms.stock.sales-order.confirmed", events[0].EventType())
	assert.Equal(t, "sales-order/"+so.SalesOrderID, events[0].Subject())
}

func TestParseSalesOrderStatus(t *testing.T) {
	for _, s := range []string{"draft", "confirmed", "delivered", "cancelled"} {
		_, err := ParseSalesOrderStatus(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseSalesOrderStatus("received")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
