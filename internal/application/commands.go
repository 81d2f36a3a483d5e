package application

import "github.com/shopspring/decimal"

// OrderItemInput is one line of a new or edited order
type OrderItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreatePurchaseOrderCommand represents the command to create a draft purchase order
type CreatePurchaseOrderCommand struct {
	PONumber    string
	SupplierID  string
	WarehouseID string
	Currency    string
	Notes       string
	Items       []OrderItemInput
	CreatedBy   string
}

// CreateSalesOrderCommand represents the command to create a draft sales order
type CreateSalesOrderCommand struct {
	SONumber    string
	CustomerID  string
	WarehouseID string
	Currency    string
	Items       []OrderItemInput
	CreatedBy   string
}

// AddOrderItemCommand adds a line to an editable order
type AddOrderItemCommand struct {
	OrderID string
	Item    OrderItemInput
	Actor   string
}

// UpdateOrderItemCommand changes quantity and price of a line
type UpdateOrderItemCommand struct {
	OrderID   string
	ItemID    string
	Quantity  int
	UnitPrice decimal.Decimal
	Actor     string
}

// RemoveOrderItemCommand removes a line from an editable order
type RemoveOrderItemCommand struct {
	OrderID string
	ItemID  string
	Actor   string
}

// UpdateStatusCommand requests a status transition. Tracking and Carrier
// are only read when shipping a sales order.
type UpdateStatusCommand struct {
	ID             string
	Status         string
	Actor          string
	Reason         string
	TrackingNumber string
	Carrier        string
}

// QuantityLine is one line of a receipt or fulfillment
type QuantityLine struct {
	ItemID   string
	Quantity int
	Notes    string
}

// ReceiveItemsCommand represents a goods receipt against a purchase order
type ReceiveItemsCommand struct {
	PurchaseOrderID string
	RequestID       string
	Lines           []QuantityLine
	ReceivedBy      string
}

// FulfillItemsCommand represents a fulfillment against a sales order
type FulfillItemsCommand struct {
	SalesOrderID string
	RequestID    string
	Lines        []QuantityLine
	FulfilledBy  string
}

// InitiateTransferCommand represents the command to create a transfer
type InitiateTransferCommand struct {
	FromWarehouseID string
	ToWarehouseID   string
	ProductID       string
	Quantity        int
	Notes           string
	InitiatedBy     string
}

// CreateAdjustmentCommand represents a manual stock correction
type CreateAdjustmentCommand struct {
	ProductID      string
	WarehouseID    string
	AdjustmentType string
	Quantity       int
	Reason         string
	Notes          string
	AdjustedBy     string
}

// RecordMovementCommand records a manual movement pending approval
type RecordMovementCommand struct {
	ProductID     string
	WarehouseID   string
	MovementType  string
	Quantity      int
	UnitCost      decimal.Decimal
	Currency      string
	ReferenceType string
	ReferenceID   string
	Notes         string
	UserID        string
}

// SetReorderPointCommand sets the low stock threshold of a record
type SetReorderPointCommand struct {
	ProductID    string
	WarehouseID  string
	ReorderPoint int
}
