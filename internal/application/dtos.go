package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryDTO represents an inventory record in responses
type InventoryDTO struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"productId"`
	WarehouseID       string    `json:"warehouseId"`
	QuantityOnHand    int       `json:"quantityOnHand"`
	QuantityReserved  int       `json:"quantityReserved"`
	QuantityAvailable int       `json:"quantityAvailable"`
	ReorderPoint      int       `json:"reorderPoint"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// MoneyDTO is an amount with its currency
type MoneyDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// PurchaseOrderItemDTO represents a purchase order line
type PurchaseOrderItemDTO struct {
	ItemID           string   `json:"itemId"`
	ProductID        string   `json:"productId"`
	QuantityOrdered  int      `json:"quantityOrdered"`
	QuantityReceived int      `json:"quantityReceived"`
	UnitCost         MoneyDTO `json:"unitCost"`
}

// PurchaseOrderDTO represents a purchase order in responses
type PurchaseOrderDTO struct {
	PurchaseOrderID    string                 `json:"purchaseOrderId"`
	PONumber           string                 `json:"poNumber"`
	SupplierID         string                 `json:"supplierId"`
	WarehouseID        string                 `json:"warehouseId"`
	Status             string                 `json:"status"`
	Items              []PurchaseOrderItemDTO `json:"items"`
	TotalAmount        MoneyDTO               `json:"totalAmount"`
	Notes              string                 `json:"notes,omitempty"`
	CreatedBy          string                 `json:"createdBy"`
	ApprovedBy         string                 `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time             `json:"approvedAt,omitempty"`
	SentAt             *time.Time             `json:"sentAt,omitempty"`
	ReceivedAt         *time.Time             `json:"receivedAt,omitempty"`
	ClosedAt           *time.Time             `json:"closedAt,omitempty"`
	CancelledAt        *time.Time             `json:"cancelledAt,omitempty"`
	CancellationReason string                 `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// SalesOrderItemDTO represents a sales order line
type SalesOrderItemDTO struct {
	ItemID            string   `json:"itemId"`
	ProductID         string   `json:"productId"`
	QuantityOrdered   int      `json:"quantityOrdered"`
	QuantityFulfilled int      `json:"quantityFulfilled"`
	UnitPrice         MoneyDTO `json:"unitPrice"`
	Notes             string   `json:"notes,omitempty"`
}

// SalesOrderDTO represents a sales order in responses
type SalesOrderDTO struct {
	SalesOrderID       string              `json:"salesOrderId"`
	SONumber           string              `json:"soNumber"`
	CustomerID         string              `json:"customerId"`
	WarehouseID        string              `json:"warehouseId"`
	Status             string              `json:"status"`
	Items              []SalesOrderItemDTO `json:"items"`
	TotalAmount        MoneyDTO            `json:"totalAmount"`
	CreatedBy          string              `json:"createdBy"`
	ApprovedBy         string              `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time          `json:"approvedAt,omitempty"`
	ConfirmedAt        *time.Time          `json:"confirmedAt,omitempty"`
	TrackingNumber     string              `json:"trackingNumber,omitempty"`
	Carrier            string              `json:"carrier,omitempty"`
	ShippedAt          *time.Time          `json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
	CancellationReason string              `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// TransferDTO represents a stock transfer in responses
type TransferDTO struct {
	TransferID          string     `json:"transferId"`
	ProductID           string     `json:"productId"`
	FromWarehouseID     string     `json:"fromWarehouseId"`
	ToWarehouseID       string     `json:"toWarehouseId"`
	QuantityTransferred int        `json:"quantityTransferred"`
	Status              string     `json:"status"`
	Notes               string     `json:"notes,omitempty"`
	InitiatedBy         string     `json:"initiatedBy"`
	InitiatedAt         time.Time  `json:"initiatedAt"`
	ApprovedBy          string     `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`
	ShippedAt           *time.Time `json:"shippedAt,omitempty"`
	CompletedBy         string     `json:"completedBy,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason  string     `json:"cancellationReason,omitempty"`
}

// AdjustmentDTO represents a stock adjustment in responses
type AdjustmentDTO struct {
	AdjustmentID     string     `json:"adjustmentId"`
	InventoryID      string     `json:"inventoryId"`
	ProductID        string     `json:"productId"`
	WarehouseID      string     `json:"warehouseId"`
	AdjustmentType   string     `json:"adjustmentType"`
	QuantityAdjusted int        `json:"quantityAdjusted"`
	QuantityBefore   int        `json:"quantityBefore"`
	QuantityAfter    int        `json:"quantityAfter"`
	Reason           string     `json:"reason"`
	Notes            string     `json:"notes,omitempty"`
	AdjustedBy       string     `json:"adjustedBy"`
	AdjustedAt       time.Time  `json:"adjustedAt"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	DeletedBy        string     `json:"deletedBy,omitempty"`
}

// MovementDTO represents a ledger movement in responses
type MovementDTO struct {
	MovementID      string     `json:"movementId"`
	ProductID       string     `json:"productId"`
	WarehouseID     string     `json:"warehouseId"`
	MovementType    string     `json:"movementType"`
	QuantityMoved   int        `json:"quantityMoved"`
	UnitCost        MoneyDTO   `json:"unitCost"`
	TotalValue      MoneyDTO   `json:"totalValue"`
	Status          string     `json:"status"`
	ReferenceType   string     `json:"referenceType,omitempty"`
	ReferenceID     string     `json:"referenceId,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	UserID          string     `json:"userId"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	AppliedAt       *time.Time `json:"appliedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
