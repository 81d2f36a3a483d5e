package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	Subject() string
}

// eventRecorder collects domain events raised by an aggregate until they are saved
type eventRecorder struct {
	events []DomainEvent
}

func (r *eventRecorder) AddDomainEvent(event DomainEvent) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) GetDomainEvents() []DomainEvent {
	return r.events
}

func (r *eventRecorder) ClearDomainEvents() {
	r.events = nil
}

// StockLevelChangedEvent is raised by every applied inventory delta
type StockLevelChangedEvent struct {
	ProductID     string    `json:"productId"`
	WarehouseID   string    `json:"warehouseId"`
	OnHandDelta   int       `json:"onHandDelta"`
	ReservedDelta int       `json:"reservedDelta"`
	OnHand        int       `json:"onHand"`
	Reserved      int       `json:"reserved"`
	Available     int       `json:"available"`
	ChangedAt     time.Time `json:"changedAt"`
}

func (e *StockLevelChangedEvent) EventType() string     { return "wms.stock.level-changed" }
func (e *StockLevelChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *StockLevelChangedEvent) Subject() string       { return "inventory/" + InventoryID(e.ProductID, e.WarehouseID) }

// LowStockDetectedEvent is raised when available stock crosses the reorder point
type LowStockDetectedEvent struct {
	ProductID    string    `json:"productId"`
	WarehouseID  string    `json:"warehouseId"`
	Available    int       `json:"available"`
	ReorderPoint int       `json:"reorderPoint"`
	DetectedAt   time.Time `json:"detectedAt"`
}

func (e *LowStockDetectedEvent) EventType() string     { return "wms.stock.low-stock-detected" }
func (e *LowStockDetectedEvent) OccurredAt() time.Time { return e.DetectedAt }
func (e *LowStockDetectedEvent) Subject() string       { return "inventory/" + InventoryID(e.ProductID, e.WarehouseID) }

// PurchaseOrderStatusChangedEvent is raised on every purchase order transition
type PurchaseOrderStatusChangedEvent struct {
	PurchaseOrderID string    `json:"purchaseOrderId"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Actor           string    `json:"actor,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ChangedAt       time.Time `json:"changedAt"`
}

func (e *PurchaseOrderStatusChangedEvent) EventType() string {
	return "wms.stock.purchase-order." + e.To
}
func (e *PurchaseOrderStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *PurchaseOrderStatusChangedEvent) Subject() string       { return "purchase-order/" + e.PurchaseOrderID }

// ReceivedLine is a single line of a goods receipt
type ReceivedLine struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PurchaseOrderItemsReceivedEvent is raised when goods are received against a purchase order
type PurchaseOrderItemsReceivedEvent struct {
	PurchaseOrderID string         `json:"purchaseOrderId"`
	WarehouseID     string         `json:"warehouseId"`
	Lines           []ReceivedLine `json:"lines"`
	Status          string         `json:"status"`
	ReceivedAt      time.Time      `json:"receivedAt"`
}

func (e *PurchaseOrderItemsReceivedEvent) EventType() string     { return "wms.stock.purchase-order.items-received" }
func (e *PurchaseOrderItemsReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }
func (e *PurchaseOrderItemsReceivedEvent) Subject() string       { return "purchase-order/" + e.PurchaseOrderID }

// SalesOrderStatusChangedEvent is raised on every sales order transition
type SalesOrderStatusChangedEvent struct {
	SalesOrderID string    `json:"salesOrderId"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Actor        string    `json:"actor,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	ChangedAt    time.Time `json:"changedAt"`
}

func (e *SalesOrderStatusChangedEvent) EventType() string     { return "wms.stock.sales-order." + e.To }
func (e *SalesOrderStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *SalesOrderStatusChangedEvent) Subject() string       { return "sales-order/" + e.SalesOrderID }

// FulfilledLine is a single line of a fulfillment
type FulfilledLine struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// SalesOrderItemsFulfilledEvent is raised when reserved units leave the warehouse
type SalesOrderItemsFulfilledEvent struct {
	SalesOrderID string          `json:"salesOrderId"`
	WarehouseID  string          `json:"warehouseId"`
	Lines        []FulfilledLine `json:"lines"`
	Status       string          `json:"status"`
	FulfilledAt  time.Time       `json:"fulfilledAt"`
}

func (e *SalesOrderItemsFulfilledEvent) EventType() string     { return "wms.stock.sales-order.items-fulfilled" }
func (e *SalesOrderItemsFulfilledEvent) OccurredAt() time.Time { return e.FulfilledAt }
func (e *SalesOrderItemsFulfilledEvent) Subject() string       { return "sales-order/" + e.SalesOrderID }

// StockTransferStatusChangedEvent is raised on every transfer transition
type StockTransferStatusChangedEvent struct {
	TransferID      string    `json:"transferId"`
	ProductID       string    `json:"productId"`
	FromWarehouseID string    `json:"fromWarehouseId"`
	ToWarehouseID   string    `json:"toWarehouseId"`
	Quantity        int       `json:"quantity"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Actor           string    `json:"actor,omitempty"`
	ChangedAt       time.Time `json:"changedAt"`
}

func (e *StockTransferStatusChangedEvent) EventType() string     { return "wms.stock.transfer." + e.To }
func (e *StockTransferStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *StockTransferStatusChangedEvent) Subject() string       { return "transfer/" + e.TransferID }

// StockAdjustedEvent is raised when a manual adjustment is applied
type StockAdjustedEvent struct {
	AdjustmentID   string    `json:"adjustmentId"`
	ProductID      string    `json:"productId"`
	WarehouseID    string    `json:"warehouseId"`
	AdjustmentType string    `json:"adjustmentType"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	Reason         string    `json:"reason"`
	AdjustedBy     string    `json:"adjustedBy"`
	AdjustedAt     time.Time `json:"adjustedAt"`
}

func (e *StockAdjustedEvent) EventType() string     { return "wms.stock.adjusted" }
func (e *StockAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }
func (e *StockAdjustedEvent) Subject() string       { return "adjustment/" + e.AdjustmentID }

// StockMovementStatusChangedEvent is raised when a pending movement is approved or rejected
type StockMovementStatusChangedEvent struct {
	MovementID    string    `json:"movementId"`
	ProductID     string    `json:"productId"`
	WarehouseID   string    `json:"warehouseId"`
	MovementType  string    `json:"movementType"`
	QuantityMoved int       `json:"quantityMoved"`
	Status        string    `json:"status"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changedAt"`
}

func (e *StockMovementStatusChangedEvent) EventType() string {
	return "wms.stock.movement." + e.Status
}
func (e *StockMovementStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *StockMovementStatusChangedEvent) Subject() string       { return "movement/" + e.MovementID }
