package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus represents the status of a sales order
type SalesOrderStatus string

const (
	SalesOrderStatusDraft              SalesOrderStatus = "draft"
	SalesOrderStatusPendingApproval    SalesOrderStatus = "pending_approval"
	SalesOrderStatusApproved           SalesOrderStatus = "approved"
	SalesOrderStatusConfirmed          SalesOrderStatus = "confirmed"
	SalesOrderStatusPartiallyFulfilled SalesOrderStatus = "partially_fulfilled"
	SalesOrderStatusFullyFulfilled     SalesOrderStatus = "fully_fulfilled"
	SalesOrderStatusShipped            SalesOrderStatus = "shipped"
	SalesOrderStatusDelivered          SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled          SalesOrderStatus = "cancelled"
)

var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderStatusDraft:              {SalesOrderStatusPendingApproval, SalesOrderStatusCancelled},
	SalesOrderStatusPendingApproval:    {SalesOrderStatusApproved, SalesOrderStatusCancelled},
	SalesOrderStatusApproved:           {SalesOrderStatusConfirmed, SalesOrderStatusCancelled},
	SalesOrderStatusConfirmed:          {SalesOrderStatusPartiallyFulfilled, SalesOrderStatusFullyFulfilled, SalesOrderStatusCancelled},
	SalesOrderStatusPartiallyFulfilled: {SalesOrderStatusPartiallyFulfilled, SalesOrderStatusFullyFulfilled, SalesOrderStatusCancelled},
	SalesOrderStatusFullyFulfilled:     {SalesOrderStatusShipped},
	SalesOrderStatusShipped:            {SalesOrderStatusDelivered},
}

// ParseSalesOrderStatus rejects unknown status strings with ErrInvalidTransition
func ParseSalesOrderStatus(s string) (SalesOrderStatus, error) {
	status := SalesOrderStatus(s)
	if !status.IsValid() {
		return "", &ViolationError{Kind: ErrInvalidTransition, Entity: "sales_order", To: s}
	}
	return status, nil
}

// IsValid reports whether s is a known status
func (s SalesOrderStatus) IsValid() bool {
	_, known := salesOrderTransitions[s]
	return known || s == SalesOrderStatusDelivered || s == SalesOrderStatusCancelled
}

// CanTransitionTo checks the transition table
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	for _, allowed := range salesOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsEditable reports whether items may still be changed
func (s SalesOrderStatus) IsEditable() bool {
	return s == SalesOrderStatusDraft || s == SalesOrderStatusPendingApproval
}

// HoldsReservation reports whether stock is reserved for the order in this status
func (s SalesOrderStatus) HoldsReservation() bool {
	return s == SalesOrderStatusConfirmed || s == SalesOrderStatusPartiallyFulfilled
}

// SalesOrderItem is one ordered product line
type SalesOrderItem struct {
	ItemID            string `bson:"itemId" json:"itemId"`
	ProductID         string `bson:"productId" json:"productId"`
	QuantityOrdered   int    `bson:"quantityOrdered" json:"quantityOrdered"`
	QuantityFulfilled int    `bson:"quantityFulfilled" json:"quantityFulfilled"`
	UnitPrice         Money  `bson:"unitPrice" json:"unitPrice"`
	Notes             string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Remaining returns the quantity still to be fulfilled
func (i *SalesOrderItem) Remaining() int {
	return i.QuantityOrdered - i.QuantityFulfilled
}

// FulfillmentLine requests fulfilling a quantity against an item
type FulfillmentLine struct {
	ItemID   string
	Quantity int
	Notes    string
}

// ReservationLine is a reserved quantity change the caller must apply to inventory
type ReservationLine struct {
	ItemID    string
	ProductID string
	Quantity  int
}

// SalesOrder is the aggregate root for outbound stock
type SalesOrder struct {
	SalesOrderID       string           `bson:"_id" json:"salesOrderId"`
	SONumber           string           `bson:"soNumber" json:"soNumber"`
	CustomerID         string           `bson:"customerId" json:"customerId"`
	WarehouseID        string           `bson:"warehouseId" json:"warehouseId"`
	Status             SalesOrderStatus `bson:"status" json:"status"`
	Items              []SalesOrderItem `bson:"items" json:"items"`
	Currency           string           `bson:"currency" json:"currency"`
	TotalAmount        Money            `bson:"totalAmount" json:"totalAmount"`
	CreatedBy          string           `bson:"createdBy" json:"createdBy"`
	ApprovedBy         string           `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time       `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ConfirmedAt        *time.Time       `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	TrackingNumber     string           `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Carrier            string           `bson:"carrier,omitempty" json:"carrier,omitempty"`
	ShippedAt          *time.Time       `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time       `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time       `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string           `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	Version            int64            `bson:"version" json:"version"`
	CreatedAt          time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time        `bson:"updatedAt" json:"updatedAt"`

	eventRecorder `bson:"-" json:"-"`
}

// NewSalesOrder creates a draft sales order without items
func NewSalesOrder(soNumber, customerID, warehouseID, currency, createdBy string) (*SalesOrder, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	now := time.Now().UTC()
	id := uuid.New().String()
	if soNumber == "" {
		soNumber = "SO-" + now.Format("20060102") + "-" + id[:8]
	}

	return &SalesOrder{
		SalesOrderID: id,
		SONumber:     soNumber,
		CustomerID:   customerID,
		WarehouseID:  warehouseID,
		Status:       SalesOrderStatusDraft,
		Items:        []SalesOrderItem{},
		Currency:     currency,
		TotalAmount:  ZeroMoney(currency),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (so *SalesOrder) transition(target SalesOrderStatus, actor, reason string) error {
	if !so.Status.CanTransitionTo(target) {
		return transitionError("sales_order", so.SalesOrderID, string(so.Status), string(target))
	}
	from := so.Status
	so.Status = target
	so.UpdatedAt = time.Now().UTC()
	if from != target {
		so.AddDomainEvent(&SalesOrderStatusChangedEvent{
			SalesOrderID: so.SalesOrderID,
			From:         string(from),
			To:           string(target),
			Actor:        actor,
			Reason:       reason,
			ChangedAt:    so.UpdatedAt,
		})
	}
	return nil
}

func (so *SalesOrder) ensureEditable(action string) error {
	if !so.Status.IsEditable() {
		return transitionError("sales_order", so.SalesOrderID, string(so.Status), action)
	}
	return nil
}

func (so *SalesOrder) findItem(itemID string) (int, error) {
	for i := range so.Items {
		if so.Items[i].ItemID == itemID {
			return i, nil
		}
	}
	return -1, NotFoundError("sales_order_item", itemID)
}

func (so *SalesOrder) recalculateTotal() {
	total := ZeroMoney(so.Currency)
	for _, item := range so.Items {
		total, _ = total.Add(item.UnitPrice.Multiply(item.QuantityOrdered))
	}
	so.TotalAmount = total
}

// AddItem appends a line and recomputes the total
func (so *SalesOrder) AddItem(productID string, quantity int, unitPrice decimal.Decimal) (*SalesOrderItem, error) {
	if err := so.ensureEditable("add_item"); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, quantityError(ErrInvalidQuantity, "sales_order", so.SalesOrderID, "", quantity, 1)
	}
	price, err := NewMoney(unitPrice, so.Currency)
	if err != nil {
		return nil, err
	}

	so.Items = append(so.Items, SalesOrderItem{
		ItemID:          uuid.New().String(),
		ProductID:       productID,
		QuantityOrdered: quantity,
		UnitPrice:       price,
	})
	so.recalculateTotal()
	so.UpdatedAt = time.Now().UTC()
	return &so.Items[len(so.Items)-1], nil
}

// UpdateItem changes quantity and price of a line and recomputes the total
func (so *SalesOrder) UpdateItem(itemID string, quantity int, unitPrice decimal.Decimal) error {
	if err := so.ensureEditable("update_item"); err != nil {
		return err
	}
	idx, err := so.findItem(itemID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return quantityError(ErrInvalidQuantity, "sales_order", so.SalesOrderID, itemID, quantity, 1)
	}
	price, err := NewMoney(unitPrice, so.Currency)
	if err != nil {
		return err
	}

	so.Items[idx].QuantityOrdered = quantity
	so.Items[idx].UnitPrice = price
	so.recalculateTotal()
	so.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveItem deletes a line and recomputes the total
func (so *SalesOrder) RemoveItem(itemID string) error {
	if err := so.ensureEditable("remove_item"); err != nil {
		return err
	}
	idx, err := so.findItem(itemID)
	if err != nil {
		return err
	}

	so.Items = append(so.Items[:idx], so.Items[idx+1:]...)
	so.recalculateTotal()
	so.UpdatedAt = time.Now().UTC()
	return nil
}

// SubmitForApproval moves a draft with at least one line to pending_approval
func (so *SalesOrder) SubmitForApproval(actor string) error {
	if len(so.Items) == 0 && so.Status == SalesOrderStatusDraft {
		return &ViolationError{Kind: ErrEmptyOrder, Entity: "sales_order", EntityID: so.SalesOrderID}
	}
	return so.transition(SalesOrderStatusPendingApproval, actor, "")
}

// Approve records the approver
func (so *SalesOrder) Approve(approver string) error {
	if len(so.Items) == 0 && so.Status == SalesOrderStatusPendingApproval {
		return &ViolationError{Kind: ErrEmptyOrder, Entity: "sales_order", EntityID: so.SalesOrderID}
	}
	if err := so.transition(SalesOrderStatusApproved, approver, ""); err != nil {
		return err
	}
	now := so.UpdatedAt
	so.ApprovedBy = approver
	so.ApprovedAt = &now
	return nil
}

// Confirm moves the order to confirmed and returns the full ordered quantity
// per line, which the caller reserves in the same unit of work.
func (so *SalesOrder) Confirm(actor string) ([]ReservationLine, error) {
	if len(so.Items) == 0 && so.Status == SalesOrderStatusApproved {
		return nil, &ViolationError{Kind: ErrEmptyOrder, Entity: "sales_order", EntityID: so.SalesOrderID}
	}
	if err := so.transition(SalesOrderStatusConfirmed, actor, ""); err != nil {
		return nil, err
	}
	now := so.UpdatedAt
	so.ConfirmedAt = &now

	lines := make([]ReservationLine, 0, len(so.Items))
	for _, item := range so.Items {
		lines = append(lines, ReservationLine{ItemID: item.ItemID, ProductID: item.ProductID, Quantity: item.QuantityOrdered})
	}
	return lines, nil
}

// FulfillItems validates every line before changing any counter. The returned
// lines are the quantities that leave the warehouse.
func (so *SalesOrder) FulfillItems(lines []FulfillmentLine) ([]FulfilledLine, error) {
	if !so.Status.HoldsReservation() {
		return nil, transitionError("sales_order", so.SalesOrderID, string(so.Status), string(SalesOrderStatusPartiallyFulfilled))
	}
	if len(lines) == 0 {
		return nil, &ViolationError{Kind: ErrInvalidQuantity, Entity: "sales_order", EntityID: so.SalesOrderID}
	}

	pending := make(map[string]int, len(lines))
	for _, line := range lines {
		idx, err := so.findItem(line.ItemID)
		if err != nil {
			return nil, err
		}
		if line.Quantity <= 0 {
			return nil, quantityError(ErrInvalidQuantity, "sales_order", so.SalesOrderID, line.ItemID, line.Quantity, 1)
		}
		pending[line.ItemID] += line.Quantity
		item := so.Items[idx]
		if item.QuantityFulfilled+pending[line.ItemID] > item.QuantityOrdered {
			return nil, quantityError(ErrOverFulfillment, "sales_order", so.SalesOrderID, line.ItemID, pending[line.ItemID], item.Remaining())
		}
	}

	fulfilled := make([]FulfilledLine, 0, len(lines))
	for _, line := range lines {
		idx, _ := so.findItem(line.ItemID)
		so.Items[idx].QuantityFulfilled += line.Quantity
		if line.Notes != "" {
			so.Items[idx].Notes = line.Notes
		}
		fulfilled = append(fulfilled, FulfilledLine{
			ItemID:    line.ItemID,
			ProductID: so.Items[idx].ProductID,
			Quantity:  line.Quantity,
			Notes:     line.Notes,
		})
	}

	target := SalesOrderStatusPartiallyFulfilled
	if so.IsFullyFulfilled() {
		target = SalesOrderStatusFullyFulfilled
	}
	if err := so.transition(target, "", ""); err != nil {
		return nil, err
	}

	so.AddDomainEvent(&SalesOrderItemsFulfilledEvent{
		SalesOrderID: so.SalesOrderID,
		WarehouseID:  so.WarehouseID,
		Lines:        fulfilled,
		Status:       string(so.Status),
		FulfilledAt:  so.UpdatedAt,
	})

	return fulfilled, nil
}

// Ship records tracking information for a fully fulfilled order
func (so *SalesOrder) Ship(trackingNumber, carrier, actor string) error {
	if err := so.transition(SalesOrderStatusShipped, actor, ""); err != nil {
		return err
	}
	now := so.UpdatedAt
	so.TrackingNumber = trackingNumber
	so.Carrier = carrier
	so.ShippedAt = &now
	return nil
}

// MarkAsDelivered completes a shipped order
func (so *SalesOrder) MarkAsDelivered(actor string) error {
	if err := so.transition(SalesOrderStatusDelivered, actor, ""); err != nil {
		return err
	}
	now := so.UpdatedAt
	so.DeliveredAt = &now
	return nil
}

// Cancel moves the order to cancelled. When the order held a reservation the
// returned lines are the unfulfilled quantities to release.
func (so *SalesOrder) Cancel(reason, actor string) ([]ReservationLine, error) {
	heldReservation := so.Status.HoldsReservation()
	if err := so.transition(SalesOrderStatusCancelled, actor, reason); err != nil {
		return nil, err
	}
	now := so.UpdatedAt
	so.CancelledAt = &now
	so.CancellationReason = reason

	if !heldReservation {
		return nil, nil
	}
	var release []ReservationLine
	for _, item := range so.Items {
		if remaining := item.Remaining(); remaining > 0 {
			release = append(release, ReservationLine{ItemID: item.ItemID, ProductID: item.ProductID, Quantity: remaining})
		}
	}
	return release, nil
}

// IsFullyFulfilled reports whether every line is complete
func (so *SalesOrder) IsFullyFulfilled() bool {
	for i := range so.Items {
		if so.Items[i].Remaining() > 0 {
			return false
		}
	}
	return len(so.Items) > 0
}

// OutstandingReservation sums ordered minus fulfilled while the order holds stock
func (so *SalesOrder) OutstandingReservation() int {
	if !so.Status.HoldsReservation() {
		return 0
	}
	total := 0
	for i := range so.Items {
		total += so.Items[i].Remaining()
	}
	return total
}
