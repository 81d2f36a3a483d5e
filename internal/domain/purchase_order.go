package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusPendingApproval   PurchaseOrderStatus = "pending_approval"
	PurchaseOrderStatusApproved          PurchaseOrderStatus = "approved"
	PurchaseOrderStatusSentToSupplier    PurchaseOrderStatus = "sent_to_supplier"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusFullyReceived     PurchaseOrderStatus = "fully_received"
	PurchaseOrderStatusClosed            PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:             {PurchaseOrderStatusPendingApproval, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPendingApproval:   {PurchaseOrderStatusApproved, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusApproved:          {PurchaseOrderStatusSentToSupplier, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSentToSupplier:    {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusFullyReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartiallyReceived: {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusFullyReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusFullyReceived:     {PurchaseOrderStatusClosed},
}

// ParsePurchaseOrderStatus rejects unknown status strings with ErrInvalidTransition
func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	status := PurchaseOrderStatus(s)
	if !status.IsValid() {
		return "", &ViolationError{Kind: ErrInvalidTransition, Entity: "purchase_order", To: s}
	}
	return status, nil
}

// IsValid reports whether s is a known status
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved,
		PurchaseOrderStatusSentToSupplier, PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusFullyReceived,
		PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks the transition table
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsEditable reports whether items may still be changed
func (s PurchaseOrderStatus) IsEditable() bool {
	return s == PurchaseOrderStatusDraft || s == PurchaseOrderStatusPendingApproval
}

// PurchaseOrderItem is one ordered product line
type PurchaseOrderItem struct {
	ItemID           string `bson:"itemId" json:"itemId"`
	ProductID        string `bson:"productId" json:"productId"`
	QuantityOrdered  int    `bson:"quantityOrdered" json:"quantityOrdered"`
	QuantityReceived int    `bson:"quantityReceived" json:"quantityReceived"`
	UnitCost         Money  `bson:"unitCost" json:"unitCost"`
}

// Remaining returns the quantity still expected from the supplier
func (i *PurchaseOrderItem) Remaining() int {
	return i.QuantityOrdered - i.QuantityReceived
}

// IsFullyReceived reports whether every ordered unit has arrived
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// ReceiptLine requests receiving a quantity against an item
type ReceiptLine struct {
	ItemID   string
	Quantity int
}

// PurchaseOrder is the aggregate root for inbound stock
type PurchaseOrder struct {
	PurchaseOrderID    string              `bson:"_id" json:"purchaseOrderId"`
	PONumber           string              `bson:"poNumber" json:"poNumber"`
	SupplierID         string              `bson:"supplierId" json:"supplierId"`
	WarehouseID        string              `bson:"warehouseId" json:"warehouseId"`
	Status             PurchaseOrderStatus `bson:"status" json:"status"`
	Items              []PurchaseOrderItem `bson:"items" json:"items"`
	Currency           string              `bson:"currency" json:"currency"`
	TotalAmount        Money               `bson:"totalAmount" json:"totalAmount"`
	Notes              string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy          string              `bson:"createdBy" json:"createdBy"`
	ApprovedBy         string              `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	SentAt             *time.Time          `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	ReceivedAt         *time.Time          `bson:"receivedAt,omitempty" json:"receivedAt,omitempty"`
	ClosedAt           *time.Time          `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	CancelledAt        *time.Time          `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string              `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	Version            int64               `bson:"version" json:"version"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`

	eventRecorder `bson:"-" json:"-"`
}

// NewPurchaseOrder creates a draft purchase order without items
func NewPurchaseOrder(poNumber, supplierID, warehouseID, currency, createdBy string) (*PurchaseOrder, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	now := time.Now().UTC()
	id := uuid.New().String()
	if poNumber == "" {
		poNumber = "PO-" + now.Format("20060102") + "-" + id[:8]
	}

	return &PurchaseOrder{
		PurchaseOrderID: id,
		PONumber:        poNumber,
		SupplierID:      supplierID,
		WarehouseID:     warehouseID,
		Status:          PurchaseOrderStatusDraft,
		Items:           []PurchaseOrderItem{},
		Currency:        currency,
		TotalAmount:     ZeroMoney(currency),
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (po *PurchaseOrder) transition(target PurchaseOrderStatus, actor, reason string) error {
	if !po.Status.CanTransitionTo(target) {
		return transitionError("purchase_order", po.PurchaseOrderID, string(po.Status), string(target))
	}
	from := po.Status
	po.Status = target
	po.UpdatedAt = time.Now().UTC()
	if from != target {
		po.AddDomainEvent(&PurchaseOrderStatusChangedEvent{
			PurchaseOrderID: po.PurchaseOrderID,
			From:            string(from),
			To:              string(target),
			Actor:           actor,
			Reason:          reason,
			ChangedAt:       po.UpdatedAt,
		})
	}
	return nil
}

func (po *PurchaseOrder) ensureEditable(action string) error {
	if !po.Status.IsEditable() {
		return transitionError("purchase_order", po.PurchaseOrderID, string(po.Status), action)
	}
	return nil
}

func (po *PurchaseOrder) findItem(itemID string) (int, error) {
	for i := range po.Items {
		if po.Items[i].ItemID == itemID {
			return i, nil
		}
	}
	return -1, NotFoundError("purchase_order_item", itemID)
}

func (po *PurchaseOrder) recalculateTotal() {
	total := ZeroMoney(po.Currency)
	for _, item := range po.Items {
		// every line is created in the order currency
		total, _ = total.Add(item.UnitCost.Multiply(item.QuantityOrdered))
	}
	po.TotalAmount = total
}

// AddItem appends a line and recomputes the total
func (po *PurchaseOrder) AddItem(productID string, quantity int, unitCost decimal.Decimal) (*PurchaseOrderItem, error) {
	if err := po.ensureEditable("add_item"); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, quantityError(ErrInvalidQuantity, "purchase_order", po.PurchaseOrderID, "", quantity, 1)
	}
	cost, err := NewMoney(unitCost, po.Currency)
	if err != nil {
		return nil, err
	}

	po.Items = append(po.Items, PurchaseOrderItem{
		ItemID:          uuid.New().String(),
		ProductID:       productID,
		QuantityOrdered: quantity,
		UnitCost:        cost,
	})
	po.recalculateTotal()
	po.UpdatedAt = time.Now().UTC()
	return &po.Items[len(po.Items)-1], nil
}

// UpdateItem changes quantity and unit cost of a line and recomputes the total
func (po *PurchaseOrder) UpdateItem(itemID string, quantity int, unitCost decimal.Decimal) error {
	if err := po.ensureEditable("update_item"); err != nil {
		return err
	}
	idx, err := po.findItem(itemID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return quantityError(ErrInvalidQuantity, "purchase_order", po.PurchaseOrderID, itemID, quantity, 1)
	}
	cost, err := NewMoney(unitCost, po.Currency)
	if err != nil {
		return err
	}

	po.Items[idx].QuantityOrdered = quantity
	po.Items[idx].UnitCost = cost
	po.recalculateTotal()
	po.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveItem deletes a line and recomputes the total
func (po *PurchaseOrder) RemoveItem(itemID string) error {
	if err := po.ensureEditable("remove_item"); err != nil {
		return err
	}
	idx, err := po.findItem(itemID)
	if err != nil {
		return err
	}

	po.Items = append(po.Items[:idx], po.Items[idx+1:]...)
	po.recalculateTotal()
	po.UpdatedAt = time.Now().UTC()
	return nil
}

// SubmitForApproval moves a draft with at least one line to pending_approval
func (po *PurchaseOrder) SubmitForApproval(actor string) error {
	if len(po.Items) == 0 && po.Status == PurchaseOrderStatusDraft {
		return &ViolationError{Kind: ErrEmptyOrder, Entity: "purchase_order", EntityID: po.PurchaseOrderID}
	}
	return po.transition(PurchaseOrderStatusPendingApproval, actor, "")
}

// Approve records the approver
func (po *PurchaseOrder) Approve(approver string) error {
	if len(po.Items) == 0 && po.Status == PurchaseOrderStatusPendingApproval {
		return &ViolationError{Kind: ErrEmptyOrder, Entity: "purchase_order", EntityID: po.PurchaseOrderID}
	}
	if err := po.transition(PurchaseOrderStatusApproved, approver, ""); err != nil {
		return err
	}
	now := po.UpdatedAt
	po.ApprovedBy = approver
	po.ApprovedAt = &now
	return nil
}

// SendToSupplier marks the order as dispatched to the supplier
func (po *PurchaseOrder) SendToSupplier(actor string) error {
	if err := po.transition(PurchaseOrderStatusSentToSupplier, actor, ""); err != nil {
		return err
	}
	now := po.UpdatedAt
	po.SentAt = &now
	return nil
}

// ReceiveItems validates every line before changing any counter, so a
// rejected receipt leaves the order untouched. The returned lines are the
// inventory increments the caller must apply in the same unit of work.
func (po *PurchaseOrder) ReceiveItems(lines []ReceiptLine) ([]ReceivedLine, error) {
	if po.Status != PurchaseOrderStatusSentToSupplier && po.Status != PurchaseOrderStatusPartiallyReceived {
		return nil, transitionError("purchase_order", po.PurchaseOrderID, string(po.Status), string(PurchaseOrderStatusPartiallyReceived))
	}
	if len(lines) == 0 {
		return nil, &ViolationError{Kind: ErrInvalidQuantity, Entity: "purchase_order", EntityID: po.PurchaseOrderID}
	}

	pending := make(map[string]int, len(lines))
	for _, line := range lines {
		idx, err := po.findItem(line.ItemID)
		if err != nil {
			return nil, err
		}
		if line.Quantity <= 0 {
			return nil, quantityError(ErrInvalidQuantity, "purchase_order", po.PurchaseOrderID, line.ItemID, line.Quantity, 1)
		}
		pending[line.ItemID] += line.Quantity
		item := po.Items[idx]
		if item.QuantityReceived+pending[line.ItemID] > item.QuantityOrdered {
			return nil, quantityError(ErrOverReceipt, "purchase_order", po.PurchaseOrderID, line.ItemID, pending[line.ItemID], item.Remaining())
		}
	}

	received := make([]ReceivedLine, 0, len(lines))
	for _, line := range lines {
		idx, _ := po.findItem(line.ItemID)
		po.Items[idx].QuantityReceived += line.Quantity
		received = append(received, ReceivedLine{
			ItemID:    line.ItemID,
			ProductID: po.Items[idx].ProductID,
			Quantity:  line.Quantity,
		})
	}

	target := PurchaseOrderStatusPartiallyReceived
	if po.IsFullyReceived() {
		target = PurchaseOrderStatusFullyReceived
	}
	if err := po.transition(target, "", ""); err != nil {
		return nil, err
	}
	if target == PurchaseOrderStatusFullyReceived {
		now := po.UpdatedAt
		po.ReceivedAt = &now
	}

	po.AddDomainEvent(&PurchaseOrderItemsReceivedEvent{
		PurchaseOrderID: po.PurchaseOrderID,
		WarehouseID:     po.WarehouseID,
		Lines:           received,
		Status:          string(po.Status),
		ReceivedAt:      po.UpdatedAt,
	})

	return received, nil
}

// Cancel is only allowed while nothing has been received
func (po *PurchaseOrder) Cancel(reason, actor string) error {
	if po.TotalReceived() > 0 {
		return transitionError("purchase_order", po.PurchaseOrderID, string(po.Status), string(PurchaseOrderStatusCancelled))
	}
	if err := po.transition(PurchaseOrderStatusCancelled, actor, reason); err != nil {
		return err
	}
	now := po.UpdatedAt
	po.CancelledAt = &now
	po.CancellationReason = reason
	return nil
}

// Close archives a fully received order
func (po *PurchaseOrder) Close(actor string) error {
	if err := po.transition(PurchaseOrderStatusClosed, actor, ""); err != nil {
		return err
	}
	now := po.UpdatedAt
	po.ClosedAt = &now
	return nil
}

// IsFullyReceived reports whether every line is complete
func (po *PurchaseOrder) IsFullyReceived() bool {
	for i := range po.Items {
		if !po.Items[i].IsFullyReceived() {
			return false
		}
	}
	return len(po.Items) > 0
}

// TotalReceived sums received units over all lines
func (po *PurchaseOrder) TotalReceived() int {
	total := 0
	for _, item := range po.Items {
		total += item.QuantityReceived
	}
	return total
}
