package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:   {TransferStatusApproved, TransferStatusCancelled},
	TransferStatusApproved:  {TransferStatusInTransit, TransferStatusCancelled},
	TransferStatusInTransit: {TransferStatusCompleted},
}

// ParseTransferStatus rejects unknown status strings with ErrInvalidTransition
func ParseTransferStatus(s string) (TransferStatus, error) {
	switch status := TransferStatus(s); status {
	case TransferStatusPending, TransferStatusApproved, TransferStatusInTransit,
		TransferStatusCompleted, TransferStatusCancelled:
		return status, nil
	}
	return "", &ViolationError{Kind: ErrInvalidTransition, Entity: "stock_transfer", To: s}
}

// CanTransitionTo checks the transition table
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// StockTransfer moves a quantity of one product between two warehouses.
// Stock only moves on Complete; in transit goods are counted nowhere.
type StockTransfer struct {
	TransferID          string         `bson:"_id" json:"transferId"`
	ProductID           string         `bson:"productId" json:"productId"`
	FromWarehouseID     string         `bson:"fromWarehouseId" json:"fromWarehouseId"`
	ToWarehouseID       string         `bson:"toWarehouseId" json:"toWarehouseId"`
	QuantityTransferred int            `bson:"quantityTransferred" json:"quantityTransferred"`
	Status              TransferStatus `bson:"status" json:"status"`
	Notes               string         `bson:"notes,omitempty" json:"notes,omitempty"`
	InitiatedBy         string         `bson:"initiatedBy" json:"initiatedBy"`
	InitiatedAt         time.Time      `bson:"initiatedAt" json:"initiatedAt"`
	ApprovedBy          string         `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time     `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ShippedAt           *time.Time     `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	CompletedBy         string         `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CompletedAt         *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledBy         string         `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelledAt         *time.Time     `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason  string         `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	Version             int64          `bson:"version" json:"version"`
	UpdatedAt           time.Time      `bson:"updatedAt" json:"updatedAt"`

	eventRecorder `bson:"-" json:"-"`
}

// NewStockTransfer records the intent to move stock. Availability at the
// source is checked by the caller, not held.
func NewStockTransfer(fromWarehouseID, toWarehouseID, productID string, quantity int, initiatedBy, notes string) (*StockTransfer, error) {
	if fromWarehouseID == toWarehouseID {
		return nil, &ViolationError{Kind: ErrSameWarehouse, Entity: "stock_transfer", EntityID: fromWarehouseID}
	}
	if quantity <= 0 {
		return nil, quantityError(ErrInvalidQuantity, "stock_transfer", "", "", quantity, 1)
	}

	now := time.Now().UTC()
	t := &StockTransfer{
		TransferID:          uuid.New().String(),
		ProductID:           productID,
		FromWarehouseID:     fromWarehouseID,
		ToWarehouseID:       toWarehouseID,
		QuantityTransferred: quantity,
		Status:              TransferStatusPending,
		Notes:               notes,
		InitiatedBy:         initiatedBy,
		InitiatedAt:         now,
		UpdatedAt:           now,
	}
	t.AddDomainEvent(t.statusEvent("", initiatedBy))
	return t, nil
}

func (t *StockTransfer) statusEvent(from TransferStatus, actor string) *StockTransferStatusChangedEvent {
	return &StockTransferStatusChangedEvent{
		TransferID:      t.TransferID,
		ProductID:       t.ProductID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.QuantityTransferred,
		From:            string(from),
		To:              string(t.Status),
		Actor:           actor,
		ChangedAt:       t.UpdatedAt,
	}
}

func (t *StockTransfer) transition(target TransferStatus, actor string) error {
	if !t.Status.CanTransitionTo(target) {
		return transitionError("stock_transfer", t.TransferID, string(t.Status), string(target))
	}
	from := t.Status
	t.Status = target
	t.UpdatedAt = time.Now().UTC()
	t.AddDomainEvent(t.statusEvent(from, actor))
	return nil
}

// Approve records the approver
func (t *StockTransfer) Approve(approver string) error {
	if err := t.transition(TransferStatusApproved, approver); err != nil {
		return err
	}
	now := t.UpdatedAt
	t.ApprovedBy = approver
	t.ApprovedAt = &now
	return nil
}

// MarkInTransit records that goods left the source warehouse
func (t *StockTransfer) MarkInTransit(actor string) error {
	if err := t.transition(TransferStatusInTransit, actor); err != nil {
		return err
	}
	now := t.UpdatedAt
	t.ShippedAt = &now
	return nil
}

// Complete marks the transfer done; the caller applies both inventory deltas in the same unit of work
func (t *StockTransfer) Complete(actor string) error {
	if err := t.transition(TransferStatusCompleted, actor); err != nil {
		return err
	}
	now := t.UpdatedAt
	t.CompletedBy = actor
	t.CompletedAt = &now
	return nil
}

// Cancel requires a reason and is legal only before goods leave
func (t *StockTransfer) Cancel(reason, actor string) error {
	if reason == "" {
		return &ViolationError{Kind: ErrReasonRequired, Entity: "stock_transfer", EntityID: t.TransferID}
	}
	if err := t.transition(TransferStatusCancelled, actor); err != nil {
		return err
	}
	now := t.UpdatedAt
	t.CancelledBy = actor
	t.CancelledAt = &now
	t.CancellationReason = reason
	return nil
}

// LockOrder returns the two warehouses in the global order rows must be written in
func (t *StockTransfer) LockOrder() (first, second string) {
	if t.FromWarehouseID < t.ToWarehouseID {
		return t.FromWarehouseID, t.ToWarehouseID
	}
	return t.ToWarehouseID, t.FromWarehouseID
}
