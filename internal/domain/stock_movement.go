package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypePurchase    MovementType = "purchase"
	MovementTypeSale        MovementType = "sale"
	MovementTypeTransferIn  MovementType = "transfer_in"
	MovementTypeTransferOut MovementType = "transfer_out"
	MovementTypeAdjustment  MovementType = "adjustment"
	MovementTypeReturn      MovementType = "return"
	MovementTypeDamage      MovementType = "damage"
)

// sign of the on hand change implied by each type; adjustment keeps the caller's sign
var movementSigns = map[MovementType]int{
	MovementTypePurchase:    1,
	MovementTypeTransferIn:  1,
	MovementTypeReturn:      1,
	MovementTypeSale:        -1,
	MovementTypeTransferOut: -1,
	MovementTypeDamage:      -1,
	MovementTypeAdjustment:  0,
}

// IsValid reports whether t is a known movement type
func (t MovementType) IsValid() bool {
	_, ok := movementSigns[t]
	return ok
}

// MovementStatus represents the status of a stock movement
type MovementStatus string

const (
	MovementStatusPending  MovementStatus = "pending"
	MovementStatusApproved MovementStatus = "approved"
	MovementStatusRejected MovementStatus = "rejected"
	MovementStatusApplied  MovementStatus = "applied"
)

// Reference names the document that produced a movement
type Reference struct {
	Type string `bson:"type" json:"type"`
	ID   string `bson:"id" json:"id"`
}

// StockMovement is a ledger row describing one quantity change. It is
// descriptive: inventory records remain the source of truth.
type StockMovement struct {
	MovementID      string         `bson:"_id" json:"movementId"`
	ProductID       string         `bson:"productId" json:"productId"`
	WarehouseID     string         `bson:"warehouseId" json:"warehouseId"`
	MovementType    MovementType   `bson:"movementType" json:"movementType"`
	QuantityMoved   int            `bson:"quantityMoved" json:"quantityMoved"`
	UnitCost        Money          `bson:"unitCost" json:"unitCost"`
	TotalValue      Money          `bson:"totalValue" json:"totalValue"`
	Status          MovementStatus `bson:"status" json:"status"`
	Reference       *Reference     `bson:"reference,omitempty" json:"reference,omitempty"`
	Notes           string         `bson:"notes,omitempty" json:"notes,omitempty"`
	UserID          string         `bson:"userId" json:"userId"`
	ApprovedBy      string         `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time     `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	RejectedBy      string         `bson:"rejectedBy,omitempty" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time     `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectionReason string         `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	AppliedAt       *time.Time     `bson:"appliedAt,omitempty" json:"appliedAt,omitempty"`
	Version         int64          `bson:"version" json:"version"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`

	eventRecorder `bson:"-" json:"-"`
}

// NewStockMovement creates a pending movement. quantity is a magnitude for
// every type except adjustment, where its sign is the direction.
func NewStockMovement(productID, warehouseID string, movementType MovementType, quantity int, unitCost Money, userID string) (*StockMovement, error) {
	sign, ok := movementSigns[movementType]
	if !ok {
		return nil, &ViolationError{Kind: ErrInvalidQuantity, Entity: "stock_movement", To: string(movementType)}
	}
	if quantity == 0 || (sign != 0 && quantity < 0) {
		return nil, quantityError(ErrInvalidQuantity, "stock_movement", "", "", quantity, 1)
	}
	if sign != 0 {
		quantity *= sign
	}
	if unitCost.Currency() == "" {
		unitCost = ZeroMoney(DefaultCurrency)
	}

	return &StockMovement{
		MovementID:    uuid.New().String(),
		ProductID:     productID,
		WarehouseID:   warehouseID,
		MovementType:  movementType,
		QuantityMoved: quantity,
		UnitCost:      unitCost,
		TotalValue:    unitCost.Multiply(quantity),
		Status:        MovementStatusPending,
		UserID:        userID,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewAppliedMovement records a movement whose inventory delta was already
// applied by the calling workflow in the same unit of work
func NewAppliedMovement(productID, warehouseID string, movementType MovementType, quantity int, unitCost Money, userID string, ref Reference) (*StockMovement, error) {
	m, err := NewStockMovement(productID, warehouseID, movementType, quantity, unitCost, userID)
	if err != nil {
		return nil, err
	}
	m.Status = MovementStatusApplied
	m.AppliedAt = &m.CreatedAt
	m.Reference = &ref
	return m, nil
}

// OnHandDelta is the inventory change the movement describes
func (m *StockMovement) OnHandDelta() int {
	return m.QuantityMoved
}

// Approve moves a pending movement to approved; the caller applies OnHandDelta exactly once
func (m *StockMovement) Approve(approver string) error {
	if m.Status != MovementStatusPending {
		return transitionError("stock_movement", m.MovementID, string(m.Status), string(MovementStatusApproved))
	}
	now := time.Now().UTC()
	m.Status = MovementStatusApproved
	m.ApprovedBy = approver
	m.ApprovedAt = &now
	m.AppliedAt = &now
	m.AddDomainEvent(m.statusEvent(approver))
	return nil
}

// Reject closes a pending movement without touching inventory
func (m *StockMovement) Reject(actor, reason string) error {
	if m.Status != MovementStatusPending {
		return transitionError("stock_movement", m.MovementID, string(m.Status), string(MovementStatusRejected))
	}
	if reason == "" {
		return &ViolationError{Kind: ErrReasonRequired, Entity: "stock_movement", EntityID: m.MovementID}
	}
	now := time.Now().UTC()
	m.Status = MovementStatusRejected
	m.RejectedBy = actor
	m.RejectedAt = &now
	m.RejectionReason = reason
	m.AddDomainEvent(m.statusEvent(actor))
	return nil
}

func (m *StockMovement) statusEvent(actor string) *StockMovementStatusChangedEvent {
	return &StockMovementStatusChangedEvent{
		MovementID:    m.MovementID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		MovementType:  string(m.MovementType),
		QuantityMoved: m.QuantityMoved,
		Status:        string(m.Status),
		Actor:         actor,
		ChangedAt:     time.Now().UTC(),
	}
}
