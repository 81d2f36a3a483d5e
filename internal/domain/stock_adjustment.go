package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentType is the direction of a manual stock correction
type AdjustmentType string

const (
	AdjustmentTypeIncrease AdjustmentType = "increase"
	AdjustmentTypeDecrease AdjustmentType = "decrease"
)

// StockAdjustment is a historical record of a manual correction.
// Deleting it never reverses the stock change it caused.
type StockAdjustment struct {
	AdjustmentID     string         `bson:"_id" json:"adjustmentId"`
	InventoryID      string         `bson:"inventoryId" json:"inventoryId"`
	ProductID        string         `bson:"productId" json:"productId"`
	WarehouseID      string         `bson:"warehouseId" json:"warehouseId"`
	AdjustmentType   AdjustmentType `bson:"adjustmentType" json:"adjustmentType"`
	QuantityAdjusted int            `bson:"quantityAdjusted" json:"quantityAdjusted"`
	QuantityBefore   int            `bson:"quantityBefore" json:"quantityBefore"`
	QuantityAfter    int            `bson:"quantityAfter" json:"quantityAfter"`
	Reason           string         `bson:"reason" json:"reason"`
	Notes            string         `bson:"notes,omitempty" json:"notes,omitempty"`
	AdjustedBy       string         `bson:"adjustedBy" json:"adjustedBy"`
	AdjustedAt       time.Time      `bson:"adjustedAt" json:"adjustedAt"`
	DeletedBy        string         `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	DeletedAt        *time.Time     `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	Version          int64          `bson:"version" json:"version"`

	eventRecorder `bson:"-" json:"-"`
}

// NewStockAdjustment validates an adjustment request before it is applied
func NewStockAdjustment(productID, warehouseID string, adjustmentType AdjustmentType, quantity int, reason, adjustedBy string) (*StockAdjustment, error) {
	if adjustmentType != AdjustmentTypeIncrease && adjustmentType != AdjustmentTypeDecrease {
		return nil, &ViolationError{Kind: ErrInvalidQuantity, Entity: "stock_adjustment", To: string(adjustmentType)}
	}
	if quantity <= 0 {
		return nil, quantityError(ErrInvalidQuantity, "stock_adjustment", "", "", quantity, 1)
	}
	if reason == "" {
		return nil, &ViolationError{Kind: ErrReasonRequired, Entity: "stock_adjustment"}
	}

	return &StockAdjustment{
		AdjustmentID:     uuid.New().String(),
		InventoryID:      InventoryID(productID, warehouseID),
		ProductID:        productID,
		WarehouseID:      warehouseID,
		AdjustmentType:   adjustmentType,
		QuantityAdjusted: quantity,
		Reason:           reason,
		AdjustedBy:       adjustedBy,
		AdjustedAt:       time.Now().UTC(),
	}, nil
}

// OnHandDelta is the signed change to on hand quantity
func (a *StockAdjustment) OnHandDelta() int {
	if a.AdjustmentType == AdjustmentTypeDecrease {
		return -a.QuantityAdjusted
	}
	return a.QuantityAdjusted
}

// RecordOutcome stores the on hand quantity around the applied change
func (a *StockAdjustment) RecordOutcome(before, after int) {
	a.QuantityBefore = before
	a.QuantityAfter = after
	a.AddDomainEvent(&StockAdjustedEvent{
		AdjustmentID:   a.AdjustmentID,
		ProductID:      a.ProductID,
		WarehouseID:    a.WarehouseID,
		AdjustmentType: string(a.AdjustmentType),
		Quantity:       a.QuantityAdjusted,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         a.Reason,
		AdjustedBy:     a.AdjustedBy,
		AdjustedAt:     a.AdjustedAt,
	})
}

// IsDeleted reports whether the adjustment was soft deleted
func (a *StockAdjustment) IsDeleted() bool {
	return a.DeletedAt != nil
}

// UpdateNotes changes the only mutable field
func (a *StockAdjustment) UpdateNotes(notes string) error {
	if a.IsDeleted() {
		return transitionError("stock_adjustment", a.AdjustmentID, "deleted", "update_notes")
	}
	a.Notes = notes
	return nil
}

// Delete soft deletes the record
func (a *StockAdjustment) Delete(actor string) error {
	if a.IsDeleted() {
		return transitionError("stock_adjustment", a.AdjustmentID, "deleted", "deleted")
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	a.DeletedBy = actor
	return nil
}
