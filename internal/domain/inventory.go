package domain

import (
	"strings"
	"time"
)

// InventoryID builds the natural key of an inventory record
func InventoryID(productID, warehouseID string) string {
	return productID + ":" + warehouseID
}

// ParseInventoryID splits an inventory id into product and warehouse
func ParseInventoryID(id string) (productID, warehouseID string, err error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", NotFoundError("inventory", id)
	}
	return parts[0], parts[1], nil
}

// InventoryRecord is the quantity triple for one product in one warehouse.
// QuantityAvailable is stored for queries but always equals on hand minus reserved.
type InventoryRecord struct {
	ID                string    `bson:"_id" json:"id"`
	ProductID         string    `bson:"productId" json:"productId"`
	WarehouseID       string    `bson:"warehouseId" json:"warehouseId"`
	QuantityOnHand    int       `bson:"quantityOnHand" json:"quantityOnHand"`
	QuantityReserved  int       `bson:"quantityReserved" json:"quantityReserved"`
	QuantityAvailable int       `bson:"quantityAvailable" json:"quantityAvailable"`
	ReorderPoint      int       `bson:"reorderPoint" json:"reorderPoint"`
	Version           int64     `bson:"version" json:"version"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`

	eventRecorder `bson:"-" json:"-"`
}

// NewInventoryRecord creates an empty record; it is persisted on its first delta
func NewInventoryRecord(productID, warehouseID string) *InventoryRecord {
	now := time.Now().UTC()
	return &InventoryRecord{
		ID:          InventoryID(productID, warehouseID),
		ProductID:   productID,
		WarehouseID: warehouseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Available returns on hand minus reserved
func (r *InventoryRecord) Available() int {
	return r.QuantityOnHand - r.QuantityReserved
}

// ApplyDelta adds both deltas or fails with ErrInvalidQuantity leaving the record untouched
func (r *InventoryRecord) ApplyDelta(onHandDelta, reservedDelta int) error {
	onHand := r.QuantityOnHand + onHandDelta
	reserved := r.QuantityReserved + reservedDelta

	switch {
	case onHand < 0:
		return quantityError(ErrInvalidQuantity, "inventory", r.ID, "", -onHandDelta, r.QuantityOnHand)
	case reserved < 0:
		return quantityError(ErrInvalidQuantity, "inventory", r.ID, "", -reservedDelta, r.QuantityReserved)
	case reserved > onHand:
		return quantityError(ErrInvalidQuantity, "inventory", r.ID, "", reserved, onHand)
	}

	previousAvailable := r.Available()
	r.QuantityOnHand = onHand
	r.QuantityReserved = reserved
	r.QuantityAvailable = r.Available()
	r.UpdatedAt = time.Now().UTC()

	r.AddDomainEvent(&StockLevelChangedEvent{
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		OnHandDelta:   onHandDelta,
		ReservedDelta: reservedDelta,
		OnHand:        r.QuantityOnHand,
		Reserved:      r.QuantityReserved,
		Available:     r.QuantityAvailable,
		ChangedAt:     r.UpdatedAt,
	})

	if r.ReorderPoint > 0 && previousAvailable > r.ReorderPoint && r.QuantityAvailable <= r.ReorderPoint {
		r.AddDomainEvent(&LowStockDetectedEvent{
			ProductID:    r.ProductID,
			WarehouseID:  r.WarehouseID,
			Available:    r.QuantityAvailable,
			ReorderPoint: r.ReorderPoint,
			DetectedAt:   r.UpdatedAt,
		})
	}

	return nil
}

// CheckInvariant verifies 0 <= reserved <= on hand and the stored available value
func (r *InventoryRecord) CheckInvariant() error {
	if r.QuantityReserved < 0 || r.QuantityReserved > r.QuantityOnHand || r.QuantityAvailable != r.Available() {
		return quantityError(ErrInvalidQuantity, "inventory", r.ID, "", r.QuantityReserved, r.QuantityOnHand)
	}
	return nil
}

// SetReorderPoint sets the available level at or below which a low stock event is raised
func (r *InventoryRecord) SetReorderPoint(point int) error {
	if point < 0 {
		return quantityError(ErrInvalidQuantity, "inventory", r.ID, "", point, 0)
	}
	r.ReorderPoint = point
	r.UpdatedAt = time.Now().UTC()
	return nil
}
