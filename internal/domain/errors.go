package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by an aggregate or the inventory store
// matches exactly one of these with errors.Is.
var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrOverReceipt            = errors.New("received quantity exceeds ordered quantity")
	ErrOverFulfillment        = errors.New("fulfilled quantity exceeds ordered quantity")
	ErrSameWarehouse          = errors.New("source and destination warehouse are the same")
	ErrNotFound               = errors.New("not found")
	ErrUnavailable            = errors.New("storage unavailable")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrEmptyOrder             = errors.New("order has no items")
	ErrReasonRequired         = errors.New("reason is required")
)

var rejections = []error{
	ErrInvalidTransition, ErrInvalidQuantity, ErrInsufficientStock, ErrOverReceipt, ErrOverFulfillment,
	ErrSameWarehouse, ErrNotFound, ErrEmptyOrder, ErrReasonRequired,
	ErrInvalidCurrency, ErrNegativeMoney, ErrCurrencyMismatch,
}

// IsRejection reports errors raised by a business rule. Storage failures and
// lost races are not rejections.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, kind := range rejections {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// ViolationError describes a rejected operation in structured form.
// The HTTP layer turns it into a message; the domain never does.
type ViolationError struct {
	Kind      error
	Entity    string
	EntityID  string
	ItemID    string
	From      string
	To        string
	Requested int
	Limit     int
}

func (e *ViolationError) Error() string {
	switch {
	case e.From != "" || e.To != "":
		return fmt.Sprintf("%s: %s %s cannot move from %q to %q", e.Kind, e.Entity, e.EntityID, e.From, e.To)
	case e.ItemID != "":
		return fmt.Sprintf("%s: %s %s item %s requested %d limit %d", e.Kind, e.Entity, e.EntityID, e.ItemID, e.Requested, e.Limit)
	default:
		return fmt.Sprintf("%s: %s %s requested %d limit %d", e.Kind, e.Entity, e.EntityID, e.Requested, e.Limit)
	}
}

func (e *ViolationError) Unwrap() error {
	return e.Kind
}

// AsViolation extracts a ViolationError from err
func AsViolation(err error) (*ViolationError, bool) {
	var v *ViolationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

func transitionError(entity, id string, from, to string) error {
	return &ViolationError{Kind: ErrInvalidTransition, Entity: entity, EntityID: id, From: from, To: to}
}

func quantityError(kind error, entity, id, itemID string, requested, limit int) error {
	return &ViolationError{Kind: kind, Entity: entity, EntityID: id, ItemID: itemID, Requested: requested, Limit: limit}
}

// NotFoundError reports a missing entity by id
func NotFoundError(entity, id string) error {
	return &ViolationError{Kind: ErrNotFound, Entity: entity, EntityID: id}
}

// InsufficientStockError reports that available stock cannot cover a request
func InsufficientStockError(productID, warehouseID string, requested, available int) error {
	return quantityError(ErrInsufficientStock, "inventory", InventoryID(productID, warehouseID), "", requested, available)
}
