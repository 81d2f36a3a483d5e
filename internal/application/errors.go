package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wms-platform/stock-service/internal/domain"
	apperrors "github.com/wms-platform/stock-service/pkg/errors"
	"github.com/wms-platform/stock-service/pkg/logging"
)

// IsRetryable reports whether a unit of work lost a race and may be re-run
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrConcurrentModification) && !errors.Is(err, domain.ErrUnavailable)
}

// IsBusinessError reports failures caused by the request rather than the system
func IsBusinessError(err error) bool {
	if domain.IsRejection(err) {
		return true
	}
	_, ok := apperrors.AsAppError(err)
	return ok
}

// outcome labels an operation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case IsBusinessError(err):
		return "rejected"
	default:
		return "error"
	}
}

// ToAppError translates a domain failure into an API error with a readable message
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	v, _ := domain.AsViolation(err)
	if v == nil {
		v = &domain.ViolationError{}
	}
	entity := strings.ReplaceAll(v.Entity, "_", " ")

	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return apperrors.ErrServiceUnavailable("inventory store").Wrap(err)

	case errors.Is(err, domain.ErrNotFound):
		if v.EntityID != "" {
			return apperrors.ErrNotFoundWithID(entity, v.EntityID).Wrap(err)
		}
		return apperrors.ErrNotFound(entity).Wrap(err)

	case errors.Is(err, domain.ErrInvalidTransition):
		msg := "invalid status transition"
		if v.Entity != "" {
			msg = fmt.Sprintf("%s cannot move from %q to %q", entity, v.From, v.To)
			if v.From == "" {
				msg = fmt.Sprintf("unknown %s status %q", entity, v.To)
			}
		}
		return apperrors.ErrConflict(apperrors.CodeInvalidTransition, msg).Wrap(err)

	case errors.Is(err, domain.ErrInsufficientStock):
		msg := fmt.Sprintf("insufficient stock: requested %d units, only %d available", v.Requested, v.Limit)
		if productID, warehouseID, perr := domain.ParseInventoryID(v.EntityID); perr == nil {
			msg = fmt.Sprintf("insufficient stock of %s in %s: requested %d units, only %d available",
				productID, warehouseID, v.Requested, v.Limit)
		}
		return apperrors.ErrConflict(apperrors.CodeInsufficientStock, msg).Wrap(err)

	case errors.Is(err, domain.ErrOverReceipt):
		msg := fmt.Sprintf("cannot receive %d units, only %d remain on order", v.Requested, v.Limit)
		return apperrors.ErrUnprocessable(apperrors.CodeOverReceipt, msg).WithDetail("itemId", v.ItemID).Wrap(err)

	case errors.Is(err, domain.ErrOverFulfillment):
		msg := fmt.Sprintf("cannot fulfill %d units, only %d remain to fulfill", v.Requested, v.Limit)
		return apperrors.ErrUnprocessable(apperrors.CodeOverFulfillment, msg).WithDetail("itemId", v.ItemID).Wrap(err)

	case errors.Is(err, domain.ErrSameWarehouse):
		return apperrors.ErrUnprocessable(apperrors.CodeSameWarehouse, "source and destination warehouse must differ").Wrap(err)

	case errors.Is(err, domain.ErrInvalidQuantity):
		msg := "invalid quantity"
		switch {
		case v.Entity == "inventory":
			msg = fmt.Sprintf("change of %d units would leave %s in an invalid state (limit %d)", v.Requested, v.EntityID, v.Limit)
		case v.To != "":
			msg = fmt.Sprintf("unknown %s type %q", entity, v.To)
		case v.Limit == 1:
			msg = fmt.Sprintf("quantity must be positive, got %d", v.Requested)
		}
		return apperrors.ErrUnprocessable(apperrors.CodeInvalidQuantity, msg).Wrap(err)

	case errors.Is(err, domain.ErrEmptyOrder):
		return apperrors.ErrUnprocessable(apperrors.CodeValidationError, "order has no items").Wrap(err)

	case errors.Is(err, domain.ErrReasonRequired):
		return apperrors.ErrValidation("reason is required").Wrap(err)

	case errors.Is(err, domain.ErrInvalidCurrency), errors.Is(err, domain.ErrNegativeMoney), errors.Is(err, domain.ErrCurrencyMismatch):
		return apperrors.ErrValidation(err.Error()).Wrap(err)

	case errors.Is(err, domain.ErrConcurrentModification):
		return apperrors.ErrConflict(apperrors.CodeConflict, "resource was modified concurrently, retry the request").Wrap(err)
	}

	return apperrors.ErrInternal("").Wrap(err)
}

// logFailure logs rejected requests at warn and system failures at error
func logFailure(logger *logging.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if IsBusinessError(err) {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
}
