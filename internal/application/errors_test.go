package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-service/internal/domain"
	apperrors "github.com/wms-platform/stock-service/pkg/errors"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "insufficient stock",
			err:        domain.InsufficientStockError("P", "W", 30, 20),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeInsufficientStock,
			wantMsg:    "insufficient stock of P in W: requested 30 units, only 20 available",
		},
		{
			name:       "invalid transition",
			err:        &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "stock_transfer", EntityID: "t-1", From: "completed", To: "completed"},
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeInvalidTransition,
			wantMsg:    `stock transfer cannot move from "completed" to "completed"`,
		},
		{
			name:       "unknown status",
			err:        &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "sales_order", To: "lost"},
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeInvalidTransition,
			wantMsg:    `unknown sales order status "lost"`,
		},
		{
			name:       "over fulfillment",
			err:        &domain.ViolationError{Kind: domain.ErrOverFulfillment, Entity: "sales_order", ItemID: "i-1", Requested: 31, Limit: 30},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeOverFulfillment,
			wantMsg:    "cannot fulfill 31 units, only 30 remain to fulfill",
		},
		{
			name:       "same warehouse",
			err:        &domain.ViolationError{Kind: domain.ErrSameWarehouse, Entity: "stock_transfer"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeSameWarehouse,
		},
		{
			name:       "not found",
			err:        domain.NotFoundError("purchase_order", "po-1"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotFound,
		},
		{
			name:       "unavailable",
			err:        fmt.Errorf("%w: connection refused", domain.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeServiceUnavailable,
		},
		{
			name:       "reason required",
			err:        &domain.ViolationError{Kind: domain.ErrReasonRequired, Entity: "stock_transfer"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeValidationError,
			wantMsg:    "reason is required",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.Equal(t, tt.wantCode, appErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "rejected", outcome(domain.InsufficientStockError("P", "W", 1, 0)))
	assert.Equal(t, "conflict", outcome(domain.ErrConcurrentModification))
	assert.Equal(t, "unavailable", outcome(fmt.Errorf("%w: %w", domain.ErrUnavailable, domain.ErrConcurrentModification)))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}

func TestTxRunner_CommitsOnlyOnSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.tx.Run(ctx, "test.rollback", func(ctx context.Context) error {
		if _, err := h.inventory.ApplyDelta(ctx, "P", "W", 10, 0); err != nil {
			return err
		}
		return domain.InsufficientStockError("P", "W", 11, 10)
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = h.store.Inventory().Get(ctx, "P", "W")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	attempts := 0
	err = h.tx.Run(ctx, "test.retry", func(ctx context.Context) error {
		attempts++
		if _, err := h.inventory.ApplyDelta(ctx, "P", "W", 10, 0); err != nil {
			return err
		}
		if attempts < 3 {
			return fmt.Errorf("lost race: %w", domain.ErrConcurrentModification)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 10, h.record(t, "P", "W").QuantityOnHand)
}
