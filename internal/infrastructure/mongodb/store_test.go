package mongodb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/idempotency"
	"github.com/wms-platform/stock-service/pkg/metrics"
	pkgmongo "github.com/wms-platform/stock-service/pkg/mongodb"
	"github.com/wms-platform/stock-service/pkg/resilience"
)

func TestTranslate(t *testing.T) {
	insufficient := domain.InsufficientStockError("P", "W", 5, 1)

	tests := []struct {
		name     string
		err      error
		wantKind error
		// mongo.CommandError is not comparable, so errors.Is cannot find it
		asCommandError bool
	}{
		{name: "version conflict", err: pkgmongo.ErrVersionConflict, wantKind: domain.ErrConcurrentModification},
		{name: "duplicate marker", err: fmt.Errorf("mark: %w", idempotency.ErrAlreadyProcessed), wantKind: domain.ErrConcurrentModification},
		{name: "write conflict", err: mongo.CommandError{Code: 112, Message: "WriteConflict"}, wantKind: domain.ErrConcurrentModification, asCommandError: true},
		{name: "circuit open", err: resilience.ErrCircuitOpen, wantKind: domain.ErrUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantKind: domain.ErrUnavailable},
		{name: "domain error", err: insufficient, wantKind: domain.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			assert.ErrorIs(t, got, tt.wantKind)
			if tt.asCommandError {
				var cmdErr mongo.CommandError
				require.ErrorAs(t, got, &cmdErr)
				assert.Equal(t, int32(112), cmdErr.Code)
				return
			}
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, translate(nil))
	assert.Same(t, insufficient, translate(insufficient))

	boom := errors.New("boom")
	assert.Equal(t, boom, translate(boom))
}

func TestIsStorageFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "over receipt", err: &domain.ViolationError{Kind: domain.ErrOverReceipt, Entity: "purchase_order", EntityID: "po-1"}, want: false},
		{name: "insufficient stock", err: domain.InsufficientStockError("P", "W", 5, 1), want: false},
		{name: "not found", err: domain.NotFoundError("stock_transfer", "t-1"), want: false},
		{name: "lost race", err: fmt.Errorf("%w: inventory P:W version 3", domain.ErrConcurrentModification), want: false},
		{name: "version conflict", err: pkgmongo.ErrVersionConflict, want: false},
		{name: "duplicate marker", err: idempotency.ErrAlreadyProcessed, want: false},
		{name: "write conflict", err: mongo.CommandError{Code: 112, Message: "WriteConflict"}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "unknown driver error", err: errors.New("connection reset"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStorageFailure(tt.err))
		})
	}
}

func TestCircuitBreaker_IgnoresRejections(t *testing.T) {
	breaker := NewCircuitBreaker(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	overReceipt := &domain.ViolationError{Kind: domain.ErrOverReceipt, Entity: "purchase_order", EntityID: "po-1", Requested: 50, Limit: 30}

	for i := 0; i < 20; i++ {
		err := translate(breaker.Execute(context.Background(), func() error { return overReceipt }))
		require.ErrorIs(t, err, domain.ErrOverReceipt)
	}
	for i := 0; i < 20; i++ {
		err := translate(breaker.Execute(context.Background(), func() error { return pkgmongo.ErrVersionConflict }))
		require.ErrorIs(t, err, domain.ErrConcurrentModification)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())

	err := translate(breaker.Execute(context.Background(), func() error { return nil }))
	assert.NoError(t, err)
}

func TestCircuitBreaker_OpensOnStorageFailures(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("stock-store-test"))
	breaker := NewCircuitBreaker(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, float64(gobreaker.StateClosed), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(BreakerName)))

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		_ = breaker.Execute(context.Background(), func() error { return context.DeadlineExceeded })
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(BreakerName)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues(BreakerName)))

	err := translate(breaker.Execute(context.Background(), func() error { return nil }))
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
