package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/wms-platform/stock-service/internal/domain"
	apperrors "github.com/wms-platform/stock-service/pkg/errors"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/resilience"
)

var tracer = otel.Tracer("github.com/wms-platform/stock-service/internal/application")

// DefaultTxMaxAttempts bounds how often a unit of work is re-run after losing a race
const DefaultTxMaxAttempts = 5

// DefaultTxRetryConfig retries units of work that hit a concurrent modification
func DefaultTxRetryConfig(maxAttempts int) *resilience.RetryConfig {
	if maxAttempts <= 0 {
		maxAttempts = DefaultTxMaxAttempts
	}
	return &resilience.RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialDelay:    5 * time.Millisecond,
		MaxDelay:        200 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: IsRetryable,
	}
}

// TxRunner runs units of work inside a transaction and re-runs them from
// scratch when they lose an optimistic lock race
type TxRunner struct {
	uow     domain.UnitOfWork
	retry   *resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewTxRunner creates a TxRunner. retry may be nil for the defaults.
func NewTxRunner(uow domain.UnitOfWork, retry *resilience.RetryConfig, m *metrics.Metrics, logger *logging.Logger) *TxRunner {
	if retry == nil {
		retry = DefaultTxRetryConfig(DefaultTxMaxAttempts)
	}
	return &TxRunner{
		uow:     uow,
		retry:   retry,
		metrics: m,
		logger:  logger.WithComponent("unit-of-work"),
	}
}

// Run executes fn in a transaction. fn must reload everything it mutates,
// because it runs again from the start after a conflict. Exhausted retries
// surface as domain.ErrUnavailable.
func (r *TxRunner) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	var journal *deltaJournal

	err := resilience.Retry(ctx, r.retry, func() error {
		journal = &deltaJournal{operation: operation}
		err := r.uow.WithTransaction(context.WithValue(ctx, journalKey{}, journal), fn)
		if err != nil && IsRetryable(err) {
			r.metrics.RecordInventoryConflict(operation)
			r.logger.WithOperation(operation).Debug("Unit of work lost a concurrent update", "error", err)
		}
		return err
	})
	if err != nil && IsRetryable(err) {
		err = fmt.Errorf("%w: %s: %w", domain.ErrUnavailable, operation, err)
	}

	if err == nil {
		for _, d := range journal.entries {
			r.metrics.RecordInventoryDelta(d.onHand, d.reserved)
		}
	}
	r.metrics.RecordStockOperation(operation, outcome(err), time.Since(start))
	return err
}

type journalKey struct{}

type delta struct {
	onHand   int
	reserved int
}

// deltaJournal collects the inventory deltas of one attempt; they are only
// reported once the attempt commits
type deltaJournal struct {
	operation string
	mu        sync.Mutex
	entries   []delta
}

// operationFrom names the unit of work ctx belongs to
func operationFrom(ctx context.Context) string {
	if j, ok := ctx.Value(journalKey{}).(*deltaJournal); ok {
		return j.operation
	}
	return "apply_delta"
}

func recordDelta(ctx context.Context, onHand, reserved int) {
	if j, ok := ctx.Value(journalKey{}).(*deltaJournal); ok {
		j.mu.Lock()
		j.entries = append(j.entries, delta{onHand: onHand, reserved: reserved})
		j.mu.Unlock()
	}
}

// alreadyApplied reports whether requestID was processed in scope. A request
// id that was applied to a different aggregate is rejected rather than
// replayed.
func alreadyApplied(ctx context.Context, requests domain.ProcessedRequestStore, scope, requestID, aggregateID string) (bool, error) {
	appliedTo, done, err := requests.IsProcessed(ctx, scope, requestID)
	if err != nil || !done {
		return false, err
	}
	if appliedTo != aggregateID {
		return false, apperrors.ErrUnprocessable(apperrors.CodeRequestIDReused,
			fmt.Sprintf("request id %q was already used for %s", requestID, appliedTo)).
			WithDetail("requestId", requestID)
	}
	return true, nil
}
