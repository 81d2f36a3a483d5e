package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/stock-service/pkg/resilience"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionManager runs units of work inside multi-document transactions.
// The context handed to fn carries the session; repositories must use it for
// every read and write that belongs to the unit of work.
type TransactionManager struct {
	client  *mongo.Client
	breaker *resilience.CircuitBreaker
}

// NewTransactionManager creates a transaction manager. breaker may be nil.
func NewTransactionManager(client *Client, breaker *resilience.CircuitBreaker) *TransactionManager {
	return &TransactionManager{client: client.Client(), breaker: breaker}
}

// WithTransaction commits when fn returns nil and aborts otherwise. The
// driver re-runs fn on transient transaction errors such as write conflicts.
func (m *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	run := func() error {
		session, err := m.client.StartSession()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		defer session.EndSession(ctx)

		txnOpts := options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority())

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			return nil, fn(sessCtx)
		}, txnOpts)
		return err
	}

	if m.breaker == nil {
		return run()
	}
	return m.breaker.Execute(ctx, run)
}

// IsInfrastructureError reports errors caused by the database rather than by
// the unit of work itself
func IsInfrastructureError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("UnknownTransactionCommitResult") {
		return true
	}
	return errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, context.DeadlineExceeded)
}

// IsWriteConflict reports a transaction aborted by a concurrent writer
func IsWriteConflict(err error) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(112) || serverErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
