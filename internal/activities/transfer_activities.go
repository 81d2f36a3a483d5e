// Package activities exposes the stock application services to Temporal
// workflows. Every activity tolerates being retried after it already took
// effect.
package activities

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/internal/workflows"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/tracing"
)

var tracer = otel.Tracer("github.com/wms-platform/stock-service/internal/activities")

// TransferCommands is the part of the transfer service the activities drive
type TransferCommands interface {
	GetTransfer(ctx context.Context, id string) (*application.TransferDTO, error)
	Approve(ctx context.Context, id, approver string) (*application.TransferDTO, error)
	MarkInTransit(ctx context.Context, id, actor string) (*application.TransferDTO, error)
	Complete(ctx context.Context, id, actor string) (*application.TransferDTO, error)
	Cancel(ctx context.Context, id, reason, actor string) (*application.TransferDTO, error)
}

// TransferActivities contains the stock transfer activities
type TransferActivities struct {
	transfers TransferCommands
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewTransferActivities creates a new TransferActivities instance
func NewTransferActivities(transfers TransferCommands, m *metrics.Metrics, logger *logging.Logger) *TransferActivities {
	return &TransferActivities{
		transfers: transfers,
		metrics:   m,
		logger:    logger.WithComponent("transfer-activities"),
	}
}

var progress = map[domain.TransferStatus]int{
	domain.TransferStatusPending:   0,
	domain.TransferStatusApproved:  1,
	domain.TransferStatusInTransit: 2,
	domain.TransferStatusCompleted: 3,
}

// reached reports whether a previous attempt already moved the transfer to
// target or past it
func reached(current string, target domain.TransferStatus) bool {
	if target == domain.TransferStatusCancelled {
		return current == string(target)
	}
	rank, ok := progress[domain.TransferStatus(current)]
	return ok && rank >= progress[target]
}

func (a *TransferActivities) advance(
	ctx context.Context,
	activityType string,
	input workflows.TransferStepInput,
	target domain.TransferStatus,
	do func(ctx context.Context) (*application.TransferDTO, error),
) (*workflows.TransferStepResult, error) {
	logger := activity.GetLogger(ctx)
	info := activity.GetInfo(ctx)
	start := time.Now()
	defer func() { a.metrics.RecordActivity(activityType, time.Since(start)) }()

	if info.Attempt > 1 {
		current, err := a.transfers.GetTransfer(ctx, input.TransferID)
		if err != nil {
			return nil, toActivityError(err)
		}
		if reached(current.Status, target) {
			logger.Info("Transfer step already applied", "transferId", input.TransferID, "status", current.Status)
			return &workflows.TransferStepResult{TransferID: input.TransferID, Status: current.Status}, nil
		}
	}

	t, err := tracing.TracedOperation(ctx, tracer, "activity."+activityType, do,
		tracing.ActivitySpanAttributes(activityType, info.WorkflowExecution.ID)...)
	if err != nil {
		logger.Error("Transfer step failed", "transferId", input.TransferID, "activity", activityType, "error", err)
		return nil, toActivityError(err)
	}

	a.logger.Info("Transfer step applied", "transferId", t.TransferID, "status", t.Status, "activity", activityType)
	return &workflows.TransferStepResult{TransferID: t.TransferID, Status: t.Status}, nil
}

// ApproveTransfer moves a pending transfer to approved
func (a *TransferActivities) ApproveTransfer(ctx context.Context, input workflows.TransferStepInput) (*workflows.TransferStepResult, error) {
	return a.advance(ctx, "ApproveTransfer", input, domain.TransferStatusApproved, func(ctx context.Context) (*application.TransferDTO, error) {
		return a.transfers.Approve(ctx, input.TransferID, input.Actor)
	})
}

// DispatchTransfer marks an approved transfer as in transit
func (a *TransferActivities) DispatchTransfer(ctx context.Context, input workflows.TransferStepInput) (*workflows.TransferStepResult, error) {
	return a.advance(ctx, "DispatchTransfer", input, domain.TransferStatusInTransit, func(ctx context.Context) (*application.TransferDTO, error) {
		return a.transfers.MarkInTransit(ctx, input.TransferID, input.Actor)
	})
}

// CompleteTransfer moves the stock between both warehouses
func (a *TransferActivities) CompleteTransfer(ctx context.Context, input workflows.TransferStepInput) (*workflows.TransferStepResult, error) {
	activity.RecordHeartbeat(ctx, input.TransferID)
	return a.advance(ctx, "CompleteTransfer", input, domain.TransferStatusCompleted, func(ctx context.Context) (*application.TransferDTO, error) {
		return a.transfers.Complete(ctx, input.TransferID, input.Actor)
	})
}

// CancelTransfer cancels a transfer that has not been dispatched
func (a *TransferActivities) CancelTransfer(ctx context.Context, input workflows.TransferStepInput) (*workflows.TransferStepResult, error) {
	return a.advance(ctx, "CancelTransfer", input, domain.TransferStatusCancelled, func(ctx context.Context) (*application.TransferDTO, error) {
		return a.transfers.Cancel(ctx, input.TransferID, input.Reason, input.Actor)
	})
}

// toActivityError leaves transient failures retryable and turns business
// rule violations into non-retryable application errors typed by code
func toActivityError(err error) error {
	if application.IsRetryable(err) || errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	appErr := application.ToAppError(err)
	return temporal.NewNonRetryableApplicationError(appErr.Message, appErr.Code, err)
}
