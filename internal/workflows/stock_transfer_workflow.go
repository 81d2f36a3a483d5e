package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	stocktemporal "github.com/wms-platform/stock-service/pkg/temporal"
)

// Activity names registered by the stock worker
const (
	ActivityApproveTransfer  = "ApproveTransfer"
	ActivityDispatchTransfer = "DispatchTransfer"
	ActivityCompleteTransfer = "CompleteTransfer"
	ActivityCancelTransfer   = "CancelTransfer"
)

// DefaultArrivalTimeout is how long a dispatched transfer may stay in transit
const DefaultArrivalTimeout = 72 * time.Hour

// Workflow result statuses
const (
	TransferStatusCompleted      = "completed"
	TransferStatusCancelled      = "cancelled"
	TransferStatusArrivalOverdue = "arrival_overdue"
	TransferStatusFailed         = "failed"
)

// StockTransferWorkflowInput starts the workflow for an already initiated transfer
type StockTransferWorkflowInput struct {
	TransferID     string        `json:"transferId"`
	ApprovedBy     string        `json:"approvedBy"`
	DispatchedBy   string        `json:"dispatchedBy,omitempty"`
	AwaitDispatch  bool          `json:"awaitDispatch,omitempty"`
	ArrivalTimeout time.Duration `json:"arrivalTimeout,omitempty"`
}

// StockTransferWorkflowResult reports where the transfer ended up
type StockTransferWorkflowResult struct {
	TransferID  string `json:"transferId"`
	Status      string `json:"status"`
	CompletedBy string `json:"completedBy,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TransferStepInput is the argument of every transfer activity
type TransferStepInput struct {
	TransferID string `json:"transferId"`
	Actor      string `json:"actor"`
	Reason     string `json:"reason,omitempty"`
}

// TransferStepResult is the transfer status after an activity ran
type TransferStepResult struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

// TransferDispatchedSignal releases a transfer waiting for dispatch
type TransferDispatchedSignal struct {
	DispatchedBy string `json:"dispatchedBy"`
}

// TransferArrivedSignal reports that the goods reached the destination
type TransferArrivedSignal struct {
	ReceivedBy string `json:"receivedBy"`
}

// TransferCancelSignal asks for a transfer that has not left to be cancelled
type TransferCancelSignal struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"`
}

func transferActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
}

// StockTransferWorkflow drives a transfer through approval, dispatch and
// completion. Completion waits for the arrived signal; the inventory rows only
// change in the CompleteTransfer activity.
func StockTransferWorkflow(ctx workflow.Context, input StockTransferWorkflowInput) (*StockTransferWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting stock transfer workflow", "transferId", input.TransferID)

	result := &StockTransferWorkflowResult{TransferID: input.TransferID}
	ctx = workflow.WithActivityOptions(ctx, transferActivityOptions())

	step := func(name string, in TransferStepInput) error {
		var out TransferStepResult
		return workflow.ExecuteActivity(ctx, name, in).Get(ctx, &out)
	}

	if err := step(ActivityApproveTransfer, TransferStepInput{TransferID: input.TransferID, Actor: input.ApprovedBy}); err != nil {
		return failed(result, "approve", err)
	}

	dispatchedBy := input.DispatchedBy
	if input.AwaitDispatch {
		var cancel *TransferCancelSignal
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(workflow.GetSignalChannel(ctx, stocktemporal.SignalNames.TransferDispatched), func(c workflow.ReceiveChannel, more bool) {
			var sig TransferDispatchedSignal
			c.Receive(ctx, &sig)
			if sig.DispatchedBy != "" {
				dispatchedBy = sig.DispatchedBy
			}
		})
		selector.AddReceive(workflow.GetSignalChannel(ctx, stocktemporal.SignalNames.TransferCancel), func(c workflow.ReceiveChannel, more bool) {
			cancel = &TransferCancelSignal{}
			c.Receive(ctx, cancel)
		})
		selector.Select(ctx)

		if cancel != nil {
			logger.Info("Transfer cancelled before dispatch", "transferId", input.TransferID, "reason", cancel.Reason)
			err := step(ActivityCancelTransfer, TransferStepInput{TransferID: input.TransferID, Actor: cancel.CancelledBy, Reason: cancel.Reason})
			if err != nil {
				return failed(result, "cancel", err)
			}
			result.Status = TransferStatusCancelled
			return result, nil
		}
	}

	if err := step(ActivityDispatchTransfer, TransferStepInput{TransferID: input.TransferID, Actor: dispatchedBy}); err != nil {
		return failed(result, "dispatch", err)
	}

	timeout := input.ArrivalTimeout
	if timeout <= 0 {
		timeout = DefaultArrivalTimeout
	}

	waitCtx, cancelWait := workflow.WithCancel(ctx)
	defer cancelWait()

	var arrival *TransferArrivedSignal
	selector := workflow.NewSelector(waitCtx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, stocktemporal.SignalNames.TransferArrived), func(c workflow.ReceiveChannel, more bool) {
		arrival = &TransferArrivedSignal{}
		c.Receive(waitCtx, arrival)
	})
	selector.AddFuture(workflow.NewTimer(waitCtx, timeout), func(f workflow.Future) {
		logger.Warn("Transfer arrival overdue", "transferId", input.TransferID, "timeout", timeout)
	})
	selector.Select(waitCtx)

	if arrival == nil {
		// stays in transit until someone completes it by hand
		result.Status = TransferStatusArrivalOverdue
		return result, nil
	}

	if err := step(ActivityCompleteTransfer, TransferStepInput{TransferID: input.TransferID, Actor: arrival.ReceivedBy}); err != nil {
		return failed(result, "complete", err)
	}

	result.Status = TransferStatusCompleted
	result.CompletedBy = arrival.ReceivedBy
	logger.Info("Stock transfer workflow completed", "transferId", input.TransferID)
	return result, nil
}

// ErrTypeTransferStepFailed types workflow failures whose cause carried no code
const ErrTypeTransferStepFailed = "TRANSFER_STEP_FAILED"

// failed keeps the activity's error type so callers can tell INSUFFICIENT_STOCK
// from INVALID_TRANSITION without parsing messages
func failed(result *StockTransferWorkflowResult, stage string, err error) (*StockTransferWorkflowResult, error) {
	result.Status = TransferStatusFailed
	result.Error = fmt.Sprintf("%s failed: %v", stage, err)

	msg := fmt.Sprintf("transfer %s %s failed", result.TransferID, stage)
	errType := ErrTypeTransferStepFailed
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() != "" {
		errType = appErr.Type()
	}
	return result, temporal.NewNonRetryableApplicationError(msg, errType, err)
}
