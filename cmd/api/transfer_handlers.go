package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/internal/workflows"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/middleware"
	"github.com/wms-platform/stock-service/pkg/temporal"
)

// transferWorkflowClient is the part of the Temporal client the API uses
type transferWorkflowClient interface {
	StartWorkflow(ctx context.Context, workflowID, taskQueue, workflowName string, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID, signalName string, arg interface{}) error
}

func transferWorkflowID(transferID string) string {
	return "stock-transfer-" + transferID
}

func initiateTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FromWarehouseID string `json:"fromWarehouseId" binding:"required,entity_id"`
			ToWarehouseID   string `json:"toWarehouseId" binding:"required,entity_id"`
			ProductID       string `json:"productId" binding:"required,entity_id"`
			Quantity        int    `json:"quantity"`
			Notes           string `json:"notes"`
			InitiatedBy     string `json:"initiatedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		t, err := service.InitiateTransfer(c.Request.Context(), application.InitiateTransferCommand{
			FromWarehouseID: req.FromWarehouseID,
			ToWarehouseID:   req.ToWarehouseID,
			ProductID:       req.ProductID,
			Quantity:        req.Quantity,
			Notes:           req.Notes,
			InitiatedBy:     actor(c, req.InitiatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, t)
	}
}

func getTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := service.GetTransfer(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, t)
	}
}

func listTransfersHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		transfers, err := service.ListByStatus(c.Request.Context(), c.DefaultQuery("status", string(domain.TransferStatusPending)), limitParam(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"transfers": transfers,
			"count":     len(transfers),
		})
	}
}

// transferStepHandler serves approve, dispatch and complete, which only
// need the acting user
func transferStepHandler(step func(ctx context.Context, id, actor string) (*application.TransferDTO, error), logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Actor string `json:"actor"`
		}
		if !bindOptional(c, logger, &req) {
			return
		}

		t, err := step(c.Request.Context(), c.Param("id"), actor(c, req.Actor))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, t)
	}
}

func cancelTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason      string `json:"reason" binding:"required"`
			CancelledBy string `json:"cancelledBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		t, err := service.Cancel(c.Request.Context(), c.Param("id"), req.Reason, actor(c, req.CancelledBy))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, t)
	}
}

func updateTransferStatusHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if !bind(c, logger, &req) {
			return
		}

		t, err := service.UpdateStatus(c.Request.Context(), application.UpdateStatusCommand{
			ID:     c.Param("id"),
			Status: req.Status,
			Reason: req.Reason,
			Actor:  actor(c, req.UpdatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, t)
	}
}

// startTransferWorkflowHandler hands a pending transfer to the stock worker
func startTransferWorkflowHandler(service *application.TransferService, wf transferWorkflowClient, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ApprovedBy     string `json:"approvedBy"`
			DispatchedBy   string `json:"dispatchedBy"`
			AwaitDispatch  bool   `json:"awaitDispatch"`
			ArrivalTimeout string `json:"arrivalTimeout"`
		}
		if !bindOptional(c, logger, &req) {
			return
		}

		var timeout time.Duration
		if req.ArrivalTimeout != "" {
			d, err := time.ParseDuration(req.ArrivalTimeout)
			if err != nil || d <= 0 {
				middleware.NewErrorResponder(c, logger).RespondBadRequest("arrivalTimeout must be a positive duration such as 48h")
				return
			}
			timeout = d
		}

		t, err := service.GetTransfer(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		input := workflows.StockTransferWorkflowInput{
			TransferID:     t.TransferID,
			ApprovedBy:     actor(c, req.ApprovedBy),
			DispatchedBy:   actor(c, req.DispatchedBy),
			AwaitDispatch:  req.AwaitDispatch,
			ArrivalTimeout: timeout,
		}
		run, err := wf.StartWorkflow(c.Request.Context(), transferWorkflowID(t.TransferID),
			temporal.TaskQueues.StockTransfers, temporal.WorkflowNames.StockTransfer, input)
		if err != nil {
			logger.WithError(err).Error("Failed to start transfer workflow", "transferId", t.TransferID)
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"transferId": t.TransferID,
			"workflowId": run.GetID(),
			"runId":      run.GetRunID(),
		})
	}
}

// signalTransferWorkflowHandler forwards dispatched, arrived and cancel
// signals to a running transfer workflow
func signalTransferWorkflowHandler(wf transferWorkflowClient, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Actor  string `json:"actor"`
			Reason string `json:"reason"`
		}
		if !bindOptional(c, logger, &req) {
			return
		}
		who := actor(c, req.Actor)

		var (
			name    string
			payload interface{}
		)
		switch c.Param("signal") {
		case "dispatched":
			name, payload = temporal.SignalNames.TransferDispatched, workflows.TransferDispatchedSignal{DispatchedBy: who}
		case "arrived":
			name, payload = temporal.SignalNames.TransferArrived, workflows.TransferArrivedSignal{ReceivedBy: who}
		case "cancel":
			if req.Reason == "" {
				middleware.NewErrorResponder(c, logger).RespondBadRequest("reason is required to cancel a transfer")
				return
			}
			name, payload = temporal.SignalNames.TransferCancel, workflows.TransferCancelSignal{Reason: req.Reason, CancelledBy: who}
		default:
			middleware.NewErrorResponder(c, logger).RespondBadRequest("signal must be one of dispatched, arrived, cancel")
			return
		}

		transferID := c.Param("id")
		if err := wf.SignalWorkflow(c.Request.Context(), transferWorkflowID(transferID), name, payload); err != nil {
			logger.WithError(err).Error("Failed to signal transfer workflow", "transferId", transferID, "signal", name)
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"transferId": transferID,
			"signal":     name,
		})
	}
}
