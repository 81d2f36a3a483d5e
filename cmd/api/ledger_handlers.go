package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/middleware"
)

// Adjustments

func createAdjustmentHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID      string `json:"productId" binding:"required,entity_id"`
			WarehouseID    string `json:"warehouseId" binding:"required,entity_id"`
			AdjustmentType string `json:"adjustmentType" binding:"required"`
			Quantity       int    `json:"quantity"`
			Reason         string `json:"reason" binding:"required"`
			Notes          string `json:"notes"`
			AdjustedBy     string `json:"adjustedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		a, err := service.CreateAdjustment(c.Request.Context(), application.CreateAdjustmentCommand{
			ProductID:      req.ProductID,
			WarehouseID:    req.WarehouseID,
			AdjustmentType: req.AdjustmentType,
			Quantity:       req.Quantity,
			Reason:         req.Reason,
			Notes:          req.Notes,
			AdjustedBy:     actor(c, req.AdjustedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, a)
	}
}

func getAdjustmentHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := service.GetAdjustment(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

func listAdjustmentsHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, warehouseID := c.Query("productId"), c.Query("warehouseId")
		if productID == "" || warehouseID == "" {
			middleware.NewErrorResponder(c, logger).RespondBadRequest("productId and warehouseId are required")
			return
		}

		adjustments, err := service.ListByInventory(c.Request.Context(), productID, warehouseID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"adjustments": adjustments,
			"count":       len(adjustments),
		})
	}
}

func updateAdjustmentNotesHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Notes string `json:"notes"`
		}
		if !bind(c, logger, &req) {
			return
		}

		a, err := service.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

func deleteAdjustmentHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.DeleteAdjustment(c.Request.Context(), c.Param("id"), actor(c, "")); err != nil {
			respondError(c, logger, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// Movements

func recordMovementHandler(service *application.MovementService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID     string          `json:"productId" binding:"required,entity_id"`
			WarehouseID   string          `json:"warehouseId" binding:"required,entity_id"`
			MovementType  string          `json:"movementType" binding:"required"`
			Quantity      int             `json:"quantity"`
			UnitCost      decimal.Decimal `json:"unitCost"`
			Currency      string          `json:"currency" binding:"omitempty,currency"`
			ReferenceType string          `json:"referenceType"`
			ReferenceID   string          `json:"referenceId"`
			Notes         string          `json:"notes"`
			UserID        string          `json:"userId"`
		}
		if !bind(c, logger, &req) {
			return
		}

		m, err := service.RecordMovement(c.Request.Context(), application.RecordMovementCommand{
			ProductID:     req.ProductID,
			WarehouseID:   req.WarehouseID,
			MovementType:  req.MovementType,
			Quantity:      req.Quantity,
			UnitCost:      req.UnitCost,
			Currency:      req.Currency,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			Notes:         req.Notes,
			UserID:        actor(c, req.UserID),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, m)
	}
}

func getMovementHandler(service *application.MovementService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := service.GetMovement(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, m)
	}
}

// listMovementsHandler lists the ledger of one record, or every movement
// booked against one reference
func listMovementsHandler(service *application.MovementService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			movements []*application.MovementDTO
			err       error
		)
		switch {
		case c.Query("productId") != "" && c.Query("warehouseId") != "":
			movements, err = service.ListByInventory(c.Request.Context(), c.Query("productId"), c.Query("warehouseId"))
		case c.Query("referenceType") != "" && c.Query("referenceId") != "":
			movements, err = service.ListByReference(c.Request.Context(), c.Query("referenceType"), c.Query("referenceId"))
		default:
			middleware.NewErrorResponder(c, logger).RespondBadRequest("productId and warehouseId, or referenceType and referenceId, are required")
			return
		}
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"movements": movements,
			"count":     len(movements),
		})
	}
}

func approveMovementHandler(service *application.MovementService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ApprovedBy string `json:"approvedBy"`
		}
		if !bindOptional(c, logger, &req) {
			return
		}

		m, err := service.ApproveMovement(c.Request.Context(), c.Param("id"), actor(c, req.ApprovedBy))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, m)
	}
}

func rejectMovementHandler(service *application.MovementService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason     string `json:"reason" binding:"required"`
			RejectedBy string `json:"rejectedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		m, err := service.RejectMovement(c.Request.Context(), c.Param("id"), actor(c, req.RejectedBy), req.Reason)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, m)
	}
}
