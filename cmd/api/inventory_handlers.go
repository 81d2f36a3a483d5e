package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/middleware"
)

func listInventoryHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			records []*application.InventoryDTO
			err     error
		)
		switch {
		case c.Query("warehouseId") != "":
			records, err = service.ListByWarehouse(c.Request.Context(), c.Query("warehouseId"))
		case c.Query("productId") != "":
			records, err = service.ListByProduct(c.Request.Context(), c.Query("productId"))
		default:
			middleware.NewErrorResponder(c, logger).RespondBadRequest("warehouseId or productId is required")
			return
		}
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"inventory": records,
			"count":     len(records),
		})
	}
}

func getInventoryHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := service.GetInventory(c.Request.Context(), c.Param("productId"), c.Param("warehouseId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func setReorderPointHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ReorderPoint int `json:"reorderPoint" binding:"gte=0"`
		}
		if !bind(c, logger, &req) {
			return
		}

		record, err := service.SetReorderPoint(c.Request.Context(), application.SetReorderPointCommand{
			ProductID:    c.Param("productId"),
			WarehouseID:  c.Param("warehouseId"),
			ReorderPoint: req.ReorderPoint,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}
