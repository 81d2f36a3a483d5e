package main

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/pkg/idempotency"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type routerDeps struct {
	services  *application.Services
	workflows transferWorkflowClient // nil disables the workflow routes
	readiness func(*gin.Context) error
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, deps.logger, deps.metrics))

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, deps.readiness))

	// Metrics endpoint
	if deps.metrics != nil {
		router.GET("/metrics", middleware.MetricsEndpoint(deps.metrics))
	}

	s := deps.services
	logger := deps.logger

	api := router.Group("/api/v1")
	api.Use(idempotency.Middleware(false))

	inventory := api.Group("/inventory")
	{
		inventory.GET("", listInventoryHandler(s.Inventory, logger))
		inventory.GET("/:productId/:warehouseId", getInventoryHandler(s.Inventory, logger))
		inventory.PUT("/:productId/:warehouseId/reorder-point", setReorderPointHandler(s.Inventory, logger))
	}

	purchaseOrders := api.Group("/purchase-orders")
	{
		purchaseOrders.POST("", createPurchaseOrderHandler(s.PurchaseOrders, logger))
		purchaseOrders.GET("", listPurchaseOrdersHandler(s.PurchaseOrders, logger))
		purchaseOrders.GET("/:id", getPurchaseOrderHandler(s.PurchaseOrders, logger))
		purchaseOrders.POST("/:id/items", addPurchaseOrderItemHandler(s.PurchaseOrders, logger))
		purchaseOrders.PUT("/:id/items/:itemId", updatePurchaseOrderItemHandler(s.PurchaseOrders, logger))
		purchaseOrders.DELETE("/:id/items/:itemId", removePurchaseOrderItemHandler(s.PurchaseOrders, logger))
		purchaseOrders.POST("/:id/status", updatePurchaseOrderStatusHandler(s.PurchaseOrders, logger))
		purchaseOrders.POST("/:id/receipts", receiveItemsHandler(s.PurchaseOrders, logger))
	}

	salesOrders := api.Group("/sales-orders")
	{
		salesOrders.POST("", createSalesOrderHandler(s.SalesOrders, logger))
		salesOrders.GET("", listSalesOrdersHandler(s.SalesOrders, logger))
		salesOrders.GET("/:id", getSalesOrderHandler(s.SalesOrders, logger))
		salesOrders.POST("/:id/items", addSalesOrderItemHandler(s.SalesOrders, logger))
		salesOrders.PUT("/:id/items/:itemId", updateSalesOrderItemHandler(s.SalesOrders, logger))
		salesOrders.DELETE("/:id/items/:itemId", removeSalesOrderItemHandler(s.SalesOrders, logger))
		salesOrders.POST("/:id/status", updateSalesOrderStatusHandler(s.SalesOrders, logger))
		salesOrders.POST("/:id/confirm", confirmSalesOrderHandler(s.SalesOrders, logger))
		salesOrders.POST("/:id/cancel", cancelSalesOrderHandler(s.SalesOrders, logger))
		salesOrders.POST("/:id/fulfillments", fulfillItemsHandler(s.SalesOrders, logger))
	}

	transfers := api.Group("/transfers")
	{
		transfers.POST("", initiateTransferHandler(s.Transfers, logger))
		transfers.GET("", listTransfersHandler(s.Transfers, logger))
		transfers.GET("/:id", getTransferHandler(s.Transfers, logger))
		transfers.POST("/:id/approve", transferStepHandler(s.Transfers.Approve, logger))
		transfers.POST("/:id/dispatch", transferStepHandler(s.Transfers.MarkInTransit, logger))
		transfers.POST("/:id/complete", transferStepHandler(s.Transfers.Complete, logger))
		transfers.POST("/:id/cancel", cancelTransferHandler(s.Transfers, logger))
		transfers.POST("/:id/status", updateTransferStatusHandler(s.Transfers, logger))

		if deps.workflows != nil {
			transfers.POST("/:id/workflow", startTransferWorkflowHandler(s.Transfers, deps.workflows, logger))
			transfers.POST("/:id/workflow/signals/:signal", signalTransferWorkflowHandler(deps.workflows, logger))
		}
	}

	adjustments := api.Group("/adjustments")
	{
		adjustments.POST("", createAdjustmentHandler(s.Adjustments, logger))
		adjustments.GET("", listAdjustmentsHandler(s.Adjustments, logger))
		adjustments.GET("/:id", getAdjustmentHandler(s.Adjustments, logger))
		adjustments.PATCH("/:id", updateAdjustmentNotesHandler(s.Adjustments, logger))
		adjustments.DELETE("/:id", deleteAdjustmentHandler(s.Adjustments, logger))
	}

	movements := api.Group("/movements")
	{
		movements.POST("", recordMovementHandler(s.Movements, logger))
		movements.GET("", listMovementsHandler(s.Movements, logger))
		movements.GET("/:id", getMovementHandler(s.Movements, logger))
		movements.POST("/:id/approve", approveMovementHandler(s.Movements, logger))
		movements.POST("/:id/reject", rejectMovementHandler(s.Movements, logger))
	}

	return router
}

// respondError renders any service error as an API error
func respondError(c *gin.Context, logger *logging.Logger, err error) {
	middleware.NewErrorResponder(c, logger).RespondWithAppError(application.ToAppError(err))
}

// actor prefers the name given in the body over the X-User-ID caller
func actor(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return middleware.GetUserID(c)
}

func limitParam(c *gin.Context) int {
	limit := defaultListLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, logger *logging.Logger, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, logger, obj)
}

func bind(c *gin.Context, logger *logging.Logger, obj interface{}) bool {
	if appErr := middleware.BindAndValidate(c, obj); appErr != nil {
		middleware.NewErrorResponder(c, logger).RespondWithAppError(appErr)
		return false
	}
	return true
}
