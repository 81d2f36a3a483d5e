package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/pkg/idempotency"
	"github.com/wms-platform/stock-service/pkg/logging"
)

type orderItemRequest struct {
	ProductID string          `json:"productId" binding:"required,entity_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (r orderItemRequest) toInput() application.OrderItemInput {
	return application.OrderItemInput{ProductID: r.ProductID, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
}

func toItemInputs(items []orderItemRequest) []application.OrderItemInput {
	inputs := make([]application.OrderItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, item.toInput())
	}
	return inputs
}

type updateItemRequest struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	UpdatedBy string          `json:"updatedBy"`
}

type statusRequest struct {
	Status         string `json:"status" binding:"required"`
	Reason         string `json:"reason"`
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	UpdatedBy      string `json:"updatedBy"`
}

type quantityLineRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

func toQuantityLines(lines []quantityLineRequest) []application.QuantityLine {
	out := make([]application.QuantityLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, application.QuantityLine{ItemID: l.ItemID, Quantity: l.Quantity, Notes: l.Notes})
	}
	return out
}

// Purchase orders

func createPurchaseOrderHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PONumber    string             `json:"poNumber"`
			SupplierID  string             `json:"supplierId" binding:"required,entity_id"`
			WarehouseID string             `json:"warehouseId" binding:"required,entity_id"`
			Currency    string             `json:"currency" binding:"omitempty,currency"`
			Notes       string             `json:"notes"`
			Items       []orderItemRequest `json:"items" binding:"dive"`
			CreatedBy   string             `json:"createdBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		po, err := service.CreatePurchaseOrder(c.Request.Context(), application.CreatePurchaseOrderCommand{
			PONumber:    req.PONumber,
			SupplierID:  req.SupplierID,
			WarehouseID: req.WarehouseID,
			Currency:    req.Currency,
			Notes:       req.Notes,
			Items:       toItemInputs(req.Items),
			CreatedBy:   actor(c, req.CreatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, po)
	}
}

func getPurchaseOrderHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := service.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

func listPurchaseOrdersHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := service.ListByStatus(c.Request.Context(), c.DefaultQuery("status", "draft"), limitParam(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"purchaseOrders": orders,
			"count":          len(orders),
		})
	}
}

func addPurchaseOrderItemHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			orderItemRequest
			AddedBy string `json:"addedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		po, err := service.AddItem(c.Request.Context(), application.AddOrderItemCommand{
			OrderID: c.Param("id"),
			Item:    req.toInput(),
			Actor:   actor(c, req.AddedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

func updatePurchaseOrderItemHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateItemRequest
		if !bind(c, logger, &req) {
			return
		}

		po, err := service.UpdateItem(c.Request.Context(), application.UpdateOrderItemCommand{
			OrderID:   c.Param("id"),
			ItemID:    c.Param("itemId"),
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
			Actor:     actor(c, req.UpdatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

func removePurchaseOrderItemHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := service.RemoveItem(c.Request.Context(), application.RemoveOrderItemCommand{
			OrderID: c.Param("id"),
			ItemID:  c.Param("itemId"),
			Actor:   actor(c, ""),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

func updatePurchaseOrderStatusHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if !bind(c, logger, &req) {
			return
		}

		po, err := service.UpdateStatus(c.Request.Context(), application.UpdateStatusCommand{
			ID:     c.Param("id"),
			Status: req.Status,
			Reason: req.Reason,
			Actor:  actor(c, req.UpdatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

// receiveItemsHandler books a receipt. The Idempotency-Key header makes a
// retried receipt a no-op.
func receiveItemsHandler(service *application.PurchaseOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Lines      []quantityLineRequest `json:"lines" binding:"required,min=1,dive"`
			ReceivedBy string                `json:"receivedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		po, err := service.ReceiveItems(c.Request.Context(), application.ReceiveItemsCommand{
			PurchaseOrderID: c.Param("id"),
			RequestID:       idempotency.KeyFromContext(c),
			Lines:           toQuantityLines(req.Lines),
			ReceivedBy:      actor(c, req.ReceivedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, po)
	}
}

// Sales orders

func createSalesOrderHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SONumber    string             `json:"soNumber"`
			CustomerID  string             `json:"customerId" binding:"required,entity_id"`
			WarehouseID string             `json:"warehouseId" binding:"required,entity_id"`
			Currency    string             `json:"currency" binding:"omitempty,currency"`
			Items       []orderItemRequest `json:"items" binding:"dive"`
			CreatedBy   string             `json:"createdBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.CreateSalesOrder(c.Request.Context(), application.CreateSalesOrderCommand{
			SONumber:    req.SONumber,
			CustomerID:  req.CustomerID,
			WarehouseID: req.WarehouseID,
			Currency:    req.Currency,
			Items:       toItemInputs(req.Items),
			CreatedBy:   actor(c, req.CreatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, so)
	}
}

func getSalesOrderHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		so, err := service.GetSalesOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func listSalesOrdersHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := service.ListByStatus(c.Request.Context(), c.DefaultQuery("status", "draft"), limitParam(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"salesOrders": orders,
			"count":       len(orders),
		})
	}
}

func addSalesOrderItemHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			orderItemRequest
			AddedBy string `json:"addedBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.AddItem(c.Request.Context(), application.AddOrderItemCommand{
			OrderID: c.Param("id"),
			Item:    req.toInput(),
			Actor:   actor(c, req.AddedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func updateSalesOrderItemHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateItemRequest
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.UpdateItem(c.Request.Context(), application.UpdateOrderItemCommand{
			OrderID:   c.Param("id"),
			ItemID:    c.Param("itemId"),
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
			Actor:     actor(c, req.UpdatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func removeSalesOrderItemHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		so, err := service.RemoveItem(c.Request.Context(), application.RemoveOrderItemCommand{
			OrderID: c.Param("id"),
			ItemID:  c.Param("itemId"),
			Actor:   actor(c, ""),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func updateSalesOrderStatusHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.UpdateStatus(c.Request.Context(), application.UpdateStatusCommand{
			ID:             c.Param("id"),
			Status:         req.Status,
			Reason:         req.Reason,
			TrackingNumber: req.TrackingNumber,
			Carrier:        req.Carrier,
			Actor:          actor(c, req.UpdatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func confirmSalesOrderHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ConfirmedBy string `json:"confirmedBy"`
		}
		if !bindOptional(c, logger, &req) {
			return
		}

		so, err := service.Confirm(c.Request.Context(), c.Param("id"), actor(c, req.ConfirmedBy))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

func cancelSalesOrderHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason      string `json:"reason" binding:"required"`
			CancelledBy string `json:"cancelledBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.Cancel(c.Request.Context(), c.Param("id"), req.Reason, actor(c, req.CancelledBy))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}

// fulfillItemsHandler ships reserved stock. The Idempotency-Key header makes
// a retried fulfillment a no-op.
func fulfillItemsHandler(service *application.SalesOrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Lines       []quantityLineRequest `json:"lines" binding:"required,min=1,dive"`
			FulfilledBy string                `json:"fulfilledBy"`
		}
		if !bind(c, logger, &req) {
			return
		}

		so, err := service.FulfillItems(c.Request.Context(), application.FulfillItemsCommand{
			SalesOrderID: c.Param("id"),
			RequestID:    idempotency.KeyFromContext(c),
			Lines:        toQuantityLines(req.Lines),
			FulfilledBy:  actor(c, req.FulfilledBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, so)
	}
}
