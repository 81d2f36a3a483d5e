package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
)

const scopeFulfillItems = "sales_order.fulfill"

// SalesOrderService handles the outbound side: reserving stock for customer
// orders, fulfilling and shipping them
type SalesOrderService struct {
	repo     domain.SalesOrderRepository
	ledger   *stockLedger
	requests domain.ProcessedRequestStore
	tx       *TxRunner
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	repo domain.SalesOrderRepository,
	store domain.InventoryStore,
	movements domain.StockMovementRepository,
	requests domain.ProcessedRequestStore,
	tx *TxRunner,
	m *metrics.Metrics,
	logger *logging.Logger,
) *SalesOrderService {
	return &SalesOrderService{
		repo:     repo,
		ledger:   newStockLedger(store, movements),
		requests: requests,
		tx:       tx,
		metrics:  m,
		logger:   logger.WithComponent("sales-order-service"),
	}
}

func (s *SalesOrderService) load(ctx context.Context, id string) (*domain.SalesOrder, error) {
	so, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, domain.NotFoundError("sales_order", id)
	}
	return so, nil
}

func (s *SalesOrderService) mutate(ctx context.Context, operation, id string, fn func(ctx context.Context, so *domain.SalesOrder) error) (*domain.SalesOrder, error) {
	var so *domain.SalesOrder
	err := s.tx.Run(ctx, operation, func(ctx context.Context) error {
		var err error
		if so, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := fn(ctx, so); err != nil {
			return err
		}
		return s.repo.Save(ctx, so)
	})
	return so, err
}

// CreateSalesOrder creates a draft sales order with its initial lines
func (s *SalesOrderService) CreateSalesOrder(ctx context.Context, cmd CreateSalesOrderCommand) (*SalesOrderDTO, error) {
	var so *domain.SalesOrder
	err := s.tx.Run(ctx, "sales_order.create", func(ctx context.Context) error {
		var err error
		if so, err = domain.NewSalesOrder(cmd.SONumber, cmd.CustomerID, cmd.WarehouseID, cmd.Currency, cmd.CreatedBy); err != nil {
			return err
		}
		for _, item := range cmd.Items {
			if _, err := so.AddItem(item.ProductID, item.Quantity, item.UnitPrice); err != nil {
				return err
			}
		}
		return s.repo.Save(ctx, so)
	})
	if err != nil {
		logFailure(s.logger, "Failed to create sales order", err, "customerId", cmd.CustomerID)
		return nil, err
	}

	s.logger.Info("Created sales order", "salesOrderId", so.SalesOrderID, "soNumber", so.SONumber, "items", len(so.Items))
	return ToSalesOrderDTO(so), nil
}

// GetSalesOrder retrieves a sales order by id
func (s *SalesOrderService) GetSalesOrder(ctx context.Context, id string) (*SalesOrderDTO, error) {
	so, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSalesOrderDTO(so), nil
}

// ListByStatus lists sales orders in a status, newest first
func (s *SalesOrderService) ListByStatus(ctx context.Context, status string, limit int) ([]*SalesOrderDTO, error) {
	st, err := domain.ParseSalesOrderStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.FindByStatus(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	return mapSlice(orders, ToSalesOrderDTO), nil
}

// AddItem adds a line to a draft or pending order
func (s *SalesOrderService) AddItem(ctx context.Context, cmd AddOrderItemCommand) (*SalesOrderDTO, error) {
	so, err := s.mutate(ctx, "sales_order.add_item", cmd.OrderID, func(ctx context.Context, so *domain.SalesOrder) error {
		_, err := so.AddItem(cmd.Item.ProductID, cmd.Item.Quantity, cmd.Item.UnitPrice)
		return err
	})
	if err != nil {
		logFailure(s.logger, "Failed to add sales order item", err, "salesOrderId", cmd.OrderID)
		return nil, err
	}
	s.logger.Info("Added sales order item", "salesOrderId", cmd.OrderID, "productId", cmd.Item.ProductID)
	return ToSalesOrderDTO(so), nil
}

// UpdateItem changes a line of a draft or pending order
func (s *SalesOrderService) UpdateItem(ctx context.Context, cmd UpdateOrderItemCommand) (*SalesOrderDTO, error) {
	so, err := s.mutate(ctx, "sales_order.update_item", cmd.OrderID, func(ctx context.Context, so *domain.SalesOrder) error {
		return so.UpdateItem(cmd.ItemID, cmd.Quantity, cmd.UnitPrice)
	})
	if err != nil {
		logFailure(s.logger, "Failed to update sales order item", err, "salesOrderId", cmd.OrderID, "itemId", cmd.ItemID)
		return nil, err
	}
	s.logger.Info("Updated sales order item", "salesOrderId", cmd.OrderID, "itemId", cmd.ItemID)
	return ToSalesOrderDTO(so), nil
}

// RemoveItem removes a line of a draft or pending order
func (s *SalesOrderService) RemoveItem(ctx context.Context, cmd RemoveOrderItemCommand) (*SalesOrderDTO, error) {
	so, err := s.mutate(ctx, "sales_order.remove_item", cmd.OrderID, func(ctx context.Context, so *domain.SalesOrder) error {
		return so.RemoveItem(cmd.ItemID)
	})
	if err != nil {
		logFailure(s.logger, "Failed to remove sales order item", err, "salesOrderId", cmd.OrderID, "itemId", cmd.ItemID)
		return nil, err
	}
	s.logger.Info("Removed sales order item", "salesOrderId", cmd.OrderID, "itemId", cmd.ItemID)
	return ToSalesOrderDTO(so), nil
}

// UpdateStatus performs a transition. Confirming reserves every line and
// cancelling a confirmed order releases what is still reserved, both in the
// same unit of work as the status change. Fulfillment statuses are reached
// through FulfillItems and are rejected here.
func (s *SalesOrderService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*SalesOrderDTO, error) {
	target, err := domain.ParseSalesOrderStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	so, err := s.mutate(ctx, "sales_order."+string(target), cmd.ID, func(ctx context.Context, so *domain.SalesOrder) error {
		switch target {
		case domain.SalesOrderStatusPendingApproval:
			return so.SubmitForApproval(cmd.Actor)
		case domain.SalesOrderStatusApproved:
			return so.Approve(cmd.Actor)
		case domain.SalesOrderStatusConfirmed:
			return s.confirm(ctx, so, cmd.Actor)
		case domain.SalesOrderStatusShipped:
			return so.Ship(cmd.TrackingNumber, cmd.Carrier, cmd.Actor)
		case domain.SalesOrderStatusDelivered:
			return so.MarkAsDelivered(cmd.Actor)
		case domain.SalesOrderStatusCancelled:
			return s.cancel(ctx, so, cmd.Reason, cmd.Actor)
		default:
			return &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "sales_order", EntityID: so.SalesOrderID, From: string(so.Status), To: string(target)}
		}
	})
	if err != nil {
		logFailure(s.logger, "Failed to update sales order status", err, "salesOrderId", cmd.ID, "status", cmd.Status)
		return nil, err
	}

	s.logger.Audit(ctx, "status_changed", "sales_order", so.SalesOrderID, cmd.Actor, map[string]any{"status": so.Status, "reason": cmd.Reason})
	return ToSalesOrderDTO(so), nil
}

// Confirm reserves the full ordered quantity of every line
func (s *SalesOrderService) Confirm(ctx context.Context, id, actor string) (*SalesOrderDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.SalesOrderStatusConfirmed), Actor: actor})
}

// Cancel cancels the order and releases its outstanding reservation
func (s *SalesOrderService) Cancel(ctx context.Context, id, reason, actor string) (*SalesOrderDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.SalesOrderStatusCancelled), Reason: reason, Actor: actor})
}

func (s *SalesOrderService) confirm(ctx context.Context, so *domain.SalesOrder, actor string) error {
	lines, err := so.Confirm(actor)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := s.ledger.reserve(ctx, line.ProductID, so.WarehouseID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *SalesOrderService) cancel(ctx context.Context, so *domain.SalesOrder, reason, actor string) error {
	release, err := so.Cancel(reason, actor)
	if err != nil {
		return err
	}
	for _, line := range release {
		if err := s.ledger.release(ctx, line.ProductID, so.WarehouseID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// FulfillItems ships reserved units: each line removes the quantity from
// both on hand and reserved and appends a sale movement. A request id that
// was already processed returns the current order without applying anything.
func (s *SalesOrderService) FulfillItems(ctx context.Context, cmd FulfillItemsCommand) (*SalesOrderDTO, error) {
	var (
		so       *domain.SalesOrder
		replayed bool
	)
	err := s.tx.Run(ctx, "sales_order.fulfill", func(ctx context.Context) error {
		var err error
		replayed = false
		if so, err = s.load(ctx, cmd.SalesOrderID); err != nil {
			return err
		}
		if cmd.RequestID != "" {
			done, err := alreadyApplied(ctx, s.requests, scopeFulfillItems, cmd.RequestID, so.SalesOrderID)
			if err != nil {
				return err
			}
			if done {
				replayed = true
				return nil
			}
		}

		lines := make([]domain.FulfillmentLine, 0, len(cmd.Lines))
		for _, l := range cmd.Lines {
			lines = append(lines, domain.FulfillmentLine{ItemID: l.ItemID, Quantity: l.Quantity, Notes: l.Notes})
		}
		fulfilled, err := so.FulfillItems(lines)
		if err != nil {
			return err
		}

		ref := domain.Reference{Type: "sales_order", ID: so.SalesOrderID}
		for _, line := range fulfilled {
			_, err := s.ledger.move(ctx, movementEntry{
				productID:     line.ProductID,
				warehouseID:   so.WarehouseID,
				movementType:  domain.MovementTypeSale,
				quantity:      line.Quantity,
				reservedDelta: -line.Quantity,
				unitCost:      unitPriceOf(so, line.ItemID),
				actor:         cmd.FulfilledBy,
				ref:           ref,
				notes:         line.Notes,
			})
			if err != nil {
				return err
			}
		}

		if err := s.repo.Save(ctx, so); err != nil {
			return err
		}
		if cmd.RequestID != "" {
			return s.requests.MarkProcessed(ctx, scopeFulfillItems, cmd.RequestID, so.SalesOrderID)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to fulfill items", err, "salesOrderId", cmd.SalesOrderID, "requestId", cmd.RequestID)
		return nil, err
	}

	if replayed {
		s.metrics.RecordIdempotentReplay("sales_order.fulfill")
		s.logger.WithRequestID(cmd.RequestID).Info("Fulfillment already processed", "salesOrderId", so.SalesOrderID)
		return ToSalesOrderDTO(so), nil
	}

	s.logger.Event(ctx, "sales_order.fulfilled", map[string]any{
		"salesOrderId": so.SalesOrderID,
		"warehouseId":  so.WarehouseID,
		"lines":        len(cmd.Lines),
		"status":       so.Status,
	})
	return ToSalesOrderDTO(so), nil
}

func unitPriceOf(so *domain.SalesOrder, itemID string) domain.Money {
	for _, item := range so.Items {
		if item.ItemID == itemID {
			return item.UnitPrice
		}
	}
	return domain.ZeroMoney(so.Currency)
}
