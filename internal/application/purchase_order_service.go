package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
)

const scopeReceiveItems = "purchase_order.receive"

// PurchaseOrderService handles the inbound side: ordering from suppliers and receiving goods
type PurchaseOrderService struct {
	repo     domain.PurchaseOrderRepository
	ledger   *stockLedger
	requests domain.ProcessedRequestStore
	tx       *TxRunner
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	repo domain.PurchaseOrderRepository,
	store domain.InventoryStore,
	movements domain.StockMovementRepository,
	requests domain.ProcessedRequestStore,
	tx *TxRunner,
	m *metrics.Metrics,
	logger *logging.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		repo:     repo,
		ledger:   newStockLedger(store, movements),
		requests: requests,
		tx:       tx,
		metrics:  m,
		logger:   logger.WithComponent("purchase-order-service"),
	}
}

func (s *PurchaseOrderService) load(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NotFoundError("purchase_order", id)
	}
	return po, nil
}

// mutate reloads the order inside a unit of work, applies fn and saves it
func (s *PurchaseOrderService) mutate(ctx context.Context, operation, id string, fn func(ctx context.Context, po *domain.PurchaseOrder) error) (*domain.PurchaseOrder, error) {
	var po *domain.PurchaseOrder
	err := s.tx.Run(ctx, operation, func(ctx context.Context) error {
		var err error
		if po, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := fn(ctx, po); err != nil {
			return err
		}
		return s.repo.Save(ctx, po)
	})
	return po, err
}

// CreatePurchaseOrder creates a draft purchase order with its initial lines
func (s *PurchaseOrderService) CreatePurchaseOrder(ctx context.Context, cmd CreatePurchaseOrderCommand) (*PurchaseOrderDTO, error) {
	var po *domain.PurchaseOrder
	err := s.tx.Run(ctx, "purchase_order.create", func(ctx context.Context) error {
		var err error
		if po, err = domain.NewPurchaseOrder(cmd.PONumber, cmd.SupplierID, cmd.WarehouseID, cmd.Currency, cmd.CreatedBy); err != nil {
			return err
		}
		po.Notes = cmd.Notes
		for _, item := range cmd.Items {
			if _, err := po.AddItem(item.ProductID, item.Quantity, item.UnitPrice); err != nil {
				return err
			}
		}
		return s.repo.Save(ctx, po)
	})
	if err != nil {
		logFailure(s.logger, "Failed to create purchase order", err, "supplierId", cmd.SupplierID)
		return nil, err
	}

	s.logger.Info("Created purchase order", "purchaseOrderId", po.PurchaseOrderID, "poNumber", po.PONumber, "items", len(po.Items))
	return ToPurchaseOrderDTO(po), nil
}

// GetPurchaseOrder retrieves a purchase order by id
func (s *PurchaseOrderService) GetPurchaseOrder(ctx context.Context, id string) (*PurchaseOrderDTO, error) {
	po, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPurchaseOrderDTO(po), nil
}

// ListByStatus lists purchase orders in a status, newest first
func (s *PurchaseOrderService) ListByStatus(ctx context.Context, status string, limit int) ([]*PurchaseOrderDTO, error) {
	st, err := domain.ParsePurchaseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.FindByStatus(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	return mapSlice(orders, ToPurchaseOrderDTO), nil
}

// AddItem adds a line to a draft or pending order
func (s *PurchaseOrderService) AddItem(ctx context.Context, cmd AddOrderItemCommand) (*PurchaseOrderDTO, error) {
	po, err := s.mutate(ctx, "purchase_order.add_item", cmd.OrderID, func(ctx context.Context, po *domain.PurchaseOrder) error {
		_, err := po.AddItem(cmd.Item.ProductID, cmd.Item.Quantity, cmd.Item.UnitPrice)
		return err
	})
	if err != nil {
		logFailure(s.logger, "Failed to add purchase order item", err, "purchaseOrderId", cmd.OrderID)
		return nil, err
	}
	s.logger.Info("Added purchase order item", "purchaseOrderId", cmd.OrderID, "productId", cmd.Item.ProductID)
	return ToPurchaseOrderDTO(po), nil
}

// UpdateItem changes a line of a draft or pending order
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, cmd UpdateOrderItemCommand) (*PurchaseOrderDTO, error) {
	po, err := s.mutate(ctx, "purchase_order.update_item", cmd.OrderID, func(ctx context.Context, po *domain.PurchaseOrder) error {
		return po.UpdateItem(cmd.ItemID, cmd.Quantity, cmd.UnitPrice)
	})
	if err != nil {
		logFailure(s.logger, "Failed to update purchase order item", err, "purchaseOrderId", cmd.OrderID, "itemId", cmd.ItemID)
		return nil, err
	}
	s.logger.Info("Updated purchase order item", "purchaseOrderId", cmd.OrderID, "itemId", cmd.ItemID)
	return ToPurchaseOrderDTO(po), nil
}

// RemoveItem removes a line of a draft or pending order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, cmd RemoveOrderItemCommand) (*PurchaseOrderDTO, error) {
	po, err := s.mutate(ctx, "purchase_order.remove_item", cmd.OrderID, func(ctx context.Context, po *domain.PurchaseOrder) error {
		return po.RemoveItem(cmd.ItemID)
	})
	if err != nil {
		logFailure(s.logger, "Failed to remove purchase order item", err, "purchaseOrderId", cmd.OrderID, "itemId", cmd.ItemID)
		return nil, err
	}
	s.logger.Info("Removed purchase order item", "purchaseOrderId", cmd.OrderID, "itemId", cmd.ItemID)
	return ToPurchaseOrderDTO(po), nil
}

// UpdateStatus performs a status-only transition. Receipt statuses are
// reached through ReceiveItems and are rejected here.
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*PurchaseOrderDTO, error) {
	target, err := domain.ParsePurchaseOrderStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	po, err := s.mutate(ctx, "purchase_order."+string(target), cmd.ID, func(ctx context.Context, po *domain.PurchaseOrder) error {
		switch target {
		case domain.PurchaseOrderStatusPendingApproval:
			return po.SubmitForApproval(cmd.Actor)
		case domain.PurchaseOrderStatusApproved:
			return po.Approve(cmd.Actor)
		case domain.PurchaseOrderStatusSentToSupplier:
			return po.SendToSupplier(cmd.Actor)
		case domain.PurchaseOrderStatusCancelled:
			return po.Cancel(cmd.Reason, cmd.Actor)
		case domain.PurchaseOrderStatusClosed:
			return po.Close(cmd.Actor)
		default:
			return &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "purchase_order", EntityID: po.PurchaseOrderID, From: string(po.Status), To: string(target)}
		}
	})
	if err != nil {
		logFailure(s.logger, "Failed to update purchase order status", err, "purchaseOrderId", cmd.ID, "status", cmd.Status)
		return nil, err
	}

	s.logger.Audit(ctx, "status_changed", "purchase_order", po.PurchaseOrderID, cmd.Actor, map[string]any{"status": po.Status, "reason": cmd.Reason})
	return ToPurchaseOrderDTO(po), nil
}

// ReceiveItems books a goods receipt. Every line increases on hand stock at
// the order's warehouse and appends a purchase movement; the whole receipt
// commits or nothing does. A request id that was already processed returns
// the current order without applying anything.
func (s *PurchaseOrderService) ReceiveItems(ctx context.Context, cmd ReceiveItemsCommand) (*PurchaseOrderDTO, error) {
	var (
		po       *domain.PurchaseOrder
		replayed bool
	)
	err := s.tx.Run(ctx, "purchase_order.receive", func(ctx context.Context) error {
		var err error
		replayed = false
		if po, err = s.load(ctx, cmd.PurchaseOrderID); err != nil {
			return err
		}
		if cmd.RequestID != "" {
			done, err := alreadyApplied(ctx, s.requests, scopeReceiveItems, cmd.RequestID, po.PurchaseOrderID)
			if err != nil {
				return err
			}
			if done {
				replayed = true
				return nil
			}
		}

		lines := make([]domain.ReceiptLine, 0, len(cmd.Lines))
		for _, l := range cmd.Lines {
			lines = append(lines, domain.ReceiptLine{ItemID: l.ItemID, Quantity: l.Quantity})
		}
		received, err := po.ReceiveItems(lines)
		if err != nil {
			return err
		}

		ref := domain.Reference{Type: "purchase_order", ID: po.PurchaseOrderID}
		for _, line := range received {
			_, err := s.ledger.move(ctx, movementEntry{
				productID:    line.ProductID,
				warehouseID:  po.WarehouseID,
				movementType: domain.MovementTypePurchase,
				quantity:     line.Quantity,
				unitCost:     unitCostOf(po, line.ItemID),
				actor:        cmd.ReceivedBy,
				ref:          ref,
			})
			if err != nil {
				return err
			}
		}

		if err := s.repo.Save(ctx, po); err != nil {
			return err
		}
		if cmd.RequestID != "" {
			return s.requests.MarkProcessed(ctx, scopeReceiveItems, cmd.RequestID, po.PurchaseOrderID)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to receive items", err, "purchaseOrderId", cmd.PurchaseOrderID, "requestId", cmd.RequestID)
		return nil, err
	}

	if replayed {
		s.metrics.RecordIdempotentReplay("purchase_order.receive")
		s.logger.WithRequestID(cmd.RequestID).Info("Receipt already processed", "purchaseOrderId", po.PurchaseOrderID)
		return ToPurchaseOrderDTO(po), nil
	}

	s.logger.Event(ctx, "purchase_order.received", map[string]any{
		"purchaseOrderId": po.PurchaseOrderID,
		"warehouseId":     po.WarehouseID,
		"lines":           len(cmd.Lines),
		"status":          po.Status,
	})
	return ToPurchaseOrderDTO(po), nil
}

func unitCostOf(po *domain.PurchaseOrder, itemID string) domain.Money {
	for _, item := range po.Items {
		if item.ItemID == itemID {
			return item.UnitCost
		}
	}
	return domain.ZeroMoney(po.Currency)
}
