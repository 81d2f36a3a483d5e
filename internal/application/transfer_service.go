package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
)

// TransferService moves stock between warehouses
type TransferService struct {
	repo   domain.StockTransferRepository
	ledger *stockLedger
	tx     *TxRunner
	logger *logging.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	repo domain.StockTransferRepository,
	store domain.InventoryStore,
	movements domain.StockMovementRepository,
	tx *TxRunner,
	logger *logging.Logger,
) *TransferService {
	return &TransferService{
		repo:   repo,
		ledger: newStockLedger(store, movements),
		tx:     tx,
		logger: logger.WithComponent("transfer-service"),
	}
}

func (s *TransferService) load(ctx context.Context, id string) (*domain.StockTransfer, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFoundError("stock_transfer", id)
	}
	return t, nil
}

func (s *TransferService) mutate(ctx context.Context, operation, id string, fn func(ctx context.Context, t *domain.StockTransfer) error) (*domain.StockTransfer, error) {
	var t *domain.StockTransfer
	err := s.tx.Run(ctx, operation, func(ctx context.Context) error {
		var err error
		if t, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := fn(ctx, t); err != nil {
			return err
		}
		return s.repo.Save(ctx, t)
	})
	return t, err
}

// InitiateTransfer records a pending transfer after checking the source has
// enough available stock. Nothing is reserved.
func (s *TransferService) InitiateTransfer(ctx context.Context, cmd InitiateTransferCommand) (*TransferDTO, error) {
	var t *domain.StockTransfer
	err := s.tx.Run(ctx, "transfer.initiate", func(ctx context.Context) error {
		var err error
		if t, err = domain.NewStockTransfer(cmd.FromWarehouseID, cmd.ToWarehouseID, cmd.ProductID, cmd.Quantity, cmd.InitiatedBy, cmd.Notes); err != nil {
			return err
		}
		if err := s.ledger.requireAvailable(ctx, t.ProductID, t.FromWarehouseID, t.QuantityTransferred); err != nil {
			return err
		}
		return s.repo.Save(ctx, t)
	})
	if err != nil {
		logFailure(s.logger, "Failed to initiate transfer", err,
			"productId", cmd.ProductID, "from", cmd.FromWarehouseID, "to", cmd.ToWarehouseID)
		return nil, err
	}

	s.logger.Info("Initiated transfer",
		"transferId", t.TransferID,
		"productId", t.ProductID,
		"from", t.FromWarehouseID,
		"to", t.ToWarehouseID,
		"quantity", t.QuantityTransferred,
	)
	return ToTransferDTO(t), nil
}

// GetTransfer retrieves a transfer by id
func (s *TransferService) GetTransfer(ctx context.Context, id string) (*TransferDTO, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTransferDTO(t), nil
}

// ListByStatus lists transfers in a status, newest first
func (s *TransferService) ListByStatus(ctx context.Context, status string, limit int) ([]*TransferDTO, error) {
	st, err := domain.ParseTransferStatus(status)
	if err != nil {
		return nil, err
	}
	transfers, err := s.repo.FindByStatus(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	return mapSlice(transfers, ToTransferDTO), nil
}

// Approve moves a pending transfer to approved
func (s *TransferService) Approve(ctx context.Context, id, approver string) (*TransferDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.TransferStatusApproved), Actor: approver})
}

// MarkInTransit records that goods left the source. Inventory is untouched
// until the transfer completes.
func (s *TransferService) MarkInTransit(ctx context.Context, id, actor string) (*TransferDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.TransferStatusInTransit), Actor: actor})
}

// Complete applies both inventory deltas
func (s *TransferService) Complete(ctx context.Context, id, actor string) (*TransferDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.TransferStatusCompleted), Actor: actor})
}

// Cancel cancels a transfer that has not left yet
func (s *TransferService) Cancel(ctx context.Context, id, reason, actor string) (*TransferDTO, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{ID: id, Status: string(domain.TransferStatusCancelled), Reason: reason, Actor: actor})
}

// UpdateStatus performs a transfer transition by target status
func (s *TransferService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*TransferDTO, error) {
	target, err := domain.ParseTransferStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	t, err := s.mutate(ctx, "transfer."+string(target), cmd.ID, func(ctx context.Context, t *domain.StockTransfer) error {
		switch target {
		case domain.TransferStatusApproved:
			return t.Approve(cmd.Actor)
		case domain.TransferStatusInTransit:
			return t.MarkInTransit(cmd.Actor)
		case domain.TransferStatusCompleted:
			return s.complete(ctx, t, cmd.Actor)
		case domain.TransferStatusCancelled:
			return t.Cancel(cmd.Reason, cmd.Actor)
		default:
			return &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "stock_transfer", EntityID: t.TransferID, From: string(t.Status), To: string(target)}
		}
	})
	if err != nil {
		logFailure(s.logger, "Failed to update transfer status", err, "transferId", cmd.ID, "status", cmd.Status)
		return nil, err
	}

	s.logger.Audit(ctx, "status_changed", "stock_transfer", t.TransferID, cmd.Actor, map[string]any{"status": t.Status, "reason": cmd.Reason})
	return ToTransferDTO(t), nil
}

// complete re-validates the source, then writes both rows in ascending warehouse order
func (s *TransferService) complete(ctx context.Context, t *domain.StockTransfer, actor string) error {
	if err := t.Complete(actor); err != nil {
		return err
	}
	if err := s.ledger.requireAvailable(ctx, t.ProductID, t.FromWarehouseID, t.QuantityTransferred); err != nil {
		return err
	}

	ref := domain.Reference{Type: "stock_transfer", ID: t.TransferID}
	first, second := t.LockOrder()
	for _, warehouseID := range []string{first, second} {
		movementType := domain.MovementTypeTransferIn
		if warehouseID == t.FromWarehouseID {
			movementType = domain.MovementTypeTransferOut
		}
		_, err := s.ledger.move(ctx, movementEntry{
			productID:    t.ProductID,
			warehouseID:  warehouseID,
			movementType: movementType,
			quantity:     t.QuantityTransferred,
			unitCost:     domain.ZeroMoney(domain.DefaultCurrency),
			actor:        actor,
			ref:          ref,
			notes:        t.Notes,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
