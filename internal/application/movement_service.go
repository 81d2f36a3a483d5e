package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
)

const scopeApproveMovement = "movement.approve"

// MovementService manages the movement ledger. Workflow generated movements
// are written by the other services; this one handles manual entries that
// need approval before they touch inventory.
type MovementService struct {
	repo     domain.StockMovementRepository
	ledger   *stockLedger
	requests domain.ProcessedRequestStore
	tx       *TxRunner
	logger   *logging.Logger
}

// NewMovementService creates a new MovementService
func NewMovementService(
	repo domain.StockMovementRepository,
	store domain.InventoryStore,
	requests domain.ProcessedRequestStore,
	tx *TxRunner,
	logger *logging.Logger,
) *MovementService {
	return &MovementService{
		repo:     repo,
		ledger:   newStockLedger(store, repo),
		requests: requests,
		tx:       tx,
		logger:   logger.WithComponent("movement-service"),
	}
}

func (s *MovementService) load(ctx context.Context, id string) (*domain.StockMovement, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.NotFoundError("stock_movement", id)
	}
	return m, nil
}

// RecordMovement stores a pending movement. Inventory changes on approval.
func (s *MovementService) RecordMovement(ctx context.Context, cmd RecordMovementCommand) (*MovementDTO, error) {
	currency := cmd.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	unitCost, err := domain.NewMoney(cmd.UnitCost, currency)
	if err != nil {
		return nil, err
	}

	var m *domain.StockMovement
	err = s.tx.Run(ctx, "movement.record", func(ctx context.Context) error {
		var err error
		m, err = domain.NewStockMovement(cmd.ProductID, cmd.WarehouseID, domain.MovementType(cmd.MovementType), cmd.Quantity, unitCost, cmd.UserID)
		if err != nil {
			return err
		}
		m.Notes = cmd.Notes
		if cmd.ReferenceType != "" || cmd.ReferenceID != "" {
			m.Reference = &domain.Reference{Type: cmd.ReferenceType, ID: cmd.ReferenceID}
		}
		return s.repo.Save(ctx, m)
	})
	if err != nil {
		logFailure(s.logger, "Failed to record movement", err,
			"productId", cmd.ProductID, "warehouseId", cmd.WarehouseID, "type", cmd.MovementType)
		return nil, err
	}

	s.logger.Info("Recorded movement",
		"movementId", m.MovementID,
		"type", m.MovementType,
		"quantity", m.QuantityMoved,
	)
	return ToMovementDTO(m), nil
}

// GetMovement retrieves a movement by id
func (s *MovementService) GetMovement(ctx context.Context, id string) (*MovementDTO, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToMovementDTO(m), nil
}

// ListByInventory lists the ledger of a product in a warehouse in booking order
func (s *MovementService) ListByInventory(ctx context.Context, productID, warehouseID string) ([]*MovementDTO, error) {
	movements, err := s.repo.FindByInventory(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return mapSlice(movements, ToMovementDTO), nil
}

// ListByReference lists the movements produced by one document
func (s *MovementService) ListByReference(ctx context.Context, refType, refID string) ([]*MovementDTO, error) {
	movements, err := s.repo.FindByReference(ctx, refType, refID)
	if err != nil {
		return nil, err
	}
	return mapSlice(movements, ToMovementDTO), nil
}

// ApproveMovement applies the movement's inventory change exactly once,
// keyed by the movement id
func (s *MovementService) ApproveMovement(ctx context.Context, id, approver string) (*MovementDTO, error) {
	var m *domain.StockMovement
	err := s.tx.Run(ctx, "movement.approve", func(ctx context.Context) error {
		var err error
		if m, err = s.load(ctx, id); err != nil {
			return err
		}
		_, done, err := s.requests.IsProcessed(ctx, scopeApproveMovement, m.MovementID)
		if err != nil {
			return err
		}
		if done {
			return &domain.ViolationError{Kind: domain.ErrInvalidTransition, Entity: "stock_movement", EntityID: m.MovementID, From: string(m.Status), To: string(domain.MovementStatusApproved)}
		}

		if err := m.Approve(approver); err != nil {
			return err
		}
		if _, err := s.ledger.apply(ctx, m.ProductID, m.WarehouseID, m.OnHandDelta(), 0); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, m); err != nil {
			return err
		}
		return s.requests.MarkProcessed(ctx, scopeApproveMovement, m.MovementID, m.MovementID)
	})
	if err != nil {
		logFailure(s.logger, "Failed to approve movement", err, "movementId", id)
		return nil, err
	}

	s.logger.Audit(ctx, "approved", "stock_movement", m.MovementID, approver, map[string]any{
		"type":     m.MovementType,
		"quantity": m.QuantityMoved,
	})
	return ToMovementDTO(m), nil
}

// RejectMovement closes a pending movement without touching inventory
func (s *MovementService) RejectMovement(ctx context.Context, id, actor, reason string) (*MovementDTO, error) {
	var m *domain.StockMovement
	err := s.tx.Run(ctx, "movement.reject", func(ctx context.Context) error {
		var err error
		if m, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := m.Reject(actor, reason); err != nil {
			return err
		}
		return s.repo.Save(ctx, m)
	})
	if err != nil {
		logFailure(s.logger, "Failed to reject movement", err, "movementId", id)
		return nil, err
	}

	s.logger.Audit(ctx, "rejected", "stock_movement", m.MovementID, actor, map[string]any{"reason": reason})
	return ToMovementDTO(m), nil
}
