package application

import (
	"context"

	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/pkg/logging"
)

// AdjustmentService applies manual stock corrections
type AdjustmentService struct {
	repo   domain.StockAdjustmentRepository
	ledger *stockLedger
	tx     *TxRunner
	logger *logging.Logger
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(
	repo domain.StockAdjustmentRepository,
	store domain.InventoryStore,
	movements domain.StockMovementRepository,
	tx *TxRunner,
	logger *logging.Logger,
) *AdjustmentService {
	return &AdjustmentService{
		repo:   repo,
		ledger: newStockLedger(store, movements),
		tx:     tx,
		logger: logger.WithComponent("adjustment-service"),
	}
}

func (s *AdjustmentService) load(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.NotFoundError("stock_adjustment", id)
	}
	return a, nil
}

// CreateAdjustment changes on hand stock by the signed quantity and records
// the quantities around the change. A decrease that would drop on hand below
// the reserved quantity fails with ErrInvalidQuantity.
func (s *AdjustmentService) CreateAdjustment(ctx context.Context, cmd CreateAdjustmentCommand) (*AdjustmentDTO, error) {
	var a *domain.StockAdjustment
	err := s.tx.Run(ctx, "adjustment.create", func(ctx context.Context) error {
		var err error
		a, err = domain.NewStockAdjustment(cmd.ProductID, cmd.WarehouseID, domain.AdjustmentType(cmd.AdjustmentType), cmd.Quantity, cmd.Reason, cmd.AdjustedBy)
		if err != nil {
			return err
		}
		a.Notes = cmd.Notes

		rec, err := s.ledger.move(ctx, movementEntry{
			productID:    a.ProductID,
			warehouseID:  a.WarehouseID,
			movementType: domain.MovementTypeAdjustment,
			quantity:     a.OnHandDelta(),
			unitCost:     domain.ZeroMoney(domain.DefaultCurrency),
			actor:        a.AdjustedBy,
			ref:          domain.Reference{Type: "stock_adjustment", ID: a.AdjustmentID},
			notes:        a.Reason,
		})
		if err != nil {
			return err
		}
		a.RecordOutcome(rec.QuantityOnHand-a.OnHandDelta(), rec.QuantityOnHand)
		return s.repo.Save(ctx, a)
	})
	if err != nil {
		logFailure(s.logger, "Failed to create adjustment", err,
			"productId", cmd.ProductID, "warehouseId", cmd.WarehouseID, "type", cmd.AdjustmentType)
		return nil, err
	}

	s.logger.Audit(ctx, "adjusted", "inventory", a.InventoryID, a.AdjustedBy, map[string]any{
		"adjustmentId": a.AdjustmentID,
		"type":         a.AdjustmentType,
		"quantity":     a.QuantityAdjusted,
		"before":       a.QuantityBefore,
		"after":        a.QuantityAfter,
		"reason":       a.Reason,
	})
	return ToAdjustmentDTO(a), nil
}

// GetAdjustment retrieves an adjustment by id, including soft deleted ones
func (s *AdjustmentService) GetAdjustment(ctx context.Context, id string) (*AdjustmentDTO, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAdjustmentDTO(a), nil
}

// ListByInventory lists the adjustments that were not deleted for a product in a warehouse
func (s *AdjustmentService) ListByInventory(ctx context.Context, productID, warehouseID string) ([]*AdjustmentDTO, error) {
	adjustments, err := s.repo.FindByInventory(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	live := adjustments[:0]
	for _, a := range adjustments {
		if !a.IsDeleted() {
			live = append(live, a)
		}
	}
	return mapSlice(live, ToAdjustmentDTO), nil
}

// UpdateNotes changes the notes of an adjustment
func (s *AdjustmentService) UpdateNotes(ctx context.Context, id, notes string) (*AdjustmentDTO, error) {
	var a *domain.StockAdjustment
	err := s.tx.Run(ctx, "adjustment.update_notes", func(ctx context.Context) error {
		var err error
		if a, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := a.UpdateNotes(notes); err != nil {
			return err
		}
		return s.repo.Save(ctx, a)
	})
	if err != nil {
		logFailure(s.logger, "Failed to update adjustment notes", err, "adjustmentId", id)
		return nil, err
	}
	return ToAdjustmentDTO(a), nil
}

// DeleteAdjustment soft deletes an adjustment. The stock change stays.
func (s *AdjustmentService) DeleteAdjustment(ctx context.Context, id, actor string) error {
	err := s.tx.Run(ctx, "adjustment.delete", func(ctx context.Context) error {
		a, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Delete(actor); err != nil {
			return err
		}
		return s.repo.Save(ctx, a)
	})
	if err != nil {
		logFailure(s.logger, "Failed to delete adjustment", err, "adjustmentId", id)
		return err
	}

	s.logger.Audit(ctx, "deleted", "stock_adjustment", id, actor, nil)
	return nil
}
