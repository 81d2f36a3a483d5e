package application

import "github.com/wms-platform/stock-service/internal/domain"

// ToMoneyDTO converts a domain Money value
func ToMoneyDTO(m domain.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount(), Currency: m.Currency()}
}

// ToInventoryDTO converts a domain InventoryRecord to InventoryDTO
func ToInventoryDTO(r *domain.InventoryRecord) *InventoryDTO {
	if r == nil {
		return nil
	}
	return &InventoryDTO{
		ID:                r.ID,
		ProductID:         r.ProductID,
		WarehouseID:       r.WarehouseID,
		QuantityOnHand:    r.QuantityOnHand,
		QuantityReserved:  r.QuantityReserved,
		QuantityAvailable: r.QuantityAvailable,
		ReorderPoint:      r.ReorderPoint,
		Version:           r.Version,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToPurchaseOrderDTO converts a domain PurchaseOrder to PurchaseOrderDTO
func ToPurchaseOrderDTO(po *domain.PurchaseOrder) *PurchaseOrderDTO {
	if po == nil {
		return nil
	}

	items := make([]PurchaseOrderItemDTO, 0, len(po.Items))
	for _, item := range po.Items {
		items = append(items, PurchaseOrderItemDTO{
			ItemID:           item.ItemID,
			ProductID:        item.ProductID,
			QuantityOrdered:  item.QuantityOrdered,
			QuantityReceived: item.QuantityReceived,
			UnitCost:         ToMoneyDTO(item.UnitCost),
		})
	}

	return &PurchaseOrderDTO{
		PurchaseOrderID:    po.PurchaseOrderID,
		PONumber:           po.PONumber,
		SupplierID:         po.SupplierID,
		WarehouseID:        po.WarehouseID,
		Status:             string(po.Status),
		Items:              items,
		TotalAmount:        ToMoneyDTO(po.TotalAmount),
		Notes:              po.Notes,
		CreatedBy:          po.CreatedBy,
		ApprovedBy:         po.ApprovedBy,
		ApprovedAt:         po.ApprovedAt,
		SentAt:             po.SentAt,
		ReceivedAt:         po.ReceivedAt,
		ClosedAt:           po.ClosedAt,
		CancelledAt:        po.CancelledAt,
		CancellationReason: po.CancellationReason,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
	}
}

// ToSalesOrderDTO converts a domain SalesOrder to SalesOrderDTO
func ToSalesOrderDTO(so *domain.SalesOrder) *SalesOrderDTO {
	if so == nil {
		return nil
	}

	items := make([]SalesOrderItemDTO, 0, len(so.Items))
	for _, item := range so.Items {
		items = append(items, SalesOrderItemDTO{
			ItemID:            item.ItemID,
			ProductID:         item.ProductID,
			QuantityOrdered:   item.QuantityOrdered,
			QuantityFulfilled: item.QuantityFulfilled,
			UnitPrice:         ToMoneyDTO(item.UnitPrice),
			Notes:             item.Notes,
		})
	}

	return &SalesOrderDTO{
		SalesOrderID:       so.SalesOrderID,
		SONumber:           so.SONumber,
		CustomerID:         so.CustomerID,
		WarehouseID:        so.WarehouseID,
		Status:             string(so.Status),
		Items:              items,
		TotalAmount:        ToMoneyDTO(so.TotalAmount),
		CreatedBy:          so.CreatedBy,
		ApprovedBy:         so.ApprovedBy,
		ApprovedAt:         so.ApprovedAt,
		ConfirmedAt:        so.ConfirmedAt,
		TrackingNumber:     so.TrackingNumber,
		Carrier:            so.Carrier,
		ShippedAt:          so.ShippedAt,
		DeliveredAt:        so.DeliveredAt,
		CancelledAt:        so.CancelledAt,
		CancellationReason: so.CancellationReason,
		CreatedAt:          so.CreatedAt,
		UpdatedAt:          so.UpdatedAt,
	}
}

// ToTransferDTO converts a domain StockTransfer to TransferDTO
func ToTransferDTO(t *domain.StockTransfer) *TransferDTO {
	if t == nil {
		return nil
	}
	return &TransferDTO{
		TransferID:          t.TransferID,
		ProductID:           t.ProductID,
		FromWarehouseID:     t.FromWarehouseID,
		ToWarehouseID:       t.ToWarehouseID,
		QuantityTransferred: t.QuantityTransferred,
		Status:              string(t.Status),
		Notes:               t.Notes,
		InitiatedBy:         t.InitiatedBy,
		InitiatedAt:         t.InitiatedAt,
		ApprovedBy:          t.ApprovedBy,
		ApprovedAt:          t.ApprovedAt,
		ShippedAt:           t.ShippedAt,
		CompletedBy:         t.CompletedBy,
		CompletedAt:         t.CompletedAt,
		CancelledAt:         t.CancelledAt,
		CancellationReason:  t.CancellationReason,
	}
}

// ToAdjustmentDTO converts a domain StockAdjustment to AdjustmentDTO
func ToAdjustmentDTO(a *domain.StockAdjustment) *AdjustmentDTO {
	if a == nil {
		return nil
	}
	return &AdjustmentDTO{
		AdjustmentID:     a.AdjustmentID,
		InventoryID:      a.InventoryID,
		ProductID:        a.ProductID,
		WarehouseID:      a.WarehouseID,
		AdjustmentType:   string(a.AdjustmentType),
		QuantityAdjusted: a.QuantityAdjusted,
		QuantityBefore:   a.QuantityBefore,
		QuantityAfter:    a.QuantityAfter,
		Reason:           a.Reason,
		Notes:            a.Notes,
		AdjustedBy:       a.AdjustedBy,
		AdjustedAt:       a.AdjustedAt,
		DeletedAt:        a.DeletedAt,
		DeletedBy:        a.DeletedBy,
	}
}

// ToMovementDTO converts a domain StockMovement to MovementDTO
func ToMovementDTO(m *domain.StockMovement) *MovementDTO {
	if m == nil {
		return nil
	}
	dto := &MovementDTO{
		MovementID:      m.MovementID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		MovementType:    string(m.MovementType),
		QuantityMoved:   m.QuantityMoved,
		UnitCost:        ToMoneyDTO(m.UnitCost),
		TotalValue:      ToMoneyDTO(m.TotalValue),
		Status:          string(m.Status),
		Notes:           m.Notes,
		UserID:          m.UserID,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		AppliedAt:       m.AppliedAt,
		CreatedAt:       m.CreatedAt,
	}
	if m.Reference != nil {
		dto.ReferenceType = m.Reference.Type
		dto.ReferenceID = m.Reference.ID
	}
	return dto
}

func mapSlice[T, D any](items []T, fn func(T) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
