package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/transfer"
)

// --- Request DTOs ---

// CreateTransferOrderRequest represents a request to create a transfer order.
type CreateTransferOrderRequest struct {
	Date            *time.Time                 `json:"date,omitempty"`
	FromWarehouseID string                     `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string                     `json:"toWarehouseId" binding:"required"`
	Comment         string                     `json:"comment,omitempty"`
	Lines           []TransferOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// TransferOrderLineRequest represents a line in a create request.
type TransferOrderLineRequest struct {
	ProductID      string         `json:"productId" binding:"required"`
	FromLocationID string         `json:"fromLocationId" binding:"required"`
	ToLocationID   string         `json:"toLocationId" binding:"required"`
	Quantity       types.Quantity `json:"quantity" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateTransferOrderRequest) ToEntity(actor string) (*transfer.TransferOrder, error) {
	fromID, err := id.Parse(r.FromWarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid source warehouse id").WithDetail("field", "fromWarehouseId")
	}
	toID, err := id.Parse(r.ToWarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid destination warehouse id").WithDetail("field", "toWarehouseId")
	}

	doc := transfer.New(actor, fromID, toID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("field", "lines.productId").
				WithDetail("value", line.ProductID)
		}
		fromLocID, err := id.Parse(line.FromLocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid source location id").
				WithDetail("field", "lines.fromLocationId")
		}
		toLocID, err := id.Parse(line.ToLocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid destination location id").
				WithDetail("field", "lines.toLocationId")
		}
		doc.AddLine(productID, fromLocID, toLocID, line.Quantity)
	}
	return doc, nil
}

// --- Response DTOs ---

// TransferOrderResponse represents a transfer order in API responses.
type TransferOrderResponse struct {
	ID              string                      `json:"id"`
	Number          string                      `json:"number"`
	Date            time.Time                   `json:"date"`
	Status          string                      `json:"status"`
	FromWarehouseID string                      `json:"fromWarehouseId"`
	ToWarehouseID   string                      `json:"toWarehouseId"`
	ApprovedBy      string                      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time                  `json:"approvedAt,omitempty"`
	TotalQuantity   types.Quantity              `json:"totalQuantity"`
	Comment         string                      `json:"comment,omitempty"`
	Version         int                         `json:"version"`
	Lines           []TransferOrderLineResponse `json:"lines,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// TransferOrderLineResponse represents a line in API responses.
type TransferOrderLineResponse struct {
	LineID         string         `json:"lineId"`
	LineNo         int            `json:"lineNo"`
	ProductID      string         `json:"productId"`
	FromLocationID string         `json:"fromLocationId"`
	ToLocationID   string         `json:"toLocationId"`
	Quantity       types.Quantity `json:"quantity"`
}

// FromTransferOrder converts domain entity to response DTO.
func FromTransferOrder(doc *transfer.TransferOrder) *TransferOrderResponse {
	resp := &TransferOrderResponse{
		ID:              doc.ID.String(),
		Number:          doc.Number,
		Date:            doc.Date,
		Status:          string(doc.Status),
		FromWarehouseID: doc.FromWarehouseID.String(),
		ToWarehouseID:   doc.ToWarehouseID.String(),
		ApprovedBy:      doc.ApprovedBy,
		ApprovedAt:      doc.ApprovedAt,
		TotalQuantity:   doc.TotalQuantity,
		Comment:         doc.Comment,
		Version:         doc.Version,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}

	resp.Lines = make([]TransferOrderLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = TransferOrderLineResponse{
			LineID:         line.LineID.String(),
			LineNo:         line.LineNo,
			ProductID:      line.ProductID.String(),
			FromLocationID: line.FromLocationID.String(),
			ToLocationID:   line.ToLocationID.String(),
			Quantity:       line.Quantity,
		}
	}
	return resp
}

// FromTransferOrders converts a slice of domain entities.
func FromTransferOrders(docs []*transfer.TransferOrder) []*TransferOrderResponse {
	out := make([]*TransferOrderResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromTransferOrder(doc)
	}
	return out
}
