package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/purchase"
)

// --- Request DTOs ---

// CreatePurchaseOrderRequest represents a request to create a purchase order.
type CreatePurchaseOrderRequest struct {
	Date        *time.Time                 `json:"date,omitempty"`
	SupplierID  string                     `json:"supplierId" binding:"required"`
	WarehouseID string                     `json:"warehouseId" binding:"required"`
	Comment     string                     `json:"comment,omitempty"`
	Lines       []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseOrderLineRequest represents a line in a create request.
type PurchaseOrderLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Price     types.Money    `json:"price"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseOrderRequest) ToEntity(actor string) (*purchase.PurchaseOrder, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").WithDetail("field", "supplierId")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId")
	}

	doc := purchase.New(actor, supplierID, warehouseID)
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
		doc.AddLine(productID, line.Quantity, line.Price)
	}
	return doc, nil
}

// --- Response DTOs ---

// PurchaseOrderResponse represents a purchase order in API responses.
type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	Number      string                      `json:"number"`
	Date        time.Time                   `json:"date"`
	Status      string                      `json:"status"`
	SupplierID  string                      `json:"supplierId"`
	WarehouseID string                      `json:"warehouseId"`
	ApprovedBy  string                      `json:"approvedBy,omitempty"`
	TotalAmount types.Money                 `json:"totalAmount"`
	Comment     string                      `json:"comment,omitempty"`
	Version     int                         `json:"version"`
	Lines       []PurchaseOrderLineResponse `json:"lines,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// PurchaseOrderLineResponse represents a line in API responses.
type PurchaseOrderLineResponse struct {
	LineID      string         `json:"lineId"`
	LineNo      int            `json:"lineNo"`
	ProductID   string         `json:"productId"`
	OrderedQty  types.Quantity `json:"orderedQty"`
	ReceivedQty types.Quantity `json:"receivedQty"`
	Price       types.Money    `json:"price"`
}

// FromPurchaseOrder converts domain entity to response DTO.
func FromPurchaseOrder(doc *purchase.PurchaseOrder) *PurchaseOrderResponse {
	resp := &PurchaseOrderResponse{
		ID:          doc.ID.String(),
		Number:      doc.Number,
		Date:        doc.Date,
		Status:      string(doc.Status),
		SupplierID:  doc.SupplierID.String(),
		WarehouseID: doc.WarehouseID.String(),
		ApprovedBy:  doc.ApprovedBy,
		TotalAmount: doc.TotalAmount,
		Comment:     doc.Comment,
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	resp.Lines = make([]PurchaseOrderLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = PurchaseOrderLineResponse{
			LineID:      line.LineID.String(),
			LineNo:      line.LineNo,
			ProductID:   line.ProductID.String(),
			OrderedQty:  line.OrderedQty,
			ReceivedQty: line.ReceivedQty,
			Price:       line.Price,
		}
	}
	return resp
}

// FromPurchaseOrders converts a slice of domain entities.
func FromPurchaseOrders(docs []*purchase.PurchaseOrder) []*PurchaseOrderResponse {
	out := make([]*PurchaseOrderResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromPurchaseOrder(doc)
	}
	return out
}
