package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/receipt"
)

// --- Request DTOs ---

// CreateGoodsReceiptRequest represents a request to post a goods receipt.
type CreateGoodsReceiptRequest struct {
	Date              *time.Time                `json:"date,omitempty"`
	PurchaseOrderID   string                    `json:"purchaseOrderId" binding:"required"`
	WarehouseID       string                    `json:"warehouseId" binding:"required"`
	SupplierDocNumber string                    `json:"supplierDocNumber,omitempty"`
	Comment           string                    `json:"comment,omitempty"`
	Lines             []GoodsReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// GoodsReceiptLineRequest represents a line in a create request.
type GoodsReceiptLineRequest struct {
	ProductID  string         `json:"productId" binding:"required"`
	LocationID string         `json:"locationId,omitempty"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateGoodsReceiptRequest) ToEntity(actor string) (*receipt.GoodsReceipt, error) {
	orderID, err := id.Parse(r.PurchaseOrderID)
	if err != nil {
		return nil, apperror.NewValidation("invalid purchase order id").WithDetail("field", "purchaseOrderId")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId")
	}

	doc := receipt.New(actor, orderID, warehouseID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.SupplierDocNumber = r.SupplierDocNumber
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("field", "lines.productId").
				WithDetail("value", line.ProductID)
		}
		locationID, err := parseOptionalID(line.LocationID, "lines.locationId")
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, locationID, line.Quantity)
	}
	return doc, nil
}

func parseOptionalID(value, field string) (*id.ID, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := id.Parse(value)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return &parsed, nil
}

// --- Response DTOs ---

// GoodsReceiptResponse represents a goods receipt in API responses.
type GoodsReceiptResponse struct {
	ID                string                     `json:"id"`
	Number            string                     `json:"number"`
	Date              time.Time                  `json:"date"`
	PurchaseOrderID   string                     `json:"purchaseOrderId"`
	WarehouseID       string                     `json:"warehouseId"`
	SupplierDocNumber string                     `json:"supplierDocNumber,omitempty"`
	TotalQuantity     types.Quantity             `json:"totalQuantity"`
	Comment           string                     `json:"comment,omitempty"`
	Version           int                        `json:"version"`
	Lines             []GoodsReceiptLineResponse `json:"lines,omitempty"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
}

// GoodsReceiptLineResponse represents a line in API responses.
type GoodsReceiptLineResponse struct {
	LineID     string         `json:"lineId"`
	LineNo     int            `json:"lineNo"`
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId,omitempty"`
	Quantity   types.Quantity `json:"quantity"`
}

// FromGoodsReceipt converts domain entity to response DTO.
func FromGoodsReceipt(doc *receipt.GoodsReceipt) *GoodsReceiptResponse {
	resp := &GoodsReceiptResponse{
		ID:                doc.ID.String(),
		Number:            doc.Number,
		Date:              doc.Date,
		PurchaseOrderID:   doc.PurchaseOrderID.String(),
		WarehouseID:       doc.WarehouseID.String(),
		SupplierDocNumber: doc.SupplierDocNumber,
		TotalQuantity:     doc.TotalQuantity,
		Comment:           doc.Comment,
		Version:           doc.Version,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}

	resp.Lines = make([]GoodsReceiptLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		lr := GoodsReceiptLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		}
		if line.LocationID != nil {
			lr.LocationID = line.LocationID.String()
		}
		resp.Lines[i] = lr
	}
	return resp
}

// FromGoodsReceipts converts a slice of domain entities.
func FromGoodsReceipts(docs []*receipt.GoodsReceipt) []*GoodsReceiptResponse {
	out := make([]*GoodsReceiptResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromGoodsReceipt(doc)
	}
	return out
}
