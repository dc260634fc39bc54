package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/sales"
)

// --- Request DTOs ---

// CreateSalesOrderRequest represents a request to create a sales order.
type CreateSalesOrderRequest struct {
	Date        *time.Time              `json:"date,omitempty"`
	CustomerID  string                  `json:"customerId" binding:"required"`
	WarehouseID string                  `json:"warehouseId" binding:"required"`
	Comment     string                  `json:"comment,omitempty"`
	Lines       []SalesOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SalesOrderLineRequest represents a line in a create request.
type SalesOrderLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Price     types.Money    `json:"price"`
}

// ToEntity converts request to domain entity.
func (r *CreateSalesOrderRequest) ToEntity(actor string) (*sales.SalesOrder, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid customer id").WithDetail("field", "customerId")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId")
	}

	doc := sales.New(actor, customerID, warehouseID)
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

// SalesOrderResponse represents a sales order in API responses.
type SalesOrderResponse struct {
	ID          string                   `json:"id"`
	Number      string                   `json:"number"`
	Date        time.Time                `json:"date"`
	Status      string                   `json:"status"`
	CustomerID  string                   `json:"customerId"`
	WarehouseID string                   `json:"warehouseId"`
	ApprovedBy  string                   `json:"approvedBy,omitempty"`
	TotalAmount types.Money              `json:"totalAmount"`
	Comment     string                   `json:"comment,omitempty"`
	Version     int                      `json:"version"`
	Lines       []SalesOrderLineResponse `json:"lines,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// SalesOrderLineResponse represents a line in API responses.
type SalesOrderLineResponse struct {
	LineID     string         `json:"lineId"`
	LineNo     int            `json:"lineNo"`
	ProductID  string         `json:"productId"`
	OrderedQty types.Quantity `json:"orderedQty"`
	IssuedQty  types.Quantity `json:"issuedQty"`
	Price      types.Money    `json:"price"`
}

// FromSalesOrder converts domain entity to response DTO.
func FromSalesOrder(doc *sales.SalesOrder) *SalesOrderResponse {
	resp := &SalesOrderResponse{
		ID:          doc.ID.String(),
		Number:      doc.Number,
		Date:        doc.Date,
		Status:      string(doc.Status),
		CustomerID:  doc.CustomerID.String(),
		WarehouseID: doc.WarehouseID.String(),
		ApprovedBy:  doc.ApprovedBy,
		TotalAmount: doc.TotalAmount,
		Comment:     doc.Comment,
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	resp.Lines = make([]SalesOrderLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = SalesOrderLineResponse{
			LineID:     line.LineID.String(),
			LineNo:     line.LineNo,
			ProductID:  line.ProductID.String(),
			OrderedQty: line.OrderedQty,
			IssuedQty:  line.IssuedQty,
			Price:      line.Price,
		}
	}
	return resp
}

// FromSalesOrders converts a slice of domain entities.
func FromSalesOrders(docs []*sales.SalesOrder) []*SalesOrderResponse {
	out := make([]*SalesOrderResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromSalesOrder(doc)
	}
	return out
}
