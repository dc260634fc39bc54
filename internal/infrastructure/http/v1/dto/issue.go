package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/issue"
)

// --- Request DTOs ---

// CreateGoodsIssueRequest represents a request to create a goods issue.
type CreateGoodsIssueRequest struct {
	Date         *time.Time              `json:"date,omitempty"`
	SalesOrderID string                  `json:"salesOrderId" binding:"required"`
	WarehouseID  string                  `json:"warehouseId" binding:"required"`
	Comment      string                  `json:"comment,omitempty"`
	Lines        []GoodsIssueLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// GoodsIssueLineRequest represents a line in a create request.
type GoodsIssueLineRequest struct {
	ProductID  string         `json:"productId" binding:"required"`
	LocationID string         `json:"locationId,omitempty"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateGoodsIssueRequest) ToEntity(actor string) (*issue.GoodsIssue, error) {
	orderID, err := id.Parse(r.SalesOrderID)
	if err != nil {
		return nil, apperror.NewValidation("invalid sales order id").WithDetail("field", "salesOrderId")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId")
	}

	doc := issue.New(actor, orderID, warehouseID)
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
		locationID, err := parseOptionalID(line.LocationID, "lines.locationId")
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, locationID, line.Quantity)
	}
	return doc, nil
}

// --- Response DTOs ---

// GoodsIssueResponse represents a goods issue in API responses.
type GoodsIssueResponse struct {
	ID            string                   `json:"id"`
	Number        string                   `json:"number"`
	Date          time.Time                `json:"date"`
	Status        string                   `json:"status"`
	SalesOrderID  string                   `json:"salesOrderId"`
	WarehouseID   string                   `json:"warehouseId"`
	CompletedBy   string                   `json:"completedBy,omitempty"`
	CompletedAt   *time.Time               `json:"completedAt,omitempty"`
	TotalQuantity types.Quantity           `json:"totalQuantity"`
	Comment       string                   `json:"comment,omitempty"`
	Version       int                      `json:"version"`
	Lines         []GoodsIssueLineResponse `json:"lines,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// GoodsIssueLineResponse represents a line in API responses.
type GoodsIssueLineResponse struct {
	LineID     string         `json:"lineId"`
	LineNo     int            `json:"lineNo"`
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId,omitempty"`
	Quantity   types.Quantity `json:"quantity"`
}

// FromGoodsIssue converts domain entity to response DTO.
func FromGoodsIssue(doc *issue.GoodsIssue) *GoodsIssueResponse {
	resp := &GoodsIssueResponse{
		ID:            doc.ID.String(),
		Number:        doc.Number,
		Date:          doc.Date,
		Status:        string(doc.Status),
		SalesOrderID:  doc.SalesOrderID.String(),
		WarehouseID:   doc.WarehouseID.String(),
		CompletedBy:   doc.CompletedBy,
		CompletedAt:   doc.CompletedAt,
		TotalQuantity: doc.TotalQuantity,
		Comment:       doc.Comment,
		Version:       doc.Version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}

	resp.Lines = make([]GoodsIssueLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		lr := GoodsIssueLineResponse{
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

// FromGoodsIssues converts a slice of domain entities.
func FromGoodsIssues(docs []*issue.GoodsIssue) []*GoodsIssueResponse {
	out := make([]*GoodsIssueResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromGoodsIssue(doc)
	}
	return out
}
