package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/stocktake"
)

// --- Request DTOs ---

// CreateStockTakeRequest represents a request to create a stock take.
type CreateStockTakeRequest struct {
	Date        *time.Time `json:"date,omitempty"`
	WarehouseID string     `json:"warehouseId" binding:"required"`
	Comment     string     `json:"comment,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateStockTakeRequest) ToEntity(actor string) (*stocktake.StockTake, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId")
	}

	doc := stocktake.New(actor, warehouseID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment
	return doc, nil
}

// UpdateCountsRequest carries submitted physical counts.
type UpdateCountsRequest struct {
	Counts []CountUpdateRequest `json:"counts" binding:"required,min=1,dive"`
}

// CountUpdateRequest is one submitted count.
type CountUpdateRequest struct {
	LocationID string         `json:"locationId" binding:"required"`
	ProductID  string         `json:"productId" binding:"required"`
	CountedQty types.Quantity `json:"countedQty"`
	Note       string         `json:"note,omitempty"`
}

// ToUpdates converts the request lines to domain count updates.
func (r *UpdateCountsRequest) ToUpdates() ([]stocktake.CountUpdate, error) {
	updates := make([]stocktake.CountUpdate, len(r.Counts))
	for i, c := range r.Counts {
		locID, err := id.Parse(c.LocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid location id").
				WithDetail("field", "counts.locationId").
				WithDetail("value", c.LocationID)
		}
		prodID, err := id.Parse(c.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("field", "counts.productId").
				WithDetail("value", c.ProductID)
		}
		updates[i] = stocktake.CountUpdate{
			LocationID: locID,
			ProductID:  prodID,
			CountedQty: c.CountedQty,
			Note:       c.Note,
		}
	}
	return updates, nil
}

// --- Response DTOs ---

// StockTakeResponse represents a stock take in API responses.
type StockTakeResponse struct {
	ID          string              `json:"id"`
	Number      string              `json:"number"`
	Date        time.Time           `json:"date"`
	Status      string              `json:"status"`
	WarehouseID string              `json:"warehouseId"`
	StartedBy   string              `json:"startedBy,omitempty"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	CompletedBy string              `json:"completedBy,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	Comment     string              `json:"comment,omitempty"`
	Version     int                 `json:"version"`
	Items       []StockTakeItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// StockTakeItemResponse represents one counted position.
type StockTakeItemResponse struct {
	ItemID     string         `json:"itemId"`
	LocationID string         `json:"locationId"`
	ProductID  string         `json:"productId"`
	SystemQty  types.Quantity `json:"systemQty"`
	CountedQty types.Quantity `json:"countedQty"`
	Difference types.Quantity `json:"difference"`
	Note       string         `json:"note,omitempty"`
}

// FromStockTake converts domain entity to response DTO.
func FromStockTake(doc *stocktake.StockTake) *StockTakeResponse {
	resp := &StockTakeResponse{
		ID:          doc.ID.String(),
		Number:      doc.Number,
		Date:        doc.Date,
		Status:      string(doc.Status),
		WarehouseID: doc.WarehouseID.String(),
		StartedBy:   doc.StartedBy,
		StartedAt:   doc.StartedAt,
		CompletedBy: doc.CompletedBy,
		CompletedAt: doc.CompletedAt,
		Comment:     doc.Comment,
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	resp.Items = make([]StockTakeItemResponse, len(doc.Items))
	for i, item := range doc.Items {
		resp.Items[i] = StockTakeItemResponse{
			ItemID:     item.ItemID.String(),
			LocationID: item.LocationID.String(),
			ProductID:  item.ProductID.String(),
			SystemQty:  item.SystemQty,
			CountedQty: item.CountedQty,
			Difference: item.Difference(),
			Note:       item.Note,
		}
	}
	return resp
}

// FromStockTakes converts a slice of domain entities.
func FromStockTakes(docs []*stocktake.StockTake) []*StockTakeResponse {
	out := make([]*StockTakeResponse, len(docs))
	for i, doc := range docs {
		out[i] = FromStockTake(doc)
	}
	return out
}
