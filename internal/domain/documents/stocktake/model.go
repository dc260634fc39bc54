// Package stocktake provides the StockTake document: a physical count of
// a warehouse reconciled against the ledger, posting the differences.
package stocktake

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the stock take lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// StockTake is a counting session for one warehouse. Starting it
// snapshots the ledger into items; completing it posts every non-zero
// difference back as a signed adjustment.
type StockTake struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status      Status `db:"status" json:"status"`

	StartedBy   string     `db:"started_by" json:"startedBy,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedBy string     `db:"completed_by" json:"completedBy,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	// Table part, filled when the count starts
	Items []Item `db:"-" json:"items"`
}

// Item is one counted position. SystemQty is the on-hand snapshot taken
// at start; CountedQty is what was physically found.
type Item struct {
	ItemID id.ID `db:"item_id" json:"itemId"`

	LocationID id.ID `db:"location_id" json:"locationId"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	SystemQty  types.Quantity `db:"system_qty" json:"systemQty"`
	CountedQty types.Quantity `db:"counted_qty" json:"countedQty"`

	Note string `db:"note" json:"note,omitempty"`
}

// Difference returns counted minus system quantity.
func (i Item) Difference() types.Quantity {
	return i.CountedQty - i.SystemQty
}

// New creates a draft stock take for a warehouse.
func New(actor string, warehouseID id.ID) *StockTake {
	return &StockTake{
		Document:    entity.NewDocument(actor),
		WarehouseID: warehouseID,
		Status:      StatusDraft,
	}
}

// Validate implements entity.Validatable.
func (st *StockTake) Validate(ctx context.Context) error {
	if err := st.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(st.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	return nil
}
