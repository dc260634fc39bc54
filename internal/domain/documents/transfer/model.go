// Package transfer provides the TransferOrder document: movement of
// stock between locations, within or across warehouses. Draft reserves
// stock at the source, approval physically moves it.
package transfer

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the transfer order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// TransferOrder moves stock from source locations to destination
// locations. An approved transfer cannot be cancelled: the stock has
// already physically moved.
type TransferOrder struct {
	entity.Document

	FromWarehouseID id.ID  `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID  `db:"to_warehouse_id" json:"toWarehouseId"`
	Status          Status `db:"status" json:"status"`

	ApprovedBy string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one transferred product with explicit source and destination.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID      id.ID `db:"product_id" json:"productId"`
	FromLocationID id.ID `db:"from_location_id" json:"fromLocationId"`
	ToLocationID   id.ID `db:"to_location_id" json:"toLocationId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a draft transfer order.
func New(actor string, fromWarehouseID, toWarehouseID id.ID) *TransferOrder {
	return &TransferOrder{
		Document:        entity.NewDocument(actor),
		FromWarehouseID: fromWarehouseID,
		ToWarehouseID:   toWarehouseID,
		Status:          StatusDraft,
		Lines:           make([]Line, 0),
	}
}

// AddLine appends a transferred product and recalculates the total.
func (to *TransferOrder) AddLine(productID, fromLocationID, toLocationID id.ID, qty types.Quantity) {
	to.Lines = append(to.Lines, Line{
		LineID:         id.New(),
		LineNo:         len(to.Lines) + 1,
		ProductID:      productID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		Quantity:       qty,
	})
	to.TotalQuantity += qty
}

// Validate implements entity.Validatable.
func (t *TransferOrder) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.FromWarehouseID) {
		return apperror.NewValidation("source warehouse is required").
			WithDetail("field", "fromWarehouseId")
	}
	if id.IsNil(t.ToWarehouseID) {
		return apperror.NewValidation("destination warehouse is required").
			WithDetail("field", "toWarehouseId")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range t.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if id.IsNil(line.FromLocationID) || id.IsNil(line.ToLocationID) {
			return apperror.NewValidation("source and destination locations are required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if t.FromWarehouseID == t.ToWarehouseID && line.FromLocationID == line.ToLocationID {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "source and destination locations are identical").
				WithDetail("lineNo", i+1).
				WithDetail("locationId", line.FromLocationID.String())
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
