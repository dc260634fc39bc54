// Package issue provides the GoodsIssue document: outbound fulfillment of
// an approved sales order. Creation reserves stock, completion consumes it.
package issue

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the goods issue lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPicking   Status = "picking"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// GoodsIssue records goods leaving a warehouse against a sales order.
// While pending or picking the line quantities are reserved (locked) at
// their source locations; completion consumes the reservation.
type GoodsIssue struct {
	entity.Document

	SalesOrderID id.ID  `db:"sales_order_id" json:"salesOrderId"`
	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status       Status `db:"status" json:"status"`

	CompletedBy string     `db:"completed_by" json:"completedBy,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one issued product. LocationID may be left nil to issue from
// the warehouse's default shipping location.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID  id.ID  `db:"product_id" json:"productId"`
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a pending goods issue for an approved sales order.
func New(actor string, salesOrderID, warehouseID id.ID) *GoodsIssue {
	return &GoodsIssue{
		Document:     entity.NewDocument(actor),
		SalesOrderID: salesOrderID,
		WarehouseID:  warehouseID,
		Status:       StatusPending,
		Lines:        make([]Line, 0),
	}
}

// AddLine appends an issued product and recalculates the total.
func (gi *GoodsIssue) AddLine(productID id.ID, locationID *id.ID, qty types.Quantity) {
	gi.Lines = append(gi.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(gi.Lines) + 1,
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
	})
	gi.TotalQuantity += qty
}

// CanComplete reports whether completion is a legal transition.
func (gi *GoodsIssue) CanComplete() bool {
	return gi.Status == StatusPending || gi.Status == StatusPicking
}

// CanCancel reports whether cancellation is a legal transition.
func (gi *GoodsIssue) CanCancel() bool {
	return gi.Status == StatusPending || gi.Status == StatusPicking
}

// Validate implements entity.Validatable.
func (gi *GoodsIssue) Validate(ctx context.Context) error {
	if err := gi.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(gi.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}
	if id.IsNil(gi.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(gi.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range gi.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
