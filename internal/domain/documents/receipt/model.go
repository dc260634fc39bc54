// Package receipt provides the GoodsReceipt document: goods physically
// arriving against an approved purchase order. Creating a receipt is the
// event that increases on-hand stock.
package receipt

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// GoodsReceipt records goods received into a warehouse against a
// purchase order. A receipt has no lifecycle of its own: it exists
// posted, or it is cancelled and removed with its ledger effect reversed.
type GoodsReceipt struct {
	entity.Document

	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`
	WarehouseID     id.ID `db:"warehouse_id" json:"warehouseId"`

	// Supplier's accompanying document reference
	SupplierDocNumber string `db:"supplier_doc_number" json:"supplierDocNumber,omitempty"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one received product. LocationID may be left nil to receive
// into the warehouse's default receiving location.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID  id.ID  `db:"product_id" json:"productId"`
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a goods receipt for an approved purchase order.
func New(actor string, purchaseOrderID, warehouseID id.ID) *GoodsReceipt {
	return &GoodsReceipt{
		Document:        entity.NewDocument(actor),
		PurchaseOrderID: purchaseOrderID,
		WarehouseID:     warehouseID,
		Lines:           make([]Line, 0),
	}
}

// AddLine appends a received product and recalculates the total.
func (gr *GoodsReceipt) AddLine(productID id.ID, locationID *id.ID, qty types.Quantity) {
	gr.Lines = append(gr.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(gr.Lines) + 1,
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
	})
	gr.TotalQuantity += qty
}

// Validate implements entity.Validatable.
func (gr *GoodsReceipt) Validate(ctx context.Context) error {
	if err := gr.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(gr.PurchaseOrderID) {
		return apperror.NewValidation("purchase order is required").
			WithDetail("field", "purchaseOrderId")
	}
	if id.IsNil(gr.WarehouseID) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "receipt must name a warehouse").
			WithDetail("field", "warehouseId")
	}
	if len(gr.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range gr.Lines {
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
