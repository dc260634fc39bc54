// Package purchase provides the PurchaseOrder document: an inbound order
// placed with a supplier, later received via goods receipts.
package purchase

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PurchaseOrder is an order placed with a supplier. Receiving happens
// through goods receipts that roll up into the lines' received quantity.
type PurchaseOrder struct {
	entity.Document

	SupplierID  id.ID  `db:"supplier_id" json:"supplierId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status      Status `db:"status" json:"status"`

	ApprovedBy string `db:"approved_by" json:"approvedBy,omitempty"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered product on a purchase order.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	OrderedQty types.Quantity `db:"ordered_qty" json:"orderedQty"`

	// ReceivedQty rolls up quantities from posted goods receipts and
	// never exceeds OrderedQty.
	ReceivedQty types.Quantity `db:"received_qty" json:"receivedQty"`

	Price types.Money `db:"price" json:"price"`
}

// Amount returns the line total (price * ordered quantity).
func (l Line) Amount() types.Money {
	return l.Price.Mul(types.NewMoney(l.OrderedQty.Float64()))
}

// New creates a pending purchase order.
func New(actor string, supplierID, warehouseID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:    entity.NewDocument(actor),
		SupplierID:  supplierID,
		WarehouseID: warehouseID,
		Status:      StatusPending,
		TotalAmount: types.ZeroMoney(),
		Lines:       make([]Line, 0),
	}
}

// AddLine appends an ordered product and recalculates the total.
func (po *PurchaseOrder) AddLine(productID id.ID, qty types.Quantity, price types.Money) {
	po.Lines = append(po.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(po.Lines) + 1,
		ProductID:  productID,
		OrderedQty: qty,
		Price:      price,
	})
	po.recalculateTotal()
}

func (po *PurchaseOrder) recalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range po.Lines {
		total = total.Add(line.Amount())
	}
	po.TotalAmount = total
}

// LineByProduct returns the line for a product, or nil.
func (po *PurchaseOrder) LineByProduct(productID id.ID) *Line {
	for i := range po.Lines {
		if po.Lines[i].ProductID == productID {
			return &po.Lines[i]
		}
	}
	return nil
}

// RemainingQty returns the quantity still to receive for a product.
func (po *PurchaseOrder) RemainingQty(productID id.ID) types.Quantity {
	line := po.LineByProduct(productID)
	if line == nil {
		return 0
	}
	return line.OrderedQty - line.ReceivedQty
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if err := po.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if id.IsNil(po.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(po.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	seen := make(map[id.ID]struct{}, len(po.Lines))
	for i, line := range po.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.OrderedQty <= 0 {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Price.IsNegative() {
			return apperror.NewValidation("price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if _, dup := seen[line.ProductID]; dup {
			return apperror.NewValidation("duplicate product on order").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}
