// Package sales provides the SalesOrder document: an outbound order that
// is later fulfilled through goods issues.
package sales

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the sales order lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// SalesOrder is an outbound customer order. Stock is only touched by the
// goods issues created against it.
type SalesOrder struct {
	entity.Document

	CustomerID  id.ID  `db:"customer_id" json:"customerId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status      Status `db:"status" json:"status"`

	ApprovedBy string `db:"approved_by" json:"approvedBy,omitempty"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered product on a sales order.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	OrderedQty types.Quantity `db:"ordered_qty" json:"orderedQty"`

	// IssuedQty rolls up quantities from completed goods issues.
	IssuedQty types.Quantity `db:"issued_qty" json:"issuedQty"`

	Price types.Money `db:"price" json:"price"`
}

// Amount returns the line total (price * ordered quantity).
func (l Line) Amount() types.Money {
	return l.Price.Mul(types.NewMoney(l.OrderedQty.Float64()))
}

// New creates a draft sales order.
func New(actor string, customerID, warehouseID id.ID) *SalesOrder {
	return &SalesOrder{
		Document:    entity.NewDocument(actor),
		CustomerID:  customerID,
		WarehouseID: warehouseID,
		Status:      StatusDraft,
		TotalAmount: types.ZeroMoney(),
		Lines:       make([]Line, 0),
	}
}

// AddLine appends an ordered product and recalculates the total.
func (so *SalesOrder) AddLine(productID id.ID, qty types.Quantity, price types.Money) {
	so.Lines = append(so.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(so.Lines) + 1,
		ProductID:  productID,
		OrderedQty: qty,
		Price:      price,
	})
	so.recalculateTotal()
}

func (so *SalesOrder) recalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range so.Lines {
		total = total.Add(line.Amount())
	}
	so.TotalAmount = total
}

// LineByProduct returns the line for a product, or nil.
func (so *SalesOrder) LineByProduct(productID id.ID) *Line {
	for i := range so.Lines {
		if so.Lines[i].ProductID == productID {
			return &so.Lines[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (so *SalesOrder) Validate(ctx context.Context) error {
	if err := so.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(so.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if id.IsNil(so.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(so.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	seen := make(map[id.ID]struct{}, len(so.Lines))
	for i, line := range so.Lines {
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
