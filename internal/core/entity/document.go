// Package entity provides core domain entities.
package entity

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
)

// Document is the base type for business documents.
// Examples: PurchaseOrder, GoodsReceipt, TransferOrder, StockTake.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID and the given actor
// stamped as creator.
func NewDocument(createdBy string) Document {
	doc := Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
	doc.CreatedBy = createdBy
	doc.UpdatedBy = createdBy
	return doc
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
