package receipt

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
)

// Repository defines persistence for goods receipts.
type Repository interface {
	Create(ctx context.Context, doc *GoodsReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*GoodsReceipt, error)

	// Delete removes the receipt and its lines. Only cancellation uses
	// this, after the ledger effect has been reversed.
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// SumReceivedByOrder returns the cumulative received quantity per
	// product over all receipts of a purchase order.
	SumReceivedByOrder(ctx context.Context, purchaseOrderID id.ID) (map[id.ID]types.Quantity, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*GoodsReceipt], error)
}
