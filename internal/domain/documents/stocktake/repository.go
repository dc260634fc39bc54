package stocktake

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// Repository defines persistence for stock takes.
type Repository interface {
	Create(ctx context.Context, doc *StockTake) error
	GetByID(ctx context.Context, docID id.ID) (*StockTake, error)
	Update(ctx context.Context, doc *StockTake) error

	// GetForUpdate retrieves the stock take with a row lock, items included.
	GetForUpdate(ctx context.Context, docID id.ID) (*StockTake, error)

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*StockTake], error)
}
