package transfer

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// Repository defines persistence for transfer orders.
type Repository interface {
	Create(ctx context.Context, doc *TransferOrder) error
	GetByID(ctx context.Context, docID id.ID) (*TransferOrder, error)
	Update(ctx context.Context, doc *TransferOrder) error

	// GetForUpdate retrieves the transfer with a row lock, lines included.
	GetForUpdate(ctx context.Context, docID id.ID) (*TransferOrder, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*TransferOrder], error)
}
