package issue

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// Repository defines persistence for goods issues.
type Repository interface {
	Create(ctx context.Context, doc *GoodsIssue) error
	GetByID(ctx context.Context, docID id.ID) (*GoodsIssue, error)
	Update(ctx context.Context, doc *GoodsIssue) error

	// GetForUpdate retrieves the issue with a row lock, lines included.
	GetForUpdate(ctx context.Context, docID id.ID) (*GoodsIssue, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*GoodsIssue], error)
}
