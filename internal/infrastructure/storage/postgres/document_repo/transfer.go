package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
	"stockyard/internal/domain/documents/transfer"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	transferOrdersTable     = "doc_transfer_orders"
	transferOrderLinesTable = "doc_transfer_order_lines"
)

var transferLineCols = []string{
	"line_id", "line_no", "product_id", "from_location_id", "to_location_id", "quantity",
}

// TransferOrderRepo implements transfer.Repository.
type TransferOrderRepo struct {
	*BaseDocumentRepo[*transfer.TransferOrder]
}

// NewTransferOrderRepo creates a new transfer order repository.
func NewTransferOrderRepo(txManager *postgres.TxManager) *TransferOrderRepo {
	return &TransferOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			transferOrdersTable,
			postgres.ExtractDBColumns[transfer.TransferOrder](),
			func() *transfer.TransferOrder { return &transfer.TransferOrder{} },
		),
	}
}

// GetForUpdate retrieves the transfer with a row lock, lines included.
func (r *TransferOrderRepo) GetForUpdate(ctx context.Context, docID id.ID) (*transfer.TransferOrder, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := r.GetLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves transfer orders. A warehouse filter matches either side
// of the transfer.
func (r *TransferOrderRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*transfer.TransferOrder], error) {
	warehouseID := filter.WarehouseID
	filter.WarehouseID = nil

	q := r.applyFilter(r.baseSelect(), filter, "")
	if warehouseID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_warehouse_id": *warehouseID},
			squirrel.Eq{"to_warehouse_id": *warehouseID},
		})
	}

	return r.list(ctx, q, filter)
}

// GetLines retrieves lines for a transfer order.
func (r *TransferOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]transfer.Line, error) {
	q := r.Builder().
		Select(transferLineCols...).
		From(transferOrderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []transfer.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a transfer order (delete existing + insert new).
func (r *TransferOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []transfer.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + transferOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(transferOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "from_location_id", "to_location_id", "quantity")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.FromLocationID, line.ToLocationID, line.Quantity,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ transfer.Repository = (*TransferOrderRepo)(nil)
