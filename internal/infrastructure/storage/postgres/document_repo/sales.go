package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/documents/sales"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable     = "doc_sales_orders"
	salesOrderLinesTable = "doc_sales_order_lines"
)

var salesLineCols = []string{
	"line_id", "line_no", "product_id", "ordered_qty", "issued_qty", "price",
}

// SalesOrderRepo implements sales.Repository.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*sales.SalesOrder]
}

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txManager *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesOrdersTable,
			postgres.ExtractDBColumns[sales.SalesOrder](),
			func() *sales.SalesOrder { return &sales.SalesOrder{} },
		),
	}
}

// GetForUpdate retrieves the order with a row lock, lines included.
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, docID id.ID) (*sales.SalesOrder, error) {
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

// GetLines retrieves lines for a sales order.
func (r *SalesOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]sales.Line, error) {
	q := r.Builder().
		Select(salesLineCols...).
		From(salesOrderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sales.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a sales order (delete existing + insert new).
func (r *SalesOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []sales.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + salesOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(salesOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "ordered_qty", "issued_qty", "price")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.OrderedQty, line.IssuedQty, line.Price,
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
var _ sales.Repository = (*SalesOrderRepo)(nil)
