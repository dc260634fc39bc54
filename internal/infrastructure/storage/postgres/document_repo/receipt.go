package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/documents/receipt"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	goodsReceiptsTable     = "doc_goods_receipts"
	goodsReceiptLinesTable = "doc_goods_receipt_lines"
)

var receiptLineCols = []string{
	"line_id", "line_no", "product_id", "location_id", "quantity",
}

// GoodsReceiptRepo implements receipt.Repository.
type GoodsReceiptRepo struct {
	*BaseDocumentRepo[*receipt.GoodsReceipt]
}

// NewGoodsReceiptRepo creates a new goods receipt repository.
func NewGoodsReceiptRepo(txManager *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			goodsReceiptsTable,
			postgres.ExtractDBColumns[receipt.GoodsReceipt](),
			func() *receipt.GoodsReceipt { return &receipt.GoodsReceipt{} },
		),
	}
}

// GetForUpdate retrieves the receipt with a row lock, lines included.
func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, docID id.ID) (*receipt.GoodsReceipt, error) {
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

// Delete removes the receipt and its lines. Cancellation is the only
// caller, after the ledger effect has been reversed in the same
// transaction.
func (r *GoodsReceiptRepo) Delete(ctx context.Context, docID id.ID) error {
	querier := r.Querier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+goodsReceiptLinesTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	result, err := querier.Exec(ctx, "DELETE FROM "+goodsReceiptsTable+" WHERE id = $1", docID)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(goodsReceiptsTable, docID.String())
	}

	return nil
}

// GetLines retrieves lines for a goods receipt.
func (r *GoodsReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]receipt.Line, error) {
	q := r.Builder().
		Select(receiptLineCols...).
		From(goodsReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []receipt.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a goods receipt (delete existing + insert new).
func (r *GoodsReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []receipt.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + goodsReceiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(goodsReceiptLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "location_id", "quantity")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.LocationID, line.Quantity,
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

// SumReceivedByOrder returns the cumulative received quantity per product
// over all receipts of a purchase order.
func (r *GoodsReceiptRepo) SumReceivedByOrder(ctx context.Context, purchaseOrderID id.ID) (map[id.ID]types.Quantity, error) {
	sql := `
		SELECT l.product_id, COALESCE(SUM(l.quantity), 0) AS total
		FROM doc_goods_receipt_lines l
		JOIN doc_goods_receipts d ON d.id = l.document_id
		WHERE d.purchase_order_id = $1
		GROUP BY l.product_id
	`

	rows, err := r.Querier(ctx).Query(ctx, sql, purchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("sum received: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var productID id.ID
		var totalScaled int64
		if err := rows.Scan(&productID, &totalScaled); err != nil {
			return nil, fmt.Errorf("scan received total: %w", err)
		}
		totals[productID] = types.NewQuantityFromInt64Scaled(totalScaled)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate received totals: %w", err)
	}

	return totals, nil
}

// Ensure interface compliance.
var _ receipt.Repository = (*GoodsReceiptRepo)(nil)
