package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/documents/stocktake"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	stockTakesTable     = "doc_stock_takes"
	stockTakeItemsTable = "doc_stock_take_items"
)

var stockTakeItemCols = []string{
	"item_id", "location_id", "product_id", "system_qty", "counted_qty", "note",
}

// StockTakeRepo implements stocktake.Repository.
type StockTakeRepo struct {
	*BaseDocumentRepo[*stocktake.StockTake]
	txManager *postgres.TxManager
}

// NewStockTakeRepo creates a new stock take repository.
func NewStockTakeRepo(txManager *postgres.TxManager) *StockTakeRepo {
	return &StockTakeRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			stockTakesTable,
			postgres.ExtractDBColumns[stocktake.StockTake](),
			func() *stocktake.StockTake { return &stocktake.StockTake{} },
		),
		txManager: txManager,
	}
}

// GetForUpdate retrieves the stock take with a row lock, items included.
func (r *StockTakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*stocktake.StockTake, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := r.GetItems(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Items = items

	return doc, nil
}

// GetItems retrieves count items for a stock take.
func (r *StockTakeRepo) GetItems(ctx context.Context, docID id.ID) ([]stocktake.Item, error) {
	q := r.Builder().
		Select(stockTakeItemCols...).
		From(stockTakeItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("location_id", "product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []stocktake.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems saves items for a stock take (delete existing + insert new).
// The snapshot taken at start can span an entire warehouse, so inserts go
// through COPY when a transaction is available.
func (r *StockTakeRepo) SaveItems(ctx context.Context, docID id.ID, items []stocktake.Item) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + stockTakeItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	columns := []string{
		"item_id", "document_id", "location_id", "product_id",
		"system_qty", "counted_qty", "note",
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, []any{
				item.ItemID, docID, item.LocationID, item.ProductID,
				item.SystemQty, item.CountedQty, item.Note,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockTakeItemsTable, columns, rows); err != nil {
			return fmt.Errorf("copy items: %w", err)
		}
		return nil
	}

	q := r.Builder().
		Insert(stockTakeItemsTable).
		Columns(columns...)

	for _, item := range items {
		q = q.Values(
			item.ItemID, docID, item.LocationID, item.ProductID,
			item.SystemQty, item.CountedQty, item.Note,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ stocktake.Repository = (*StockTakeRepo)(nil)
