// Package ledger_repo provides the PostgreSQL implementation of the
// inventory ledger repository: live quantity records plus the append-only
// history table they are reconciled against.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	recordsTable = "inv_records"
	historyTable = "inv_history"
)

var recordCols = []string{
	"warehouse_id", "location_id", "product_id",
	"on_hand", "locked", "in_transit",
	"created_at", "updated_at",
}

var historyCols = []string{
	"id", "warehouse_id", "location_id", "product_id",
	"quantity_change", "action", "reference_code", "note", "created_at",
}

// Repo implements ledger.Repository.
type Repo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRepo creates a new ledger repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func keyEq(key ledger.Key) squirrel.Eq {
	return squirrel.Eq{
		"warehouse_id": key.WarehouseID,
		"location_id":  key.LocationID,
		"product_id":   key.ProductID,
	}
}

// GetRecord returns the record for key, or NotFound.
func (r *Repo) GetRecord(ctx context.Context, key ledger.Key) (*ledger.Record, error) {
	return r.getRecord(ctx, key, false)
}

// GetRecordForUpdate returns the record for key with a row lock held
// until the surrounding transaction ends.
func (r *Repo) GetRecordForUpdate(ctx context.Context, key ledger.Key) (*ledger.Record, error) {
	return r.getRecord(ctx, key, true)
}

func (r *Repo) getRecord(ctx context.Context, key ledger.Key, forUpdate bool) (*ledger.Record, error) {
	q := r.builder.Select(recordCols...).
		From(recordsTable).
		Where(keyEq(key))
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec ledger.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory record", key.ProductID.String())
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	return &rec, nil
}

// CreateRecord inserts a new record. A concurrent insert of the same key
// surfaces as a Conflict so the caller can re-read under lock.
func (r *Repo) CreateRecord(ctx context.Context, rec *ledger.Record) error {
	q := r.builder.Insert(recordsTable).
		Columns(recordCols...).
		Values(
			rec.WarehouseID, rec.LocationID, rec.ProductID,
			rec.OnHand, rec.Locked, rec.InTransit,
			rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix("ON CONFLICT (warehouse_id, location_id, product_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConflict("inventory record already exists")
	}

	return nil
}

// UpdateQuantities persists new balances for key.
func (r *Repo) UpdateQuantities(ctx context.Context, key ledger.Key, onHand, locked, inTransit types.Quantity) error {
	q := r.builder.Update(recordsTable).
		Set("on_hand", onHand).
		Set("locked", locked).
		Set("in_transit", inTransit).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(keyEq(key))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quantities: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory record", key.ProductID.String())
	}

	return nil
}

// AppendHistory inserts one immutable history entry. The table has no
// UPDATE or DELETE path anywhere in the codebase.
func (r *Repo) AppendHistory(ctx context.Context, entry ledger.HistoryEntry) error {
	q := r.builder.Insert(historyTable).
		Columns(historyCols...).
		Values(
			entry.ID, entry.WarehouseID, entry.LocationID, entry.ProductID,
			entry.QuantityChange, entry.Action, entry.ReferenceCode, entry.Note, entry.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	return nil
}

// ListByWarehouse returns records for a warehouse ordered by location
// then product.
func (r *Repo) ListByWarehouse(ctx context.Context, warehouseID id.ID, onlyPositive bool) ([]ledger.Record, error) {
	q := r.builder.Select(recordCols...).
		From(recordsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID})

	if onlyPositive {
		q = q.Where(squirrel.Gt{"on_hand": int64(0)})
	}

	q = q.OrderBy("location_id", "product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []ledger.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	return records, nil
}

// GetHistoryByProduct returns history entries for a product, newest first.
func (r *Repo) GetHistoryByProduct(ctx context.Context, productID id.ID, filter ledger.HistoryFilter) ([]ledger.HistoryEntry, error) {
	q := r.builder.Select(historyCols...).
		From(historyTable).
		Where(squirrel.Eq{"product_id": productID})

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}

	if !id.IsNil(filter.LocationID) {
		q = q.Where(squirrel.Eq{"location_id": filter.LocationID})
	}

	if len(filter.Actions) > 0 {
		q = q.Where(squirrel.Eq{"action": filter.Actions})
	}

	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": filter.From})
	}

	if !filter.To.IsZero() {
		q = q.Where(squirrel.Lt{"created_at": filter.To})
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.HistoryEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return entries, nil
}

// SumOnHandHistory replays history for key. Lock, unlock and in-transit
// entries record reservation traffic, not on-hand changes, so they are
// excluded from the sum.
func (r *Repo) SumOnHandHistory(ctx context.Context, key ledger.Key) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM inv_history
		WHERE warehouse_id = $1
		  AND location_id = $2
		  AND product_id = $3
		  AND action NOT IN ('lock', 'unlock', 'transit_in', 'transit_out')
	`

	var sumScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, key.WarehouseID, key.LocationID, key.ProductID).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum history: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// GetTurnover aggregates inbound and outbound movement per product for
// the filter period. Reservation entries are excluded.
func (r *Repo) GetTurnover(ctx context.Context, filter ledger.TurnoverFilter) ([]ledger.Turnover, error) {
	q := r.builder.Select(
		"product_id",
		"warehouse_id",
		"COALESCE(SUM(CASE WHEN quantity_change > 0 THEN quantity_change ELSE 0 END), 0) AS inbound",
		"COALESCE(SUM(CASE WHEN quantity_change < 0 THEN -quantity_change ELSE 0 END), 0) AS outbound",
	).
		From(historyTable).
		Where(squirrel.NotEq{"action": []ledger.ActionType{
			ledger.ActionLock, ledger.ActionUnlock,
			ledger.ActionTransitIn, ledger.ActionTransitOut,
		}}).
		GroupBy("product_id", "warehouse_id").
		OrderBy("warehouse_id", "product_id")

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}

	if !id.IsNil(filter.ProductID) {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}

	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": filter.From})
	}

	if !filter.To.IsZero() {
		q = q.Where(squirrel.Lt{"created_at": filter.To})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var turnovers []ledger.Turnover
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &turnovers, sql, args...); err != nil {
		return nil, fmt.Errorf("select turnover: %w", err)
	}

	return turnovers, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*Repo)(nil)
