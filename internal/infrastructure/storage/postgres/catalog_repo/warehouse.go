package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/directory"
	"stockyard/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

// WarehouseRepo implements directory.WarehouseRepository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*directory.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			warehousesTable,
			postgres.ExtractDBColumns[directory.Warehouse](),
			func() *directory.Warehouse { return &directory.Warehouse{} },
		),
	}
}

// List returns warehouses ordered by code.
func (r *WarehouseRepo) List(ctx context.Context, activeOnly bool) ([]directory.Warehouse, error) {
	q := r.baseSelect().OrderBy("code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	var warehouses []directory.Warehouse
	if err := r.selectAll(ctx, q, &warehouses); err != nil {
		return nil, err
	}

	return warehouses, nil
}

// SetLocked flips the movement lock on a warehouse row.
func (r *WarehouseRepo) SetLocked(ctx context.Context, warehouseID id.ID, locked bool) error {
	q := r.Builder().
		Update(warehousesTable).
		Set("locked", locked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": warehouseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set locked: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set locked: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(warehousesTable, warehouseID.String())
	}

	return nil
}

// Ensure interface compliance.
var _ directory.WarehouseRepository = (*WarehouseRepo)(nil)
