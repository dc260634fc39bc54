package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/directory"
	"stockyard/internal/infrastructure/storage/postgres"
)

const locationsTable = "cat_locations"

// LocationRepo implements directory.LocationRepository.
type LocationRepo struct {
	*BaseCatalogRepo[*directory.Location]
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			locationsTable,
			postgres.ExtractDBColumns[directory.Location](),
			func() *directory.Location { return &directory.Location{} },
		),
	}
}

// ListByWarehouse returns all locations of a warehouse ordered by code.
func (r *LocationRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]directory.Location, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("code")

	var locations []directory.Location
	if err := r.selectAll(ctx, q, &locations); err != nil {
		return nil, err
	}

	return locations, nil
}

// GetDefault returns the default active location of the given kind for a
// warehouse, or NotFound when none is configured.
func (r *LocationRepo) GetDefault(ctx context.Context, warehouseID id.ID, kind directory.LocationKind) (*directory.Location, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"kind":         kind,
			"is_default":   true,
			"is_active":    true,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var loc directory.Location
	if err := pgxscan.Get(ctx, r.Querier(ctx), &loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("default "+string(kind)+" location", warehouseID.String())
		}
		return nil, fmt.Errorf("get default location: %w", err)
	}

	return &loc, nil
}

// ClearDefault clears the default flag on all locations of that kind in
// a warehouse.
func (r *LocationRepo) ClearDefault(ctx context.Context, warehouseID id.ID, kind directory.LocationKind) error {
	q := r.Builder().
		Update(locationsTable).
		Set("is_default", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"kind":         kind,
			"is_default":   true,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build clear default: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ directory.LocationRepository = (*LocationRepo)(nil)
