package directory

import (
	"context"
	"time"

	"stockyard/internal/core/id"
)

// WarehouseRepository is the persistence contract for warehouses.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id id.ID) (*Warehouse, error)
	GetByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context, activeOnly bool) ([]Warehouse, error)
	Create(ctx context.Context, wh *Warehouse) error
	Update(ctx context.Context, wh *Warehouse) error

	// SetLocked flips the movement lock on a warehouse row.
	SetLocked(ctx context.Context, id id.ID, locked bool) error
}

// LocationRepository is the persistence contract for storage locations.
type LocationRepository interface {
	GetByID(ctx context.Context, id id.ID) (*Location, error)
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]Location, error)
	Create(ctx context.Context, loc *Location) error
	Update(ctx context.Context, loc *Location) error

	// GetDefault returns the default location of the given kind for a
	// warehouse, or a NotFound error when none is configured.
	GetDefault(ctx context.Context, warehouseID id.ID, kind LocationKind) (*Location, error)

	// ClearDefault clears the default flag on all locations of that kind
	// in a warehouse.
	ClearDefault(ctx context.Context, warehouseID id.ID, kind LocationKind) error
}

// ProductRepository is the persistence contract for products.
type ProductRepository interface {
	GetByID(ctx context.Context, id id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
}

// Cache is a read-through cache for hot directory lookups (warehouse
// lock flags, default locations). Implementations must treat a miss as
// a normal condition, not an error.
type Cache interface {
	GetWarehouseLocked(ctx context.Context, warehouseID id.ID) (locked bool, found bool, err error)
	SetWarehouseLocked(ctx context.Context, warehouseID id.ID, locked bool, ttl time.Duration) error
	InvalidateWarehouse(ctx context.Context, warehouseID id.ID) error
}
