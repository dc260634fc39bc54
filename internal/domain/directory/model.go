// Package directory provides the reference data that inventory movements
// are recorded against: warehouses, their storage locations, and products.
package directory

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// Warehouse is a physical site holding stock in one or more locations.
type Warehouse struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// Locked blocks all stock movements, set while a stock take is in progress
	Locked bool `db:"locked" json:"locked"`
}

// NewWarehouse creates a new active Warehouse.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}

// LocationKind classifies a storage location inside a warehouse.
type LocationKind string

const (
	KindStorage   LocationKind = "storage"
	KindReceiving LocationKind = "receiving"
	KindShipping  LocationKind = "shipping"
)

// Location is a storage position inside a warehouse. Each warehouse has
// at most one default receiving and one default shipping location.
type Location struct {
	entity.Catalog

	WarehouseID id.ID        `db:"warehouse_id" json:"warehouseId"`
	Kind        LocationKind `db:"kind" json:"kind"`

	// IsDefault marks the location used when a document does not name one
	IsDefault bool `db:"is_default" json:"isDefault"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewLocation creates a new active Location in a warehouse.
func NewLocation(warehouseID id.ID, code, name string, kind LocationKind) *Location {
	return &Location{
		Catalog:     entity.NewCatalog(code, name),
		WarehouseID: warehouseID,
		Kind:        kind,
		IsActive:    true,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(l.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	switch l.Kind {
	case KindStorage, KindReceiving, KindShipping:
	default:
		return apperror.NewValidation("invalid location kind").
			WithDetail("field", "kind").
			WithDetail("value", string(l.Kind))
	}
	return nil
}

// Product is a stock-keeping item.
type Product struct {
	entity.Catalog

	// Unit is the unit of measure (pcs, kg, m)
	Unit string `db:"unit" json:"unit"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a new active Product.
func NewProduct(code, name, unit string) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(code, name),
		Unit:     unit,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	return nil
}
