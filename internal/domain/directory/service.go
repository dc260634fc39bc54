package directory

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
	"stockyard/internal/core/tx"
	"stockyard/pkg/logger"
)

// Service provides directory lookups and maintenance. The warehouse lock
// flag is read through the cache because every goods movement consults it.
type Service struct {
	warehouses WarehouseRepository
	locations  LocationRepository
	products   ProductRepository
	cache      Cache
	cacheTTL   time.Duration
	txManager  tx.Manager
	numerator  numerator.Generator
}

func NewService(
	warehouses WarehouseRepository,
	locations LocationRepository,
	products ProductRepository,
	cache Cache,
	cacheTTL time.Duration,
	txManager tx.Manager,
	gen numerator.Generator,
) *Service {
	return &Service{
		warehouses: warehouses,
		locations:  locations,
		products:   products,
		cache:      cache,
		cacheTTL:   cacheTTL,
		txManager:  txManager,
		numerator:  gen,
	}
}

// --- Warehouses ---

func (s *Service) GetWarehouse(ctx context.Context, whID id.ID) (*Warehouse, error) {
	return s.warehouses.GetByID(ctx, whID)
}

func (s *Service) ListWarehouses(ctx context.Context, activeOnly bool) ([]Warehouse, error) {
	return s.warehouses.List(ctx, activeOnly)
}

func (s *Service) CreateWarehouse(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}
	if err := wh.Validate(ctx); err != nil {
		return err
	}
	return s.warehouses.Create(ctx, wh)
}

// IsWarehouseLocked reports whether movements on a warehouse are
// currently blocked. Cache-first; a cache failure degrades to a
// database read, never to an error.
func (s *Service) IsWarehouseLocked(ctx context.Context, whID id.ID) (bool, error) {
	if s.cache != nil {
		locked, found, err := s.cache.GetWarehouseLocked(ctx, whID)
		if err != nil {
			logger.Warn(ctx, "warehouse lock cache read failed", "warehouse_id", whID, "error", err)
		} else if found {
			return locked, nil
		}
	}

	wh, err := s.warehouses.GetByID(ctx, whID)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.SetWarehouseLocked(ctx, whID, wh.Locked, s.cacheTTL); err != nil {
			logger.Warn(ctx, "warehouse lock cache write failed", "warehouse_id", whID, "error", err)
		}
	}
	return wh.Locked, nil
}

// CheckWarehouseOpen verifies movements on the warehouse are allowed,
// reading the flag straight from the database so a lock taken after the
// cached pre-check is still seen. Meant to run inside the movement's
// transaction.
func (s *Service) CheckWarehouseOpen(ctx context.Context, whID id.ID) error {
	wh, err := s.warehouses.GetByID(ctx, whID)
	if err != nil {
		return err
	}
	if wh.Locked {
		return apperror.NewBusinessRule(apperror.CodeWarehouseLocked, "warehouse is locked for stock movements").
			WithDetail("warehouseId", whID.String())
	}
	return nil
}

// SetWarehouseLocked flips the movement lock and invalidates the cache.
// Runs in the caller's transaction when one is bound to ctx.
func (s *Service) SetWarehouseLocked(ctx context.Context, whID id.ID, locked bool) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wh, err := s.warehouses.GetByID(ctx, whID)
		if err != nil {
			return err
		}
		if wh.Locked == locked {
			if locked {
				return apperror.NewConflict("warehouse is already locked")
			}
			return apperror.NewConflict("warehouse is not locked")
		}
		return s.warehouses.SetLocked(ctx, whID, locked)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if cerr := s.cache.InvalidateWarehouse(ctx, whID); cerr != nil {
			logger.Warn(ctx, "warehouse cache invalidation failed", "warehouse_id", whID, "error", cerr)
		}
	}
	logger.Info(ctx, "warehouse lock changed", "warehouse_id", whID, "locked", locked)
	return nil
}

// --- Locations ---

func (s *Service) GetLocation(ctx context.Context, locID id.ID) (*Location, error) {
	return s.locations.GetByID(ctx, locID)
}

func (s *Service) ListLocations(ctx context.Context, whID id.ID) ([]Location, error) {
	return s.locations.ListByWarehouse(ctx, whID)
}

// CreateLocation adds a location; making it the default of its kind
// clears the flag on its siblings first.
func (s *Service) CreateLocation(ctx context.Context, loc *Location) error {
	if loc.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LOC"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		loc.Code = code
	}
	if err := loc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.warehouses.GetByID(ctx, loc.WarehouseID); err != nil {
			return err
		}
		if loc.IsDefault {
			if err := s.locations.ClearDefault(ctx, loc.WarehouseID, loc.Kind); err != nil {
				return err
			}
		}
		return s.locations.Create(ctx, loc)
	})
}

// ResolveReceivingLocation returns the location goods arrive at: the
// explicitly requested one (validated to belong to the warehouse) or the
// warehouse's default receiving location.
func (s *Service) ResolveReceivingLocation(ctx context.Context, whID id.ID, requested *id.ID) (*Location, error) {
	return s.resolveLocation(ctx, whID, requested, KindReceiving)
}

// ResolveShippingLocation returns the location goods leave from.
func (s *Service) ResolveShippingLocation(ctx context.Context, whID id.ID, requested *id.ID) (*Location, error) {
	return s.resolveLocation(ctx, whID, requested, KindShipping)
}

func (s *Service) resolveLocation(ctx context.Context, whID id.ID, requested *id.ID, kind LocationKind) (*Location, error) {
	if requested != nil && !id.IsNil(*requested) {
		loc, err := s.locations.GetByID(ctx, *requested)
		if err != nil {
			return nil, err
		}
		if loc.WarehouseID != whID {
			return nil, apperror.NewValidation("location belongs to a different warehouse").
				WithDetail("locationId", loc.ID.String()).
				WithDetail("warehouseId", whID.String())
		}
		if !loc.IsActive {
			return nil, apperror.NewValidation("location is inactive").
				WithDetail("locationId", loc.ID.String())
		}
		return loc, nil
	}
	return s.locations.GetDefault(ctx, whID, kind)
}

// --- Products ---

func (s *Service) GetProduct(ctx context.Context, prodID id.ID) (*Product, error) {
	return s.products.GetByID(ctx, prodID)
}

func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	return s.products.List(ctx, activeOnly)
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SKU"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.products.Create(ctx, p)
}
