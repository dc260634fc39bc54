package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
)

type fakeWarehouseRepo struct {
	byID map[id.ID]*Warehouse
}

func (r *fakeWarehouseRepo) GetByID(_ context.Context, whID id.ID) (*Warehouse, error) {
	wh, ok := r.byID[whID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", whID)
	}
	cp := *wh
	return &cp, nil
}

func (r *fakeWarehouseRepo) GetByCode(_ context.Context, code string) (*Warehouse, error) {
	for _, wh := range r.byID {
		if wh.Code == code {
			cp := *wh
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", code)
}

func (r *fakeWarehouseRepo) List(_ context.Context, _ bool) ([]Warehouse, error) { return nil, nil }

func (r *fakeWarehouseRepo) Create(_ context.Context, wh *Warehouse) error {
	r.byID[wh.ID] = wh
	return nil
}

func (r *fakeWarehouseRepo) Update(_ context.Context, wh *Warehouse) error {
	r.byID[wh.ID] = wh
	return nil
}

func (r *fakeWarehouseRepo) SetLocked(_ context.Context, whID id.ID, locked bool) error {
	wh, ok := r.byID[whID]
	if !ok {
		return apperror.NewNotFound("warehouse", whID)
	}
	wh.Locked = locked
	return nil
}

type fakeLocationRepo struct {
	byID map[id.ID]*Location
}

func (r *fakeLocationRepo) GetByID(_ context.Context, locID id.ID) (*Location, error) {
	loc, ok := r.byID[locID]
	if !ok {
		return nil, apperror.NewNotFound("location", locID)
	}
	cp := *loc
	return &cp, nil
}

func (r *fakeLocationRepo) ListByWarehouse(_ context.Context, whID id.ID) ([]Location, error) {
	var out []Location
	for _, loc := range r.byID {
		if loc.WarehouseID == whID {
			out = append(out, *loc)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) Create(_ context.Context, loc *Location) error {
	r.byID[loc.ID] = loc
	return nil
}

func (r *fakeLocationRepo) Update(_ context.Context, loc *Location) error {
	r.byID[loc.ID] = loc
	return nil
}

func (r *fakeLocationRepo) GetDefault(_ context.Context, whID id.ID, kind LocationKind) (*Location, error) {
	for _, loc := range r.byID {
		if loc.WarehouseID == whID && loc.Kind == kind && loc.IsDefault {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("default "+string(kind)+" location", whID)
}

func (r *fakeLocationRepo) ClearDefault(_ context.Context, whID id.ID, kind LocationKind) error {
	for _, loc := range r.byID {
		if loc.WarehouseID == whID && loc.Kind == kind {
			loc.IsDefault = false
		}
	}
	return nil
}

type fakeCache struct {
	locked map[id.ID]bool
	reads  int
}

func (c *fakeCache) GetWarehouseLocked(_ context.Context, whID id.ID) (bool, bool, error) {
	c.reads++
	v, ok := c.locked[whID]
	return v, ok, nil
}

func (c *fakeCache) SetWarehouseLocked(_ context.Context, whID id.ID, locked bool, _ time.Duration) error {
	c.locked[whID] = locked
	return nil
}

func (c *fakeCache) InvalidateWarehouse(_ context.Context, whID id.ID) error {
	delete(c.locked, whID)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newDirectoryService() (*Service, *fakeWarehouseRepo, *fakeLocationRepo, *fakeCache) {
	whs := &fakeWarehouseRepo{byID: make(map[id.ID]*Warehouse)}
	locs := &fakeLocationRepo{byID: make(map[id.ID]*Location)}
	cache := &fakeCache{locked: make(map[id.ID]bool)}
	svc := NewService(whs, locs, nil, cache, time.Minute, passthroughTx{}, numerator.NewMockGenerator())
	return svc, whs, locs, cache
}

func TestIsWarehouseLocked_CacheFirst(t *testing.T) {
	svc, whs, _, cache := newDirectoryService()
	ctx := context.Background()

	wh := NewWarehouse("WH-01", "Main")
	require.NoError(t, whs.Create(ctx, wh))

	// First read misses the cache and populates it.
	locked, err := svc.IsWarehouseLocked(ctx, wh.ID)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 1, cache.reads)

	// Second read is served from the cache.
	wh.Locked = true // change DB behind the cache's back
	locked, err = svc.IsWarehouseLocked(ctx, wh.ID)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 2, cache.reads)
}

func TestSetWarehouseLocked_InvalidatesCache(t *testing.T) {
	svc, whs, _, cache := newDirectoryService()
	ctx := context.Background()

	wh := NewWarehouse("WH-01", "Main")
	require.NoError(t, whs.Create(ctx, wh))

	_, err := svc.IsWarehouseLocked(ctx, wh.ID) // warm the cache
	require.NoError(t, err)

	require.NoError(t, svc.SetWarehouseLocked(ctx, wh.ID, true))
	_, cached := cache.locked[wh.ID]
	assert.False(t, cached)

	locked, err := svc.IsWarehouseLocked(ctx, wh.ID)
	require.NoError(t, err)
	assert.True(t, locked)

	// Locking an already locked warehouse is rejected.
	err = svc.SetWarehouseLocked(ctx, wh.ID, true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestResolveReceivingLocation(t *testing.T) {
	svc, whs, locs, _ := newDirectoryService()
	ctx := context.Background()

	wh := NewWarehouse("WH-01", "Main")
	require.NoError(t, whs.Create(ctx, wh))

	dock := NewLocation(wh.ID, "RCV-01", "Inbound dock", KindReceiving)
	dock.IsDefault = true
	require.NoError(t, locs.Create(ctx, dock))

	shelf := NewLocation(wh.ID, "ST-01", "Shelf A", KindStorage)
	require.NoError(t, locs.Create(ctx, shelf))

	t.Run("default when none requested", func(t *testing.T) {
		loc, err := svc.ResolveReceivingLocation(ctx, wh.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, dock.ID, loc.ID)
	})

	t.Run("explicit location wins", func(t *testing.T) {
		loc, err := svc.ResolveReceivingLocation(ctx, wh.ID, &shelf.ID)
		require.NoError(t, err)
		assert.Equal(t, shelf.ID, loc.ID)
	})

	t.Run("foreign location rejected", func(t *testing.T) {
		other := NewWarehouse("WH-02", "Remote")
		require.NoError(t, whs.Create(ctx, other))

		_, err := svc.ResolveReceivingLocation(ctx, other.ID, &shelf.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("no default configured", func(t *testing.T) {
		other := NewWarehouse("WH-03", "Empty")
		require.NoError(t, whs.Create(ctx, other))

		_, err := svc.ResolveReceivingLocation(ctx, other.ID, nil)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestCreateLocation_DefaultFlagClearsSiblings(t *testing.T) {
	svc, whs, locs, _ := newDirectoryService()
	ctx := context.Background()

	wh := NewWarehouse("WH-01", "Main")
	require.NoError(t, whs.Create(ctx, wh))

	first := NewLocation(wh.ID, "RCV-01", "Dock 1", KindReceiving)
	first.IsDefault = true
	require.NoError(t, svc.CreateLocation(ctx, first))

	second := NewLocation(wh.ID, "RCV-02", "Dock 2", KindReceiving)
	second.IsDefault = true
	require.NoError(t, svc.CreateLocation(ctx, second))

	got, err := locs.GetDefault(ctx, wh.ID, KindReceiving)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}
