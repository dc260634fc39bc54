package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// fakeRepo is an in-memory Repository. Combined with fakeTxManager it
// restores its state when a transaction function returns an error.
type fakeRepo struct {
	records    map[Key]*Record
	history    []HistoryEntry
	failAppend bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[Key]*Record)}
}

func (r *fakeRepo) GetRecord(_ context.Context, key Key) (*Record, error) {
	rec, ok := r.records[key]
	if !ok {
		return nil, apperror.NewNotFound("inventory record", key.ProductID)
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRepo) GetRecordForUpdate(ctx context.Context, key Key) (*Record, error) {
	return r.GetRecord(ctx, key)
}

func (r *fakeRepo) CreateRecord(_ context.Context, rec *Record) error {
	cp := *rec
	r.records[rec.Key()] = &cp
	return nil
}

func (r *fakeRepo) UpdateQuantities(_ context.Context, key Key, onHand, locked, inTransit types.Quantity) error {
	rec, ok := r.records[key]
	if !ok {
		return apperror.NewNotFound("inventory record", key.ProductID)
	}
	rec.OnHand = onHand
	rec.Locked = locked
	rec.InTransit = inTransit
	return nil
}

func (r *fakeRepo) AppendHistory(_ context.Context, entry HistoryEntry) error {
	if r.failAppend {
		return errors.New("history insert failed")
	}
	r.history = append(r.history, entry)
	return nil
}

func (r *fakeRepo) ListByWarehouse(_ context.Context, warehouseID id.ID, onlyPositive bool) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.WarehouseID != warehouseID {
			continue
		}
		if onlyPositive && rec.OnHand <= 0 {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeRepo) GetHistoryByProduct(_ context.Context, productID id.ID, _ HistoryFilter) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ProductID == productID {
			out = append(out, r.history[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) SumOnHandHistory(_ context.Context, key Key) (types.Quantity, error) {
	var sum types.Quantity
	for _, e := range r.history {
		if e.WarehouseID != key.WarehouseID || e.LocationID != key.LocationID || e.ProductID != key.ProductID {
			continue
		}
		if e.Action.AffectsOnHand() {
			sum += e.QuantityChange
		}
	}
	return sum, nil
}

func (r *fakeRepo) GetTurnover(_ context.Context, filter TurnoverFilter) ([]Turnover, error) {
	byProduct := make(map[id.ID]*Turnover)
	for _, e := range r.history {
		if !e.Action.AffectsOnHand() {
			continue
		}
		if filter.WarehouseID != id.Nil() && e.WarehouseID != filter.WarehouseID {
			continue
		}
		t, ok := byProduct[e.ProductID]
		if !ok {
			t = &Turnover{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
			byProduct[e.ProductID] = t
		}
		if e.QuantityChange > 0 {
			t.Inbound += e.QuantityChange
		} else {
			t.Outbound += -e.QuantityChange
		}
	}
	var out []Turnover
	for _, t := range byProduct {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeRepo) snapshot() ([]HistoryEntry, map[Key]Record) {
	hist := append([]HistoryEntry(nil), r.history...)
	recs := make(map[Key]Record, len(r.records))
	for k, v := range r.records {
		recs[k] = *v
	}
	return hist, recs
}

func (r *fakeRepo) restore(hist []HistoryEntry, recs map[Key]Record) {
	r.history = hist
	r.records = make(map[Key]*Record, len(recs))
	for k, v := range recs {
		cp := v
		r.records[k] = &cp
	}
}

// fakeTxManager snapshots the fake repo and rolls back on error,
// mirroring real transaction semantics closely enough for service tests.
type fakeTxManager struct {
	repo  *fakeRepo
	depth int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth > 0 {
		m.depth++
		defer func() { m.depth-- }()
		return fn(ctx)
	}

	hist, recs := m.repo.snapshot()
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil {
		m.repo.restore(hist, recs)
	}
	return err
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, &fakeTxManager{repo: repo}), repo
}

func testKey() Key {
	return Key{WarehouseID: id.New(), LocationID: id.New(), ProductID: id.New()}
}

func TestAdjust_CreatesRecordAndHistory(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	err := svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-2026-00001", "")
	require.NoError(t, err)

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("10"), rec.OnHand)
	assert.Equal(t, types.Quantity(0), rec.Locked)

	require.Len(t, repo.history, 1)
	entry := repo.history[0]
	assert.Equal(t, ActionReceive, entry.Action)
	assert.Equal(t, types.MustQuantity("10"), entry.QuantityChange)
	assert.Equal(t, "GR-2026-00001", entry.ReferenceCode)
	assert.False(t, id.IsNil(entry.ID))
}

func TestAdjust_InsufficientStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("5"), ActionReceive, "GR-1", ""))

	err := svc.Adjust(ctx, key, types.MustQuantity("8"), ActionIssue, "GI-1", "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	// Nothing changed: balance intact, no new history entry.
	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("5"), rec.OnHand)
	assert.Len(t, repo.history, 1)
}

func TestAdjust_DecreaseCappedByLocked(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("100"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.LockStock(ctx, key, types.MustQuantity("80"), "GI-1", ""))

	// Cutting on-hand to 50 would leave it below the 80 still reserved.
	err := svc.Adjust(ctx, key, types.MustQuantity("50"), ActionAdjustDecrease, "GR-1", "receipt cancelled")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientAvailable))

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("100"), rec.OnHand)
	assert.Equal(t, types.MustQuantity("80"), rec.Locked)
	assert.Len(t, repo.history, 2)

	// A decrease within the available balance still goes through, and
	// the signed stock-take delta obeys the same cap.
	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("20"), ActionAdjustDecrease, "GR-1", ""))
	err = svc.Adjust(ctx, key, types.MustQuantity("-1"), ActionStockTake, "ST-1", "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientAvailable))

	rec, err = svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("80"), rec.OnHand)
	assert.Equal(t, types.MustQuantity("80"), rec.Locked)
}

func TestAdjust_StockTakeSignedDelta(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("-3"), ActionStockTake, "ST-1", "recount"))
	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("2"), ActionStockTake, "ST-2", ""))

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("9"), rec.OnHand)
}

func TestAdjust_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	key := testKey()

	tests := []struct {
		name   string
		qty    types.Quantity
		action ActionType
	}{
		{"zero quantity", 0, ActionReceive},
		{"negative quantity for signed action", types.MustQuantity("-1"), ActionIssue},
		{"zero stock take delta", 0, ActionStockTake},
		{"lock is not an adjustment", types.MustQuantity("1"), ActionLock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Adjust(ctx, key, tt.qty, tt.action, "", "")
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestLockUnlock_Flow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.LockStock(ctx, key, types.MustQuantity("6"), "SO-1", ""))

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("10"), rec.OnHand)
	assert.Equal(t, types.MustQuantity("6"), rec.Locked)
	assert.Equal(t, types.MustQuantity("4"), rec.Available())

	// Only 4 available: a second reservation of 5 must fail.
	err = svc.LockStock(ctx, key, types.MustQuantity("5"), "SO-2", "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientAvailable))

	// Cannot release more than is locked.
	err = svc.UnlockStock(ctx, key, types.MustQuantity("7"), "SO-1", "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOverUnlock))

	require.NoError(t, svc.UnlockStock(ctx, key, types.MustQuantity("6"), "SO-1", ""))
	rec, err = svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rec.Locked)
	assert.Equal(t, types.MustQuantity("10"), rec.Available())
}

func TestLockStock_MissingRecord(t *testing.T) {
	svc, _ := newTestService()

	err := svc.LockStock(context.Background(), testKey(), types.MustQuantity("1"), "SO-1", "")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestIssueLocked(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.LockStock(ctx, key, types.MustQuantity("4"), "SO-1", ""))
	require.NoError(t, svc.IssueLocked(ctx, key, types.MustQuantity("4"), ActionIssue, "GI-1", ""))

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("6"), rec.OnHand)
	assert.Equal(t, types.Quantity(0), rec.Locked)

	// receive, lock, unlock, issue
	require.Len(t, repo.history, 4)
	assert.Equal(t, ActionUnlock, repo.history[2].Action)
	assert.Equal(t, types.MustQuantity("-4"), repo.history[2].QuantityChange)
	assert.Equal(t, ActionIssue, repo.history[3].Action)
	assert.Equal(t, types.MustQuantity("-4"), repo.history[3].QuantityChange)
}

func TestInTransit_Flow(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	// Destination record does not exist yet; AddInTransit creates it.
	require.NoError(t, svc.AddInTransit(ctx, key, types.MustQuantity("30"), "TR-1", ""))

	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rec.OnHand)
	assert.Equal(t, types.MustQuantity("30"), rec.InTransit)

	// Cannot release more than is en route.
	err = svc.RemoveInTransit(ctx, key, types.MustQuantity("40"), "TR-1", "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	require.NoError(t, svc.RemoveInTransit(ctx, key, types.MustQuantity("30"), "TR-1", ""))
	rec, err = svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rec.InTransit)

	// Transit entries are history-neutral: two entries, zero replayed sum.
	require.Len(t, repo.history, 2)
	assert.Equal(t, ActionTransitIn, repo.history[0].Action)
	assert.Equal(t, ActionTransitOut, repo.history[1].Action)
	sum, err := repo.SumOnHandHistory(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), sum)
}

func TestVerifyBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.LockStock(ctx, key, types.MustQuantity("3"), "SO-1", ""))
	require.NoError(t, svc.IssueLocked(ctx, key, types.MustQuantity("3"), ActionIssue, "GI-1", ""))
	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("-2"), ActionStockTake, "ST-1", ""))

	sum, ok, err := svc.VerifyBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.MustQuantity("5"), sum)
}

func TestQuery_MissingKeyReadsZero(t *testing.T) {
	svc, _ := newTestService()
	key := testKey()

	rec, err := svc.Query(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rec.OnHand)
	assert.Equal(t, key, rec.Key())
}

func TestAdjust_RollbackOnHistoryError(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("5"), ActionReceive, "GR-1", ""))

	repo.failAppend = true
	err := svc.Adjust(ctx, key, types.MustQuantity("2"), ActionReceive, "GR-2", "")
	require.Error(t, err)

	repo.failAppend = false
	rec, err := svc.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("5"), rec.OnHand)
	assert.Len(t, repo.history, 1)
}

func TestGetTurnover(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("10"), ActionReceive, "GR-1", ""))
	require.NoError(t, svc.Adjust(ctx, key, types.MustQuantity("4"), ActionAdjustDecrease, "AD-1", ""))

	turnovers, err := svc.GetTurnover(ctx, TurnoverFilter{WarehouseID: key.WarehouseID})
	require.NoError(t, err)
	require.Len(t, turnovers, 1)
	assert.Equal(t, types.MustQuantity("10"), turnovers[0].Inbound)
	assert.Equal(t, types.MustQuantity("4"), turnovers[0].Outbound)
}
