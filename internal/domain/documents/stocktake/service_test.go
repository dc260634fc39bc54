package stocktake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*StockTake
	items map[id.ID][]Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*StockTake), items: make(map[id.ID][]Item)}
}

func (r *fakeRepo) Create(_ context.Context, doc *StockTake) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*StockTake, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock take", docID)
	}
	cp := *doc
	cp.Items = append([]Item(nil), r.items[docID]...)
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, doc *StockTake) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock take", doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*StockTake, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) GetItems(_ context.Context, docID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[docID]...), nil
}

func (r *fakeRepo) SaveItems(_ context.Context, docID id.ID, items []Item) error {
	r.items[docID] = append([]Item(nil), items...)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*StockTake], error) {
	return domain.ListResult[*StockTake]{}, nil
}

func (r *fakeRepo) Snapshot() any {
	docs := make(map[id.ID]StockTake, len(r.docs))
	for k, v := range r.docs {
		docs[k] = *v
	}
	items := make(map[id.ID][]Item, len(r.items))
	for k, v := range r.items {
		items[k] = append([]Item(nil), v...)
	}
	return [2]any{docs, items}
}

func (r *fakeRepo) Restore(snapshot any) {
	snap := snapshot.([2]any)
	docs := snap[0].(map[id.ID]StockTake)
	r.docs = make(map[id.ID]*StockTake, len(docs))
	for k, v := range docs {
		cp := v
		r.docs[k] = &cp
	}
	r.items = snap[1].(map[id.ID][]Item)
}

type fakeDirectory struct {
	locked map[id.ID]bool
}

func (d *fakeDirectory) SetWarehouseLocked(_ context.Context, whID id.ID, locked bool) error {
	if d.locked[whID] == locked {
		return apperror.NewConflict("warehouse lock already in requested state")
	}
	d.locked[whID] = locked
	return nil
}

type stocktakeFixture struct {
	svc     *Service
	repo    *fakeRepo
	store   *ledgertest.Store
	ledger  *ledger.Service
	dir     *fakeDirectory
	wh      id.ID
	loc     id.ID
	product id.ID
}

func newFixture(t *testing.T) *stocktakeFixture {
	t.Helper()

	wh, loc, product := id.New(), id.New(), id.New()

	store := ledgertest.NewStore()
	repo := newFakeRepo()
	txm := ledgertest.NewTxManager(store, repo)
	ledgerSvc := ledger.NewService(store, txm)
	dir := &fakeDirectory{locked: make(map[id.ID]bool)}

	svc := NewService(repo, ledgerSvc, dir, numerator.NewMockGenerator(), txm)

	fx := &stocktakeFixture{
		svc:     svc,
		repo:    repo,
		store:   store,
		ledger:  ledgerSvc,
		dir:     dir,
		wh:      wh,
		loc:     loc,
		product: product,
	}

	key := ledger.Key{WarehouseID: wh, LocationID: loc, ProductID: product}
	require.NoError(t, ledgerSvc.Adjust(context.Background(), key, types.MustQuantity("80"), ledger.ActionReceive, "GR-SEED", ""))
	return fx
}

func (fx *stocktakeFixture) key() ledger.Key {
	return ledger.Key{WarehouseID: fx.wh, LocationID: fx.loc, ProductID: fx.product}
}

func TestStockTake_FullCycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.Start(ctx, doc.ID, "counter"))
	assert.True(t, fx.dir.locked[fx.wh])

	stored, err := fx.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, types.MustQuantity("80"), stored.Items[0].SystemQty)
	assert.Equal(t, types.MustQuantity("80"), stored.Items[0].CountedQty)

	updates := []CountUpdate{{
		LocationID: fx.loc,
		ProductID:  fx.product,
		CountedQty: types.MustQuantity("75"),
		Note:       "five damaged",
	}}
	require.NoError(t, fx.svc.UpdateCounts(ctx, doc.ID, updates, "counter"))

	require.NoError(t, fx.svc.Complete(ctx, doc.ID, "counter"))
	assert.False(t, fx.dir.locked[fx.wh])

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("75"), rec.OnHand)

	// One signed adjustment of -5 referencing the stock take number.
	last := fx.store.History[len(fx.store.History)-1]
	assert.Equal(t, ledger.ActionStockTake, last.Action)
	assert.Equal(t, types.MustQuantity("-5"), last.QuantityChange)

	stored, err = fx.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, last.ReferenceCode, stored.Number)
	require.NotNil(t, stored.CompletedAt)

	_, ok, err := fx.ledger.VerifyBalance(ctx, fx.key())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStart_OnlyFromDraft(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Start(ctx, doc.ID, "counter"))

	err := fx.svc.Start(ctx, doc.ID, "counter")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestUpdateCounts_OnlyInProgress(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))

	updates := []CountUpdate{{LocationID: fx.loc, ProductID: fx.product, CountedQty: types.MustQuantity("75")}}
	err := fx.svc.UpdateCounts(ctx, doc.ID, updates, "counter")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestUpdateCounts_UnknownItem(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Start(ctx, doc.ID, "counter"))

	updates := []CountUpdate{{LocationID: id.New(), ProductID: fx.product, CountedQty: types.MustQuantity("1")}}
	err := fx.svc.UpdateCounts(ctx, doc.ID, updates, "counter")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestComplete_NoDifferencesPostsNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Start(ctx, doc.ID, "counter"))

	before := len(fx.store.History)
	require.NoError(t, fx.svc.Complete(ctx, doc.ID, "counter"))
	assert.Equal(t, before, len(fx.store.History))

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("80"), rec.OnHand)
}

func TestCancel_ReleasesWarehouseLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("counter", fx.wh)
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Start(ctx, doc.ID, "counter"))

	require.NoError(t, fx.svc.Cancel(ctx, doc.ID, "counter"))
	assert.False(t, fx.dir.locked[fx.wh])

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("80"), rec.OnHand)

	stored, err := fx.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}
