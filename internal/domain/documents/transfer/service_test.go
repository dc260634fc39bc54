package transfer

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
	"stockyard/internal/domain/directory"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*TransferOrder
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*TransferOrder), lines: make(map[id.ID][]Line)}
}

func (r *fakeRepo) Create(_ context.Context, doc *TransferOrder) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*TransferOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("transfer order", docID)
	}
	cp := *doc
	cp.Lines = append([]Line(nil), r.lines[docID]...)
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, doc *TransferOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("transfer order", doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*TransferOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*TransferOrder], error) {
	return domain.ListResult[*TransferOrder]{}, nil
}

func (r *fakeRepo) Snapshot() any {
	docs := make(map[id.ID]TransferOrder, len(r.docs))
	for k, v := range r.docs {
		docs[k] = *v
	}
	lines := make(map[id.ID][]Line, len(r.lines))
	for k, v := range r.lines {
		lines[k] = append([]Line(nil), v...)
	}
	return [2]any{docs, lines}
}

func (r *fakeRepo) Restore(snapshot any) {
	snap := snapshot.([2]any)
	docs := snap[0].(map[id.ID]TransferOrder)
	r.docs = make(map[id.ID]*TransferOrder, len(docs))
	for k, v := range docs {
		cp := v
		r.docs[k] = &cp
	}
	r.lines = snap[1].(map[id.ID][]Line)
}

// staleCache makes the cached pre-check report unlocked even when the
// warehouse is locked, mimicking a TTL cache that missed the change.
type fakeDirectory struct {
	lockedWarehouses map[id.ID]bool
	staleCache       bool
	locations        map[id.ID]*directory.Location
}

func (d *fakeDirectory) IsWarehouseLocked(_ context.Context, whID id.ID) (bool, error) {
	if d.staleCache {
		return false, nil
	}
	return d.lockedWarehouses[whID], nil
}

func (d *fakeDirectory) CheckWarehouseOpen(_ context.Context, whID id.ID) error {
	if d.lockedWarehouses[whID] {
		return apperror.NewBusinessRule(apperror.CodeWarehouseLocked, "warehouse is locked for stock movements")
	}
	return nil
}

func (d *fakeDirectory) GetLocation(_ context.Context, locID id.ID) (*directory.Location, error) {
	loc, ok := d.locations[locID]
	if !ok {
		return nil, apperror.NewNotFound("location", locID)
	}
	return loc, nil
}

type transferFixture struct {
	svc     *Service
	repo    *fakeRepo
	store   *ledgertest.Store
	ledger  *ledger.Service
	dir     *fakeDirectory
	product id.ID
	srcWh   id.ID
	dstWh   id.ID
	srcLoc  id.ID
	dstLoc  id.ID
}

func newFixture(t *testing.T) *transferFixture {
	t.Helper()

	srcWh, dstWh := id.New(), id.New()
	product := id.New()

	store := ledgertest.NewStore()
	repo := newFakeRepo()
	txm := ledgertest.NewTxManager(store, repo)
	ledgerSvc := ledger.NewService(store, txm)

	srcLoc := directory.NewLocation(srcWh, "SRC", "Source shelf", directory.KindStorage)
	dstLoc := directory.NewLocation(dstWh, "DST", "Destination shelf", directory.KindStorage)
	dir := &fakeDirectory{
		lockedWarehouses: make(map[id.ID]bool),
		locations: map[id.ID]*directory.Location{
			srcLoc.ID: srcLoc,
			dstLoc.ID: dstLoc,
		},
	}

	svc := NewService(repo, ledgerSvc, dir, numerator.NewMockGenerator(), txm)

	fx := &transferFixture{
		svc:     svc,
		repo:    repo,
		store:   store,
		ledger:  ledgerSvc,
		dir:     dir,
		product: product,
		srcWh:   srcWh,
		dstWh:   dstWh,
		srcLoc:  srcLoc.ID,
		dstLoc:  dstLoc.ID,
	}

	// Seed 100 at the source.
	require.NoError(t, ledgerSvc.Adjust(context.Background(), fx.sourceKey(), types.MustQuantity("100"), ledger.ActionReceive, "GR-SEED", ""))
	return fx
}

func (fx *transferFixture) sourceKey() ledger.Key {
	return ledger.Key{WarehouseID: fx.srcWh, LocationID: fx.srcLoc, ProductID: fx.product}
}

func (fx *transferFixture) destKey() ledger.Key {
	return ledger.Key{WarehouseID: fx.dstWh, LocationID: fx.dstLoc, ProductID: fx.product}
}

func TestTransfer_FullCycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("50"))

	require.NoError(t, fx.svc.Create(ctx, doc))

	src := fx.store.MustRecord(fx.sourceKey())
	assert.Equal(t, types.MustQuantity("100"), src.OnHand)
	assert.Equal(t, types.MustQuantity("50"), src.Locked)

	require.NoError(t, fx.svc.Approve(ctx, doc.ID, "supervisor"))

	src = fx.store.MustRecord(fx.sourceKey())
	assert.Equal(t, types.MustQuantity("50"), src.OnHand)
	assert.Equal(t, types.Quantity(0), src.Locked)

	dst := fx.store.MustRecord(fx.destKey())
	assert.Equal(t, types.MustQuantity("50"), dst.OnHand)

	// Source history carries a -50 transfer-out, destination a +50 transfer-in.
	var outs, ins int
	for _, e := range fx.store.History {
		switch e.Action {
		case ledger.ActionTransferOut:
			outs++
			assert.Equal(t, types.MustQuantity("-50"), e.QuantityChange)
			assert.Equal(t, fx.srcLoc, e.LocationID)
		case ledger.ActionTransferIn:
			ins++
			assert.Equal(t, types.MustQuantity("50"), e.QuantityChange)
			assert.Equal(t, fx.dstLoc, e.LocationID)
		}
	}
	assert.Equal(t, 1, outs)
	assert.Equal(t, 1, ins)

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, "supervisor", stored.ApprovedBy)
	require.NotNil(t, stored.ApprovedAt)

	// Balance replay matches at both ends.
	for _, key := range []ledger.Key{fx.sourceKey(), fx.destKey()} {
		_, ok, err := fx.ledger.VerifyBalance(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCreate_InsufficientAvailable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.ledger.LockStock(ctx, fx.sourceKey(), types.MustQuantity("60"), "GI-1", ""))

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("50"))

	err := fx.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientAvailable))
	assert.Empty(t, fx.repo.docs)
}

func TestCreate_TracksInTransitAtDestination(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("50"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	dst := fx.store.MustRecord(fx.destKey())
	assert.Equal(t, types.Quantity(0), dst.OnHand)
	assert.Equal(t, types.MustQuantity("50"), dst.InTransit)

	require.NoError(t, fx.svc.Approve(ctx, doc.ID, "supervisor"))

	dst = fx.store.MustRecord(fx.destKey())
	assert.Equal(t, types.MustQuantity("50"), dst.OnHand)
	assert.Equal(t, types.Quantity(0), dst.InTransit)

	// Transit entries do not contribute to the replayed balance.
	sum, ok, err := fx.ledger.VerifyBalance(ctx, fx.destKey())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.MustQuantity("50"), sum)
}

func TestCreate_SameSourceAndDestination(t *testing.T) {
	fx := newFixture(t)

	doc := New("mover", fx.srcWh, fx.srcWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.srcLoc, types.MustQuantity("10"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestCreate_LockedWarehouse(t *testing.T) {
	fx := newFixture(t)
	fx.dir.lockedWarehouses[fx.dstWh] = true

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("10"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeWarehouseLocked))
}

func TestCreate_LockSeenThroughStaleCache(t *testing.T) {
	fx := newFixture(t)
	fx.dir.lockedWarehouses[fx.dstWh] = true
	fx.dir.staleCache = true

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("10"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeWarehouseLocked))
	assert.Empty(t, fx.repo.docs)

	src := fx.store.MustRecord(fx.sourceKey())
	assert.Equal(t, types.Quantity(0), src.Locked)
}

func TestCancel_ReleasesSourceLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("50"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.Cancel(ctx, doc.ID, "supervisor"))

	src := fx.store.MustRecord(fx.sourceKey())
	assert.Equal(t, types.MustQuantity("100"), src.OnHand)
	assert.Equal(t, types.Quantity(0), src.Locked)

	dst := fx.store.MustRecord(fx.destKey())
	assert.Equal(t, types.Quantity(0), dst.InTransit)

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestCancel_ApprovedTransferRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("mover", fx.srcWh, fx.dstWh)
	doc.AddLine(fx.product, fx.srcLoc, fx.dstLoc, types.MustQuantity("50"))
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Approve(ctx, doc.ID, "supervisor"))

	err := fx.svc.Cancel(ctx, doc.ID, "supervisor")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}
