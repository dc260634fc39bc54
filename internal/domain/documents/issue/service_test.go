package issue

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
	"stockyard/internal/domain/documents/sales"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*GoodsIssue
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*GoodsIssue), lines: make(map[id.ID][]Line)}
}

func (r *fakeRepo) Create(_ context.Context, doc *GoodsIssue) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*GoodsIssue, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("goods issue", docID)
	}
	cp := *doc
	cp.Lines = append([]Line(nil), r.lines[docID]...)
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, doc *GoodsIssue) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("goods issue", doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*GoodsIssue, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*GoodsIssue], error) {
	return domain.ListResult[*GoodsIssue]{}, nil
}

func (r *fakeRepo) Snapshot() any {
	docs := make(map[id.ID]GoodsIssue, len(r.docs))
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
	docs := snap[0].(map[id.ID]GoodsIssue)
	r.docs = make(map[id.ID]*GoodsIssue, len(docs))
	for k, v := range docs {
		cp := v
		r.docs[k] = &cp
	}
	r.lines = snap[1].(map[id.ID][]Line)
}

type fakeOrders struct {
	docs map[id.ID]*sales.SalesOrder
}

func (o *fakeOrders) GetForUpdate(_ context.Context, docID id.ID) (*sales.SalesOrder, error) {
	so, ok := o.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sales order", docID)
	}
	cp := *so
	cp.Lines = append([]sales.Line(nil), so.Lines...)
	return &cp, nil
}

func (o *fakeOrders) SaveLines(_ context.Context, docID id.ID, lines []sales.Line) error {
	so, ok := o.docs[docID]
	if !ok {
		return apperror.NewNotFound("sales order", docID)
	}
	so.Lines = append([]sales.Line(nil), lines...)
	return nil
}

func (o *fakeOrders) Snapshot() any {
	docs := make(map[id.ID]sales.SalesOrder, len(o.docs))
	for k, v := range o.docs {
		cp := *v
		cp.Lines = append([]sales.Line(nil), v.Lines...)
		docs[k] = cp
	}
	return docs
}

func (o *fakeOrders) Restore(snapshot any) {
	docs := snapshot.(map[id.ID]sales.SalesOrder)
	o.docs = make(map[id.ID]*sales.SalesOrder, len(docs))
	for k, v := range docs {
		cp := v
		o.docs[k] = &cp
	}
}

// staleCache makes the cached pre-check report unlocked even when the
// warehouse is locked, mimicking a TTL cache that missed the change.
type fakeDirectory struct {
	lockedWarehouses map[id.ID]bool
	staleCache       bool
	defaultShipping  map[id.ID]*directory.Location
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

func (d *fakeDirectory) ResolveShippingLocation(_ context.Context, whID id.ID, requested *id.ID) (*directory.Location, error) {
	if requested != nil && !id.IsNil(*requested) {
		loc := directory.NewLocation(whID, "REQ", "Requested", directory.KindStorage)
		loc.ID = *requested
		return loc, nil
	}
	loc, ok := d.defaultShipping[whID]
	if !ok {
		return nil, apperror.NewNotFound("default shipping location", whID)
	}
	return loc, nil
}

type issueFixture struct {
	svc     *Service
	repo    *fakeRepo
	orders  *fakeOrders
	store   *ledgertest.Store
	ledger  *ledger.Service
	dir     *fakeDirectory
	so      *sales.SalesOrder
	product id.ID
	wh      id.ID
	shipLoc id.ID
}

func newFixture(t *testing.T) *issueFixture {
	t.Helper()

	wh := id.New()
	product := id.New()

	store := ledgertest.NewStore()
	repo := newFakeRepo()

	so := sales.New("seller", id.New(), wh)
	so.AddLine(product, types.MustQuantity("6"), types.MustMoney("20"))
	so.Status = sales.StatusApproved
	orders := &fakeOrders{docs: map[id.ID]*sales.SalesOrder{so.ID: so}}

	txm := ledgertest.NewTxManager(store, repo, orders)
	ledgerSvc := ledger.NewService(store, txm)

	shipLoc := directory.NewLocation(wh, "SHP", "Outbound dock", directory.KindShipping)
	dir := &fakeDirectory{
		lockedWarehouses: make(map[id.ID]bool),
		defaultShipping:  map[id.ID]*directory.Location{wh: shipLoc},
	}

	svc := NewService(repo, orders, ledgerSvc, dir, numerator.NewMockGenerator(), txm)

	fx := &issueFixture{
		svc:     svc,
		repo:    repo,
		orders:  orders,
		store:   store,
		ledger:  ledgerSvc,
		dir:     dir,
		so:      so,
		product: product,
		wh:      wh,
		shipLoc: shipLoc.ID,
	}

	// Seed stock at the shipping location.
	key := ledger.Key{WarehouseID: wh, LocationID: shipLoc.ID, ProductID: product}
	require.NoError(t, ledgerSvc.Adjust(context.Background(), key, types.MustQuantity("100"), ledger.ActionReceive, "GR-SEED", ""))

	return fx
}

func (fx *issueFixture) key() ledger.Key {
	return ledger.Key{WarehouseID: fx.wh, LocationID: fx.shipLoc, ProductID: fx.product}
}

func TestCreate_LocksStock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("6"))

	require.NoError(t, fx.svc.Create(ctx, doc))

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("100"), rec.OnHand)
	assert.Equal(t, types.MustQuantity("6"), rec.Locked)

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestCreate_InsufficientAvailableRollsBack(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Lock 70 of 100 first, leaving 30 available.
	require.NoError(t, fx.ledger.LockStock(ctx, fx.key(), types.MustQuantity("70"), "GI-OTHER", ""))

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("80"))

	err := fx.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientAvailable))

	// State unchanged and no issue document persisted.
	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("70"), rec.Locked)
	assert.Empty(t, fx.repo.docs)
}

func TestCreate_LockSeenThroughStaleCache(t *testing.T) {
	fx := newFixture(t)
	fx.dir.lockedWarehouses[fx.wh] = true
	fx.dir.staleCache = true

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("2"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeWarehouseLocked))
	assert.Empty(t, fx.repo.docs)
	assert.Equal(t, types.Quantity(0), fx.store.MustRecord(fx.key()).Locked)
}

func TestCreate_OrderNotApproved(t *testing.T) {
	fx := newFixture(t)
	fx.so.Status = sales.StatusDraft

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestComplete_ConsumesReservation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("6"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.StartPicking(ctx, doc.ID, "picker"))
	require.NoError(t, fx.svc.Complete(ctx, doc.ID, "picker"))

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("94"), rec.OnHand)
	assert.Equal(t, types.Quantity(0), rec.Locked)

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, "picker", stored.CompletedBy)
	require.NotNil(t, stored.CompletedAt)

	so, err := fx.orders.GetForUpdate(ctx, fx.so.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("6"), so.Lines[0].IssuedQty)

	// History balance replay still matches on-hand.
	sum, ok, err := fx.ledger.VerifyBalance(ctx, fx.key())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.MustQuantity("94"), sum)
}

func TestComplete_FromPendingWithoutPicking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("2"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.Complete(ctx, doc.ID, "picker"))

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestComplete_IllegalFromCompleted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("2"))
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.Complete(ctx, doc.ID, "picker"))

	err := fx.svc.Complete(ctx, doc.ID, "picker")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestCancel_ReleasesReservation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("6"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.Cancel(ctx, doc.ID, "supervisor"))

	rec := fx.store.MustRecord(fx.key())
	assert.Equal(t, types.MustQuantity("100"), rec.OnHand)
	assert.Equal(t, types.Quantity(0), rec.Locked)

	stored, err := fx.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	// A cancelled issue cannot be completed.
	err = fx.svc.Complete(ctx, doc.ID, "picker")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestStartPicking_OnlyFromPending(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc := New("picker", fx.so.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))
	require.NoError(t, fx.svc.Create(ctx, doc))
	require.NoError(t, fx.svc.StartPicking(ctx, doc.ID, "picker"))

	err := fx.svc.StartPicking(ctx, doc.ID, "picker")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}
