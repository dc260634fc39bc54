package receipt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
	"stockyard/internal/domain/directory"
	"stockyard/internal/domain/documents/purchase"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*GoodsReceipt
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*GoodsReceipt), lines: make(map[id.ID][]Line)}
}

func (r *fakeRepo) Create(_ context.Context, doc *GoodsReceipt) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*GoodsReceipt, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("goods receipt", docID)
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Delete(_ context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) SumReceivedByOrder(_ context.Context, poID id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity)
	for docID, doc := range r.docs {
		if doc.PurchaseOrderID != poID {
			continue
		}
		for _, line := range r.lines[docID] {
			out[line.ProductID] += line.Quantity
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	return domain.ListResult[*GoodsReceipt]{}, nil
}

func (r *fakeRepo) Snapshot() any {
	docs := make(map[id.ID]GoodsReceipt, len(r.docs))
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
	docs := snap[0].(map[id.ID]GoodsReceipt)
	r.docs = make(map[id.ID]*GoodsReceipt, len(docs))
	for k, v := range docs {
		cp := v
		r.docs[k] = &cp
	}
	r.lines = snap[1].(map[id.ID][]Line)
}

type fakeOrders struct {
	docs map[id.ID]*purchase.PurchaseOrder
}

func (o *fakeOrders) GetForUpdate(_ context.Context, docID id.ID) (*purchase.PurchaseOrder, error) {
	po, ok := o.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", docID)
	}
	cp := *po
	cp.Lines = append([]purchase.Line(nil), po.Lines...)
	return &cp, nil
}

func (o *fakeOrders) SaveLines(_ context.Context, docID id.ID, lines []purchase.Line) error {
	po, ok := o.docs[docID]
	if !ok {
		return apperror.NewNotFound("purchase order", docID)
	}
	po.Lines = append([]purchase.Line(nil), lines...)
	return nil
}

func (o *fakeOrders) Snapshot() any {
	docs := make(map[id.ID]purchase.PurchaseOrder, len(o.docs))
	for k, v := range o.docs {
		cp := *v
		cp.Lines = append([]purchase.Line(nil), v.Lines...)
		docs[k] = cp
	}
	return docs
}

func (o *fakeOrders) Restore(snapshot any) {
	docs := snapshot.(map[id.ID]purchase.PurchaseOrder)
	o.docs = make(map[id.ID]*purchase.PurchaseOrder, len(docs))
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
	defaultReceiving map[id.ID]*directory.Location
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

func (d *fakeDirectory) ResolveReceivingLocation(_ context.Context, whID id.ID, requested *id.ID) (*directory.Location, error) {
	if requested != nil && !id.IsNil(*requested) {
		loc := directory.NewLocation(whID, "REQ", "Requested", directory.KindStorage)
		loc.ID = *requested
		return loc, nil
	}
	loc, ok := d.defaultReceiving[whID]
	if !ok {
		return nil, apperror.NewNotFound("default receiving location", whID)
	}
	return loc, nil
}

// failingLedger fails the n-th Adjust call, after delegating earlier
// calls to the real ledger service.
type failingLedger struct {
	inner   Ledger
	failOn  int
	current int
}

func (f *failingLedger) Adjust(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error {
	f.current++
	if f.current == f.failOn {
		return errors.New("ledger write failed")
	}
	return f.inner.Adjust(ctx, key, qty, action, refCode, note)
}

type receiptFixture struct {
	svc     *Service
	repo    *fakeRepo
	orders  *fakeOrders
	store   *ledgertest.Store
	dir     *fakeDirectory
	po      *purchase.PurchaseOrder
	product id.ID
	wh      id.ID
	recvLoc id.ID
}

func newFixture(t *testing.T, ledgerOverride func(Ledger) Ledger) *receiptFixture {
	t.Helper()

	wh := id.New()
	product := id.New()

	store := ledgertest.NewStore()
	repo := newFakeRepo()

	po := purchase.New("buyer", id.New(), wh)
	po.AddLine(product, types.MustQuantity("10"), types.MustMoney("100"))
	po.Status = purchase.StatusApproved
	orders := &fakeOrders{docs: map[id.ID]*purchase.PurchaseOrder{po.ID: po}}

	txm := ledgertest.NewTxManager(store, repo, orders)
	ledgerSvc := ledger.NewService(store, txm)

	recvLoc := directory.NewLocation(wh, "RCV", "Dock", directory.KindReceiving)
	dir := &fakeDirectory{
		lockedWarehouses: make(map[id.ID]bool),
		defaultReceiving: map[id.ID]*directory.Location{wh: recvLoc},
	}

	var ldgr Ledger = ledgerSvc
	if ledgerOverride != nil {
		ldgr = ledgerOverride(ledgerSvc)
	}

	svc := NewService(repo, orders, ldgr, dir, numerator.NewMockGenerator(), txm)
	return &receiptFixture{
		svc:     svc,
		repo:    repo,
		orders:  orders,
		store:   store,
		dir:     dir,
		po:      po,
		product: product,
		wh:      wh,
		recvLoc: recvLoc.ID,
	}
}

func TestCreate_PostsStockAndRollsUpOrder(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("4"))

	require.NoError(t, fx.svc.Create(ctx, doc))

	key := ledger.Key{WarehouseID: fx.wh, LocationID: fx.recvLoc, ProductID: fx.product}
	rec := fx.store.MustRecord(key)
	assert.Equal(t, types.MustQuantity("4"), rec.OnHand)

	require.Len(t, fx.store.History, 1)
	assert.Equal(t, ledger.ActionReceive, fx.store.History[0].Action)
	assert.Equal(t, doc.Number, fx.store.History[0].ReferenceCode)

	po, err := fx.orders.GetForUpdate(ctx, fx.po.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("4"), po.Lines[0].ReceivedQty)
}

func TestCreate_OverReceipt(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	// 8 of 10 already received on the order.
	fx.po.Lines[0].ReceivedQty = types.MustQuantity("8")

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("5"))

	err := fx.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))

	// Full rollback: no receipt row, no ledger record, no history.
	assert.Empty(t, fx.repo.docs)
	assert.Empty(t, fx.store.Records)
	assert.Empty(t, fx.store.History)
}

func TestCreate_OrderNotApproved(t *testing.T) {
	fx := newFixture(t, nil)
	fx.po.Status = purchase.StatusPending

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Empty(t, fx.repo.docs)
}

func TestCreate_ProductNotOnOrder(t *testing.T) {
	fx := newFixture(t, nil)

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(id.New(), nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestCreate_WarehouseLocked(t *testing.T) {
	fx := newFixture(t, nil)
	fx.dir.lockedWarehouses[fx.wh] = true

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeWarehouseLocked))
}

func TestCreate_LockSeenThroughStaleCache(t *testing.T) {
	fx := newFixture(t, nil)
	fx.dir.lockedWarehouses[fx.wh] = true
	fx.dir.staleCache = true

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeWarehouseLocked))
	assert.Empty(t, fx.repo.docs)
	assert.Empty(t, fx.store.History)
}

func TestCreate_MissingWarehouse(t *testing.T) {
	fx := newFixture(t, nil)

	doc := New("storekeeper", fx.po.ID, id.Nil())
	doc.AddLine(fx.product, nil, types.MustQuantity("1"))

	err := fx.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestCreate_RollbackWhenLaterLineFails(t *testing.T) {
	fx := newFixture(t, func(inner Ledger) Ledger {
		return &failingLedger{inner: inner, failOn: 2}
	})
	ctx := context.Background()

	// Second product on the order so the receipt has two ledger calls.
	product2 := id.New()
	fx.po.AddLine(product2, types.MustQuantity("5"), types.MustMoney("50"))

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("3"))
	doc.AddLine(product2, nil, types.MustQuantity("2"))

	err := fx.svc.Create(ctx, doc)
	require.Error(t, err)

	// First line's ledger write is rolled back with everything else.
	assert.Empty(t, fx.repo.docs)
	assert.Empty(t, fx.store.Records)
	assert.Empty(t, fx.store.History)

	po, err := fx.orders.GetForUpdate(ctx, fx.po.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), po.Lines[0].ReceivedQty)
}

func TestCancel_ReversesReceipt(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	doc := New("storekeeper", fx.po.ID, fx.wh)
	doc.AddLine(fx.product, nil, types.MustQuantity("4"))
	require.NoError(t, fx.svc.Create(ctx, doc))

	require.NoError(t, fx.svc.Cancel(ctx, doc.ID, "supervisor"))

	key := ledger.Key{WarehouseID: fx.wh, LocationID: fx.recvLoc, ProductID: fx.product}
	rec := fx.store.MustRecord(key)
	assert.Equal(t, types.Quantity(0), rec.OnHand)

	// Receive then the reversing decrease.
	require.Len(t, fx.store.History, 2)
	assert.Equal(t, ledger.ActionAdjustDecrease, fx.store.History[1].Action)

	_, err := fx.repo.GetByID(ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))

	po, err := fx.orders.GetForUpdate(ctx, fx.po.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), po.Lines[0].ReceivedQty)
}
