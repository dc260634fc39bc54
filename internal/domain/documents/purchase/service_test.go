package purchase

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
)

type fakeRepo struct {
	docs  map[id.ID]*PurchaseOrder
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*PurchaseOrder), lines: make(map[id.ID][]Line)}
}

func (r *fakeRepo) Create(_ context.Context, doc *PurchaseOrder) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", docID)
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, number string) (*PurchaseOrder, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (r *fakeRepo) Update(_ context.Context, doc *PurchaseOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("purchase order", doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return domain.ListResult[*PurchaseOrder]{}, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, numerator.NewMockGenerator(), passthroughTx{}), repo
}

func TestCreate_GeneratesNumberAndTotal(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	doc := New("buyer", id.New(), id.New())
	doc.AddLine(id.New(), types.MustQuantity("10"), types.MustMoney("99.90"))
	doc.AddLine(id.New(), types.MustQuantity("2"), types.MustMoney("5"))

	require.NoError(t, svc.Create(ctx, doc))
	assert.NotEmpty(t, doc.Number)
	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("1009")))

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Len(t, repo.lines[doc.ID], 2)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("no lines", func(t *testing.T) {
		doc := New("buyer", id.New(), id.New())
		err := svc.Create(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("duplicate product", func(t *testing.T) {
		doc := New("buyer", id.New(), id.New())
		product := id.New()
		doc.AddLine(product, types.MustQuantity("1"), types.MustMoney("1"))
		doc.AddLine(product, types.MustQuantity("2"), types.MustMoney("1"))
		err := svc.Create(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestApproveReject_Transitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc := New("buyer", id.New(), id.New())
	doc.AddLine(id.New(), types.MustQuantity("1"), types.MustMoney("1"))
	require.NoError(t, svc.Create(ctx, doc))

	require.NoError(t, svc.Approve(ctx, doc.ID, "manager"))

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, "manager", stored.ApprovedBy)

	// Approved orders cannot be approved or rejected again.
	err = svc.Approve(ctx, doc.ID, "manager")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	err = svc.Reject(ctx, doc.ID, "manager")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestApprove_MissingOrder(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Approve(context.Background(), id.New(), "manager")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRemainingQty(t *testing.T) {
	product := id.New()
	doc := New("buyer", id.New(), id.New())
	doc.AddLine(product, types.MustQuantity("10"), types.MustMoney("1"))
	doc.Lines[0].ReceivedQty = types.MustQuantity("8")

	assert.Equal(t, types.MustQuantity("2"), doc.RemainingQty(product))
	assert.Equal(t, types.Quantity(0), doc.RemainingQty(id.New()))
}
