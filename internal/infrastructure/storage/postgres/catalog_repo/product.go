package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockyard/internal/domain/directory"
	"stockyard/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements directory.ProductRepository.
type ProductRepo struct {
	*BaseCatalogRepo[*directory.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productsTable,
			postgres.ExtractDBColumns[directory.Product](),
			func() *directory.Product { return &directory.Product{} },
		),
	}
}

// List returns products ordered by code.
func (r *ProductRepo) List(ctx context.Context, activeOnly bool) ([]directory.Product, error) {
	q := r.baseSelect().OrderBy("code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	var products []directory.Product
	if err := r.selectAll(ctx, q, &products); err != nil {
		return nil, err
	}

	return products, nil
}

// Ensure interface compliance.
var _ directory.ProductRepository = (*ProductRepo)(nil)
