package repository

import (
	"context"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
)

// ProductRepository defines data access methods for product documents and
// the trades embedded in them.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id string, fn func(*models.Product) error) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	docs docstore.Collection[*models.Product]
}

// NewProductRepository returns a ProductRepository over the products collection.
func NewProductRepository(docs docstore.Collection[*models.Product]) ProductRepository {
	return &productRepository{docs: docs}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "Product not found")
	}
	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	products, err := r.docs.List(ctx)
	return products, mapStoreError(err, "Product not found")
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return mapStoreError(r.docs.Create(ctx, product), "Product not found")
}

func (r *productRepository) Update(ctx context.Context, id string, fn func(*models.Product) error) (*models.Product, error) {
	product, err := r.docs.Mutate(ctx, id, fn)
	if err != nil {
		return nil, mapStoreError(err, "Product not found")
	}
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return mapStoreError(r.docs.Delete(ctx, id), "Product not found")
}
