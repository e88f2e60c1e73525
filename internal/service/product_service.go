package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/repository"

	"github.com/google/uuid"
)

// ProductService provides product listing business logic.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService returns a new ProductService.
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput describes a new listing.
type CreateProductInput struct {
	ProductName string
	Category    string
	Description string
	OwnerID     string
}

// ListProducts returns every product, newest first.
func (s *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(products, func(a, b *models.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// CreateProduct stores a listing with empty trade books.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return nil, models.NewValidationError("Product name is required")
	}
	if len(name) > 200 {
		return nil, models.NewValidationError("Product name must be 200 characters or less")
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		ProductName: name,
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		CreatedBy:   in.OwnerID,
		CreatedAt:   time.Now().UTC(),
		Bids:        []models.Trade{},
		Asks:        []models.Trade{},
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits listing fields. Only the owner may do so.
func (s *ProductService) UpdateProduct(ctx context.Context, id, requesterID string, patch models.ProductPatch) (*models.Product, error) {
	if patch.ProductName != nil && strings.TrimSpace(*patch.ProductName) == "" {
		return nil, models.NewValidationError("Product name is required")
	}
	return s.productRepo.Update(ctx, id, func(p *models.Product) error {
		if p.CreatedBy != requesterID {
			return models.NewUnauthorizedError("Only the owner can edit this product")
		}
		if patch.ProductName != nil {
			p.ProductName = strings.TrimSpace(*patch.ProductName)
		}
		if patch.Category != nil {
			p.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		return nil
	})
}

// DeleteProduct removes a listing owned by requesterID.
func (s *ProductService) DeleteProduct(ctx context.Context, id, requesterID string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.CreatedBy != requesterID {
		return models.NewUnauthorizedError("Only the owner can delete this product")
	}
	return s.productRepo.Delete(ctx, id)
}
