// Package service implements the marketplace workflows on top of the repositories.
package service

import (
	"context"
	"strings"
	"time"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeService manages the bid and ask books embedded in products.
type TradeService struct {
	productRepo repository.ProductRepository
}

// NewTradeService returns a new TradeService.
func NewTradeService(productRepo repository.ProductRepository) *TradeService {
	return &TradeService{productRepo: productRepo}
}

// CreateTradeInput is a new bid or ask posted by the caller.
type CreateTradeInput struct {
	ProductID string
	Side      models.TradeSide
	UserID    string
	Username  string
	Price     decimal.Decimal
	Quantity  int
	Address   string
}

// UpdateTradeInput patches a trade owned by RequesterID.
type UpdateTradeInput struct {
	ProductID   string
	TradeID     string
	Side        models.TradeSide
	RequesterID string
	Patch       models.TradePatch
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return models.NewValidationError("Price must be greater than zero")
	}
	return nil
}

func validateQuantity(q int) error {
	if q <= 0 {
		return models.NewValidationError("Quantity must be greater than zero")
	}
	return nil
}

// CreateTrade appends a trade to the product's book for in.Side.
func (s *TradeService) CreateTrade(ctx context.Context, in CreateTradeInput) (*models.Product, error) {
	ctx, span := observability.StartServiceSpan(ctx, "TradeService", "CreateTrade")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err = validateQuantity(in.Quantity); err != nil {
		return nil, err
	}

	trade := models.Trade{
		ID:        uuid.NewString(),
		Price:     in.Price,
		Quantity:  in.Quantity,
		Address:   strings.TrimSpace(in.Address),
		UserID:    in.UserID,
		Username:  in.Username,
		CreatedAt: time.Now().UTC(),
	}

	var product *models.Product
	product, err = s.productRepo.Update(ctx, in.ProductID, func(p *models.Product) error {
		book, err := p.Book(in.Side)
		if err != nil {
			return err
		}
		*book = append(*book, trade)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateTrade merges the patch into a trade. A trade owned by someone else
// is reported exactly like a missing one.
func (s *TradeService) UpdateTrade(ctx context.Context, in UpdateTradeInput) (*models.Product, error) {
	if in.Patch.Price != nil {
		if err := validatePrice(*in.Patch.Price); err != nil {
			return nil, err
		}
	}
	if in.Patch.Quantity != nil {
		if err := validateQuantity(*in.Patch.Quantity); err != nil {
			return nil, err
		}
	}

	return s.productRepo.Update(ctx, in.ProductID, func(p *models.Product) error {
		book, err := p.Book(in.Side)
		if err != nil {
			return err
		}
		idx := ownedTradeIndex(*book, in.TradeID, in.RequesterID)
		if idx < 0 {
			return models.NewNotFoundError("Trade not found")
		}
		in.Patch.Apply(&(*book)[idx])
		return nil
	})
}

// DeleteTrade removes a trade owned by requesterID.
func (s *TradeService) DeleteTrade(ctx context.Context, productID, tradeID, requesterID string, side models.TradeSide) (*models.Product, error) {
	return s.productRepo.Update(ctx, productID, func(p *models.Product) error {
		book, err := p.Book(side)
		if err != nil {
			return err
		}
		idx := ownedTradeIndex(*book, tradeID, requesterID)
		if idx < 0 {
			return models.NewNotFoundError("Trade not found")
		}
		*book = append((*book)[:idx], (*book)[idx+1:]...)
		return nil
	})
}

func ownedTradeIndex(book []models.Trade, tradeID, ownerID string) int {
	for i := range book {
		if book[i].ID == tradeID && book[i].UserID == ownerID {
			return i
		}
	}
	return -1
}
