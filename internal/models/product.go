package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide selects which of a product's two trade books an operation targets.
type TradeSide string

const (
	SideBid TradeSide = "bid"
	SideAsk TradeSide = "ask"
)

// ParseTradeSide accepts "bid"/"ask" and their plural route forms.
func ParseTradeSide(s string) (TradeSide, error) {
	switch s {
	case "bid", "bids":
		return SideBid, nil
	case "ask", "asks":
		return SideAsk, nil
	}
	return "", NewValidationError("Trade type must be bid or ask")
}

// Trade is a bid or ask posted against a product. Only UserID may change it.
type Trade struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Address   string          `json:"address"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	CreatedAt time.Time       `json:"created_at"`
}

// TradePatch carries the mutable trade fields; nil fields are left unchanged.
type TradePatch struct {
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity"`
	Address  *string          `json:"address"`
}

// Apply merges the patch into t.
func (p TradePatch) Apply(t *Trade) {
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Address != nil {
		t.Address = *p.Address
	}
}

// Product is a listing together with the bids and asks posted against it.
type Product struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Bids        []Trade   `json:"bids"`
	Asks        []Trade   `json:"asks"`
}

func (p *Product) GetID() string   { return p.ID }
func (p *Product) SetID(id string) { p.ID = id }

// Book returns the trade collection for side.
func (p *Product) Book(side TradeSide) (*[]Trade, error) {
	switch side {
	case SideBid:
		return &p.Bids, nil
	case SideAsk:
		return &p.Asks, nil
	}
	return nil, NewValidationError("Trade type must be bid or ask")
}

// FindTrade looks the trade up in both books.
func (p *Product) FindTrade(tradeID string) (*Trade, bool) {
	for _, book := range [][]Trade{p.Bids, p.Asks} {
		for i := range book {
			if book[i].ID == tradeID {
				return &book[i], true
			}
		}
	}
	return nil, false
}

// ProductPatch carries editable listing fields.
type ProductPatch struct {
	ProductName *string `json:"product_name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}
