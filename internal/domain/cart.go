package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (user, product) line of a cart.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartLine is a cart item joined with the product it refers to.
type CartLine struct {
	CartItem
	Product Product `json:"product"`
}

func (l CartLine) UnitPrice() decimal.Decimal {
	return l.Product.EffectivePrice()
}

func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartSummary struct {
	Lines []CartLine      `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}
