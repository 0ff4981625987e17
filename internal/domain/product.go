package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID               int64            `json:"id"`
	SKU              string           `json:"sku"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	PromotionalPrice *decimal.Decimal `json:"promotionalPrice,omitempty"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// HasActivePromotion reports whether the promotional price applies.
func (p Product) HasActivePromotion() bool {
	if !p.Active || p.PromotionalPrice == nil {
		return false
	}
	if !p.Price.IsPositive() {
		return false
	}
	return p.PromotionalPrice.LessThan(p.Price)
}

// EffectivePrice is the unit price charged in a cart.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasActivePromotion() {
		return *p.PromotionalPrice
	}
	return p.Price
}
