// Package promotion derives discount figures for products on sale.
//
// Promotions are never stored: they are recomputed from the live product
// set every time they are requested.
package promotion

import (
	"context"

	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Promotion pairs a product with the discount its promotional price gives.
type Promotion struct {
	Product            domain.Product  `json:"product"`
	DiscountPercentage int             `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
}

// Qualifies reports whether p has a promotional price below its list price.
// Products with a zero price never qualify.
func Qualifies(p domain.Product) bool {
	return p.HasActivePromotion()
}

// For computes the promotion of a single product.
func For(p domain.Product) (Promotion, bool) {
	if !Qualifies(p) {
		return Promotion{}, false
	}
	amount := p.Price.Sub(*p.PromotionalPrice)
	pct := amount.Div(p.Price).Mul(hundred).Round(0)
	return Promotion{
		Product:            p,
		DiscountPercentage: int(pct.IntPart()),
		DiscountAmount:     amount,
	}, true
}

// Derive returns the promotions of the qualifying products, keeping the
// input order.
func Derive(products []domain.Product) []Promotion {
	out := make([]Promotion, 0, len(products))
	for _, p := range products {
		if promo, ok := For(p); ok {
			out = append(out, promo)
		}
	}
	return out
}

type productLister interface {
	ListPromotional(ctx context.Context) ([]domain.Product, error)
}

// Service composes the promotion listing from the product repository.
type Service struct {
	products productLister
}

func NewService(products productLister) *Service {
	return &Service{products: products}
}

// Active loads the products currently on sale and derives their discounts.
func (s *Service) Active(ctx context.Context) ([]Promotion, error) {
	products, err := s.products.ListPromotional(ctx)
	if err != nil {
		return nil, err
	}
	return Derive(products), nil
}
