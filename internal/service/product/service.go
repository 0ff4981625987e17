package product

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	"lojavirtual/internal/promotion"
	productrepo "lojavirtual/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Listing is a catalog entry, carrying its discount when on sale.
type Listing struct {
	domain.Product
	Discount *Discount `json:"discount,omitempty"`
}

type Discount struct {
	Percentage int             `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *Service) List(ctx context.Context) ([]Listing, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(products))
	for _, p := range products {
		out = append(out, listing(p))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ProductNotFound(id).Wrap(err)
		}
		return nil, err
	}
	l := listing(*p)
	return &l, nil
}

// Upsert validates p and stores it by SKU.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, p)
}

func validate(p domain.Product) error {
	switch {
	case p.SKU == "":
		return domain.InvalidProductData("O SKU do produto é obrigatório")
	case p.Name == "":
		return domain.InvalidProductData("O nome do produto é obrigatório")
	case !p.Price.IsPositive():
		return domain.InvalidProductData("O preço deve ser maior que zero")
	case p.PromotionalPrice != nil && p.PromotionalPrice.IsNegative():
		return domain.InvalidProductData("O preço promocional não pode ser negativo")
	}
	return nil
}

func listing(p domain.Product) Listing {
	l := Listing{Product: p}
	if promo, ok := promotion.For(p); ok {
		l.Discount = &Discount{Percentage: promo.DiscountPercentage, Amount: promo.DiscountAmount}
	}
	return l
}
