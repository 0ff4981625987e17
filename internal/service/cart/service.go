package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	cartrepo "lojavirtual/internal/repository/cart"
	"lojavirtual/internal/telemetry"
	"lojavirtual/internal/validation"
)

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo     cartrepo.Repository
	products productRepo
	rule     validation.QuantityRule
	metrics  *telemetry.BusinessMetrics
}

func New(repo cartrepo.Repository, products productRepo, rule validation.QuantityRule, metrics *telemetry.BusinessMetrics) *Service {
	return &Service{repo: repo, products: products, rule: rule, metrics: metrics}
}

// Rule exposes the quantity rule the service enforces.
func (s *Service) Rule() validation.QuantityRule {
	return s.rule
}

func (s *Service) Items(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// Summary returns the lines with their count and total at current prices.
func (s *Service) Summary(ctx context.Context, userID int64) (*domain.CartSummary, error) {
	lines, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.CartSummary{Lines: lines, Total: decimal.Zero}
	for _, l := range lines {
		summary.Count += l.Quantity
		summary.Total = summary.Total.Add(l.Total())
	}
	return summary, nil
}

// Add puts quantity units of a product in the cart. A product already in
// the cart has its quantity increased; the merged quantity must still pass
// the quantity rule.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (item *domain.CartItem, err error) {
	defer func() {
		s.metrics.CartOperation("add", err)
		if err == nil {
			s.metrics.ItemsAdded(quantity)
		}
	}()

	if _, err := s.rule.Validate(quantity); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, productID); err != nil {
		return nil, err
	}

	// A concurrent insert of the same line surfaces as ErrAlreadyExists;
	// the second pass merges into it.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.repo.Find(ctx, userID, productID)
		switch {
		case err == nil:
			return s.merge(ctx, existing, quantity)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}

		created, err := s.repo.Create(ctx, userID, productID, quantity)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("add product %d to cart of user %d: conflicting writes", productID, userID)
}

func (s *Service) merge(ctx context.Context, existing *domain.CartItem, quantity int) (*domain.CartItem, error) {
	merged, err := s.rule.Validate(existing.Quantity + quantity)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Update(ctx, existing.UserID, existing.ProductID, merged)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.CartItemNotFound(existing.ProductID)
	}
	out := *existing
	out.Quantity = merged
	return &out, nil
}

// Update sets the quantity of a product already in the cart.
func (s *Service) Update(ctx context.Context, userID, productID int64, quantity int) (err error) {
	defer func() { s.metrics.CartOperation("update", err) }()

	if _, err := s.rule.Validate(quantity); err != nil {
		return err
	}
	ok, err := s.repo.Update(ctx, userID, productID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return domain.CartItemNotFound(productID)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, productID int64) (err error) {
	defer func() { s.metrics.CartOperation("remove", err) }()

	ok, err := s.repo.Delete(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.CartItemNotFound(productID)
	}
	return nil
}

// Clear empties the cart and returns how many lines were removed.
// Clearing an empty cart fails with CartEmpty.
func (s *Service) Clear(ctx context.Context, userID int64) (removed int64, err error) {
	defer func() { s.metrics.CartOperation("clear", err) }()

	removed, err = s.repo.Clear(ctx, userID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, domain.CartEmpty()
	}
	return removed, nil
}

// Count is the number of units in the cart.
func (s *Service) Count(ctx context.Context, userID int64) (int, error) {
	return s.repo.Count(ctx, userID)
}

func (s *Service) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.repo.Total(ctx, userID)
}

func (s *Service) ensureAvailable(ctx context.Context, productID int64) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ProductNotFound(productID).Wrap(err)
		}
		return err
	}
	if !p.Active {
		return domain.ProductUnavailable(productID)
	}
	return nil
}
