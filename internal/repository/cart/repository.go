package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
)

// Repository persists cart items. Every operation is scoped to one user.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Find(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
	Create(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error)
	Update(ctx context.Context, userID, productID int64, quantity int) (bool, error)
	Delete(ctx context.Context, userID, productID int64) (bool, error)
	Clear(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context, userID int64) (int, error)
	Total(ctx context.Context, userID int64) (decimal.Decimal, error)
}
