package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	productrepo "lojavirtual/internal/repository/product"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("repo", "cart").Logger()
	}
	return &postgresRepo{pool: pool, logger: l}
}

const itemColumns = `ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at`

func itemTargets(item *domain.CartItem) []any {
	return []any{&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt}
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	const q = `
SELECT ` + itemColumns + `, ` + productrepo.Columns + `
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("list cart failed")
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		var scanned productrepo.Scanned
		if err := rows.Scan(append(itemTargets(&line.CartItem), scanned.Targets()...)...); err != nil {
			return nil, err
		}
		p, err := scanned.Product()
		if err != nil {
			return nil, err
		}
		line.Product = p
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) Find(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	const q = `
SELECT ` + itemColumns + `
FROM cart_items ci
WHERE ci.user_id = $1 AND ci.product_id = $2
`
	var item domain.CartItem
	if err := r.pool.QueryRow(ctx, q, userID, productID).Scan(itemTargets(&item)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepo) Create(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error) {
	const q = `
INSERT INTO cart_items AS ci (user_id, product_id, quantity)
VALUES ($1, $2, $3)
RETURNING ` + itemColumns
	var item domain.CartItem
	if err := r.pool.QueryRow(ctx, q, userID, productID, quantity).Scan(itemTargets(&item)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msg("create cart item failed")
		return nil, err
	}
	r.logger.Debug().Int64("user_id", userID).Int64("product_id", productID).Int("quantity", quantity).Msg("cart item created")
	return &item, nil
}

func (r *postgresRepo) Update(ctx context.Context, userID, productID int64, quantity int) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE user_id = $1 AND product_id = $2
`, userID, productID, quantity)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, productID int64) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	r.logger.Debug().Int64("user_id", userID).Int64("removed", cmd.RowsAffected()).Msg("cart cleared")
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) Count(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0)::int FROM cart_items WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *postgresRepo) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	const q = `
SELECT COALESCE(SUM(ci.quantity * CASE
        WHEN p.active AND p.promotional_price IS NOT NULL AND p.promotional_price < p.price
        THEN p.promotional_price
        ELSE p.price
    END), 0)::text
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
`
	var raw string
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}
